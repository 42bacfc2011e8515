package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/danieljhkim/rapidstruct/internal/clock"
	"github.com/danieljhkim/rapidstruct/internal/config"
	"github.com/danieljhkim/rapidstruct/internal/engine"
	"github.com/danieljhkim/rapidstruct/internal/fsops"
	"github.com/danieljhkim/rapidstruct/internal/hash"
	"github.com/danieljhkim/rapidstruct/internal/notify"
	"github.com/danieljhkim/rapidstruct/internal/persist"
	"github.com/danieljhkim/rapidstruct/internal/protocol"
	"github.com/danieljhkim/rapidstruct/internal/structset"
	"github.com/danieljhkim/rapidstruct/internal/voxel"
)

// loadPaths returns the configured paths with their directories created.
func loadPaths() (*config.Paths, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	return paths, nil
}

// newEngine creates an engine with real implementations of all dependencies.
func newEngine(paths *config.Paths, notifier notify.Notifier) *engine.Engine {
	return engine.New(voxel.NewEngine(), notifier, fsops.NewRealFS(), &clock.RealClock{}, *paths)
}

// newStructureFiles creates the structure set reader/writer.
func newStructureFiles() *structset.Files {
	return structset.NewFiles(fsops.NewRealFS(), hash.NewSHA256Hasher())
}

// newSnapshots creates the snapshot manager for pre-run copies.
func newSnapshots(paths *config.Paths) *persist.SnapshotManager {
	return persist.NewSnapshotManager(fsops.NewRealFS(), hash.NewSHA256Hasher(), paths.Snapshots)
}

// newRegistry resolves protocols from the built-ins and the user directory.
func newRegistry(paths *config.Paths) *protocol.Registry {
	return protocol.NewRegistry(os.DirFS(paths.Protocols))
}

// loadProtocol loads the protocol from file when given, otherwise by name.
func loadProtocol(paths *config.Paths, name, file string) (*protocol.Protocol, error) {
	if file == "" {
		return newRegistry(paths).Get(name)
	}

	data, err := fsops.NewRealFS().ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol file: %w", err)
	}
	p, err := protocol.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return p, nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON writes a value as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
