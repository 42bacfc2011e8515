// Package config manages rapidstruct filesystem paths.
//
// The default root is ~/.rapidstruct/ containing protocols/ for site-specific
// derivation protocols, reports/ for run reports and snapshots/ for
// pre-run copies of structure sets. The root can be moved
// with the RAPIDSTRUCT_ROOT environment variable.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// RootEnv is the environment variable that overrides the root directory.
const RootEnv = "RAPIDSTRUCT_ROOT"

// Paths contains all the filesystem paths used by rapidstruct.
type Paths struct {
	// Root is the base directory for all rapidstruct data (default: ~/.rapidstruct)
	Root string

	// Protocols is the directory holding user protocol YAML files
	Protocols string

	// Reports is the directory run reports are written to
	Reports string

	// Snapshots holds copies of structure sets taken before a run saved over them
	Snapshots string

	// Config is the path to the global config file
	Config string
}

// DefaultPaths returns the default paths for rapidstruct.
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(RootEnv)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".rapidstruct")
	}

	return PathsAt(root), nil
}

// PathsAt returns the layout rooted at root.
func PathsAt(root string) *Paths {
	return &Paths{
		Root:      root,
		Protocols: filepath.Join(root, "protocols"),
		Reports:   filepath.Join(root, "reports"),
		Snapshots: filepath.Join(root, "snapshots"),
		Config:    filepath.Join(root, "config.yaml"),
	}
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.Root, p.Protocols, p.Reports, p.Snapshots} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ReportPath returns the report file path for a run.
func (p *Paths) ReportPath(runID string) string {
	return filepath.Join(p.Reports, runID+".json")
}
