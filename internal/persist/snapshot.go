// Package persist keeps snapshots of structure set documents taken before a
// run overwrites them, so a run can be undone by hand.
package persist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/rapidstruct/internal/fsops"
	"github.com/danieljhkim/rapidstruct/internal/hash"
)

var (
	// ErrNoSnapshot indicates no snapshot exists for the run.
	ErrNoSnapshot = errors.New("snapshot not found")

	// ErrCorrupt indicates a snapshot no longer matches its recorded digest.
	ErrCorrupt = errors.New("snapshot digest mismatch")
)

// SnapshotManager copies structure set documents to and from the snapshot
// directory (~/.rapidstruct/snapshots/<run-id>.yaml). The digest of each
// snapshot is recorded next to it in <run-id>.sha256.
type SnapshotManager struct {
	fs     fsops.FS
	hasher hash.Hasher
	dir    string
}

// NewSnapshotManager creates a new SnapshotManager rooted at dir.
func NewSnapshotManager(fs fsops.FS, hasher hash.Hasher, dir string) *SnapshotManager {
	return &SnapshotManager{fs: fs, hasher: hasher, dir: dir}
}

// Path returns the snapshot file for a run.
func (s *SnapshotManager) Path(runID string) string {
	return filepath.Join(s.dir, runID+".yaml")
}

// DigestPath returns the file holding the recorded digest of a run's snapshot.
func (s *SnapshotManager) DigestPath(runID string) string {
	return filepath.Join(s.dir, runID+".sha256")
}

// Take copies the document at source into the snapshot for runID, records
// its digest and returns it. A missing source is not an error: there is nothing
// to preserve, and the empty digest is returned.
func (s *SnapshotManager) Take(runID, source string) (string, error) {
	if err := s.fs.ValidateIdentifier(runID); err != nil {
		return "", fmt.Errorf("invalid run ID: %w", err)
	}

	exists, err := s.fs.Exists(source)
	if err != nil {
		return "", fmt.Errorf("failed to check %s: %w", source, err)
	}
	if !exists {
		return "", nil
	}

	data, err := s.fs.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", source, err)
	}
	if err := s.fs.AtomicWrite(s.Path(runID), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	digest := s.hasher.HashBytes(data)
	if err := s.fs.AtomicWrite(s.DigestPath(runID), []byte(digest+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to record snapshot digest: %w", err)
	}
	return digest, nil
}

// Restore writes the snapshot for runID over target.
func (s *SnapshotManager) Restore(runID, target string) error {
	data, err := s.read(runID)
	if err != nil {
		return err
	}
	if err := s.fs.AtomicWrite(target, data, 0644); err != nil {
		return fmt.Errorf("failed to restore %s: %w", target, err)
	}
	return nil
}

// Verify checks the snapshot for runID against the digest recorded by Take.
// A missing digest file counts as corruption.
func (s *SnapshotManager) Verify(runID string) error {
	data, err := s.read(runID)
	if err != nil {
		return err
	}

	recorded, err := s.fs.ReadFile(s.DigestPath(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: run %s has no recorded digest", ErrCorrupt, runID)
		}
		return fmt.Errorf("failed to read snapshot digest: %w", err)
	}

	want := strings.TrimSpace(string(recorded))
	if got := s.hasher.HashBytes(data); got != want {
		return fmt.Errorf("%w: run %s has %s, expected %s", ErrCorrupt, runID, got, want)
	}
	return nil
}

func (s *SnapshotManager) read(runID string) ([]byte, error) {
	if err := s.fs.ValidateIdentifier(runID); err != nil {
		return nil, fmt.Errorf("invalid run ID: %w", err)
	}

	data, err := s.fs.ReadFile(s.Path(runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: run %s", ErrNoSnapshot, runID)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}
