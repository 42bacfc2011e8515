package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danieljhkim/rapidstruct/internal/clock"
	"github.com/danieljhkim/rapidstruct/internal/config"
	"github.com/danieljhkim/rapidstruct/internal/engine"
	"github.com/danieljhkim/rapidstruct/internal/hash"
	"github.com/danieljhkim/rapidstruct/internal/notify"
	"github.com/danieljhkim/rapidstruct/internal/protocol"
	"github.com/danieljhkim/rapidstruct/internal/structset"
	"github.com/danieljhkim/rapidstruct/internal/voxel"
)

// testFS is a filesystem implementation that keeps files in memory for testing
type testFS struct {
	files map[string][]byte
	dirs  map[string]bool
}

func newTestFS() *testFS {
	return &testFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (fs *testFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	for dir := filepath.Dir(path); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		fs.dirs[dir] = true
	}
	fs.files[path] = append([]byte(nil), data...)
	return nil
}

func (fs *testFS) ReadFile(path string) ([]byte, error) {
	if content, ok := fs.files[path]; ok {
		return append([]byte(nil), content...), nil
	}
	return nil, os.ErrNotExist
}

func (fs *testFS) Exists(path string) (bool, error) {
	_, hasFile := fs.files[path]
	return hasFile || fs.dirs[path], nil
}

func (fs *testFS) ValidateIdentifier(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, "..") {
		return fmt.Errorf("invalid identifier: %q", id)
	}
	return nil
}

// testEnv bundles the collaborators of an end-to-end run.
type testEnv struct {
	eng      *engine.Engine
	fs       *testFS
	files    *structset.Files
	notifier *notify.Recorder
	paths    *config.Paths
}

// setupTestEngine wires a real voxel engine to in-memory storage.
func setupTestEngine(t *testing.T) *testEnv {
	t.Helper()

	fs := newTestFS()
	paths := config.PathsAt("/rapidstruct")
	rec := notify.NewRecorder()
	clk := clock.NewTickingClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), time.Second)

	return &testEnv{
		eng:      engine.New(voxel.NewEngine(), rec, fs, clk, *paths),
		fs:       fs,
		files:    structset.NewFiles(fs, hash.NewSHA256Hasher()),
		notifier: rec,
		paths:    paths,
	}
}

// loadSet writes doc into the in-memory filesystem and loads it back.
func (env *testEnv) loadSet(t *testing.T, path, doc string) *structset.StructureSet {
	t.Helper()
	env.fs.files[path] = []byte(doc)
	set, err := env.files.Load(path)
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", path, err)
	}
	return set
}

func defaultProtocol(t *testing.T) *protocol.Protocol {
	t.Helper()
	p, err := protocol.NewRegistry(nil).Get(protocol.DefaultName)
	if err != nil {
		t.Fatalf("failed to load default protocol: %v", err)
	}
	return p
}

// voxelRegion returns a stored region as a voxel region.
func voxelRegion(t *testing.T, set *structset.StructureSet, name string) *voxel.Region {
	t.Helper()
	r, ok := set.Structures.Find(name)
	if !ok {
		t.Fatalf("structure %q not found", name)
	}
	v, ok := r.(*voxel.Region)
	if !ok {
		t.Fatalf("structure %q is %T", name, r)
	}
	return v
}

// headNeckDoc is a synthetic 2mm-grid head-and-neck structure set.
// PTVs are nested cubes centred in the body; OARs sit around them.
const headNeckDoc = `
schema_version: 1
patient: HN-TEST-01
image: CT_PLAN
structures:
  - {name: Body, category: control, spacing: 2, boxes: [[0, 0, 0, 49, 49, 49]]}
  - {name: PTV_7000, category: PTV, spacing: 2, boxes: [[20, 20, 20, 29, 29, 29]]}
  - {name: PTV_6125, category: PTV, spacing: 2, boxes: [[15, 15, 15, 34, 34, 34]]}
  - {name: PTV_5600, category: PTV, spacing: 2, boxes: [[10, 10, 10, 39, 39, 39]]}
  - {name: Parotid L, category: avoidance, spacing: 2, boxes: [[4, 18, 18, 12, 26, 26]]}
  - {name: Parotid R, category: avoidance, spacing: 2, boxes: [[37, 18, 18, 45, 26, 26]]}
  - {name: Pharynx, category: avoidance, spacing: 2, boxes: [[22, 36, 20, 27, 44, 30]]}
  - {name: Brainstem, category: avoidance, spacing: 2, boxes: [[22, 22, 42, 27, 27, 47]]}
  - {name: Spinal Cord, category: avoidance, spacing: 2, boxes: [[24, 42, 2, 25, 43, 40]]}
`
