// Package structset reads and writes structure set documents.
//
// A structure set is the host's persistent collection of named regions for
// one patient image. Documents are YAML; regions are decoded into voxel
// regions held by a region.MemStore.
package structset

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/rapidstruct/internal/engine"
	"github.com/danieljhkim/rapidstruct/internal/fsops"
	"github.com/danieljhkim/rapidstruct/internal/hash"
	"github.com/danieljhkim/rapidstruct/internal/region"
	"github.com/danieljhkim/rapidstruct/internal/voxel"
)

// ErrInvalid indicates a structure set document failed validation.
var ErrInvalid = errors.New("invalid structure set")

var documentValidate = validator.New(validator.WithRequiredStructEnabled())

// StructureSet is a loaded structure set.
type StructureSet struct {
	Patient    string
	Image      string
	Structures *region.MemStore

	// Digest is the SHA-256 of the document the set was loaded from
	Digest string
}

// Context returns the host context a pipeline run operates on.
func (s *StructureSet) Context() *engine.HostContext {
	return &engine.HostContext{
		PatientID:  s.Patient,
		ImageID:    s.Image,
		Structures: s.Structures,
		Digest:     s.Digest,
	}
}

// Files loads and saves structure set documents.
type Files struct {
	fs     fsops.FS
	hasher hash.Hasher
}

// NewFiles creates a Files backed by fs.
func NewFiles(fs fsops.FS, hasher hash.Hasher) *Files {
	return &Files{fs: fs, hasher: hasher}
}

// Load reads the document at path.
func (f *Files) Load(path string) (*StructureSet, error) {
	data, err := f.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("structure set %s does not exist", path)
		}
		return nil, fmt.Errorf("failed to read structure set: %w", err)
	}

	set, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	set.Digest = f.hasher.HashBytes(data)
	return set, nil
}

// Save writes the set to path atomically and returns the digest of the
// written document.
func (f *Files) Save(path string, set *StructureSet) (string, error) {
	data, err := Encode(set)
	if err != nil {
		return "", err
	}
	if err := f.fs.AtomicWrite(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write structure set: %w", err)
	}
	return f.hasher.HashBytes(data), nil
}

// Decode parses a structure set document.
func Decode(data []byte) (*StructureSet, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := documentValidate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	store := region.NewMemStore()
	for i, s := range doc.Structures {
		r, err := s.region()
		if err != nil {
			return nil, fmt.Errorf("%w: structures[%d] %q: %v", ErrInvalid, i, s.Name, err)
		}
		if _, err := store.Insert(s.Category, s.Name, r); err != nil {
			return nil, fmt.Errorf("%w: structures[%d]: %v", ErrInvalid, i, err)
		}
	}

	return &StructureSet{
		Patient:    doc.Patient,
		Image:      doc.Image,
		Structures: store,
	}, nil
}

// Encode renders the set as a document. Every stored region must be a
// voxel region.
func Encode(set *StructureSet) ([]byte, error) {
	doc := Document{
		SchemaVersion: SchemaVersion,
		Patient:       set.Patient,
		Image:         set.Image,
		Structures:    []StructureDoc{},
	}

	for _, name := range set.Structures.Names() {
		ref, _ := set.Structures.Ref(name)
		r, _ := set.Structures.Find(name)
		v, ok := r.(*voxel.Region)
		if !ok {
			return nil, fmt.Errorf("structure %q: %w", name, voxel.ErrForeignRegion)
		}
		doc.Structures = append(doc.Structures, StructureDoc{
			Name:           name,
			Category:       ref.Category,
			Spacing:        v.Spacing(),
			HighResolution: v.HighResolution(),
			Runs:           runs(v),
		})
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode structure set: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode structure set: %w", err)
	}
	return buf.Bytes(), nil
}

func (s StructureDoc) region() (*voxel.Region, error) {
	r := voxel.NewRegion(s.Spacing, s.HighResolution)
	for _, b := range s.Boxes {
		if b[0] > b[3] || b[1] > b[4] || b[2] > b[5] {
			return nil, fmt.Errorf("box %v has lower corner above upper corner", b)
		}
		r.AddBox(voxel.Index{X: b[0], Y: b[1], Z: b[2]}, voxel.Index{X: b[3], Y: b[4], Z: b[5]})
	}
	for _, run := range s.Runs {
		if run[0] > run[1] {
			return nil, fmt.Errorf("run %v starts after it ends", run)
		}
		r.AddBox(voxel.Index{X: run[0], Y: run[2], Z: run[3]}, voxel.Index{X: run[1], Y: run[2], Z: run[3]})
	}
	return r, nil
}

// runs encodes a region as maximal x runs in z, y, x order.
func runs(r *voxel.Region) [][4]int {
	var out [][4]int
	for _, i := range r.Indices() {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last[2] == i.Y && last[3] == i.Z && last[1]+1 == i.X {
				last[1] = i.X
				continue
			}
		}
		out = append(out, [4]int{i.X, i.X, i.Y, i.Z})
	}
	return out
}
