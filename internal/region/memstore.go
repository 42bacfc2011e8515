package region

import (
	"fmt"
	"slices"
)

type entry struct {
	ref    StructureRef
	region Region
}

// MemStore is an in-memory Store that preserves insertion order.
// It is not safe for concurrent use; a pipeline run owns its store.
type MemStore struct {
	entries map[string]entry
	order   []string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		entries: make(map[string]entry),
	}
}

// Find returns the region stored under name.
func (s *MemStore) Find(name string) (Region, bool) {
	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.region, true
}

// Insert stores r under name.
func (s *MemStore) Insert(category Category, name string, r Region) (StructureRef, error) {
	if name == "" {
		return StructureRef{}, fmt.Errorf("structure name must not be empty")
	}
	if _, ok := s.entries[name]; ok {
		return StructureRef{}, fmt.Errorf("%w: %q", ErrExists, name)
	}

	ref := StructureRef{Name: name, Category: category}
	s.entries[name] = entry{ref: ref, region: r}
	s.order = append(s.order, name)
	return ref, nil
}

// Remove deletes the referenced structure.
func (s *MemStore) Remove(ref StructureRef) error {
	if _, ok := s.entries[ref.Name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, ref.Name)
	}
	delete(s.entries, ref.Name)
	if i := slices.Index(s.order, ref.Name); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return nil
}

// Names lists stored structure names in insertion order.
func (s *MemStore) Names() []string {
	return slices.Clone(s.order)
}

// Ref returns the reference for a stored structure.
func (s *MemStore) Ref(name string) (StructureRef, bool) {
	e, ok := s.entries[name]
	if !ok {
		return StructureRef{}, false
	}
	return e.ref, true
}

// Len returns the number of stored structures.
func (s *MemStore) Len() int {
	return len(s.order)
}
