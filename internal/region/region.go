// Package region defines the contracts between the derivation pipeline and
// its two geometry collaborators: the structure store that holds named
// regions, and the algebra that computes new regions from existing ones.
//
// Nothing in this package knows how a region is represented. A Region is an
// opaque handle that only the Algebra that produced it can interpret.
package region

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExists indicates a structure with the same name is already stored.
	ErrExists = errors.New("structure already exists")

	// ErrNotFound indicates a structure is not present in the store.
	ErrNotFound = errors.New("structure not found")
)

// Category tags a structure with its clinical role.
type Category string

const (
	CategoryTarget    Category = "target"
	CategoryControl   Category = "control"
	CategoryAvoidance Category = "avoidance"
)

// ParseCategory accepts the canonical names as well as the planning system
// tags PTV, CONTROL and AVOIDANCE, case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "target", "ptv":
		return CategoryTarget, nil
	case "control":
		return CategoryControl, nil
	case "avoidance", "oar":
		return CategoryAvoidance, nil
	default:
		return "", fmt.Errorf("unknown structure category %q", s)
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTarget, CategoryControl, CategoryAvoidance:
		return true
	}
	return false
}

// UnmarshalText lets categories be decoded from documents using any accepted
// spelling.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// StructureRef identifies a stored structure. Identity is the name.
type StructureRef struct {
	Name     string   `json:"name" yaml:"name"`
	Category Category `json:"category" yaml:"category"`
}

// Region is an opaque volume handle owned by an Algebra.
type Region any

// Store maps structure names to regions. At most one region exists per name.
type Store interface {
	// Find returns the region stored under name.
	Find(name string) (Region, bool)

	// Insert stores r under name. Returns ErrExists if the name is taken.
	Insert(category Category, name string, r Region) (StructureRef, error)

	// Remove deletes the referenced structure. Returns ErrNotFound if absent.
	Remove(ref StructureRef) error

	// Names lists stored structure names in insertion order.
	Names() []string
}

// Algebra is the geometric engine. Every operation returns a new region and
// leaves its operands untouched.
type Algebra interface {
	// Margin expands r by mm millimetres, or contracts it when mm is negative.
	Margin(r Region, mm float64) (Region, error)

	Union(a, b Region) (Region, error)
	Intersect(a, b Region) (Region, error)

	// Subtract returns the part of a not covered by b.
	Subtract(a, b Region) (Region, error)

	// IsHighResolution reports the resolution class of r.
	IsHighResolution(r Region) bool

	// PromoteHighResolution returns a high-resolution copy of r.
	PromoteHighResolution(r Region) (Region, error)

	// Volume returns the size of r in cubic centimetres. Used for reporting.
	Volume(r Region) float64
}
