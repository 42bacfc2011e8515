package structset

import "github.com/danieljhkim/rapidstruct/internal/region"

// SchemaVersion is the current structure set document version.
const SchemaVersion = 1

// Document is the on-disk form of a structure set.
type Document struct {
	// SchemaVersion is the version of this schema
	SchemaVersion int `yaml:"schema_version" validate:"gte=0,lte=1"`

	// Patient identifies the patient the structures belong to
	Patient string `yaml:"patient" validate:"required"`

	// Image identifies the planning image the structures are drawn on
	Image string `yaml:"image" validate:"required"`

	// Structures lists the structures in display order
	Structures []StructureDoc `yaml:"structures" validate:"dive"`
}

// StructureDoc is one structure in a Document.
//
// Voxels are given as inclusive boxes [x0, y0, z0, x1, y1, z1] and as runs
// [x0, x1, y, z] along the x axis. Documents written by Save use runs only.
type StructureDoc struct {
	Name           string          `yaml:"name" validate:"required"`
	Category       region.Category `yaml:"category" validate:"required,oneof=target control avoidance"`
	Spacing        float64         `yaml:"spacing" validate:"gt=0"`
	HighResolution bool            `yaml:"high_resolution,omitempty"`
	Boxes          [][6]int        `yaml:"boxes,omitempty,flow"`
	Runs           [][4]int        `yaml:"runs,omitempty,flow"`
}
