package voxel

import (
	"errors"
	"fmt"
	"math"

	"github.com/danieljhkim/rapidstruct/internal/region"
)

var (
	// ErrForeignRegion indicates a region handle not produced by this package.
	ErrForeignRegion = errors.New("region is not a voxel region")

	// ErrGridMismatch indicates operands with different base spacings.
	ErrGridMismatch = errors.New("regions are on different grids")

	// ErrInvalidMargin indicates a non-finite margin distance.
	ErrInvalidMargin = errors.New("invalid margin distance")
)

// spacingTolerance is the largest base spacing difference, in mm, still
// treated as the same grid.
const spacingTolerance = 1e-6

// Engine implements region.Algebra on voxel regions.
type Engine struct{}

// NewEngine creates an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

var _ region.Algebra = (*Engine)(nil)

func cast(r region.Region) (*Region, error) {
	v, ok := r.(*Region)
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignRegion, r)
	}
	return v, nil
}

// castPair resolves both operands and brings b onto a's resolution.
func castPair(a, b region.Region) (*Region, *Region, error) {
	va, err := cast(a)
	if err != nil {
		return nil, nil, err
	}
	vb, err := cast(b)
	if err != nil {
		return nil, nil, err
	}
	if math.Abs(va.spacing-vb.spacing) > spacingTolerance {
		return nil, nil, fmt.Errorf("%w: %gmm vs %gmm", ErrGridMismatch, va.spacing, vb.spacing)
	}

	switch {
	case va.highRes && !vb.highRes:
		vb = vb.promoted()
	case !va.highRes && vb.highRes:
		vb = vb.demoted()
	}
	return va, vb, nil
}

// Margin expands (mm > 0) or contracts (mm < 0) the region by a spherical
// structuring element.
func (e *Engine) Margin(r region.Region, mm float64) (region.Region, error) {
	v, err := cast(r)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(mm) || math.IsInf(mm, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMargin, mm)
	}

	radius := math.Abs(mm) / v.VoxelSize()
	offsets := ballOffsets(radius)
	if len(offsets) == 1 {
		return v.Clone(), nil
	}

	if mm > 0 {
		return dilate(v, offsets), nil
	}
	return erode(v, offsets), nil
}

// Union returns the voxels in a or b, on a's resolution.
func (e *Engine) Union(a, b region.Region) (region.Region, error) {
	va, vb, err := castPair(a, b)
	if err != nil {
		return nil, err
	}
	out := va.Clone()
	for i := range vb.voxels {
		out.Add(i)
	}
	return out, nil
}

// Intersect returns the voxels in both a and b, on a's resolution.
func (e *Engine) Intersect(a, b region.Region) (region.Region, error) {
	va, vb, err := castPair(a, b)
	if err != nil {
		return nil, err
	}
	out := va.emptyLike()
	for i := range va.voxels {
		if vb.Contains(i) {
			out.Add(i)
		}
	}
	return out, nil
}

// Subtract returns the voxels of a not in b, on a's resolution.
func (e *Engine) Subtract(a, b region.Region) (region.Region, error) {
	va, vb, err := castPair(a, b)
	if err != nil {
		return nil, err
	}
	out := va.emptyLike()
	for i := range va.voxels {
		if !vb.Contains(i) {
			out.Add(i)
		}
	}
	return out, nil
}

// IsHighResolution reports the resolution class of r. Foreign regions
// report false.
func (e *Engine) IsHighResolution(r region.Region) bool {
	v, err := cast(r)
	if err != nil {
		return false
	}
	return v.highRes
}

// PromoteHighResolution returns a high-resolution copy of r.
func (e *Engine) PromoteHighResolution(r region.Region) (region.Region, error) {
	v, err := cast(r)
	if err != nil {
		return nil, err
	}
	return v.promoted(), nil
}

// Volume returns the volume of r in cm³. Foreign regions report 0.
func (e *Engine) Volume(r region.Region) float64 {
	v, err := cast(r)
	if err != nil {
		return 0
	}
	return v.Volume()
}

// ballOffsets lists the voxel offsets within radius (in voxels) of the origin.
func ballOffsets(radius float64) []Index {
	n := int(math.Floor(radius))
	limit := radius * radius
	var offsets []Index
	for dz := -n; dz <= n; dz++ {
		for dy := -n; dy <= n; dy++ {
			for dx := -n; dx <= n; dx++ {
				if float64(dx*dx+dy*dy+dz*dz) <= limit {
					offsets = append(offsets, Index{dx, dy, dz})
				}
			}
		}
	}
	return offsets
}

func dilate(v *Region, offsets []Index) *Region {
	out := v.emptyLike()
	for i := range v.voxels {
		for _, o := range offsets {
			out.Add(Index{i.X + o.X, i.Y + o.Y, i.Z + o.Z})
		}
	}
	return out
}

func erode(v *Region, offsets []Index) *Region {
	out := v.emptyLike()
	for i := range v.voxels {
		inside := true
		for _, o := range offsets {
			if !v.Contains(Index{i.X + o.X, i.Y + o.Y, i.Z + o.Z}) {
				inside = false
				break
			}
		}
		if inside {
			out.Add(i)
		}
	}
	return out
}
