// Package voxel is a reference geometry engine for rapidstruct.
//
// Regions are sparse sets of cubic voxels on an axis-aligned grid. A region
// has a base spacing in millimetres and a resolution class; high-resolution
// regions subdivide every base voxel into 2×2×2 voxels. The Engine type
// implements region.Algebra over these regions.
package voxel

import (
	"cmp"
	"slices"
)

// Index addresses one voxel in a region's own grid.
type Index struct {
	X, Y, Z int
}

// Region is a set of voxels.
type Region struct {
	spacing float64
	highRes bool
	voxels  map[Index]struct{}
}

// NewRegion creates an empty region with the given base spacing in mm.
func NewRegion(spacing float64, highRes bool) *Region {
	return &Region{
		spacing: spacing,
		highRes: highRes,
		voxels:  make(map[Index]struct{}),
	}
}

// Add inserts one voxel.
func (r *Region) Add(i Index) {
	r.voxels[i] = struct{}{}
}

// AddBox inserts every voxel in the inclusive box [lo, hi].
func (r *Region) AddBox(lo, hi Index) {
	for z := lo.Z; z <= hi.Z; z++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for x := lo.X; x <= hi.X; x++ {
				r.Add(Index{x, y, z})
			}
		}
	}
}

// Contains reports whether the voxel is part of the region.
func (r *Region) Contains(i Index) bool {
	_, ok := r.voxels[i]
	return ok
}

// Len returns the number of voxels.
func (r *Region) Len() int {
	return len(r.voxels)
}

// Empty reports whether the region has no voxels.
func (r *Region) Empty() bool {
	return len(r.voxels) == 0
}

// Spacing returns the base voxel edge length in mm.
func (r *Region) Spacing() float64 {
	return r.spacing
}

// HighResolution reports the resolution class.
func (r *Region) HighResolution() bool {
	return r.highRes
}

// VoxelSize returns the edge length of one voxel at the region's resolution.
func (r *Region) VoxelSize() float64 {
	if r.highRes {
		return r.spacing / 2
	}
	return r.spacing
}

// Volume returns the region volume in cm³.
func (r *Region) Volume() float64 {
	edge := r.VoxelSize()
	return float64(len(r.voxels)) * edge * edge * edge / 1000
}

// Indices returns the voxels sorted by z, then y, then x.
func (r *Region) Indices() []Index {
	out := make([]Index, 0, len(r.voxels))
	for i := range r.voxels {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b Index) int {
		if c := cmp.Compare(a.Z, b.Z); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	return out
}

// Clone returns a deep copy.
func (r *Region) Clone() *Region {
	c := NewRegion(r.spacing, r.highRes)
	for i := range r.voxels {
		c.voxels[i] = struct{}{}
	}
	return c
}

// emptyLike returns an empty region on the same grid.
func (r *Region) emptyLike() *Region {
	return NewRegion(r.spacing, r.highRes)
}

// promoted returns the region subdivided to high resolution.
func (r *Region) promoted() *Region {
	if r.highRes {
		return r.Clone()
	}
	out := NewRegion(r.spacing, true)
	for i := range r.voxels {
		for dz := 0; dz < 2; dz++ {
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					out.Add(Index{2*i.X + dx, 2*i.Y + dy, 2*i.Z + dz})
				}
			}
		}
	}
	return out
}

// demoted returns the region on the base grid. A base voxel is included
// when any of its sub-voxels is.
func (r *Region) demoted() *Region {
	if !r.highRes {
		return r.Clone()
	}
	out := NewRegion(r.spacing, false)
	for i := range r.voxels {
		// arithmetic shift floors negative indices as well
		out.Add(Index{i.X >> 1, i.Y >> 1, i.Z >> 1})
	}
	return out
}
