// Package mesh flattens multi-index meshes into single-index vertex buffers.
package mesh

import (
	"github.com/Faultbox/meshflat/internal/material"
	"github.com/Faultbox/meshflat/pkg/math"
)

// DefaultColor is the vertex color of every slot: opaque white.
var DefaultColor = [4]uint8{255, 255, 255, 255}

// FlatVertex is one entry of the flattened vertex buffer.
type FlatVertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
	Color    [4]uint8
}

// Triangle holds three indices into the flattened vertex buffer.
type Triangle struct {
	A, B, C int64
}

// SubMesh is the triangle list of one input shape and its material.
type SubMesh struct {
	Tag       string
	Triangles []Triangle
	Material  material.Material
}

// Bounds holds the axis-aligned bounding box of the referenced vertices.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Center returns the midpoint of the box.
func (b Bounds) Center() [3]float32 {
	return math.FromArray(b.Min).Add(math.FromArray(b.Max)).Scale(0.5).Array()
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() [3]float32 {
	return math.FromArray(b.Max).Sub(math.FromArray(b.Min)).Array()
}

// Radius returns half the length of the box diagonal.
func (b Bounds) Radius() float32 {
	return math.FromArray(b.Max).Sub(math.FromArray(b.Min)).Length() / 2
}

// Scene is the flattened output. Vertices is shared by all sub-meshes and
// must not be modified after Flatten returns.
type Scene struct {
	Vertices  []FlatVertex
	SubMeshes []SubMesh
	Bounds    Bounds
}

// Stats summarizes a Scene.
type Stats struct {
	Vertices      int
	SubMeshes     int
	Triangles     int
	BoundTextures int
}

// Stats returns vertex, sub-mesh, triangle and bound texture counts.
func (s *Scene) Stats() Stats {
	st := Stats{
		Vertices:  len(s.Vertices),
		SubMeshes: len(s.SubMeshes),
	}
	for i := range s.SubMeshes {
		st.Triangles += len(s.SubMeshes[i].Triangles)
		st.BoundTextures += len(s.SubMeshes[i].Material.BoundTextures())
	}
	return st
}

// KeyMode selects how corners map to vertex slots.
type KeyMode int

const (
	// KeyByPosition keeps one slot per source position. A corner overwrites
	// the normal and texcoord of its position's slot, so the last corner
	// processed for a position wins.
	KeyByPosition KeyMode = iota
	// KeyByTuple allocates one slot per distinct (position, normal, texcoord)
	// triple, in first-seen order.
	KeyByTuple
)

// String returns the config name of the mode.
func (m KeyMode) String() string {
	switch m {
	case KeyByPosition:
		return "position"
	case KeyByTuple:
		return "tuple"
	default:
		return "unknown"
	}
}

// MissingPolicy decides what happens when a corner has no normal or texcoord.
type MissingPolicy int

const (
	// MissingZero substitutes a zero normal or texcoord.
	MissingZero MissingPolicy = iota
	// MissingFail aborts the import with ErrMissingAttribute.
	MissingFail
)

// String returns the config name of the policy.
func (p MissingPolicy) String() string {
	switch p {
	case MissingZero:
		return "zero"
	case MissingFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Options controls Flatten.
type Options struct {
	KeyMode          KeyMode
	MissingAttribute MissingPolicy

	// StrictMaterials requires one material id per face, the same id on
	// every face of a shape, and every id to resolve to a record. Without it
	// the first face decides the material and unresolvable ids fall back to
	// the default.
	StrictMaterials bool
}
