package mesh

import (
	"fmt"

	"github.com/Faultbox/meshflat/internal/material"
	"github.com/Faultbox/meshflat/pkg/formats"
	"github.com/Faultbox/meshflat/pkg/math"
)

// flattener carries the inputs of one Flatten call.
type flattener struct {
	attrib    *formats.Attrib
	materials []formats.MaterialRecord
	opts      Options
	scene     *Scene

	// slots maps corner tuples to vertex slots in KeyByTuple mode.
	slots map[formats.Index]int64
}

// Flatten converts the shapes of a multi-index mesh into a Scene.
//
// With KeyByPosition the vertex buffer has exactly one slot per source
// position and slot i holds position i. Shapes are processed in order and
// faces in order within a shape, so when several corners share a position
// the last one decides the slot's normal and texcoord.
//
// Every face must have exactly three corners. Any error aborts the import
// and no Scene is returned.
func Flatten(attrib *formats.Attrib, shapes []formats.Shape, materials []formats.MaterialRecord, opts Options) (*Scene, error) {
	f := &flattener{
		attrib:    attrib,
		materials: materials,
		opts:      opts,
		scene:     &Scene{},
	}

	if opts.KeyMode == KeyByTuple {
		f.slots = make(map[formats.Index]int64)
		f.scene.Vertices = make([]FlatVertex, 0, attrib.NumVertices())
	} else {
		f.scene.Vertices = make([]FlatVertex, attrib.NumVertices())
		for i := range f.scene.Vertices {
			f.scene.Vertices[i].Color = DefaultColor
		}
	}

	f.scene.SubMeshes = make([]SubMesh, 0, len(shapes))
	for i := range shapes {
		sub, err := f.flattenShape(i, &shapes[i])
		if err != nil {
			return nil, err
		}
		f.scene.SubMeshes = append(f.scene.SubMeshes, sub)
	}

	f.scene.Bounds = computeBounds(f.scene)
	return f.scene, nil
}

func (f *flattener) flattenShape(shapeIdx int, shape *formats.Shape) (SubMesh, error) {
	m := &shape.Mesh

	faceErr := func(faceIdx int, err error) error {
		corners := 0
		if faceIdx < len(m.NumFaceVertices) {
			corners = m.NumFaceVertices[faceIdx]
		}
		return &FaceError{
			ShapeIndex: shapeIdx,
			ShapeName:  shape.Name,
			FaceIndex:  faceIdx,
			Corners:    corners,
			Err:        err,
		}
	}

	mat, faceIdx, err := f.resolveMaterial(m)
	if err != nil {
		return SubMesh{}, faceErr(faceIdx, err)
	}

	sub := SubMesh{
		Tag:       shape.Name,
		Triangles: make([]Triangle, 0, len(m.NumFaceVertices)),
		Material:  mat,
	}

	offset := 0
	for faceIdx, count := range m.NumFaceVertices {
		if count != 3 {
			return SubMesh{}, faceErr(faceIdx, fmt.Errorf("%w: %d corners, want 3", ErrMalformedFace, count))
		}
		if offset+count > len(m.Indices) {
			return SubMesh{}, faceErr(faceIdx, ErrTruncatedIndices)
		}

		var tri [3]int64
		for c := 0; c < 3; c++ {
			slot, err := f.writeCorner(m.Indices[offset+c])
			if err != nil {
				return SubMesh{}, faceErr(faceIdx, fmt.Errorf("corner %d: %w", c, err))
			}
			tri[c] = slot
		}

		sub.Triangles = append(sub.Triangles, Triangle{A: tri[0], B: tri[1], C: tri[2]})
		offset += count
	}

	return sub, nil
}

// resolveMaterial picks the material of a shape from its first face.
// On error it also returns the index of the offending face.
func (f *flattener) resolveMaterial(m *formats.ShapeMesh) (material.Material, int, error) {
	if f.opts.StrictMaterials && len(m.MaterialIDs) != len(m.NumFaceVertices) {
		return material.Material{}, min(len(m.MaterialIDs), len(m.NumFaceVertices)),
			fmt.Errorf("%w: %d ids for %d faces", ErrMaterialIDCount, len(m.MaterialIDs), len(m.NumFaceVertices))
	}

	if len(m.MaterialIDs) == 0 {
		return material.Normalize(formats.DefaultMaterial()), 0, nil
	}

	id := m.MaterialIDs[0]
	if f.opts.StrictMaterials {
		for i, other := range m.MaterialIDs {
			if other != id {
				return material.Material{}, i, fmt.Errorf("%w: %d then %d", ErrMixedMaterials, id, other)
			}
		}
	}

	switch {
	case id < 0:
		return material.Normalize(formats.DefaultMaterial()), 0, nil
	case id >= len(f.materials):
		if f.opts.StrictMaterials {
			return material.Material{}, 0, fmt.Errorf("%w: %d of %d", ErrMaterialOutOfRange, id, len(f.materials))
		}
		return material.Normalize(formats.DefaultMaterial()), 0, nil
	default:
		return material.Normalize(f.materials[id]), 0, nil
	}
}

// writeCorner stores the attributes of one corner and returns its slot.
func (f *flattener) writeCorner(idx formats.Index) (int64, error) {
	a := f.attrib

	if idx.Vertex < 0 {
		return 0, fmt.Errorf("%w: position", ErrMissingAttribute)
	}
	if idx.Vertex >= a.NumVertices() {
		return 0, fmt.Errorf("%w: position %d of %d", ErrIndexOutOfRange, idx.Vertex, a.NumVertices())
	}

	v := FlatVertex{Color: DefaultColor}
	copy(v.Position[:], a.Vertices[3*idx.Vertex:3*idx.Vertex+3])

	if idx.Normal < 0 {
		if f.opts.MissingAttribute == MissingFail {
			return 0, fmt.Errorf("%w: normal", ErrMissingAttribute)
		}
		idx.Normal = formats.AbsentIndex
	} else {
		if idx.Normal >= a.NumNormals() {
			return 0, fmt.Errorf("%w: normal %d of %d", ErrIndexOutOfRange, idx.Normal, a.NumNormals())
		}
		copy(v.Normal[:], a.Normals[3*idx.Normal:3*idx.Normal+3])
	}

	if idx.TexCoord < 0 {
		if f.opts.MissingAttribute == MissingFail {
			return 0, fmt.Errorf("%w: texcoord", ErrMissingAttribute)
		}
		idx.TexCoord = formats.AbsentIndex
	} else {
		if idx.TexCoord >= a.NumTexCoords() {
			return 0, fmt.Errorf("%w: texcoord %d of %d", ErrIndexOutOfRange, idx.TexCoord, a.NumTexCoords())
		}
		copy(v.TexCoord[:], a.TexCoords[2*idx.TexCoord:2*idx.TexCoord+2])
	}

	if f.opts.KeyMode == KeyByTuple {
		if slot, ok := f.slots[idx]; ok {
			return slot, nil
		}
		slot := int64(len(f.scene.Vertices))
		f.scene.Vertices = append(f.scene.Vertices, v)
		f.slots[idx] = slot
		return slot, nil
	}

	f.scene.Vertices[idx.Vertex] = v
	return int64(idx.Vertex), nil
}

// computeBounds returns the box around every vertex referenced by a triangle.
func computeBounds(s *Scene) Bounds {
	var lo, hi math.Vec3
	found := false

	for i := range s.SubMeshes {
		for _, tri := range s.SubMeshes[i].Triangles {
			for _, idx := range [3]int64{tri.A, tri.B, tri.C} {
				p := math.FromArray(s.Vertices[idx].Position)
				if !found {
					lo, hi = p, p
					found = true
					continue
				}
				lo = lo.Min(p)
				hi = hi.Max(p)
			}
		}
	}

	return Bounds{Min: lo.Array(), Max: hi.Array()}
}
