package mesh

import (
	"errors"
	"fmt"
)

// Flatten errors. All of them abort the whole import.
var (
	ErrMalformedFace      = errors.New("malformed face")
	ErrTruncatedIndices   = errors.New("face corners exceed index list")
	ErrMissingAttribute   = errors.New("missing vertex attribute")
	ErrIndexOutOfRange    = errors.New("attribute index out of range")
	ErrMixedMaterials     = errors.New("faces of one shape use different materials")
	ErrMaterialOutOfRange = errors.New("material id out of range")
	ErrMaterialIDCount    = errors.New("material id count differs from face count")
)

// FaceError reports the face that stopped an import.
type FaceError struct {
	ShapeIndex int
	ShapeName  string
	FaceIndex  int
	Corners    int // corner count of the face
	Err        error
}

func (e *FaceError) Error() string {
	return fmt.Sprintf("shape %d %q: face %d (%d corners): %v",
		e.ShapeIndex, e.ShapeName, e.FaceIndex, e.Corners, e.Err)
}

func (e *FaceError) Unwrap() error {
	return e.Err
}
