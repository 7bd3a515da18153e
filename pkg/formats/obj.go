package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/meshflat/pkg/encoding"
)

// OBJ format errors.
var (
	ErrInvalidOBJ   = errors.New("invalid OBJ data")
	ErrInvalidIndex = errors.New("invalid OBJ index")
)

// AbsentIndex marks a corner attribute that the face does not supply.
const AbsentIndex = -1

// Attrib holds the flat attribute arrays shared by every shape of an OBJ file.
type Attrib struct {
	Vertices  []float32 // x, y, z per position
	Normals   []float32 // x, y, z per normal
	TexCoords []float32 // u, v per texture coordinate
}

// NumVertices returns the number of positions.
func (a *Attrib) NumVertices() int { return len(a.Vertices) / 3 }

// NumNormals returns the number of normals.
func (a *Attrib) NumNormals() int { return len(a.Normals) / 3 }

// NumTexCoords returns the number of texture coordinates.
func (a *Attrib) NumTexCoords() int { return len(a.TexCoords) / 2 }

// Index addresses one face corner. Each field is a 0-based index into its
// attribute array, or AbsentIndex.
type Index struct {
	Vertex   int
	Normal   int
	TexCoord int
}

// ShapeMesh holds the faces of one shape.
type ShapeMesh struct {
	Indices         []Index // corners of all faces, face after face
	NumFaceVertices []int   // corner count per face
	MaterialIDs     []int   // material per face, AbsentIndex when none is bound
}

// Shape is a named group of faces (an "o" or "g" block).
type Shape struct {
	Name string
	Mesh ShapeMesh
}

// NumFaces returns the number of faces in the shape.
func (s *Shape) NumFaces() int { return len(s.Mesh.NumFaceVertices) }

// OBJ represents a parsed Wavefront OBJ file together with its materials.
type OBJ struct {
	Attrib
	Shapes       []Shape
	Materials    []MaterialRecord
	MaterialLibs []string // mtllib references, in file order
	Warnings     []string // non-fatal problems found while parsing
}

// MaterialLibOpener opens a material library referenced by "mtllib".
type MaterialLibOpener func(name string) (io.ReadCloser, error)

// OBJOptions controls OBJ parsing.
type OBJOptions struct {
	// OpenMaterialLib resolves mtllib references. When nil, mtllib lines are
	// recorded but no materials are loaded.
	OpenMaterialLib MaterialLibOpener

	// DecodeName converts object, group and material names to UTF-8.
	DecodeName encoding.NameDecoder
}

// LoadOBJ reads an OBJ file from disk. Material libraries are resolved
// relative to the directory of path unless opts.OpenMaterialLib is set.
func LoadOBJ(path string, opts OBJOptions) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if opts.OpenMaterialLib == nil {
		dir := filepath.Dir(path)
		opts.OpenMaterialLib = func(name string) (io.ReadCloser, error) {
			return os.Open(filepath.Join(dir, filepath.FromSlash(name)))
		}
	}

	obj, err := ParseOBJ(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obj, nil
}

// objReader holds parser state while scanning an OBJ stream.
type objReader struct {
	opts     OBJOptions
	obj      *OBJ
	current  Shape
	material int
	matIndex map[string]int
}

// ParseOBJ parses OBJ data. Faces are kept with their original corner count;
// no triangulation is performed.
func ParseOBJ(r io.Reader, opts OBJOptions) (*OBJ, error) {
	if opts.DecodeName == nil {
		opts.DecodeName = encoding.Identity
	}

	p := &objReader{
		opts:     opts,
		obj:      &OBJ{},
		material: AbsentIndex,
		matIndex: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}
		if err := p.parseLine(tokens); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	p.flushShape()
	return p.obj, nil
}

func (p *objReader) parseLine(tokens []string) error {
	switch tokens[0] {
	case "v":
		v, err := parseFloats(tokens, 3)
		if err != nil {
			return err
		}
		p.obj.Vertices = append(p.obj.Vertices, v...)
	case "vn":
		v, err := parseFloats(tokens, 3)
		if err != nil {
			return err
		}
		p.obj.Normals = append(p.obj.Normals, v...)
	case "vt":
		v, err := parseFloats(tokens, 2)
		if err != nil {
			return err
		}
		p.obj.TexCoords = append(p.obj.TexCoords, v...)
	case "f":
		return p.parseFace(tokens)
	case "o", "g":
		p.flushShape()
		if len(tokens) > 1 {
			p.current.Name = p.opts.DecodeName(strings.Join(tokens[1:], " "))
		}
	case "usemtl":
		if len(tokens) < 2 {
			return fmt.Errorf("%w: usemtl needs a material name", ErrInvalidOBJ)
		}
		name := p.opts.DecodeName(strings.Join(tokens[1:], " "))
		id, ok := p.matIndex[name]
		if !ok {
			p.warnf("material %q not found, faces use no material", name)
			id = AbsentIndex
		}
		p.material = id
	case "mtllib":
		if len(tokens) < 2 {
			return fmt.Errorf("%w: mtllib needs a file name", ErrInvalidOBJ)
		}
		for _, lib := range tokens[1:] {
			if err := p.loadMaterialLib(lib); err != nil {
				return err
			}
		}
	default:
		// s, l, p, curv and friends carry nothing the flattener consumes.
	}
	return nil
}

// flushShape closes the current shape. Shapes without faces are dropped.
func (p *objReader) flushShape() {
	if len(p.current.Mesh.NumFaceVertices) > 0 {
		p.obj.Shapes = append(p.obj.Shapes, p.current)
	}
	p.current = Shape{}
}

// parseFace reads one "f" line. Supported corner forms are v, v/t, v//n and v/t/n.
// Indices are 1-based, negative values count back from the end of the
// attribute list parsed so far.
func (p *objReader) parseFace(tokens []string) error {
	if len(tokens) < 2 {
		return fmt.Errorf("%w: face without corners", ErrInvalidOBJ)
	}

	corners := tokens[1:]
	for i, corner := range corners {
		idx, err := p.parseCorner(corner)
		if err != nil {
			return fmt.Errorf("face corner %d %q: %w", i, corner, err)
		}
		p.current.Mesh.Indices = append(p.current.Mesh.Indices, idx)
	}

	p.current.Mesh.NumFaceVertices = append(p.current.Mesh.NumFaceVertices, len(corners))
	p.current.Mesh.MaterialIDs = append(p.current.Mesh.MaterialIDs, p.material)
	return nil
}

func (p *objReader) parseCorner(corner string) (Index, error) {
	idx := Index{Vertex: AbsentIndex, Normal: AbsentIndex, TexCoord: AbsentIndex}

	parts := strings.Split(corner, "/")
	if len(parts) > 3 || parts[0] == "" {
		return idx, ErrInvalidIndex
	}

	var err error
	if idx.Vertex, err = resolveIndex(parts[0], p.obj.NumVertices()); err != nil {
		return idx, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if idx.TexCoord, err = resolveIndex(parts[1], p.obj.NumTexCoords()); err != nil {
			return idx, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if idx.Normal, err = resolveIndex(parts[2], p.obj.NumNormals()); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

// resolveIndex converts an OBJ index token to a 0-based index. Positive
// indices are not bounds checked here, the consumer validates them against
// the final attribute arrays.
func resolveIndex(token string, count int) (int, error) {
	v, err := strconv.Atoi(token)
	if err != nil {
		return AbsentIndex, fmt.Errorf("%w: %v", ErrInvalidIndex, err)
	}
	switch {
	case v > 0:
		return v - 1, nil
	case v < 0 && count+v >= 0:
		return count + v, nil
	default:
		return AbsentIndex, fmt.Errorf("%w: %d with %d elements defined", ErrInvalidIndex, v, count)
	}
}

func (p *objReader) loadMaterialLib(name string) error {
	p.obj.MaterialLibs = append(p.obj.MaterialLibs, name)
	if p.opts.OpenMaterialLib == nil {
		return nil
	}

	rc, err := p.opts.OpenMaterialLib(name)
	if err != nil {
		p.warnf("material library %q: %v", name, err)
		return nil
	}
	defer rc.Close()

	records, err := ParseMTL(rc, p.opts.DecodeName)
	if err != nil {
		return fmt.Errorf("mtllib %q: %w", name, err)
	}

	for _, rec := range records {
		if _, exists := p.matIndex[rec.Name]; exists {
			p.warnf("material %q redefined in %q, keeping the first definition", rec.Name, name)
			continue
		}
		p.obj.Materials = append(p.obj.Materials, rec)
		p.matIndex[rec.Name] = len(p.obj.Materials) - 1
	}
	return nil
}

func (p *objReader) warnf(format string, args ...any) {
	p.obj.Warnings = append(p.obj.Warnings, fmt.Sprintf(format, args...))
}

// parseFloats reads the first n numeric arguments of a statement.
// Extra arguments (w, vertex colors) are ignored.
func parseFloats(tokens []string, n int) ([]float32, error) {
	if len(tokens) < n+1 {
		return nil, fmt.Errorf("%w: %q expects %d values, got %d", ErrInvalidOBJ, tokens[0], n, len(tokens)-1)
	}

	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(tokens[i+1], 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q value %d: %v", ErrInvalidOBJ, tokens[0], i, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}
