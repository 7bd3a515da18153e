package mesh

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/Faultbox/meshflat/internal/material"
)

// Scene file errors.
var (
	ErrInvalidSceneMagic       = errors.New("invalid scene magic: expected 'MSH1'")
	ErrUnsupportedSceneVersion = errors.New("unsupported scene version")
	ErrTruncatedScene          = errors.New("truncated scene data")
	ErrStringTooLong           = errors.New("string exceeds 65535 bytes")
)

const (
	sceneMagic   = "MSH1"
	sceneVersion = uint16(1)

	// readChunk bounds how many elements are allocated ahead of the data.
	readChunk = 4096
)

// sceneHeader is the fixed-size start of a scene file.
type sceneHeader struct {
	Magic        [4]byte
	Version      uint16
	_            uint16
	VertexCount  uint32
	SubMeshCount uint32
	BoundsMin    [3]float32
	BoundsMax    [3]float32
}

// Encode writes the scene in the binary scene format. All values are
// little-endian. The same Scene always encodes to the same bytes.
//
// Layout:
//
//	header
//	vertices        VertexCount x 36 bytes (position, normal, texcoord, color)
//	sub-meshes      tag, u32 triangle count, triangles (3 x int64), material
//	material        tag, u16 count + (tag, [3]f32) vectors, u16 count +
//	                (tag, f32) scalars, u16 count + (tag, path) textures
//
// Strings are a u16 byte length followed by the bytes.
func (s *Scene) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	enc := &encoder{w: bw}

	hdr := sceneHeader{
		Version:      sceneVersion,
		VertexCount:  uint32(len(s.Vertices)),
		SubMeshCount: uint32(len(s.SubMeshes)),
		BoundsMin:    s.Bounds.Min,
		BoundsMax:    s.Bounds.Max,
	}
	copy(hdr.Magic[:], sceneMagic)

	enc.write(&hdr)
	enc.write(s.Vertices)

	for i := range s.SubMeshes {
		sub := &s.SubMeshes[i]
		enc.writeString(sub.Tag)
		enc.write(uint32(len(sub.Triangles)))
		enc.write(sub.Triangles)
		enc.writeMaterial(&sub.Material)
	}

	if enc.err != nil {
		return enc.err
	}
	return bw.Flush()
}

// WriteFile encodes the scene to path, creating parent directories.
// The scene goes to a temporary file that is renamed over path once
// complete, so a failed write leaves any existing file untouched.
func (s *Scene) WriteFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if err := s.Encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// encoder keeps the first write error so call sites stay linear.
type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) write(v any) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *encoder) writeString(s string) {
	if e.err != nil {
		return
	}
	if len(s) > math.MaxUint16 {
		e.err = fmt.Errorf("%w: %.32q...", ErrStringTooLong, s)
		return
	}
	e.write(uint16(len(s)))
	if e.err == nil {
		_, e.err = io.WriteString(e.w, s)
	}
}

func (e *encoder) writeMaterial(m *material.Material) {
	e.writeString(m.Tag)

	e.write(uint16(len(m.Vectors)))
	for _, u := range m.Vectors {
		e.writeString(u.Tag)
		e.write(u.Value)
	}

	e.write(uint16(len(m.Scalars)))
	for _, u := range m.Scalars {
		e.writeString(u.Tag)
		e.write(u.Value)
	}

	e.write(uint16(len(m.Textures)))
	for _, u := range m.Textures {
		e.writeString(u.Tag)
		e.writeString(u.Path)
	}
}

// DecodeScene reads a scene written by Encode.
func DecodeScene(r io.Reader) (*Scene, error) {
	dec := &decoder{r: bufio.NewReader(r)}

	var hdr sceneHeader
	if err := dec.read(&hdr); err != nil {
		return nil, err
	}
	if string(hdr.Magic[:]) != sceneMagic {
		return nil, ErrInvalidSceneMagic
	}
	if hdr.Version != sceneVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSceneVersion, hdr.Version)
	}

	scene := &Scene{
		Bounds: Bounds{Min: hdr.BoundsMin, Max: hdr.BoundsMax},
	}

	var err error
	if scene.Vertices, err = readSlice[FlatVertex](dec, int(hdr.VertexCount)); err != nil {
		return nil, fmt.Errorf("reading vertices: %w", err)
	}

	scene.SubMeshes = make([]SubMesh, 0, min(int(hdr.SubMeshCount), readChunk))
	for i := 0; i < int(hdr.SubMeshCount); i++ {
		var sub SubMesh
		if err := dec.readSubMesh(&sub, len(scene.Vertices)); err != nil {
			return nil, fmt.Errorf("reading sub-mesh %d: %w", i, err)
		}
		scene.SubMeshes = append(scene.SubMeshes, sub)
	}

	return scene, nil
}

// ReadFile decodes the scene file at path.
func ReadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeScene(f)
}

type decoder struct {
	r io.Reader
}

func (d *decoder) read(v any) error {
	if err := binary.Read(d.r, binary.LittleEndian, v); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrTruncatedScene
		}
		return err
	}
	return nil
}

func (d *decoder) readString() (string, error) {
	var n uint16
	if err := d.read(&n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", ErrTruncatedScene
	}
	return string(buf), nil
}

// readSlice reads n fixed-size values, allocating at most readChunk of
// them ahead of the bytes actually read. A forged count then fails with
// ErrTruncatedScene instead of a huge allocation.
func readSlice[T any](d *decoder, n int) ([]T, error) {
	out := make([]T, 0, min(n, readChunk))
	for len(out) < n {
		chunk := make([]T, min(n-len(out), readChunk))
		if err := d.read(chunk); err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (d *decoder) readSubMesh(sub *SubMesh, vertexCount int) error {
	var err error
	if sub.Tag, err = d.readString(); err != nil {
		return err
	}

	var count uint32
	if err := d.read(&count); err != nil {
		return err
	}
	if sub.Triangles, err = readSlice[Triangle](d, int(count)); err != nil {
		return err
	}
	for _, tri := range sub.Triangles {
		for _, idx := range [3]int64{tri.A, tri.B, tri.C} {
			if idx < 0 || idx >= int64(vertexCount) {
				return fmt.Errorf("%w: triangle index %d of %d", ErrIndexOutOfRange, idx, vertexCount)
			}
		}
	}

	return d.readMaterial(&sub.Material)
}

func (d *decoder) readMaterial(m *material.Material) error {
	var err error
	if m.Tag, err = d.readString(); err != nil {
		return err
	}

	var n uint16
	if err := d.read(&n); err != nil {
		return err
	}
	m.Vectors = make([]material.VectorUniform, 0, min(int(n), 16))
	for i := 0; i < int(n); i++ {
		var u material.VectorUniform
		if u.Tag, err = d.readString(); err != nil {
			return err
		}
		if err := d.read(&u.Value); err != nil {
			return err
		}
		m.Vectors = append(m.Vectors, u)
	}

	if err := d.read(&n); err != nil {
		return err
	}
	m.Scalars = make([]material.ScalarUniform, 0, min(int(n), 16))
	for i := 0; i < int(n); i++ {
		var u material.ScalarUniform
		if u.Tag, err = d.readString(); err != nil {
			return err
		}
		if err := d.read(&u.Value); err != nil {
			return err
		}
		m.Scalars = append(m.Scalars, u)
	}

	if err := d.read(&n); err != nil {
		return err
	}
	m.Textures = make([]material.TextureUniform, 0, min(int(n), 16))
	for i := 0; i < int(n); i++ {
		var u material.TextureUniform
		if u.Tag, err = d.readString(); err != nil {
			return err
		}
		if u.Path, err = d.readString(); err != nil {
			return err
		}
		m.Textures = append(m.Textures, u)
	}

	return nil
}
