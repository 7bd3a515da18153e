package mesh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/Faultbox/meshflat/pkg/formats"
)

func testScene(t *testing.T) *Scene {
	t.Helper()

	attrib := gridAttrib(5)
	materials := []formats.MaterialRecord{
		{Name: "brass", Diffuse: [3]float32{0.8, 0.6, 0.2}, Shininess: 96, Illum: 2, DiffuseTexname: "brass.png"},
	}
	shapes := []formats.Shape{
		triShape("body", 0, corner(0, 0, 0), corner(1, 1, 1), corner(2, 2, 2)),
		triShape("lid", formats.AbsentIndex,
			corner(2, 3, 3), corner(3, 3, 3), corner(4, 4, 4),
			corner(4, 4, 4), corner(3, 3, 3), corner(0, 0, 0),
		),
		triShape("empty", 0),
	}

	scene, err := Flatten(attrib, shapes, materials, Options{})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	return scene
}

func TestScene_EncodeDecode(t *testing.T) {
	scene := testScene(t)

	var buf bytes.Buffer
	if err := scene.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := DecodeScene(&buf)
	if err != nil {
		t.Fatalf("DecodeScene failed: %v", err)
	}
	if !reflect.DeepEqual(got, scene) {
		t.Errorf("decoded scene differs:\n got %+v\nwant %+v", got, scene)
	}
}

func TestScene_EncodeDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := testScene(t).Encode(&a); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := testScene(t).Encode(&b); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("expected identical bytes for identical scenes")
	}
}

func TestScene_EncodeLayout(t *testing.T) {
	scene := testScene(t)

	var buf bytes.Buffer
	if err := scene.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	data := buf.Bytes()

	if string(data[:4]) != "MSH1" {
		t.Errorf("expected magic MSH1, got %q", data[:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != 1 {
		t.Errorf("expected version 1, got %d", v)
	}
	if n := binary.LittleEndian.Uint32(data[8:12]); n != 5 {
		t.Errorf("expected 5 vertices, got %d", n)
	}
	if n := binary.LittleEndian.Uint32(data[12:16]); n != 3 {
		t.Errorf("expected 3 sub-meshes, got %d", n)
	}

	// Header is 40 bytes, each vertex 36 bytes; the last byte of the first
	// vertex is its alpha channel.
	if alpha := data[40+35]; alpha != 255 {
		t.Errorf("expected opaque alpha, got %d", alpha)
	}
}

func TestDecodeScene_Errors(t *testing.T) {
	var good bytes.Buffer
	if err := testScene(t).Encode(&good); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	data := good.Bytes()

	badMagic := append([]byte("XXXX"), data[4:]...)
	badVersion := append([]byte{}, data...)
	binary.LittleEndian.PutUint16(badVersion[4:6], 9)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrTruncatedScene},
		{"bad magic", badMagic, ErrInvalidSceneMagic},
		{"bad version", badVersion, ErrUnsupportedSceneVersion},
		{"truncated header", data[:10], ErrTruncatedScene},
		{"truncated vertices", data[:60], ErrTruncatedScene},
		{"truncated material", data[:len(data)-3], ErrTruncatedScene},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeScene(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDecodeScene_RejectsBadTriangle(t *testing.T) {
	scene := testScene(t)
	scene.SubMeshes[0].Triangles[0].C = 99

	var buf bytes.Buffer
	if err := scene.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	_, err := DecodeScene(&buf)
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestScene_WriteReadFile(t *testing.T) {
	scene := testScene(t)
	path := filepath.Join(t.TempDir(), "out", "model.msh")

	if err := scene.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !reflect.DeepEqual(got, scene) {
		t.Error("file round trip changed the scene")
	}
}

// forgedHeader returns a scene header claiming the given counts, followed
// by extra bytes.
func forgedHeader(t *testing.T, vertices, subMeshes uint32, extra ...byte) []byte {
	t.Helper()

	hdr := sceneHeader{Version: sceneVersion, VertexCount: vertices, SubMeshCount: subMeshes}
	copy(hdr.Magic[:], sceneMagic)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	buf.Write(extra)
	return buf.Bytes()
}

func TestDecodeScene_ForgedCounts(t *testing.T) {
	// tag "a" followed by a triangle count of 0xFFFFFFFF
	hugeTriangles := []byte{1, 0, 'a', 0xFF, 0xFF, 0xFF, 0xFF}

	tests := []struct {
		name string
		data []byte
	}{
		{"vertex count max", forgedHeader(t, 0xFFFFFFFF, 0)},
		{"vertex count 30M", forgedHeader(t, 30_000_000, 0)},
		{"sub-mesh count max", forgedHeader(t, 0, 0xFFFFFFFF)},
		{"triangle count max", forgedHeader(t, 0, 1, hugeTriangles...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before, after runtime.MemStats
			runtime.ReadMemStats(&before)

			_, err := DecodeScene(bytes.NewReader(tt.data))

			runtime.ReadMemStats(&after)
			if !errors.Is(err, ErrTruncatedScene) {
				t.Errorf("expected ErrTruncatedScene, got %v", err)
			}
			if grown := after.TotalAlloc - before.TotalAlloc; grown > 16<<20 {
				t.Errorf("decoding %d bytes allocated %d MB", len(tt.data), grown>>20)
			}
		})
	}
}

func TestDecodeScene_ManyChunks(t *testing.T) {
	attrib := gridAttrib(3*readChunk + 5)
	var corners []formats.Index
	for i := 0; i+2 < attrib.NumVertices(); i += 3 {
		corners = append(corners, corner(i, i, i), corner(i+1, i+1, i+1), corner(i+2, i+2, i+2))
	}
	scene, err := Flatten(attrib, []formats.Shape{triShape("strip", formats.AbsentIndex, corners...)}, nil, Options{})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}

	var buf bytes.Buffer
	if err := scene.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got, err := DecodeScene(&buf)
	if err != nil {
		t.Fatalf("DecodeScene failed: %v", err)
	}
	if !reflect.DeepEqual(got, scene) {
		t.Error("decoded scene differs from the encoded one")
	}
}

func TestScene_WriteFileFailureKeepsOld(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.msh")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	scene := testScene(t)
	scene.SubMeshes[1].Tag = strings.Repeat("x", 70000)

	if err := scene.WriteFile(path); !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("expected ErrStringTooLong, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading old file: %v", err)
	}
	if string(data) != "old" {
		t.Errorf("existing file was modified: %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only model.msh in %s, found %d entries", dir, len(entries))
	}
}

func TestScene_WriteFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.msh")

	scene := testScene(t)
	scene.SubMeshes[0].Material.Tag = strings.Repeat("x", 70000)

	if err := scene.WriteFile(path); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file at %s, stat returned %v", path, err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}
