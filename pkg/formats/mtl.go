package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/meshflat/pkg/encoding"
)

// MTL format errors.
var (
	ErrInvalidMTL               = errors.New("invalid MTL data")
	ErrStatementOutsideMaterial = errors.New("MTL statement before newmtl")
)

// MaterialRecord is one "newmtl" block of a material library, in the raw
// schema of the MTL format.
type MaterialRecord struct {
	Name string

	Ambient       [3]float32 // Ka
	Diffuse       [3]float32 // Kd
	Specular      [3]float32 // Ks
	Transmittance [3]float32 // Tf
	Emission      [3]float32 // Ke

	Shininess float32 // Ns
	IOR       float32 // Ni
	Dissolve  float32 // d, or 1 - Tr
	Illum     int     // illumination model

	AmbientTexname           string // map_Ka
	DiffuseTexname           string // map_Kd
	SpecularTexname          string // map_Ks
	SpecularHighlightTexname string // map_Ns
	BumpTexname              string // map_bump, bump
	AlphaTexname             string // map_d
	DisplacementTexname      string // disp
}

// DefaultMaterial returns the record used for faces without a material.
func DefaultMaterial() MaterialRecord {
	return newMaterialRecord("default")
}

func newMaterialRecord(name string) MaterialRecord {
	return MaterialRecord{
		Name:      name,
		Shininess: 1,
		IOR:       1,
		Dissolve:  1,
	}
}

// ParseMTL parses a material library. decodeName may be nil.
func ParseMTL(r io.Reader, decodeName encoding.NameDecoder) ([]MaterialRecord, error) {
	if decodeName == nil {
		decodeName = encoding.Identity
	}

	var records []MaterialRecord
	var cur *MaterialRecord

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
			continue
		}

		if tokens[0] == "newmtl" {
			if len(tokens) < 2 {
				return nil, fmt.Errorf("line %d: %w: newmtl needs a name", lineNum, ErrInvalidMTL)
			}
			records = append(records, newMaterialRecord(decodeName(strings.Join(tokens[1:], " "))))
			cur = &records[len(records)-1]
			continue
		}

		if cur == nil {
			return nil, fmt.Errorf("line %d: %w: %q", lineNum, ErrStatementOutsideMaterial, tokens[0])
		}
		if err := parseMaterialStatement(cur, tokens); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func parseMaterialStatement(m *MaterialRecord, tokens []string) error {
	var err error
	switch tokens[0] {
	case "Ka":
		m.Ambient, err = parseColor(tokens)
	case "Kd":
		m.Diffuse, err = parseColor(tokens)
	case "Ks":
		m.Specular, err = parseColor(tokens)
	case "Tf", "Kt":
		m.Transmittance, err = parseColor(tokens)
	case "Ke":
		m.Emission, err = parseColor(tokens)
	case "Ns":
		m.Shininess, err = parseScalar(tokens)
	case "Ni":
		m.IOR, err = parseScalar(tokens)
	case "d":
		m.Dissolve, err = parseScalar(tokens)
	case "Tr":
		var tr float32
		if tr, err = parseScalar(tokens); err == nil {
			m.Dissolve = 1 - tr
		}
	case "illum":
		if len(tokens) < 2 {
			return fmt.Errorf("%w: illum needs a value", ErrInvalidMTL)
		}
		m.Illum, err = strconv.Atoi(tokens[1])
		if err != nil {
			return fmt.Errorf("%w: illum: %v", ErrInvalidMTL, err)
		}
	case "map_Ka":
		m.AmbientTexname, err = parseTexname(tokens)
	case "map_Kd":
		m.DiffuseTexname, err = parseTexname(tokens)
	case "map_Ks":
		m.SpecularTexname, err = parseTexname(tokens)
	case "map_Ns":
		m.SpecularHighlightTexname, err = parseTexname(tokens)
	case "map_bump", "map_Bump", "bump":
		m.BumpTexname, err = parseTexname(tokens)
	case "map_d":
		m.AlphaTexname, err = parseTexname(tokens)
	case "disp", "map_disp":
		m.DisplacementTexname, err = parseTexname(tokens)
	}
	return err
}

// parseColor reads an RGB triple. A single value is replicated to all three
// channels, as exporters sometimes write "Kd 0.5".
func parseColor(tokens []string) ([3]float32, error) {
	var c [3]float32
	switch {
	case len(tokens) >= 4:
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(tokens[i+1], 32)
			if err != nil {
				return c, fmt.Errorf("%w: %s: %v", ErrInvalidMTL, tokens[0], err)
			}
			c[i] = float32(v)
		}
	case len(tokens) == 2:
		v, err := strconv.ParseFloat(tokens[1], 32)
		if err != nil {
			return c, fmt.Errorf("%w: %s: %v", ErrInvalidMTL, tokens[0], err)
		}
		c = [3]float32{float32(v), float32(v), float32(v)}
	default:
		return c, fmt.Errorf("%w: %s expects 3 values, got %d", ErrInvalidMTL, tokens[0], len(tokens)-1)
	}
	return c, nil
}

func parseScalar(tokens []string) (float32, error) {
	if len(tokens) < 2 {
		return 0, fmt.Errorf("%w: %s needs a value", ErrInvalidMTL, tokens[0])
	}
	v, err := strconv.ParseFloat(tokens[1], 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidMTL, tokens[0], err)
	}
	return float32(v), nil
}

// parseTexname returns the texture path of a map statement. Map options such
// as "-bm 0.5" precede the path, so the last argument is taken.
func parseTexname(tokens []string) (string, error) {
	if len(tokens) < 2 {
		return "", fmt.Errorf("%w: %s needs a file name", ErrInvalidMTL, tokens[0])
	}
	return tokens[len(tokens)-1], nil
}
