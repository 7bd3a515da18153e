// Package material converts parsed material records into renderer-agnostic
// uniform collections.
package material

import (
	"fmt"

	"github.com/Faultbox/meshflat/pkg/formats"
)

// Vector uniform tags, in canonical order.
const (
	TagAmbient       = "ambient"
	TagDiffuse       = "diffuse"
	TagSpecular      = "specular"
	TagTransmittance = "transmittance"
	TagEmission      = "emission"
)

// Scalar uniform tags, in canonical order.
const (
	TagShininess = "shininess"
	TagIOR       = "ior"
	TagDissolve  = "dissolve"
	TagIllum     = "illum"
)

// Texture uniform tags, in canonical order.
const (
	TagMapAmbient           = "map_ambient"
	TagMapDiffuse           = "map_diffuse"
	TagMapSpecular          = "map_specular"
	TagMapSpecularHighlight = "map_specular_highlight"
	TagMapBump              = "map_bump"
	TagMapAlpha             = "map_alpha"
	TagMapDisplacement      = "map_displacement"
)

// Kind identifies the variant of a Uniform.
type Kind uint8

const (
	KindTexture Kind = iota
	KindScalar
	KindVector
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Uniform is a named value handed to a shading stage.
type Uniform interface {
	UniformTag() string
	Kind() Kind
}

// TextureUniform names a texture slot. An empty Path means no map is bound.
type TextureUniform struct {
	Tag  string `yaml:"tag"`
	Path string `yaml:"path"`
}

// ScalarUniform is a named float.
type ScalarUniform struct {
	Tag   string  `yaml:"tag"`
	Value float32 `yaml:"value"`
}

// VectorUniform is a named 3-component vector.
type VectorUniform struct {
	Tag   string     `yaml:"tag"`
	Value [3]float32 `yaml:"value,flow"`
}

func (u TextureUniform) UniformTag() string { return u.Tag }
func (u ScalarUniform) UniformTag() string  { return u.Tag }
func (u VectorUniform) UniformTag() string  { return u.Tag }

func (TextureUniform) Kind() Kind { return KindTexture }
func (ScalarUniform) Kind() Kind  { return KindScalar }
func (VectorUniform) Kind() Kind  { return KindVector }

// Bound reports whether a texture path is set.
func (u TextureUniform) Bound() bool { return u.Path != "" }

// Material is an ordered collection of uniforms describing one surface.
type Material struct {
	Tag      string           `yaml:"tag"`
	Textures []TextureUniform `yaml:"textures"`
	Scalars  []ScalarUniform  `yaml:"scalars"`
	Vectors  []VectorUniform  `yaml:"vectors"`
}

// Normalize re-expresses a material record as uniforms. The order of every
// collection is fixed and does not depend on the record.
func Normalize(rec formats.MaterialRecord) Material {
	return Material{
		Tag: rec.Name,
		Vectors: []VectorUniform{
			{Tag: TagAmbient, Value: rec.Ambient},
			{Tag: TagDiffuse, Value: rec.Diffuse},
			{Tag: TagSpecular, Value: rec.Specular},
			{Tag: TagTransmittance, Value: rec.Transmittance},
			{Tag: TagEmission, Value: rec.Emission},
		},
		Scalars: []ScalarUniform{
			{Tag: TagShininess, Value: rec.Shininess},
			{Tag: TagIOR, Value: rec.IOR},
			{Tag: TagDissolve, Value: rec.Dissolve},
			{Tag: TagIllum, Value: float32(rec.Illum)},
		},
		Textures: []TextureUniform{
			{Tag: TagMapAmbient, Path: rec.AmbientTexname},
			{Tag: TagMapDiffuse, Path: rec.DiffuseTexname},
			{Tag: TagMapSpecular, Path: rec.SpecularTexname},
			{Tag: TagMapSpecularHighlight, Path: rec.SpecularHighlightTexname},
			{Tag: TagMapBump, Path: rec.BumpTexname},
			{Tag: TagMapAlpha, Path: rec.AlphaTexname},
			{Tag: TagMapDisplacement, Path: rec.DisplacementTexname},
		},
	}
}

// Uniforms returns every uniform of the material: textures, then scalars,
// then vectors, each in canonical order.
func (m *Material) Uniforms() []Uniform {
	out := make([]Uniform, 0, len(m.Textures)+len(m.Scalars)+len(m.Vectors))
	for _, u := range m.Textures {
		out = append(out, u)
	}
	for _, u := range m.Scalars {
		out = append(out, u)
	}
	for _, u := range m.Vectors {
		out = append(out, u)
	}
	return out
}

// Texture looks up a texture uniform by tag.
func (m *Material) Texture(tag string) (TextureUniform, bool) {
	for _, u := range m.Textures {
		if u.Tag == tag {
			return u, true
		}
	}
	return TextureUniform{}, false
}

// Scalar looks up a scalar uniform by tag.
func (m *Material) Scalar(tag string) (ScalarUniform, bool) {
	for _, u := range m.Scalars {
		if u.Tag == tag {
			return u, true
		}
	}
	return ScalarUniform{}, false
}

// Vector looks up a vector uniform by tag.
func (m *Material) Vector(tag string) (VectorUniform, bool) {
	for _, u := range m.Vectors {
		if u.Tag == tag {
			return u, true
		}
	}
	return VectorUniform{}, false
}

// BoundTextures returns the textures with a non-empty path.
func (m *Material) BoundTextures() []TextureUniform {
	var out []TextureUniform
	for _, u := range m.Textures {
		if u.Bound() {
			out = append(out, u)
		}
	}
	return out
}
