// Package texture inspects the texture maps referenced by materials.
package texture

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // BMP decoder registration

	"github.com/Faultbox/meshflat/internal/material"
)

// ErrNotFound is returned when a texture path resolves to no file.
var ErrNotFound = errors.New("texture not found")

// Info describes a texture file.
type Info struct {
	Path     string // path as referenced by the material
	Resolved string // file that was opened
	Format   string // decoder name: png, jpeg, gif, bmp or tga
	Width    int
	Height   int
}

// Result is the probe outcome for one texture uniform.
type Result struct {
	Tag  string
	Info Info
	Err  error
}

// Prober resolves texture paths against a list of directories.
type Prober struct {
	SearchPaths []string
}

// NewProber creates a prober. Relative paths are tried against each search
// path in order, then against the working directory.
func NewProber(searchPaths ...string) *Prober {
	return &Prober{SearchPaths: searchPaths}
}

// Resolve returns the file a texture path refers to.
func (p *Prober) Resolve(path string) (string, error) {
	// MTL files written on Windows use backslashes.
	clean := filepath.FromSlash(strings.ReplaceAll(path, "\\", "/"))

	candidates := []string{clean}
	if !filepath.IsAbs(clean) {
		candidates = candidates[:0]
		for _, dir := range p.SearchPaths {
			candidates = append(candidates, filepath.Join(dir, clean))
		}
		candidates = append(candidates, clean)
	}

	for _, c := range candidates {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, path)
}

// Probe resolves a texture path and reads its image header.
func (p *Prober) Probe(path string) (Info, error) {
	info := Info{Path: path}

	resolved, err := p.Resolve(path)
	if err != nil {
		return info, err
	}
	info.Resolved = resolved

	f, err := os.Open(resolved)
	if err != nil {
		return info, err
	}
	defer f.Close()

	var cfg image.Config
	if strings.EqualFold(filepath.Ext(resolved), ".tga") {
		cfg, err = DecodeTGAConfig(f)
		info.Format = "tga"
	} else {
		cfg, info.Format, err = image.DecodeConfig(f)
	}
	if err != nil {
		return info, fmt.Errorf("%s: %w", resolved, err)
	}

	info.Width = cfg.Width
	info.Height = cfg.Height
	return info, nil
}

// ProbeMaterial probes every bound texture of a material, in canonical order.
func (p *Prober) ProbeMaterial(m *material.Material) []Result {
	bound := m.BoundTextures()
	results := make([]Result, 0, len(bound))
	for _, u := range bound {
		info, err := p.Probe(u.Path)
		results = append(results, Result{Tag: u.Tag, Info: info, Err: err})
	}
	return results
}
