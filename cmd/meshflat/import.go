package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshflat/internal/config"
	"github.com/Faultbox/meshflat/internal/logger"
	"github.com/Faultbox/meshflat/internal/mesh"
	"github.com/Faultbox/meshflat/pkg/encoding"
	"github.com/Faultbox/meshflat/pkg/formats"
)

// loadOBJ reads an OBJ file and its material libraries.
func loadOBJ(cfg *config.Config, path string) (*formats.OBJ, error) {
	decode, err := encoding.Decoder(cfg.Import.NameEncoding)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	obj, err := formats.LoadOBJ(path, formats.OBJOptions{DecodeName: decode})
	if err != nil {
		return nil, err
	}

	for _, w := range obj.Warnings {
		logger.Warn("obj warning", zap.String("file", path), zap.String("warning", w))
	}
	logger.Info("obj loaded",
		zap.String("file", path),
		zap.Int("vertices", obj.NumVertices()),
		zap.Int("normals", obj.NumNormals()),
		zap.Int("texcoords", obj.NumTexCoords()),
		zap.Int("shapes", len(obj.Shapes)),
		zap.Int("materials", len(obj.Materials)),
		zap.Duration("took", time.Since(start)),
	)
	return obj, nil
}

// importScene loads an OBJ file and flattens it.
func importScene(cfg *config.Config, path string) (*mesh.Scene, error) {
	obj, err := loadOBJ(cfg, path)
	if err != nil {
		return nil, err
	}

	opts, err := meshOptions(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	scene, err := mesh.Flatten(&obj.Attrib, obj.Shapes, obj.Materials, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	st := scene.Stats()
	logger.Info("scene flattened",
		zap.String("file", path),
		zap.Stringer("key_mode", opts.KeyMode),
		zap.Int("vertices", st.Vertices),
		zap.Int("triangles", st.Triangles),
		zap.Int("submeshes", st.SubMeshes),
		zap.Duration("took", time.Since(start)),
	)
	for _, sub := range scene.SubMeshes {
		logger.Debug("sub-mesh",
			zap.String("tag", sub.Tag),
			zap.Int("triangles", len(sub.Triangles)),
			zap.String("material", sub.Material.Tag),
		)
	}
	return scene, nil
}

// meshOptions maps the import config onto Flatten options.
func meshOptions(cfg *config.Config) (mesh.Options, error) {
	opts := mesh.Options{StrictMaterials: cfg.Import.StrictMaterials}

	switch cfg.Import.KeyMode {
	case "position":
		opts.KeyMode = mesh.KeyByPosition
	case "tuple":
		opts.KeyMode = mesh.KeyByTuple
	default:
		return opts, fmt.Errorf("unknown key mode %q", cfg.Import.KeyMode)
	}

	switch cfg.Import.MissingAttribute {
	case "zero":
		opts.MissingAttribute = mesh.MissingZero
	case "fail":
		opts.MissingAttribute = mesh.MissingFail
	default:
		return opts, fmt.Errorf("unknown missing attribute policy %q", cfg.Import.MissingAttribute)
	}

	return opts, nil
}

// outputPath derives the scene file name from the source OBJ path.
func outputPath(cfg *config.Config, src string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + cfg.Output.Extension
	dir := cfg.Output.Directory
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, base)
}
