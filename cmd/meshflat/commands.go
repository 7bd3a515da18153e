package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshflat/internal/config"
	"github.com/Faultbox/meshflat/internal/logger"
	"github.com/Faultbox/meshflat/internal/material"
	"github.com/Faultbox/meshflat/internal/mesh"
	"github.com/Faultbox/meshflat/internal/texture"
)

func cmdInfo(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat info <file.obj|file.msh>")
		return errUsage
	}

	if strings.EqualFold(filepath.Ext(fs.Arg(0)), cfg.Output.Extension) {
		return printSceneInfo(os.Stdout, fs.Arg(0))
	}

	obj, err := loadOBJ(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", fs.Arg(0))
	fmt.Printf("# of vertices  : %d\n", obj.NumVertices())
	fmt.Printf("# of normals   : %d\n", obj.NumNormals())
	fmt.Printf("# of texcoords : %d\n", obj.NumTexCoords())
	fmt.Printf("# of shapes    : %d\n", len(obj.Shapes))
	fmt.Printf("# of materials : %d\n", len(obj.Materials))
	fmt.Println()

	for i := range obj.Shapes {
		shape := &obj.Shapes[i]
		nonTri := 0
		for _, n := range shape.Mesh.NumFaceVertices {
			if n != 3 {
				nonTri++
			}
		}
		name := shape.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %-24s %6d faces", name, shape.NumFaces())
		if nonTri > 0 {
			fmt.Printf("  (%d not triangles)", nonTri)
		}
		fmt.Println()
	}

	return nil
}

// printSceneInfo reports the contents of a flattened scene file.
func printSceneInfo(w io.Writer, path string) error {
	scene, err := mesh.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	st := scene.Stats()
	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "# of vertices       : %d\n", st.Vertices)
	fmt.Fprintf(w, "# of sub-meshes     : %d\n", st.SubMeshes)
	fmt.Fprintf(w, "# of triangles      : %d\n", st.Triangles)
	fmt.Fprintf(w, "# of bound textures : %d\n", st.BoundTextures)
	fmt.Fprintf(w, "Bounds: min %v max %v center %v radius %.3f\n",
		scene.Bounds.Min, scene.Bounds.Max, scene.Bounds.Center(), scene.Bounds.Radius())
	fmt.Fprintln(w)

	for _, sub := range scene.SubMeshes {
		tag := sub.Tag
		if tag == "" {
			tag = "(unnamed)"
		}
		fmt.Fprintf(w, "  %-24s %6d triangles  material %s\n", tag, len(sub.Triangles), sub.Material.Tag)
	}
	return nil
}

func cmdFlatten(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("flatten", flag.ExitOnError)
	out := fs.String("o", "", "Output file (default: <out-dir>/<name><ext>)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat flatten [-o out.msh] <file.obj>")
		return errUsage
	}
	src := fs.Arg(0)

	scene, err := importScene(cfg, src)
	if err != nil {
		return err
	}

	dst := *out
	if dst == "" {
		dst = outputPath(cfg, src)
	}

	start := time.Now()
	if err := scene.WriteFile(dst); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	logger.Debug("scene written", zap.String("path", dst), zap.Duration("took", time.Since(start)))

	st := scene.Stats()
	fmt.Printf("Wrote: %s (%d vertices, %d triangles, %d sub-meshes)\n", dst, st.Vertices, st.Triangles, st.SubMeshes)
	fmt.Printf("Bounds: min %v max %v center %v radius %.3f\n",
		scene.Bounds.Min, scene.Bounds.Max, scene.Bounds.Center(), scene.Bounds.Radius())
	return nil
}

// subMeshMaterial is the YAML shape printed by the materials command.
type subMeshMaterial struct {
	SubMesh  string            `yaml:"submesh"`
	Material material.Material `yaml:"material"`
}

func cmdMaterials(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("materials", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat materials <file.obj>")
		return errUsage
	}

	scene, err := importScene(cfg, fs.Arg(0))
	if err != nil {
		return err
	}

	doc := make([]subMeshMaterial, 0, len(scene.SubMeshes))
	for _, sub := range scene.SubMeshes {
		doc = append(doc, subMeshMaterial{SubMesh: sub.Tag, Material: sub.Material})
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func cmdTextures(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("textures", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat textures <file.obj>")
		return errUsage
	}
	src := fs.Arg(0)

	scene, err := importScene(cfg, src)
	if err != nil {
		return err
	}

	searchPaths := append(append([]string{}, cfg.Textures.SearchPaths...), filepath.Dir(src))
	prober := texture.NewProber(searchPaths...)

	// Sub-meshes often share a material; probe each one once
	materials := make(map[string]*material.Material)
	for i := range scene.SubMeshes {
		m := &scene.SubMeshes[i].Material
		if _, seen := materials[m.Tag]; !seen {
			materials[m.Tag] = m
		}
	}
	tags := make([]string, 0, len(materials))
	for tag := range materials {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	checked, failed := 0, 0
	for _, tag := range tags {
		for _, res := range prober.ProbeMaterial(materials[tag]) {
			checked++
			if res.Err != nil {
				failed++
				fmt.Printf("  %-16s %-24s MISSING  %v\n", tag, res.Tag, res.Err)
				logger.Warn("texture unusable", zap.String("material", tag), zap.String("slot", res.Tag), zap.Error(res.Err))
				continue
			}
			fmt.Printf("  %-16s %-24s %-5s %5dx%-5d %s\n", tag, res.Tag, res.Info.Format, res.Info.Width, res.Info.Height, res.Info.Resolved)
		}
	}

	fmt.Fprintf(os.Stderr, "\n(%d textures checked, %d unusable)\n", checked, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d textures unusable", failed, checked)
	}
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshflat config show | save [path]")
		return errUsage
	}

	switch args[0] {
	case "show":
		return writeConfig(os.Stdout, cfg)
	case "save":
		if len(args) > 1 {
			if err := cfg.SaveTo(args[1]); err != nil {
				return err
			}
			fmt.Printf("Saved: %s\n", args[1])
			return nil
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Saved: %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return errUsage
	}
}

// writeConfig prints the effective configuration as YAML.
func writeConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
