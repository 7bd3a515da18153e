// meshflat converts Wavefront OBJ meshes into flat, single-index vertex
// buffers with renderer-agnostic materials.
package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/meshflat/internal/config"
	"github.com/Faultbox/meshflat/internal/logger"
)

// errUsage marks errors caused by wrong command-line usage.
var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()
	args := config.Args()

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = run(cfg, args[0], args[1:])
	if err != nil && !errors.Is(err, errUsage) {
		logger.Error("command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, command string, args []string) error {
	switch command {
	case "info":
		return cmdInfo(cfg, args)
	case "flatten", "f":
		return cmdFlatten(cfg, args)
	case "materials", "mat":
		return cmdMaterials(cfg, args)
	case "textures", "tex":
		return cmdTextures(cfg, args)
	case "config":
		return cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return errUsage
	}
}

func printUsage() {
	fmt.Println(`meshflat - flatten Wavefront OBJ meshes into GPU-ready buffers

Usage:
  meshflat [flags] <command> [options]

Commands:
  info <file.obj|file.msh>        Show counts of a source mesh or a written scene
  flatten [-o out] <file.obj>     Flatten and write a binary scene (.msh)
  materials <file.obj>            Print each sub-mesh's uniforms as YAML
  textures <file.obj>             Check every bound texture map
  config show | save [path]       Print or save the effective configuration

Flags:
  -config <path>     Config file (default ./meshflat.yaml)
  -debug             Debug logging
  -log-file <path>   Also log to a rotating file
  -tuple             One vertex per (position, normal, texcoord) triple
  -strict            Fail on mixed or unknown materials
  -missing zero|fail Policy for corners without normal or texcoord
  -encoding <name>   Charset of names in the OBJ/MTL (utf-8, euc-kr)
  -out-dir <dir>     Directory for flattened scenes

Examples:
  meshflat info assets/cube.obj
  meshflat info build/cube.msh
  meshflat -encoding euc-kr config save
  meshflat -tuple flatten -o build/cube.msh assets/cube.obj
  meshflat -encoding euc-kr materials prontera/house.obj`)
}
