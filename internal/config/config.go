// Package config handles converter configuration loading and management.
package config

import "fmt"

// Config holds all converter settings.
type Config struct {
	Import   ImportConfig   `yaml:"import"`
	Output   OutputConfig   `yaml:"output"`
	Textures TexturesConfig `yaml:"textures"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ImportConfig controls how OBJ data is flattened.
type ImportConfig struct {
	MissingAttribute string `yaml:"missing_attribute"` // "zero" or "fail"
	KeyMode          string `yaml:"key_mode"`          // "position" or "tuple"
	StrictMaterials  bool   `yaml:"strict_materials"`
	NameEncoding     string `yaml:"name_encoding"` // "utf-8" or "euc-kr"
}

// OutputConfig holds where flattened scenes are written.
type OutputConfig struct {
	Directory string `yaml:"directory"` // empty means next to the source file
	Extension string `yaml:"extension"`
}

// TexturesConfig holds texture lookup settings.
type TexturesConfig struct {
	SearchPaths []string `yaml:"search_paths"` // tried before the OBJ directory
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			MissingAttribute: "zero",
			KeyMode:          "position",
			StrictMaterials:  false,
			NameEncoding:     "utf-8",
		},
		Output: OutputConfig{
			Directory: "",
			Extension: ".msh",
		},
		Textures: TexturesConfig{
			SearchPaths: nil,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Import.MissingAttribute {
	case "zero", "fail":
	default:
		return fmt.Errorf("import.missing_attribute: unknown policy %q (want zero or fail)", c.Import.MissingAttribute)
	}
	switch c.Import.KeyMode {
	case "position", "tuple":
	default:
		return fmt.Errorf("import.key_mode: unknown mode %q (want position or tuple)", c.Import.KeyMode)
	}
	if c.Output.Extension == "" {
		return fmt.Errorf("output.extension must not be empty")
	}
	return nil
}
