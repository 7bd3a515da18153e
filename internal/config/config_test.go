package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test import defaults
	if cfg.Import.MissingAttribute != "zero" {
		t.Errorf("expected missing_attribute 'zero', got %s", cfg.Import.MissingAttribute)
	}
	if cfg.Import.KeyMode != "position" {
		t.Errorf("expected key_mode 'position', got %s", cfg.Import.KeyMode)
	}
	if cfg.Import.StrictMaterials {
		t.Error("expected strict_materials to be false by default")
	}
	if cfg.Import.NameEncoding != "utf-8" {
		t.Errorf("expected name_encoding 'utf-8', got %s", cfg.Import.NameEncoding)
	}

	// Test output defaults
	if cfg.Output.Directory != "" {
		t.Errorf("expected empty output directory, got %s", cfg.Output.Directory)
	}
	if cfg.Output.Extension != ".msh" {
		t.Errorf("expected extension '.msh', got %s", cfg.Output.Extension)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
import:
  missing_attribute: fail
  key_mode: tuple
  strict_materials: true
  name_encoding: euc-kr

output:
  directory: "build/scenes"
  extension: ".scene"

textures:
  search_paths:
    - "assets/textures"
    - "/opt/shared/textures"

logging:
  level: "debug"
  log_file: "meshflat.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Import.MissingAttribute != "fail" {
		t.Errorf("expected missing_attribute 'fail', got %s", cfg.Import.MissingAttribute)
	}
	if cfg.Import.KeyMode != "tuple" {
		t.Errorf("expected key_mode 'tuple', got %s", cfg.Import.KeyMode)
	}
	if !cfg.Import.StrictMaterials {
		t.Error("expected strict_materials to be true")
	}
	if cfg.Import.NameEncoding != "euc-kr" {
		t.Errorf("expected name_encoding 'euc-kr', got %s", cfg.Import.NameEncoding)
	}

	if cfg.Output.Directory != "build/scenes" {
		t.Errorf("expected output directory 'build/scenes', got %s", cfg.Output.Directory)
	}
	if cfg.Output.Extension != ".scene" {
		t.Errorf("expected extension '.scene', got %s", cfg.Output.Extension)
	}

	if len(cfg.Textures.SearchPaths) != 2 || cfg.Textures.SearchPaths[1] != "/opt/shared/textures" {
		t.Errorf("unexpected search paths %v", cfg.Textures.SearchPaths)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "meshflat.log" {
		t.Errorf("expected log file 'meshflat.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("import:\n  key_mode: tuple\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Untouched keys keep their defaults
	if cfg.Import.MissingAttribute != "zero" {
		t.Errorf("expected default missing_attribute, got %s", cfg.Import.MissingAttribute)
	}
	if cfg.Output.Extension != ".msh" {
		t.Errorf("expected default extension, got %s", cfg.Output.Extension)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
import:
  strict_materials: not a bool
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"fail policy", func(c *Config) { c.Import.MissingAttribute = "fail" }, false},
		{"tuple mode", func(c *Config) { c.Import.KeyMode = "tuple" }, false},
		{"unknown policy", func(c *Config) { c.Import.MissingAttribute = "average" }, true},
		{"unknown mode", func(c *Config) { c.Import.KeyMode = "normal" }, true},
		{"empty extension", func(c *Config) { c.Output.Extension = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Keep the user's own config out of the search
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "meshflat.yaml")
	if err := os.WriteFile(configPath, []byte("import:\n  key_mode: tuple\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	path = findConfigFile()
	if path == "" {
		t.Error("expected to find meshflat.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "log file flag",
			setup: func() { *flagLogFile = "run.log" },
			verify: func(cfg *Config) {
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("expected log file 'run.log', got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() { *flagLogFile = "" },
		},
		{
			name:  "tuple flag",
			setup: func() { *flagTuple = true },
			verify: func(cfg *Config) {
				if cfg.Import.KeyMode != "tuple" {
					t.Errorf("expected key_mode 'tuple', got %s", cfg.Import.KeyMode)
				}
			},
			teardown: func() { *flagTuple = false },
		},
		{
			name:  "strict flag",
			setup: func() { *flagStrict = true },
			verify: func(cfg *Config) {
				if !cfg.Import.StrictMaterials {
					t.Error("expected strict_materials with strict flag")
				}
			},
			teardown: func() { *flagStrict = false },
		},
		{
			name: "missing and encoding flags",
			setup: func() {
				*flagMissing = "fail"
				*flagEncoding = "euc-kr"
			},
			verify: func(cfg *Config) {
				if cfg.Import.MissingAttribute != "fail" {
					t.Errorf("expected missing_attribute 'fail', got %s", cfg.Import.MissingAttribute)
				}
				if cfg.Import.NameEncoding != "euc-kr" {
					t.Errorf("expected name_encoding 'euc-kr', got %s", cfg.Import.NameEncoding)
				}
			},
			teardown: func() {
				*flagMissing = ""
				*flagEncoding = ""
			},
		},
		{
			name:  "out dir flag",
			setup: func() { *flagOutDir = "out" },
			verify: func(cfg *Config) {
				if cfg.Output.Directory != "out" {
					t.Errorf("expected output directory 'out', got %s", cfg.Output.Directory)
				}
			},
			teardown: func() { *flagOutDir = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
import:
  key_mode: position
  missing_attribute: fail
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagTuple = true
	defer func() {
		*flagConfig = ""
		*flagTuple = false
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Key mode should come from the flag, not the file
	if cfg.Import.KeyMode != "tuple" {
		t.Errorf("expected key_mode 'tuple' from flag, got %s", cfg.Import.KeyMode)
	}

	// Missing policy should come from the file since no flag overrides it
	if cfg.Import.MissingAttribute != "fail" {
		t.Errorf("expected missing_attribute 'fail' from file, got %s", cfg.Import.MissingAttribute)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := os.WriteFile(configPath, []byte("import:\n  key_mode: sideways\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected validation error, got nil")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Import.KeyMode = "tuple"
	cfg.Textures.SearchPaths = []string{"tex"}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Import.KeyMode != "tuple" {
		t.Errorf("expected key_mode 'tuple', got %s", loaded.Import.KeyMode)
	}
	if len(loaded.Textures.SearchPaths) != 1 || loaded.Textures.SearchPaths[0] != "tex" {
		t.Errorf("unexpected search paths %v", loaded.Textures.SearchPaths)
	}
}

func TestSave(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("config dir only follows XDG_CONFIG_HOME on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Import.StrictMaterials = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The saved file is the one Load would pick up
	path := findConfigFile()
	if path != filepath.Join(ConfigDir(), "config.yaml") {
		t.Fatalf("expected saved config to be found, got %q", path)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if !loaded.Import.StrictMaterials {
		t.Error("expected strict_materials to survive the round trip")
	}
}
