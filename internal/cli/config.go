package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration shared by the CLI commands.
// Flags win over file values; the file only fills in what flags leave empty.
type FileConfig struct {
	ProjectID   string         `yaml:"project_id"`
	LogDir      string         `yaml:"log_dir"`
	DB          string         `yaml:"db"`
	DefaultDims map[string]any `yaml:"default_dims"`
}

// LoadFileConfig reads and parses a YAML config file. An empty path returns
// a zero config without error.
func LoadFileConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// orDefault returns value if non-empty, otherwise fallback.
func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
