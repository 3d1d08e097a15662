package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// settings is the resolved CLI configuration: defaults, overlaid by an
// optional YAML config file, overlaid by explicitly set flags.
type settings struct {
	Directory   string `yaml:"directory"`
	MaxMemoryMB int64  `yaml:"max_memory_mb"`
	Compression string `yaml:"compression"`
}

func defaultSettings() settings {
	return settings{
		Directory:   "bin",
		MaxMemoryMB: 1024,
		Compression: "none",
	}
}

func loadSettingsFile(path string) (settings, error) {
	s := defaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config: %w", err)
	}
	return s, nil
}

// resolveSettings merges the config file named by --config (when given)
// with any flags the user set explicitly. Flags win.
func resolveSettings(cmd *cobra.Command) (settings, error) {
	s := defaultSettings()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := loadSettingsFile(path)
		if err != nil {
			return s, err
		}
		s = loaded
	}

	if cmd.Flags().Changed("dir") {
		s.Directory, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("max-memory-mb") {
		s.MaxMemoryMB, _ = cmd.Flags().GetInt64("max-memory-mb")
	}
	if cmd.Flags().Changed("compression") {
		s.Compression, _ = cmd.Flags().GetString("compression")
	}

	if s.MaxMemoryMB <= 0 {
		return s, fmt.Errorf("max memory must be positive, got %d MB", s.MaxMemoryMB)
	}
	return s, nil
}
