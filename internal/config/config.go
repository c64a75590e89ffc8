// Package config loads the pipeline's YAML configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	InputCSVPath   string `yaml:"input_csv_path"`
	OutputJSONPath string `yaml:"output_json_path"`
	DefaultTeam    string `yaml:"default_assigned_team"`
	Gemini         Gemini `yaml:"gemini"`
}

type Gemini struct {
	Model string `yaml:"model"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		InputCSVPath:   "data/leads.csv",
		OutputJSONPath: "outputs/enriched_leads.json",
		DefaultTeam:    "Unassigned",
		Gemini:         Gemini{Model: "gemini-2.5-flash"},
	}
}

// Load reads the YAML file at path over the defaults, so fields left unset
// keep their default values. An empty path returns the defaults unchanged; a
// path that cannot be read or parsed is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}
