package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader loads and keeps one engine configuration.
type Loader struct {
	configPath string
	config     *EngineConfig
}

// NewLoader creates a configuration loader for the given path.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// LoadEnv loads a .env file if one exists so that ${VAR} placeholders in
// the YAML can resolve. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads, parses and validates the configuration file.
func (l *Loader) Load() (*EngineConfig, error) {
	if l.configPath == "" {
		return nil, fmt.Errorf("configuration path is required")
	}
	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", l.configPath)
	}

	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return l.parse(data)
}

// LoadFromString parses and validates configuration from a YAML string.
func (l *Loader) LoadFromString(yamlContent string) (*EngineConfig, error) {
	return l.parse([]byte(yamlContent))
}

func (l *Loader) parse(data []byte) (*EngineConfig, error) {
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	cfg.substituteEnvVars()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	l.config = &cfg
	return &cfg, nil
}

// Config returns the most recently loaded configuration, or nil.
func (l *Loader) Config() *EngineConfig {
	return l.config
}
