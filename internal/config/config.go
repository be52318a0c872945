package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration lets YAML carry values like "24h" or "30m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", node.Value, err)
	}
	*d = Duration(v)
	return nil
}

// Config is loaded from an optional YAML file; the PORT environment
// variable overrides the listen address either way.
type Config struct {
	Addr       string   `yaml:"addr"`
	DataDir    string   `yaml:"data_dir"`
	SessionTTL Duration `yaml:"session_ttl"`
}

func Default() Config {
	return Config{
		Addr:       ":8080",
		DataDir:    "./data",
		SessionTTL: Duration(24 * time.Hour),
	}
}

// Load reads path when it exists; a missing file just means defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if p := os.Getenv("PORT"); p != "" {
		cfg.Addr = ":" + p
	}
	if cfg.Addr == "" {
		cfg.Addr = Default().Addr
	}
	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = Default().SessionTTL
	}
	return cfg, nil
}
