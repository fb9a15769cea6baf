package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Source SourceConfig `yaml:"source"`
	Index  IndexConfig  `yaml:"index"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`     // HTTP Listen Address (e.g. :8080)
	TCPAddr string `yaml:"tcp_addr"` // TCP Listen Address (e.g. :9090)
}

// SourceConfig says where the flat record list is loaded from.
type SourceConfig struct {
	Kind  string `yaml:"kind"`  // "json" or "sqlite"
	Path  string `yaml:"path"`
	Table string `yaml:"table"` // sqlite only
}

type IndexConfig struct {
	// CycleGuard makes servers use the checked traversals, so malformed
	// input yields an error instead of a request that never finishes.
	CycleGuard bool `yaml:"cycle_guard"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8080",
			TCPAddr: ":9090",
		},
		Source: SourceConfig{
			Kind:  "json",
			Path:  "records.json",
			Table: "records",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/treestore.yaml", "treestore.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		applyDefaults(cfg)
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.TCPAddr == "" {
		cfg.Server.TCPAddr = ":9090"
	}
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = "json"
	}
	if cfg.Source.Path == "" {
		cfg.Source.Path = "records.json"
	}
	if cfg.Source.Table == "" {
		cfg.Source.Table = "records"
	}
}
