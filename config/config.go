package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/clover/core/metrics"
)

// EnvPrefix prefixes the environment variables overriding clover.yaml, e.g.
// CLOVER_RENEWABLES_NINJA__TIMEOUT=30s.
const EnvPrefix = "CLOVER_"

// Config is the tool configuration shared by every command.
type Config struct {
	Logging         LoggingConfig  `json:"logging"`
	Metrics         metrics.Config `json:"metrics"`
	RenewablesNinja NinjaConfig    `json:"renewables_ninja"`
	Grid            GridConfig     `json:"grid"`
	HPC             HPCConfig      `json:"hpc"`
}

// Load reads the configuration at path and applies environment overrides.
// An empty path loads the defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Logging.SetDefaults()
	cfg.RenewablesNinja.SetDefaults()
	cfg.HPC.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RenewablesNinja.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.HPC.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}
