package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/voicedispatch/core/dispatch"
	"github.com/kilianp07/voicedispatch/core/fleet"
	"github.com/kilianp07/voicedispatch/core/metrics"
	"github.com/kilianp07/voicedispatch/infra/mqtt"
)

// EnvPrefix prefixes every environment override, e.g. VD_SERVER__ADDRESS.
const EnvPrefix = "VD_"

type Config struct {
	Server     ServerConfig     `json:"server"`
	Fleet      fleet.Config     `json:"fleet"`
	Dispatch   dispatch.Config  `json:"dispatch"`
	Transcript TranscriptConfig `json:"transcript"`
	MQTT       mqtt.Config      `json:"mqtt"`
	Metrics    metrics.Config   `json:"metrics"`
}

// Load reads path, applies VD_ environment overrides, then defaults, and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := loadFile(k, path); err != nil {
			return nil, err
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
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	return k.Load(file.Provider(path), parser)
}

func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Fleet.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Transcript.SetDefaults()
	c.MQTT.SetDefaults()
	c.Metrics.SetDefaults()
}

func (c Config) Validate() error {
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"server", c.Server},
		{"fleet", c.Fleet},
		{"dispatch", c.Dispatch},
		{"transcript", c.Transcript},
		{"mqtt", c.MQTT},
		{"metrics", c.Metrics},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}
