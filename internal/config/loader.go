package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RUBRIX_CONFIG is set
//  3. env (prefix RUBRIX_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RUBRIX_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: RUBRIX_DB_PATH, RUBRIX_MATCH_THRESHOLD, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("RUBRIX_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "rubrix_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 1 {
		return nil, errors.New("match_threshold must be between 0 and 1")
	}
	if cfg.ReferenceTopK < 1 {
		return nil, errors.New("reference_top_k must be at least 1")
	}
	return &cfg, nil
}
