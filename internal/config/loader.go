package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if CVRANKER_CONFIG is set
//  3. env (prefix CVRANKER_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CVRANKER_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CVRANKER_ADDR, CVRANKER_WORKER_COUNT, ...
	// Map env keys like CVRANKER_WORKER_COUNT -> worker_count (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CVRANKER_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "cvranker_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.ClaimTTLSeconds < 1:
		return fmt.Errorf("%w: claim_ttl_seconds must be positive", ErrInvalidConfig)
	case c.AIProvider != ProviderGemini && c.AIProvider != ProviderRemote:
		return fmt.Errorf("%w: ai_provider must be gemini or remote", ErrInvalidConfig)
	case c.AIProvider == ProviderRemote && c.RemoteBaseURL == "":
		return fmt.Errorf("%w: remote_base_url required for remote provider", ErrInvalidConfig)
	}
	return nil
}
