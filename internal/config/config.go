// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Supported AI providers.
const (
	ProviderGemini = "gemini"
	ProviderRemote = "remote"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount bounds per-batch scoring concurrency.
	WorkerCount int `koanf:"worker_count"`

	// ClaimTTLSeconds sets the lease duration for per-CV scoring claims.
	// An expired claim makes the CV claimable again by a later batch.
	ClaimTTLSeconds int `koanf:"claim_ttl_seconds"`

	// ScoringTimeoutSeconds bounds one external scoring call.
	ScoringTimeoutSeconds int `koanf:"scoring_timeout_seconds"`

	// ExtractionTimeoutSeconds bounds one external extraction call.
	ExtractionTimeoutSeconds int `koanf:"extraction_timeout_seconds"`

	// AIProvider selects the extraction/scoring backend: gemini or remote.
	AIProvider string `koanf:"ai_provider"`

	// GeminiAPIKey authenticates against the Gemini API when AIProvider is gemini.
	GeminiAPIKey string `koanf:"gemini_api_key"`

	// GeminiModel names the generative model used for extraction and scoring.
	GeminiModel string `koanf:"gemini_model"`

	// RemoteBaseURL is the base URL of the remote extraction/scoring service
	// when AIProvider is remote.
	RemoteBaseURL string `koanf:"remote_base_url"`

	// ScoreWeights maps match dimensions to their weight in the global score.
	ScoreWeights map[string]float64 `koanf:"score_weights"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":9080",
		WorkerCount:              runtime.NumCPU() * 2,
		ClaimTTLSeconds:          120,
		ScoringTimeoutSeconds:    90,
		ExtractionTimeoutSeconds: 60,
		AIProvider:               "gemini",
		GeminiModel:              "gemini-2.5-flash",
		ScoreWeights: map[string]float64{
			"education":   0.15,
			"experience":  0.25,
			"tech_skills": 0.50,
			"soft_skills": 0.10,
		},
	}
}
