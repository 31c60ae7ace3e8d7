// Package config resolves harness configuration from the environment.
package config

import (
	"strings"
	"time"

	"github.com/Laisky/errors/v2"

	"github.com/syslm/parity/common/env"
)

// Default endpoints and models used when neither flags nor environment
// variables override them.
const (
	DefaultLocalBaseURL     = "http://localhost:8000"
	DefaultLocalAPIKey      = "dummy-key"
	DefaultLocalModel       = "ondevice"
	DefaultReferenceBaseURL = "https://api.openai.com"
	DefaultReferenceModel   = "gpt-4.1-mini"
	DefaultTimeoutSeconds   = 30
)

// Config captures everything the harness needs to run, resolved from the
// environment with defaults applied. Flag overrides are merged in by the CLI
// after loading.
type Config struct {
	LocalBaseURL string
	LocalAPIKey  string
	LocalModel   string

	ReferenceBaseURL string
	ReferenceAPIKey  string
	ReferenceModel   string

	Timeout time.Duration

	SkipLocal     bool
	SkipReference bool

	// Scenario name filters; empty means "all scenarios".
	Scenarios     []string
	SkipScenarios []string

	ReportPath string
	Debug      bool
}

// Load resolves the configuration from environment variables. Call after any
// .env file has been loaded into the process environment.
func Load() *Config {
	return &Config{
		LocalBaseURL:     strings.TrimSpace(env.String("LOCAL_OPENAI_BASE_URL", DefaultLocalBaseURL)),
		LocalAPIKey:      strings.TrimSpace(env.String("LOCAL_OPENAI_API_KEY", DefaultLocalAPIKey)),
		LocalModel:       strings.TrimSpace(env.String("LOCAL_MODEL", DefaultLocalModel)),
		ReferenceBaseURL: strings.TrimSpace(env.String("OPENAI_BASE_URL", DefaultReferenceBaseURL)),
		ReferenceAPIKey:  strings.TrimSpace(env.String("OPENAI_API_KEY", "")),
		ReferenceModel:   strings.TrimSpace(env.String("OPENAI_MODEL", DefaultReferenceModel)),
		Timeout:          time.Duration(env.Int("CLIENT_TIMEOUT", DefaultTimeoutSeconds)) * time.Second,
		Scenarios:        ParseList(env.String("SCENARIOS", "")),
		SkipScenarios:    ParseList(env.String("SKIP_SCENARIOS", "")),
		ReportPath:       strings.TrimSpace(env.String("REPORT_PATH", "")),
		Debug:            env.Bool("DEBUG", false),
	}
}

// Validate checks cross-field constraints that cannot be expressed as simple
// defaults.
func (c *Config) Validate() error {
	if c.SkipLocal && c.SkipReference {
		return errors.New("both backends skipped, nothing to do")
	}
	if !c.SkipReference && c.ReferenceAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required unless the reference backend is skipped")
	}
	if c.Timeout <= 0 {
		return errors.Errorf("client timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// ParseList tokenizes a comma/semicolon/newline/whitespace separated list into
// trimmed, non-empty entries.
func ParseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	normalized := raw
	for _, sep := range []string{",", ";", "\n", "\r"} {
		normalized = strings.ReplaceAll(normalized, sep, ",")
	}

	parts := strings.Split(normalized, ",")
	if len(parts) == 1 && !strings.ContainsAny(raw, ",;\n") {
		parts = strings.Fields(raw)
	}

	var items []string
	for _, part := range parts {
		candidate := strings.TrimSpace(part)
		if candidate == "" {
			continue
		}
		items = append(items, candidate)
	}
	return items
}
