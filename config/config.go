// Package config loads engine configuration from the environment.
//
// Recognized variables (all optional unless noted):
//
//	GRIDCHAT_PROVIDER      backend provider, "ollama" or "openai" (default ollama)
//	GRIDCHAT_ENDPOINT      base URL override for the provider
//	GRIDCHAT_MODEL         model identifier (provider default when unset)
//	GRIDCHAT_API_KEY       bearer credential, required for openai
//	GRIDCHAT_TIMEOUT       per-request timeout (default 120s)
//	GRIDCHAT_SYSTEM_PROMPT override for the seeded system prompt
//	GRIDCHAT_SESSION_TTL   idle session eviction age (default 6h)
//	GRIDCHAT_MAX_SESSIONS  retained session cap (default 256)
//
// OPENAI_API_KEY is honored as a fallback credential.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the validated engine configuration.
type Config struct {
	Provider     string
	Endpoint     string
	Model        string
	APIKey       string
	Timeout      time.Duration
	SystemPrompt string
	SessionTTL   time.Duration
	MaxSessions  int
}

// Load reads the environment and validates the result. Missing required
// configuration fails fast here, at startup, rather than mid-turn.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GRIDCHAT")
	v.AutomaticEnv()

	v.SetDefault("provider", "ollama")
	v.SetDefault("timeout", 120*time.Second)
	v.SetDefault("session_ttl", 6*time.Hour)
	v.SetDefault("max_sessions", 256)

	cfg := &Config{
		Provider:     strings.ToLower(v.GetString("provider")),
		Endpoint:     v.GetString("endpoint"),
		Model:        v.GetString("model"),
		APIKey:       v.GetString("api_key"),
		Timeout:      v.GetDuration("timeout"),
		SystemPrompt: v.GetString("system_prompt"),
		SessionTTL:   v.GetDuration("session_ttl"),
		MaxSessions:  v.GetInt("max_sessions"),
	}

	if cfg.APIKey == "" {
		fallback := viper.New()
		fallback.AutomaticEnv()
		cfg.APIKey = fallback.GetString("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for configuration-class errors.
func (c *Config) Validate() error {
	switch c.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown provider %q (want ollama or openai)", c.Provider)
	}

	if c.Provider == "openai" && c.APIKey == "" {
		return fmt.Errorf("provider openai requires GRIDCHAT_API_KEY or OPENAI_API_KEY")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("max_sessions must not be negative, got %d", c.MaxSessions)
	}
	return nil
}
