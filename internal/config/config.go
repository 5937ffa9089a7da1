package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultDecayRate is the per-day confidence decrement applied by the decay job.
const DefaultDecayRate = 0.015

// Config holds all recall configuration. Values come from the environment;
// the store URI is the only hard requirement.
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	LLM    LLMConfig
	Decay  DecayConfig
}

type ServerConfig struct {
	Bind string
	Port int
}

type StoreConfig struct {
	// URI selects the backend: mongodb:// or mongodb+srv:// for the
	// document store, anything else is treated as a SQLite path.
	URI string
}

type LLMConfig struct {
	Provider    string // "gemini" or "openai"; a blank API key disables the provider
	GeminiKey   string
	GeminiModel string // e.g. "gemini-1.5-flash"
	OpenAIKey   string
	OpenAIModel string // e.g. "gpt-4o-mini"
}

type DecayConfig struct {
	RatePerDay float64
	CronSecret string // optional shared secret for POST /decay
	Timer      bool   // also run the job in-process daily
}

// Default returns a Config with sensible defaults and no store configured.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "0.0.0.0",
			Port: 8787,
		},
		LLM: LLMConfig{
			Provider:    "gemini",
			GeminiModel: "gemini-1.5-flash",
			OpenAIModel: "gpt-4o-mini",
		},
		Decay: DecayConfig{
			RatePerDay: DefaultDecayRate,
		},
	}
}

// FromEnv builds a Config from the process environment on top of Default.
// It fails when RECALL_DB_URI is missing; the process must not come up
// without a store.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.Store.URI = os.Getenv("RECALL_DB_URI")
	if cfg.Store.URI == "" {
		return cfg, fmt.Errorf("RECALL_DB_URI is not set")
	}

	if v := os.Getenv("RECALL_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("RECALL_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("RECALL_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	cfg.LLM.GeminiKey = os.Getenv("GEMINI_API_KEY")
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.LLM.GeminiModel = v
	}
	cfg.LLM.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.OpenAIModel = v
	}

	if v := os.Getenv("DECAY_RATE_PER_DAY"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("DECAY_RATE_PER_DAY: %w", err)
		}
		cfg.Decay.RatePerDay = rate
	}
	cfg.Decay.CronSecret = os.Getenv("CRON_SECRET")
	if v := os.Getenv("RECALL_DECAY_TIMER"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("RECALL_DECAY_TIMER: %w", err)
		}
		cfg.Decay.Timer = enabled
	}

	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
