package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application
type Config struct {
	Oracle   OracleConfig
	Redis    RedisConfig
	DND5E    DND5EConfig
	Rules    RulesConfig
	Triggers TriggersConfig
	History  HistoryConfig
	Tracing  TracingConfig
}

// OracleConfig holds narration oracle configuration
type OracleConfig struct {
	APIKey    string        `env:"OPENAI_API_KEY"`
	BaseURL   string        `env:"OPENAI_BASE_URL"` // Optional: OpenAI compatible endpoint
	Model     string        `env:"ORACLE_MODEL" envDefault:"gpt-4o-mini"`
	MaxTokens int           `env:"ORACLE_MAX_TOKENS" envDefault:"800"`
	Timeout   time.Duration `env:"ORACLE_TIMEOUT" envDefault:"30s"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

// DND5EConfig holds D&D 5e API configuration
type DND5EConfig struct {
	BaseURL string        `env:"DND5E_API_URL" envDefault:"https://www.dnd5eapi.co/api"`
	Timeout time.Duration `env:"DND5E_API_TIMEOUT" envDefault:"30s"`
}

// RulesConfig holds the difficulty tier table
type RulesConfig struct {
	VeryEasy         int `env:"DC_VERY_EASY" envDefault:"5"`
	Easy             int `env:"DC_EASY" envDefault:"10"`
	Medium           int `env:"DC_MEDIUM" envDefault:"15"`
	Hard             int `env:"DC_HARD" envDefault:"20"`
	VeryHard         int `env:"DC_VERY_HARD" envDefault:"25"`
	NearlyImpossible int `env:"DC_NEARLY_IMPOSSIBLE" envDefault:"30"`
}

// Tiers returns the tier table keyed by tier name
func (c RulesConfig) Tiers() map[string]int {
	return map[string]int{
		"very_easy":         c.VeryEasy,
		"easy":              c.Easy,
		"medium":            c.Medium,
		"hard":              c.Hard,
		"very_hard":         c.VeryHard,
		"nearly_impossible": c.NearlyImpossible,
	}
}

// TriggersConfig holds trigger arbitration tunables
type TriggersConfig struct {
	RateLimitWindow   time.Duration `env:"TRIGGER_RATE_LIMIT_WINDOW" envDefault:"5m"`
	PatternWindow     int           `env:"TRIGGER_PATTERN_WINDOW" envDefault:"15"`
	StorylineWindow   int           `env:"TRIGGER_STORYLINE_WINDOW" envDefault:"20"`
	MinPatternActions int           `env:"TRIGGER_MIN_PATTERN_ACTIONS" envDefault:"3"`
}

// HistoryConfig holds history analysis configuration
type HistoryConfig struct {
	Window      int    `env:"HISTORY_WINDOW" envDefault:"20"`
	LexiconPath string `env:"HISTORY_LEXICON_PATH"` // Optional: YAML content pack
	MaxEvents   int    `env:"HISTORY_MAX_EVENTS" envDefault:"200"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled     bool   `env:"OTEL_TRACES_ENABLED" envDefault:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"dnd-narrator"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT" envDefault:"http://localhost:4318/v1/traces"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Parse loads configuration from environment variables without validating it
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.Oracle.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.Oracle.Timeout <= 0 {
		return nil, fmt.Errorf("ORACLE_TIMEOUT must be positive")
	}
	if cfg.Triggers.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("TRIGGER_RATE_LIMIT_WINDOW must be positive")
	}

	return cfg, nil
}
