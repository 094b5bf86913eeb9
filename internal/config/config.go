package config

import (
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Discord Bot
	DiscordToken string

	// Discord OAuth2, optional. Protected API routes need all three.
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Storage: postgres://, sqlite://path or memory://
	DatabaseURL string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session
	JWTSecret string

	// Vision, enabled when the key is set
	OpenAIAPIKey      string
	OpenAIVisionModel string

	LogLevel string

	// Equity and ledger tuning
	EquityTrials         int
	EquityWorkers        int
	ConsistencyTolerance float64
	AdviceRiskThreshold  float64

	// Quiet time before an unfinished game is nudged; 0 disables
	ReminderIdle time.Duration
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIVisionModel:   getEnvDefault("OPENAI_VISION_MODEL", "gpt-4o"),
		LogLevel:            getEnvDefault("LOG_LEVEL", "info"),
	}

	// Extract base URL from redirect URI
	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var err error
	if cfg.EquityTrials, err = getEnvInt("EQUITY_TRIALS", 2000); err != nil {
		return nil, err
	}
	if cfg.EquityTrials <= 0 {
		return nil, fmt.Errorf("EQUITY_TRIALS must be positive")
	}
	if cfg.EquityWorkers, err = getEnvInt("EQUITY_WORKERS", runtime.NumCPU()); err != nil {
		return nil, err
	}
	if cfg.ConsistencyTolerance, err = getEnvFloat("CONSISTENCY_TOLERANCE", 0.05); err != nil {
		return nil, err
	}
	if cfg.ConsistencyTolerance < 0 || cfg.ConsistencyTolerance >= 1 {
		return nil, fmt.Errorf("CONSISTENCY_TOLERANCE must be in [0, 1)")
	}
	if cfg.AdviceRiskThreshold, err = getEnvFloat("ADVICE_RISK_THRESHOLD", 15); err != nil {
		return nil, err
	}
	if cfg.ReminderIdle, err = getEnvDuration("REMINDER_IDLE", 3*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ReminderIdle < 0 {
		return nil, fmt.Errorf("REMINDER_IDLE must not be negative")
	}

	return cfg, nil
}

// OAuthEnabled reports whether Discord login can be offered.
func (c *Config) OAuthEnabled() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != "" && c.DiscordRedirectURI != ""
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	if v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 90m: %w", key, err)
	}
	return d, nil
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
