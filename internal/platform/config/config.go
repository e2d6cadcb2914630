// Package config loads application configuration from environment variables.
// All variables use the QUIZ_ prefix.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	CORS   CORSConfig
	Upload UploadConfig
	Seed   SeedConfig
	Cache  CacheConfig
	AI     AIConfig
	Log    LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// UploadConfig limits quiz document uploads.
type UploadConfig struct {
	MaxBytes int64
}

// SeedConfig controls the demonstration content loaded at startup.
type SeedConfig struct {
	Enabled bool
	Path    string // empty uses the embedded default
}

// CacheConfig holds Redis connection settings. An empty URL keeps token
// budgets in memory.
type CacheConfig struct {
	URL string
}

// AIConfig holds configuration for the AI providers and the bonus generator.
type AIConfig struct {
	OpenAI           OpenAIConfig
	Anthropic        AnthropicConfig
	Google           GoogleConfig
	Ollama           OllamaConfig
	OpenRouter       OpenRouterConfig
	Timeout          time.Duration
	BonusCount       int
	DailyTokenBudget int64
}

// OpenAIConfig holds OpenAI provider settings. BaseURL may point at any
// OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AnthropicConfig holds Anthropic provider settings. An empty Model keeps
// the provider's default.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
	Model  string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
	Model   string
}

// OpenRouterConfig holds OpenRouter provider settings.
type OpenRouterConfig struct {
	APIKey string
	Model  string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// LoadDotEnv reads variables from the given .env files (default ".env")
// into the process environment. Variables already set win. A missing file
// is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables with QUIZ_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("QUIZ_SERVER_PORT", 8080),
			Host: envStr("QUIZ_SERVER_HOST", "0.0.0.0"),
		},
		CORS: CORSConfig{
			AllowedOrigins: envList("QUIZ_CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Upload: UploadConfig{
			MaxBytes: int64(envInt("QUIZ_UPLOAD_MAX_BYTES", 10<<20)),
		},
		Seed: SeedConfig{
			Enabled: envBool("QUIZ_SEED_ENABLED", true),
			Path:    envStr("QUIZ_SEED_PATH", ""),
		},
		Cache: CacheConfig{
			URL: envStr("QUIZ_CACHE_URL", ""),
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey:  envStr("QUIZ_AI_OPENAI_API_KEY", ""),
				BaseURL: envStr("QUIZ_AI_OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Model:   envStr("QUIZ_AI_OPENAI_MODEL", "gpt-4o"),
			},
			Anthropic: AnthropicConfig{
				APIKey: envStr("QUIZ_AI_ANTHROPIC_API_KEY", ""),
				Model:  envStr("QUIZ_AI_ANTHROPIC_MODEL", ""),
			},
			Google: GoogleConfig{
				APIKey: envStr("QUIZ_AI_GOOGLE_API_KEY", ""),
				Model:  envStr("QUIZ_AI_GOOGLE_MODEL", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("QUIZ_AI_OLLAMA_ENABLED", false),
				URL:     envStr("QUIZ_AI_OLLAMA_URL", "http://localhost:11434"),
				Model:   envStr("QUIZ_AI_OLLAMA_MODEL", ""),
			},
			OpenRouter: OpenRouterConfig{
				APIKey: envStr("QUIZ_AI_OPENROUTER_API_KEY", ""),
				Model:  envStr("QUIZ_AI_OPENROUTER_MODEL", ""),
			},
			Timeout:          envDuration("QUIZ_AI_TIMEOUT", 30*time.Second),
			BonusCount:       envInt("QUIZ_AI_BONUS_COUNT", 5),
			DailyTokenBudget: int64(envInt("QUIZ_AI_DAILY_TOKEN_BUDGET", 0)),
		},
		Log: LogConfig{
			Level:  envStr("QUIZ_LOG_LEVEL", "info"),
			Format: envStr("QUIZ_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("QUIZ_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("QUIZ_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("QUIZ_LOG_LEVEL must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("QUIZ_UPLOAD_MAX_BYTES must be positive")
	}
	if c.AI.BonusCount <= 0 {
		return fmt.Errorf("QUIZ_AI_BONUS_COUNT must be positive")
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("QUIZ_AI_TIMEOUT must be positive")
	}
	if c.AI.DailyTokenBudget < 0 {
		return fmt.Errorf("QUIZ_AI_DAILY_TOKEN_BUDGET must not be negative")
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
// Without one, bonus question generation reports itself unavailable.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.Google.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envDuration accepts Go durations ("45s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
