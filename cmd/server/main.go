package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/ai"
	"github.com/p-n-ai/pai-quiz/internal/bonus"
	"github.com/p-n-ai/pai-quiz/internal/httpapi"
	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
	"github.com/p-n-ai/pai-quiz/internal/platform/config"
	"github.com/p-n-ai/pai-quiz/internal/progress"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, err := newStore(cfg.Seed)
	if err != nil {
		return err
	}

	var checkers []httpapi.Checker
	var budget ai.BudgetChecker = ai.NewInMemoryBudget(cfg.AI.DailyTokenBudget)
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return fmt.Errorf("connecting to cache: %w", err)
		}
		defer c.Close()
		budget = ai.NewRedisBudget(c.Client, cfg.AI.DailyTokenBudget)
		checkers = append(checkers, c)
	}

	var provider ai.Provider
	router := newAIRouter(cfg.AI)
	if router.HasProvider() {
		provider = router
	}
	generator := bonus.New(provider,
		bonus.WithCount(cfg.AI.BonusCount),
		bonus.WithTimeout(cfg.AI.Timeout),
		bonus.WithBudget(budget),
	)
	if provider != nil {
		slog.Info("bonus questions enabled", "providers", router.Names(), "count", generator.Count())
	} else {
		slog.Warn("no AI provider configured, bonus questions are disabled")
	}

	api := httpapi.NewServer(store,
		httpapi.WithGenerator(generator),
		httpapi.WithFeed(progress.NewFeed(0)),
		httpapi.WithCheckers(checkers...),
		httpapi.WithAllowedOrigins(cfg.CORS.AllowedOrigins),
		httpapi.WithMaxUploadBytes(cfg.Upload.MaxBytes),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout: the bonus route waits on the AI timeout and the
		// live route holds a WebSocket open.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func newStore(cfg config.SeedConfig) (*quiz.MemoryStore, error) {
	store := quiz.NewMemoryStore()
	if !cfg.Enabled {
		return store, nil
	}

	var (
		sd  quiz.SeedData
		err error
	)
	if cfg.Path != "" {
		sd, err = quiz.LoadSeedFile(cfg.Path)
	} else {
		sd, err = quiz.DefaultSeed()
	}
	if err != nil {
		return nil, fmt.Errorf("loading seed data: %w", err)
	}
	if err := quiz.Seed(store, sd); err != nil {
		return nil, fmt.Errorf("seeding store: %w", err)
	}
	return store, nil
}

// newAIRouter registers every configured provider in fallback order. The
// OpenAI-compatible providers share one HTTP client.
func newAIRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter()
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey,
			ai.WithBaseURL(cfg.OpenAI.BaseURL),
			ai.WithModel(cfg.OpenAI.Model),
			ai.WithHTTPClient(client),
		))
	}
	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey, ai.WithAnthropicModel(cfg.Anthropic.Model))
		if err != nil {
			slog.Warn("skipping anthropic provider", "error", err)
		} else {
			router.Register("anthropic", p)
		}
	}
	if cfg.Google.APIKey != "" {
		router.Register("google", ai.NewGoogleProvider(cfg.Google.APIKey, ai.WithGoogleModel(cfg.Google.Model)))
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey,
			ai.WithModel(cfg.OpenRouter.Model),
			ai.WithHTTPClient(client),
		))
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL,
			ai.WithModel(cfg.Ollama.Model),
			ai.WithHTTPClient(client),
		))
	}
	return router
}
