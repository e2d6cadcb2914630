// Package bonus generates extra practice questions for a quiz with a hosted
// language model.
package bonus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/ai"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

const (
	DefaultCount       = 5
	DefaultTimeout     = 30 * time.Second
	defaultTemperature = 0.8
	optionsPerQuestion = 4
)

// Client-facing failure messages.
const (
	msgFailed        = "Failed to generate bonus questions. Please try again."
	msgTimeout       = "Generating bonus questions took too long. Please try again."
	msgNotConfigured = "Bonus questions are not available: no AI provider is configured."
)

// ErrBudgetExhausted is returned when the requester has used up their daily
// token budget.
var ErrBudgetExhausted = errors.New("daily AI token budget exhausted")

// GenerationError reports a failed generation. Reason is safe to show to a
// client; Err keeps the underlying cause for logs.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	return e.Reason
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Request describes the quiz to write bonus questions for.
type Request struct {
	Title       string
	Description string
	// Existing question texts, so the model avoids repeating them.
	Existing []string
	// RequesterID keys the token budget. Empty skips budget checks.
	RequesterID string
}

// Generator produces bonus questions. The zero value is not usable; call New.
type Generator struct {
	provider ai.Provider
	budget   ai.BudgetChecker
	count    int
	timeout  time.Duration
	model    string
}

// Option configures a Generator.
type Option func(*Generator)

// WithCount sets how many questions each call returns.
func WithCount(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.count = n
		}
	}
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithBudget enables per-requester daily token limits.
func WithBudget(b ai.BudgetChecker) Option {
	return func(g *Generator) {
		g.budget = b
	}
}

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(g *Generator) {
		g.model = model
	}
}

// New creates a Generator. A nil provider yields a generator whose every call
// fails immediately with a GenerationError.
func New(provider ai.Provider, opts ...Option) *Generator {
	g := &Generator{
		provider: provider,
		count:    DefaultCount,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Count returns the number of questions each call produces.
func (g *Generator) Count() int {
	return g.count
}

// Generate asks the model for exactly Count questions. Every returned question
// has fresh ids and a correctAnswerId naming one of its own options.
func (g *Generator) Generate(ctx context.Context, req Request) ([]quiz.Question, error) {
	if g.provider == nil {
		return nil, &GenerationError{Reason: msgNotConfigured, Err: ai.ErrNoProvider}
	}

	if g.budget != nil && req.RequesterID != "" {
		ok, err := g.budget.Check(ctx, req.RequesterID)
		if err != nil {
			slog.Warn("token budget check failed, allowing request", "requester", req.RequesterID, "error", err)
		} else if !ok {
			return nil, ErrBudgetExhausted
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.provider.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(req, g.count)},
		},
		Model:       g.model,
		Temperature: defaultTemperature,
		JSONMode:    true,
	})
	if err != nil {
		if errors.Is(err, ai.ErrNoProvider) {
			return nil, &GenerationError{Reason: msgNotConfigured, Err: err}
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &GenerationError{Reason: msgTimeout, Err: err}
		}
		return nil, &GenerationError{Reason: msgFailed, Err: err}
	}

	questions, err := parseQuestions(resp.Content, g.count)
	if err != nil {
		return nil, &GenerationError{Reason: msgFailed, Err: err}
	}

	if g.budget != nil && req.RequesterID != "" {
		if err := g.budget.Record(ctx, req.RequesterID, resp.TotalTokens()); err != nil {
			slog.Warn("recording token usage failed", "requester", req.RequesterID, "error", err)
		}
	}

	slog.Info("bonus questions generated",
		"quiz_title", req.Title,
		"count", len(questions),
		"provider", resp.Provider,
		"model", resp.Model,
		"tokens", resp.TotalTokens(),
		"duration", time.Since(start),
	)
	return questions, nil
}

type reply struct {
	Questions []struct {
		Text    string `json:"text"`
		Options []struct {
			Text   string `json:"text"`
			Letter string `json:"letter"`
		} `json:"options"`
		CorrectLetter string `json:"correctLetter"`
		Explanation   string `json:"explanation"`
	} `json:"questions"`
}

// parseQuestions decodes the model's reply and returns the first want
// questions. An unknown correctLetter falls back to the first option.
func parseQuestions(content string, want int) ([]quiz.Question, error) {
	var r reply
	if err := json.Unmarshal([]byte(stripFences(content)), &r); err != nil {
		return nil, fmt.Errorf("decoding model reply: %w", err)
	}
	if len(r.Questions) < want {
		return nil, fmt.Errorf("model returned %d questions, want %d", len(r.Questions), want)
	}

	out := make([]quiz.Question, 0, want)
	for i, rq := range r.Questions[:want] {
		text := strings.TrimSpace(rq.Text)
		if text == "" {
			return nil, fmt.Errorf("question %d has no text", i+1)
		}
		opts := make([]quiz.Option, 0, len(rq.Options))
		for _, ro := range rq.Options {
			if t := strings.TrimSpace(ro.Text); t != "" {
				opts = append(opts, quiz.Option{Text: t, Letter: ro.Letter})
			}
		}
		if len(opts) < 2 {
			return nil, fmt.Errorf("question %d has %d usable options", i+1, len(opts))
		}

		q, err := quiz.BuildQuestion(text, strings.TrimSpace(rq.Explanation), rq.CorrectLetter, opts)
		if errors.Is(err, quiz.ErrUnknownAnswerLetter) {
			q.CorrectAnswerID = q.Options[0].ID
		} else if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

// stripFences removes a surrounding Markdown code fence, which some models
// add even in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
