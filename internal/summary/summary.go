// Package summary turns a standup into a short digest, using a language
// model when one is configured and a fixed template otherwise.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/example/standup-bot/internal/logging"
	"github.com/example/standup-bot/internal/telemetry"
)

// ErrDisabled is returned when no model is configured.
var ErrDisabled = errors.New("summary: no language model configured")

const systemPrompt = "You are a helpful assistant that creates concise, professional standup summaries for software developers."

var tracer = telemetry.Tracer("summary")

// Input is everything known about one standup.
type Input struct {
	Yesterday string
	Today     string
	Blockers  string
	Commits   []string
	Issues    []string
}

// HasBlockers reports whether blockers holds an actual impediment rather
// than a way of saying there is none.
func HasBlockers(blockers string) bool {
	switch strings.ToLower(strings.TrimSpace(blockers)) {
	case "", "none", "no", "no blockers", "n/a":
		return false
	}
	return true
}

// Options tunes generation.
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Generator produces summaries with a language model.
type Generator struct {
	model  llms.Model
	opts   Options
	logger *slog.Logger
}

// NewGenerator wraps model. A nil model makes every call return ErrDisabled.
func NewGenerator(model llms.Model, opts Options, logger *slog.Logger) *Generator {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 500
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{model: model, opts: opts, logger: logger}
}

// Enabled reports whether a model is configured.
func (g *Generator) Enabled() bool {
	return g != nil && g.model != nil
}

// Generate asks the model for a summary of in. The call is bounded by the
// configured timeout.
func (g *Generator) Generate(ctx context.Context, in Input) (summary string, err error) {
	if !g.Enabled() {
		return "", ErrDisabled
	}
	logger := logging.FromContextOr(ctx, g.logger).With("component", "summary", "operation", "Generate")

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "summary.generate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.WarnContext(ctx, "failed to generate summary", "error", err)
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("summary.commits", len(in.Commits)), attribute.Int("summary.issues", len(in.Issues)))

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, BuildPrompt(in)),
	}
	resp, err := g.model.GenerateContent(ctx, messages,
		llms.WithTemperature(g.opts.Temperature),
		llms.WithMaxTokens(g.opts.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("summary: generate: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("summary: model returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", errors.New("summary: model returned empty content")
	}
	logger.InfoContext(ctx, "summary generated")
	return text, nil
}

// BuildPrompt renders the request sent to the model.
func BuildPrompt(in Input) string {
	var b strings.Builder
	b.WriteString("Generate a concise, professional standup summary based on the following information:\n\n")
	fmt.Fprintf(&b, "**What I did yesterday:**\n%s\n\n", in.Yesterday)
	fmt.Fprintf(&b, "**What I plan to do today:**\n%s\n\n", in.Today)
	if HasBlockers(in.Blockers) {
		fmt.Fprintf(&b, "**Blockers:**\n%s\n\n", in.Blockers)
	}
	writeList(&b, "Recent GitHub commits", in.Commits)
	writeList(&b, "Active Jira tasks", in.Issues)
	b.WriteString("Create a brief, engaging summary in 3-5 bullet points that highlights key accomplishments, ")
	b.WriteString("plans, and any blockers. Use emojis where appropriate to make it more readable.")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// Fallback renders the deterministic summary used when no model answers.
func Fallback(in Input) string {
	var b strings.Builder
	b.WriteString("📋 **Daily Standup Summary**\n\n")
	b.WriteString("✅ **Completed Yesterday:**\n")
	b.WriteString(bullet(in.Yesterday))
	b.WriteString("\n")
	b.WriteString("🎯 **Plan for Today:**\n")
	b.WriteString(bullet(in.Today))
	b.WriteString("\n")
	if HasBlockers(in.Blockers) {
		b.WriteString("⚠️ **Blockers:**\n")
		b.WriteString(bullet(in.Blockers))
		b.WriteString("\n")
	} else {
		b.WriteString("✨ **No blockers reported**\n\n")
	}
	b.WriteString("_Note: Using simplified summary (AI summary unavailable)_")
	return b.String()
}

func bullet(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "• _No information provided_\n"
	}
	if strings.HasPrefix(trimmed, "•") || strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
		return text + "\n"
	}
	return "• " + text + "\n"
}
