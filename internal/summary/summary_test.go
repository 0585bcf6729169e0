package summary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply    string
	err      error
	delay    time.Duration
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestGenerate(t *testing.T) {
	model := &fakeModel{reply: "  • Shipped login fix  "}
	g := NewGenerator(model, Options{Temperature: 0.2, MaxTokens: 200}, nil)

	got, err := g.Generate(context.Background(), Input{
		Yesterday: "Fixed login",
		Today:     "Write tests",
		Blockers:  "none",
		Commits:   []string{"acme/api: Fix login"},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != "• Shipped login fix" {
		t.Fatalf("expected trimmed model output, got %q", got)
	}
	if len(model.messages) != 2 || model.messages[0].Role != llms.ChatMessageTypeSystem {
		t.Fatalf("expected system and human messages, got %+v", model.messages)
	}
	if model.opts.Temperature != 0.2 || model.opts.MaxTokens != 200 {
		t.Fatalf("unexpected call options %+v", model.opts)
	}
}

func TestGenerateFailures(t *testing.T) {
	cases := []struct {
		name  string
		model *fakeModel
	}{
		{"model error", &fakeModel{err: errors.New("rate limited")}},
		{"empty reply", &fakeModel{reply: "   "}},
		{"timeout", &fakeModel{reply: "late", delay: time.Second}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGenerator(tc.model, Options{Timeout: 20 * time.Millisecond}, nil)
			if _, err := g.Generate(context.Background(), Input{Yesterday: "a", Today: "b"}); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := NewGenerator(nil, Options{}, nil).Generate(context.Background(), Input{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Input{
		Yesterday: "Reviewed PRs",
		Today:     "Deploy",
		Blockers:  "Waiting on DBA",
		Commits:   []string{"acme/api: Fix login"},
		Issues:    []string{"[OPS-1] Rotate keys - In Progress"},
	})
	for _, want := range []string{
		"**What I did yesterday:**\nReviewed PRs",
		"**What I plan to do today:**\nDeploy",
		"**Blockers:**\nWaiting on DBA",
		"**Recent GitHub commits:**\n- acme/api: Fix login",
		"**Active Jira tasks:**\n- [OPS-1] Rotate keys - In Progress",
		"3-5 bullet points",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "meetings") {
		t.Fatalf("expected no calendar section in prompt:\n%s", prompt)
	}
	bare := BuildPrompt(Input{Yesterday: "Reviewed PRs", Today: "Deploy"})
	if strings.Contains(bare, "Recent GitHub commits") || strings.Contains(bare, "Active Jira tasks") {
		t.Fatalf("expected empty sections to be omitted:\n%s", bare)
	}
	if strings.Contains(BuildPrompt(Input{Blockers: "No blockers"}), "**Blockers:**") {
		t.Fatal("expected 'No blockers' to omit the blockers section")
	}
}

func TestFallback(t *testing.T) {
	got := Fallback(Input{Yesterday: "Fixed login", Today: "- Write tests", Blockers: "none"})
	want := "📋 **Daily Standup Summary**\n\n" +
		"✅ **Completed Yesterday:**\n• Fixed login\n\n" +
		"🎯 **Plan for Today:**\n- Write tests\n\n" +
		"✨ **No blockers reported**\n\n" +
		"_Note: Using simplified summary (AI summary unavailable)_"
	if got != want {
		t.Fatalf("unexpected fallback:\n%s", got)
	}

	withBlockers := Fallback(Input{Today: "Deploy", Blockers: "VPN down"})
	if !strings.Contains(withBlockers, "⚠️ **Blockers:**\n• VPN down\n") {
		t.Fatalf("expected blockers section, got:\n%s", withBlockers)
	}
	if !strings.Contains(withBlockers, "• _No information provided_") {
		t.Fatalf("expected placeholder for empty yesterday, got:\n%s", withBlockers)
	}
}

func TestProviderFor(t *testing.T) {
	cases := map[string]Provider{
		"":                    ProviderNone,
		"YOUR_OPENAI_API_KEY": ProviderNone,
		"AIzaSyExample":       ProviderGoogle,
		"sk-live-123":         ProviderOpenAI,
	}
	for key, want := range cases {
		if got := ProviderFor(key); got != want {
			t.Fatalf("ProviderFor(%q): expected %q, got %q", key, want, got)
		}
	}
}

func TestNewModelWithoutKey(t *testing.T) {
	model, provider, err := NewModel(context.Background(), ModelConfig{})
	if err != nil || model != nil || provider != ProviderNone {
		t.Fatalf("expected no model, got %v %q %v", model, provider, err)
	}
}

func TestOpenAIModelAgainstCompatibleServer(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4",
			"choices":[{"index":0,"message":{"role":"assistant","content":"• Deployed the API"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	model, provider, err := NewModel(context.Background(), ModelConfig{APIKey: "sk-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewModel returned error: %v", err)
	}
	if provider != ProviderOpenAI {
		t.Fatalf("expected openai provider, got %q", provider)
	}

	got, err := NewGenerator(model, Options{Timeout: 5 * time.Second}, nil).Generate(context.Background(), Input{Yesterday: "a", Today: "b"})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if got != "• Deployed the API" {
		t.Fatalf("unexpected summary %q", got)
	}
	if gotAuth != "Bearer sk-test" || !strings.HasSuffix(gotPath, "/chat/completions") {
		t.Fatalf("unexpected request auth=%q path=%q", gotAuth, gotPath)
	}
}
