package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/example/standup-bot/internal/logging"
	"github.com/example/standup-bot/internal/telemetry"
)

// maxItems bounds how many lines a single fetch returns.
const maxItems = 5

// maxBody bounds how much of a response body is read.
const maxBody = 1 << 20

var tracer = telemetry.Tracer("integration")

// placeholderTokens are sample values from setup guides that never authenticate.
var placeholderTokens = map[string]struct{}{
	"YOUR_GITHUB_TOKEN": {},
	"YOUR_JIRA_TOKEN":   {},
}

func missingCredential(token string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return true
	}
	_, placeholder := placeholderTokens[token]
	return placeholder
}

type fetcher struct {
	name    string
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

func newFetcher(name string, client *http.Client, timeout time.Duration, logger *slog.Logger) fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return fetcher{name: name, http: client, timeout: timeout, logger: logger}
}

func (f fetcher) loggerFor(ctx context.Context, operation string) *slog.Logger {
	return logging.FromContextOr(ctx, f.logger).With("integration", f.name, "operation", operation)
}

// get issues a bounded GET and returns the body of a 2xx response.
func (f fetcher) get(ctx context.Context, operation, url string, header http.Header) (body []byte, err error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, f.name+"."+operation)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
