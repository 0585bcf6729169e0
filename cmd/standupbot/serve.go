package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/standup-bot/internal/application"
	"github.com/example/standup-bot/internal/config"
	"github.com/example/standup-bot/internal/conversation"
	httptransport "github.com/example/standup-bot/internal/http"
	"github.com/example/standup-bot/internal/integration"
	"github.com/example/standup-bot/internal/persistence/sqlite"
	"github.com/example/standup-bot/internal/secret"
	"github.com/example/standup-bot/internal/session"
	"github.com/example/standup-bot/internal/summary"
	"github.com/example/standup-bot/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// bot is the fully wired process minus its listener.
type bot struct {
	handler http.Handler
	sweeper *session.Sweeper
	close   func()
}

// buildBot opens storage, applies migrations and wires every component
// selected by cfg. The caller must call close when done.
func buildBot(ctx context.Context, cfg config.Config, logger *slog.Logger) (*bot, error) {
	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		return nil, err
	}
	closePool := func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}
	if err := pool.Migrate(ctx, logger); err != nil {
		closePool()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	sealer, err := secret.New(cfg.CredentialKey)
	if err != nil {
		closePool()
		return nil, err
	}
	if cfg.CredentialKey == "" {
		logger.Warn("STANDUPBOT_CREDENTIAL_KEY is not set; third-party tokens are stored in plaintext")
	}

	model, provider, err := summary.NewModel(ctx, summary.ModelConfig{
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		BaseURL: cfg.AIBaseURL,
	})
	if err != nil {
		closePool()
		return nil, err
	}
	if provider == summary.ProviderNone {
		logger.Warn("no AI API key configured; standups use the template summary")
	} else {
		logger.Info("AI summaries enabled", "provider", string(provider))
	}
	summarizer := summary.NewGenerator(model, summary.Options{
		Temperature: cfg.AITemperature,
		Timeout:     cfg.AITimeout,
	}, logger)

	var store session.Store = session.NewMemoryStore()
	if cfg.SessionBackend == config.SessionBackendSQLite {
		store = session.NewRepositoryStore(sqlite.NewConversationRepository(pool))
	}
	sessions := session.NewManager(store, time.Now, logger)

	data := sqlite.NewStore(pool)
	collaborators := &http.Client{Timeout: cfg.CollaboratorTimeout}
	engine, err := conversation.NewEngine(conversation.Dependencies{
		Sessions:          sessions,
		Organizations:     application.NewOrganizationServiceWithLogger(data, uuid.NewString, time.Now, logger),
		Teams:             application.NewTeamServiceWithLogger(data, uuid.NewString, time.Now, logger),
		Users:             application.NewUserServiceWithLogger(data, sealer, uuid.NewString, time.Now, logger),
		Standups:          application.NewStandupServiceWithLogger(data, summarizer, uuid.NewString, time.Now, logger),
		Commits:           integration.NewGitHubClient(cfg.GitHubAPIURL, collaborators, cfg.CollaboratorTimeout, time.Now, logger),
		Issues:            integration.NewJiraClient(cfg.JiraBaseURL, collaborators, cfg.CollaboratorTimeout, logger),
		EnrichmentTimeout: cfg.CollaboratorTimeout,
		Logger:            logger,
	})
	if err != nil {
		closePool()
		return nil, err
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Webhook:           httptransport.NewWebhookHandler(engine, logger),
		WebhookMiddleware: []func(http.Handler) http.Handler{httptransport.RequireWebhookToken(cfg.WebhookToken, logger)},
		Middleware:        []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	return &bot{
		handler: router,
		sweeper: session.NewSweeper(sessions, cfg.SessionSweepInterval, cfg.SessionTimeout, logger),
		close:   closePool,
	}, nil
}

// runServe serves the webhook and sweeps idle sessions until ctx is cancelled,
// then shuts the server down gracefully.
func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	b, err := buildBot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           b.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("standup bot listening", "addr", server.Addr, "session_backend", cfg.SessionBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return b.sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
			return err
		}
		logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}
