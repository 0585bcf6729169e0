// Package config reads the bot's settings from the process environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/example/standup-bot/internal/logging"
)

// Session backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
)

// Config captures environment driven configuration values for the bot.
type Config struct {
	HTTPPort             int           `env:"STANDUPBOT_HTTP_PORT" envDefault:"8080"`
	SQLiteDSN            string        `env:"STANDUPBOT_SQLITE_DSN" envDefault:"file:standupbot.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"`
	SessionBackend       string        `env:"STANDUPBOT_SESSION_BACKEND" envDefault:"memory"`
	SessionTimeout       time.Duration `env:"STANDUPBOT_SESSION_TIMEOUT" envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"STANDUPBOT_SESSION_SWEEP_INTERVAL" envDefault:"10m"`
	WebhookToken         string        `env:"STANDUPBOT_WEBHOOK_TOKEN"`

	AIAPIKey      string        `env:"STANDUPBOT_AI_API_KEY"`
	AIModel       string        `env:"STANDUPBOT_AI_MODEL"`
	AIBaseURL     string        `env:"STANDUPBOT_AI_BASE_URL"`
	AITemperature float64       `env:"STANDUPBOT_AI_TEMPERATURE" envDefault:"0.7"`
	AITimeout     time.Duration `env:"STANDUPBOT_AI_TIMEOUT" envDefault:"30s"`

	GitHubAPIURL        string        `env:"STANDUPBOT_GITHUB_API_URL" envDefault:"https://api.github.com"`
	JiraBaseURL         string        `env:"STANDUPBOT_JIRA_BASE_URL"`
	CollaboratorTimeout time.Duration `env:"STANDUPBOT_COLLABORATOR_TIMEOUT" envDefault:"10s"`

	CredentialKey string `env:"STANDUPBOT_CREDENTIAL_KEY"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel      string `env:"STANDUPBOT_LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration values from the current process environment.
//
// Defaults apply to every unset variable. Values that parse but are out of
// range are collected and reported together.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	trimStrings(&cfg)

	invalid := make([]string, 0, 4)
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "STANDUPBOT_HTTP_PORT")
	}
	if cfg.SQLiteDSN == "" {
		invalid = append(invalid, "STANDUPBOT_SQLITE_DSN")
	}
	switch strings.ToLower(cfg.SessionBackend) {
	case SessionBackendMemory, SessionBackendSQLite:
		cfg.SessionBackend = strings.ToLower(cfg.SessionBackend)
	default:
		invalid = append(invalid, "STANDUPBOT_SESSION_BACKEND")
	}
	if cfg.SessionTimeout <= 0 {
		invalid = append(invalid, "STANDUPBOT_SESSION_TIMEOUT")
	}
	if cfg.SessionSweepInterval <= 0 {
		invalid = append(invalid, "STANDUPBOT_SESSION_SWEEP_INTERVAL")
	}
	if cfg.AITemperature < 0 || cfg.AITemperature > 2 {
		invalid = append(invalid, "STANDUPBOT_AI_TEMPERATURE")
	}
	if cfg.AITimeout <= 0 {
		invalid = append(invalid, "STANDUPBOT_AI_TIMEOUT")
	}
	if cfg.AIBaseURL != "" && !isHTTPURL(cfg.AIBaseURL) {
		invalid = append(invalid, "STANDUPBOT_AI_BASE_URL")
	}
	if !isHTTPURL(cfg.GitHubAPIURL) {
		invalid = append(invalid, "STANDUPBOT_GITHUB_API_URL")
	}
	if cfg.JiraBaseURL != "" && !isHTTPURL(cfg.JiraBaseURL) {
		invalid = append(invalid, "STANDUPBOT_JIRA_BASE_URL")
	}
	if cfg.CollaboratorTimeout <= 0 {
		invalid = append(invalid, "STANDUPBOT_COLLABORATOR_TIMEOUT")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		invalid = append(invalid, "STANDUPBOT_LOG_LEVEL")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func trimStrings(cfg *Config) {
	for _, s := range []*string{
		&cfg.SQLiteDSN, &cfg.SessionBackend, &cfg.WebhookToken,
		&cfg.AIAPIKey, &cfg.AIModel, &cfg.AIBaseURL,
		&cfg.GitHubAPIURL, &cfg.JiraBaseURL,
		&cfg.CredentialKey, &cfg.OTLPEndpoint, &cfg.LogLevel,
	} {
		*s = strings.TrimSpace(*s)
	}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
