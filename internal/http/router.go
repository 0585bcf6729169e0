package http

import (
	"net/http"
	"strings"
)

// WebhookPath is the primary webhook route; LegacyWebhookPath is kept as an alias.
const (
	WebhookPath       = "/api/zoho/v3/webhook"
	LegacyWebhookPath = "/webhook"
	HealthPath        = "/health"
)

type RouterConfig struct {
	Webhook *WebhookHandler
	// WebhookMiddleware wraps only the webhook routes, e.g. RequireWebhookToken.
	WebhookMiddleware []func(http.Handler) http.Handler
	// Middleware wraps every route, e.g. RequestLogger.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Webhook != nil {
		webhook := chain(cfg.Webhook, cfg.WebhookMiddleware)
		for _, path := range []string{WebhookPath, LegacyWebhookPath} {
			mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				webhook.ServeHTTP(w, r)
			}))
		}
	}

	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			methodNotAllowed(w, http.MethodGet, http.MethodHead)
			return
		}
		newResponder(nil).writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "UP", Service: "standupbot"})
	})

	return chain(mux, cfg.Middleware)
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// chain applies middleware so that the first entry is the outermost.
func chain(handler http.Handler, middleware []func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] != nil {
			handler = middleware[i](handler)
		}
	}
	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
