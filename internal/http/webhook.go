package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/standup-bot/internal/conversation"
	"github.com/example/standup-bot/internal/telemetry"
)

// MaxWebhookBody bounds the size of an inbound message.
const MaxWebhookBody = 64 << 10

const unknownUserName = "Unknown User"

const unidentifiedSenderReply = "❌ Error: Could not identify user. Please configure the bot to send user context.\n\n" +
	"Expected JSON format:\n```\n{\n  \"user\": {\"id\": \"...\", \"name\": \"...\", \"email\": \"...\"},\n  \"message\": \"...\"\n}\n```"

// MessageHandler produces the reply to one chat message.
type MessageHandler interface {
	Handle(ctx context.Context, msg conversation.Message) string
}

type WebhookHandler struct {
	handler   MessageHandler
	responder responder
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewWebhookHandler(handler MessageHandler, logger *slog.Logger) *WebhookHandler {
	base := defaultLogger(logger)
	return &WebhookHandler{
		handler:   handler,
		responder: newResponder(base),
		tracer:    telemetry.Tracer("http"),
		logger:    base,
	}
}

func (h *WebhookHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "WebhookHandler", operation, attrs...)
}

// ServeHTTP decodes one message, hands it to the conversation engine and
// answers with its reply. Chat-level failures are still answered with 200 so
// the platform shows the reply to the user.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.handler == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx, span := h.tracer.Start(r.Context(), "http.webhook", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.responder.writeError(ctx, w, http.StatusRequestEntityTooLarge, nil)
			return
		}
		h.log(ctx, "ServeHTTP", "error_kind", "bad_request").ErrorContext(ctx, "failed to read webhook body", "error", err)
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	msg, ok := decodeMessage(body, r.Header)
	if !ok {
		h.log(ctx, "ServeHTTP", "error_kind", "unidentified").WarnContext(ctx, "could not identify webhook sender", "body_bytes", len(body))
		span.SetStatus(codes.Error, "unidentified sender")
		h.responder.writeJSON(ctx, w, http.StatusOK, replyResponse{Text: unidentifiedSenderReply})
		return
	}
	span.SetAttributes(attribute.String("chat.identity", msg.Identity))

	logger := h.log(ctx, "ServeHTTP", "identity", msg.Identity)
	logger.InfoContext(ctx, "processing chat message", "channel", msg.ChannelRef)

	reply := h.handler.Handle(ctx, msg)
	h.responder.writeJSON(ctx, w, http.StatusOK, replyResponse{Text: reply})
}

// decodeMessage extracts the sender and text from a webhook body.
//
// JSON bodies are read from user{id,name,email}, message (or text) and
// channel.id. When user.id is absent the sender is looked up in the
// X-Zoho-User-* headers and then in the actor, sender and from objects.
// Non-JSON bodies may name the sender inline as "id:name:email message", or
// as "user:N message" which maps to the test identity test_user_N.
// ok is false when no sender can be found.
func decodeMessage(body []byte, header http.Header) (conversation.Message, bool) {
	raw := strings.TrimSpace(string(body))
	if gjson.Valid(raw) {
		root := gjson.Parse(raw)
		if root.IsObject() {
			return decodeJSONMessage(root, header)
		}
	}
	return decodePlainText(raw)
}

func decodeJSONMessage(root gjson.Result, header http.Header) (conversation.Message, bool) {
	msg := conversation.Message{
		Text:       firstString(root, "message", "text"),
		ChannelRef: root.Get("channel.id").String(),
	}

	if id := strings.TrimSpace(root.Get("user.id").String()); id != "" {
		msg.Identity = id
		msg.Name = orDefault(root.Get("user.name").String(), unknownUserName)
		msg.Email = strings.TrimSpace(root.Get("user.email").String())
		return msg, true
	}

	if id := headerValue(header, "X-Zoho-User-Id", "Zoho-User-Id"); id != "" {
		msg.Identity = id
		msg.Name = orDefault(headerValue(header, "X-Zoho-User-Name", "Zoho-User-Name"), unknownUserName)
		msg.Email = headerValue(header, "X-Zoho-User-Email", "Zoho-User-Email")
		return msg, true
	}

	for _, key := range []string{"actor", "sender", "from"} {
		who := root.Get(key)
		if !who.IsObject() {
			continue
		}
		if id := strings.TrimSpace(who.Get("id").String()); id != "" {
			msg.Identity = id
			msg.Name = orDefault(who.Get("name").String(), unknownUserName)
			msg.Email = strings.TrimSpace(who.Get("email").String())
			return msg, true
		}
	}
	return msg, false
}

func decodePlainText(raw string) (conversation.Message, bool) {
	head, text, _ := strings.Cut(raw, " ")
	text = strings.TrimSpace(text)

	parts := strings.Split(head, ":")
	switch {
	case len(parts) >= 3 && parts[0] != "":
		return conversation.Message{
			Identity: parts[0],
			Name:     orDefault(parts[1], unknownUserName),
			Email:    parts[2],
			Text:     text,
		}, true
	case len(parts) == 2 && parts[0] == "user" && parts[1] != "" && text != "":
		n := parts[1]
		return conversation.Message{
			Identity: "test_user_" + n,
			Name:     "Test User " + n,
			Email:    "testuser" + n + "@example.com",
			Text:     text,
		}, true
	}
	return conversation.Message{Text: raw}, false
}

func firstString(root gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := root.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func headerValue(header http.Header, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(header.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
