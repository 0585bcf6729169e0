// Package http exposes the chat webhook over HTTP.
//
// The router serves the following endpoints:
//   - POST /api/zoho/v3/webhook (alias POST /webhook): accepts one chat message
//     and answers {"text": "..."} with the bot's reply. The body is normally
//     JSON of the form {"user":{"id","name","email"},"message","channel":{"id"}};
//     see webhook.go for the fallbacks accepted when those fields are missing.
//   - GET /health: liveness check answering {"status":"UP","service":...}.
//
// When a webhook token is configured, webhook requests must carry it in the
// X-Webhook-Token header or the token query parameter.
package http
