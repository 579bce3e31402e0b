// Package httperr writes the API's JSON error bodies and maps the error
// taxonomy onto HTTP status codes.
//
// Status conventions:
//   - 400: malformed input, failed validation, bad credentials, duplicate
//     email on plain signup (the API contract folds conflicts into 400)
//   - 401: missing, invalid, or expired bearer token
//   - 404: not found AND not authorized — existence is never revealed to
//     callers outside a task's access set
//   - 500: store or provider failure; details are logged, never leaked
package httperr

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// body is the wire shape for every error response.
type body struct {
	Error string `json:"error"`
}

// Write sends a JSON error body with the given status.
func Write(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body{Error: message})
}

// ErrorLogger pairs error responses with structured logging. Handlers use it
// so that internal details land in the log while callers see only sanitized
// messages.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger creates an ErrorLogger backed by the given zap logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

// BadRequest logs a client error and writes a 400 with the user message.
func (l *ErrorLogger) BadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	l.log.Warn(logMsg, zap.String("path", r.URL.Path), zap.Error(err))
	Write(w, http.StatusBadRequest, userMsg)
}

// Unauthorized writes a 401 with the user message. Not logged at warn level;
// expired tokens are routine.
func (l *ErrorLogger) Unauthorized(w http.ResponseWriter, r *http.Request, userMsg string) {
	Write(w, http.StatusUnauthorized, userMsg)
}

// NotFound writes a 404. Used both for genuinely missing resources and for
// authorization failures, so the two are indistinguishable to the caller.
func (l *ErrorLogger) NotFound(w http.ResponseWriter, r *http.Request, userMsg string) {
	Write(w, http.StatusNotFound, userMsg)
}

// Internal logs a server-side failure and writes a generic 500.
func (l *ErrorLogger) Internal(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	l.log.Error(logMsg, zap.String("path", r.URL.Path), zap.Error(err))
	Write(w, http.StatusInternalServerError, userMsg)
}
