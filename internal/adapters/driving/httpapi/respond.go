package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("writing response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, err error) {
	notice := domain.Describe(err)
	writeJSON(w, statusFor(err), errorBody{Error: notice.Text, Hint: notice.Hint})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrNoModelSelected),
		errors.Is(err, domain.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrNoDocument):
		return http.StatusConflict
	case errors.Is(err, domain.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrServerUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// streamWriter writes newline-delimited JSON events and flushes each one.
type streamWriter struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	flusher http.Flusher
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &streamWriter{w: w, enc: json.NewEncoder(w), flusher: flusher}
}

func (s *streamWriter) send(event streamEvent) {
	if err := s.enc.Encode(event); err != nil {
		logger.Debug("writing stream event: %v", err)
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// fail reports an error once the stream has started.
func (s *streamWriter) fail(err error) {
	notice := domain.Describe(err)
	event := streamEvent{Error: notice.Text, Hint: notice.Hint}
	var inf *domain.InferenceError
	if errors.As(err, &inf) && inf.Chunk >= 0 {
		chunk := inf.Chunk
		event.Chunk = &chunk
	}
	s.send(event)
}

// streamEvent is one line of a streamed answer.
type streamEvent struct {
	Chunk *int   `json:"chunk,omitempty"`
	Text  string `json:"text,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
	Hint  string `json:"hint,omitempty"`
}
