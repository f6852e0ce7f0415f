package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nerrad567/sensorhub/internal/fault"
)

// ErrorResponse is the body of every failed request.
// Error always duplicates Message.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId"`
	Path      string `json:"path"`
	Method    string `json:"method"`
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	Stack     string `json:"stack,omitempty"`
}

// Body decoding messages.
const (
	msgInvalidJSON  = "Invalid JSON body"
	msgBodyTooLarge = "Request body too large"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// errorResponse builds the envelope for err. Errors that are not
// *fault.Error render as internal errors with the generic message.
func (s *Server) errorResponse(r *http.Request, err error) ErrorResponse {
	fe := fault.As(err)

	resp := ErrorResponse{
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
		RequestID: requestIDFrom(r.Context()),
		Path:      r.URL.Path,
		Method:    r.Method,
		Status:    fe.Status(),
		Message:   fe.Message,
		Error:     fe.Message,
	}
	if s.cfg.VerboseErrors {
		resp.Stack = fe.Stack()
	}
	return resp
}

// writeError renders err through the error envelope. It is the only place
// error bodies are produced.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := s.errorResponse(r, err)
	if resp.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
			"request_id", resp.RequestID,
		)
	}
	writeJSON(w, resp.Status, resp)
}

// decodeObject decodes the request body as exactly one JSON object. A
// missing or malformed body, or any data after the object, fails with a
// validation error; a JSON null yields an empty object so field validation
// reports the first missing field.
func decodeObject(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, bodyDecodeError(err)
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, bodyDecodeError(err)
		}
		return nil, fault.Validation(msgInvalidJSON)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func bodyDecodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fault.Validation(msgBodyTooLarge)
	}
	return fault.Validation(msgInvalidJSON)
}
