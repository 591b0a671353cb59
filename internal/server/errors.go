package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/pitchprep/internal/pipeline"
)

// KindUnauthorized and KindRateLimited are the API-only error kinds.
const (
	KindUnauthorized = "unauthorized"
	KindRateLimited  = "rate_limited"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string                   `json:"error"`
	Kind      string                   `json:"kind"`
	Result    *pipeline.GenerateResult `json:"result,omitempty"`
	Persisted *bool                    `json:"persisted,omitempty"`
}

// HTTPStatus returns the status code for a pipeline error.
func HTTPStatus(err error) int {
	switch pipeline.Kind(err) {
	case pipeline.KindProfileIncomplete, pipeline.KindInvalidRequest:
		return http.StatusBadRequest
	case pipeline.KindGenerationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errRequestBody marks malformed or invalid request payloads.
type errRequestBody struct {
	message string
}

func (e *errRequestBody) Error() string {
	return e.message
}

func (e *errRequestBody) Unwrap() error {
	return pipeline.ErrInvalidRequest
}

func badRequest(message string) error {
	return &errRequestBody{message: message}
}

// writeError writes err as {error, kind}. A persistence failure carries the
// computed result so the caller can still show it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, result *pipeline.GenerateResult) {
	status := HTTPStatus(err)
	body := errorBody{Error: err.Error(), Kind: pipeline.Kind(err)}

	var persistErr *pipeline.PersistenceError
	if errors.As(err, &persistErr) && result != nil {
		persisted := false
		body.Result = result
		body.Persisted = &persisted
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", body.Kind),
			zap.Error(err))
	}
	s.jsonResponse(w, status, body)
}
