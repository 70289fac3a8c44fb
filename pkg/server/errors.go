package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/pagestack/pkg/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// StatusCode maps an error to the HTTP status reported to clients.
func StatusCode(err error) int {
	var mbe *http.MaxBytesError
	switch {
	case stderrors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case stderrors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case errors.ErrCodeNonUniformPageSize:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeWrongPassword:
		return http.StatusForbidden
	case errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	}
	if errors.IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}

	msg := errors.UserMessage(err)
	switch status {
	case http.StatusRequestEntityTooLarge:
		code, msg = errors.ErrCodeInvalidInput, "upload is too large"
	case http.StatusGatewayTimeout:
		msg = "the merge took too long"
	}
	if code == errors.ErrCodeInternal {
		msg = "internal error"
	}

	if status >= 500 {
		s.logger.Error("merge failed", "id", RequestID(r.Context()), "err", err)
	} else {
		s.logger.Debug("rejected request", "id", RequestID(r.Context()), "err", err)
	}

	body := errorBody{Error: errorDetail{Code: code, Message: msg, RequestID: RequestID(r.Context())}}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
