package server

import (
	"errors"
	"net/http"

	"github.com/joseph-ayodele/file-ingestor/internal/async"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
)

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps application errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	var appErr *common.AppError
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &appErr):
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrInvalidInput) {
			return http.StatusBadRequest, appErr.Code
		}
		return http.StatusInternalServerError, appErr.Code
	case errors.Is(err, async.ErrQueueClosed):
		return http.StatusServiceUnavailable, "SHUTTING_DOWN"
	}
	switch common.KindOf(err) {
	case common.KindConfig, common.KindParse:
		return http.StatusUnprocessableEntity, string(common.KindOf(err))
	case common.KindNoMatchingRule:
		return http.StatusUnprocessableEntity, string(common.KindNoMatchingRule)
	case common.KindTransport:
		return http.StatusBadGateway, string(common.KindTransport)
	case common.KindDatabase:
		return http.StatusServiceUnavailable, string(common.KindDatabase)
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("http request failed", "status", status, "error", err)
	} else {
		s.logger.Warn("http request rejected", "status", status, "error", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}
