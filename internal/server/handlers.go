package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/async"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/core/rules"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
	"github.com/joseph-ayodele/file-ingestor/internal/repository"
)

const maxRulesBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseListFilter reads status, prefix, since, until (RFC3339), limit and offset.
func parseListFilter(r *http.Request) (repository.ListAttemptsFilter, error) {
	q := r.URL.Query()
	f := repository.ListAttemptsFilter{
		Status:     constants.AttemptStatus(strings.ToUpper(q.Get("status"))),
		FilePrefix: q.Get("prefix"),
		Limit:      100,
	}

	v := common.NewValidator()
	if f.Status != "" {
		v.Field("status", string(f.Status), common.OneOf(
			string(constants.AttemptStatusRunning),
			string(constants.AttemptStatusSuccess),
			string(constants.AttemptStatusFailed),
		))
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		if raw := q.Get(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				v.Field(name, raw, func(field string, value any) *common.ValidationError {
					return &common.ValidationError{Field: field, Value: value, Message: "must be a non-negative integer"}
				})
				continue
			}
			*dst = n
		}
	}
	for name, dst := range map[string]*time.Time{"since": &f.Since, "until": &f.Until} {
		if raw := q.Get(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				v.Field(name, raw, func(field string, value any) *common.ValidationError {
					return &common.ValidationError{Field: field, Value: value, Message: "must be RFC3339"}
				})
				continue
			}
			*dst = t
		}
	}
	if v.HasErrors() {
		return f, common.NewAppError("INVALID_QUERY", v.ErrorMessage(), common.ErrInvalidInput)
	}
	return f, nil
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	attempts, err := s.deps.Attempts.List(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if attempts == nil {
		attempts = []entity.Attempt{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func (s *Server) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Attempts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleExportAttempts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		s.writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "export is not configured"})
		return
	}
	f, err := parseListFilter(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if r.URL.Query().Get("limit") == "" {
		f.Limit = 0
	}
	data, err := s.deps.Exporter.ExportAttemptsXLSX(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attempts-%s.xlsx"`, time.Now().UTC().Format("20060102-150405")))
	_, _ = w.Write(data)
}

type processRequest struct {
	Container string `json:"container"`
	Key       string `json:"key"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	v := common.NewValidator().
		Field("container", req.Container, common.Required).
		Field("key", req.Key, common.Required)
	if v.HasErrors() {
		s.writeError(w, common.NewAppError("INVALID_REQUEST", v.ErrorMessage(), common.ErrInvalidInput))
		return
	}

	ctx := common.NewTraceContext(r.Context())
	ref := entity.FileReference{Container: req.Container, Key: req.Key}
	if err := s.deps.Queue.Enqueue(ctx, async.Job{Ref: ref, TraceID: common.TraceIDFromContext(ctx)}); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "queued",
		"file_name": ref.FileName(),
		"trace_id":  common.TraceIDFromContext(ctx),
	})
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	if s.deps.Rules == nil {
		s.writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "rules are not stored in the database"})
		return
	}
	list, err := s.deps.Rules.Rules(r.Context())
	if err != nil {
		s.writeError(w, common.DatabaseError(err, "list rules"))
		return
	}
	if list == nil {
		list = []entity.Rule{}
	}
	s.writeJSON(w, http.StatusOK, rules.Document{Rules: list})
}

// handlePutRules replaces the rule set with a YAML or JSON rules document.
func (s *Server) handlePutRules(w http.ResponseWriter, r *http.Request) {
	if s.deps.Rules == nil {
		s.writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "rules are not stored in the database"})
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRulesBody))
	if err != nil {
		s.writeError(w, common.NewAppError("INVALID_REQUEST", "read body", common.ErrInvalidInput))
		return
	}
	list, err := rules.ParseDocument(body)
	if err != nil {
		s.writeError(w, common.NewAppError("INVALID_RULES", err.Error(), common.ErrValidation))
		return
	}
	if err := rules.Check(list); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.deps.Rules.Replace(r.Context(), list); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"rules": len(list)})
}
