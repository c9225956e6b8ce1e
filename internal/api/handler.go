// Package api exposes the reporting core over HTTP. The surface is the
// two calls the presentation layer needs — current data and forced
// refresh — plus read-only rollups and job history.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mailmetrics/internal/domain"
	"mailmetrics/internal/report"
)

// Handler serves the reporting endpoints.
type Handler struct {
	svc     *report.Service
	session *report.Session
	history domain.JobHistoryRepository
	logger  *slog.Logger
}

// NewHandler creates a Handler. history may be nil when attempt
// recording is disabled.
func NewHandler(svc *report.Service, session *report.Session, history domain.JobHistoryRepository, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, session: session, history: history, logger: logger}
}

// Routes mounts the reporting endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/report", h.getReport)
	r.Get("/report/summary", h.getSummary)
	r.Get("/report/daily", h.getDaily)
	r.Post("/report/refresh", h.postRefresh)
	r.Get("/jobs", h.listJobs)
}

// reportResponse is the raw-table payload: filtered rows plus provenance.
type reportResponse struct {
	Rows        []domain.EventRecord `json:"rows"`
	Campaign    string               `json:"campaign,omitempty"`
	SourceJobID string               `json:"sourceJobId"`
	FetchedAt   time.Time            `json:"fetchedAt"`
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	rs, err := h.fetch(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	campaign := h.session.Filter()
	rows := report.FilterRows(rs, campaign)
	if rows == nil {
		rows = []domain.EventRecord{}
	}
	writeJSON(w, http.StatusOK, reportResponse{
		Rows:        rows,
		Campaign:    campaign,
		SourceJobID: rs.SourceJobID,
		FetchedAt:   rs.FetchedAt,
	})
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	rs, err := h.fetch(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(rs, h.session.Filter()))
}

func (h *Handler) getDaily(w http.ResponseWriter, r *http.Request) {
	rs, err := h.fetch(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	points := report.Daily(rs, h.session.Filter())
	if points == nil {
		points = []report.DailyPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *Handler) postRefresh(w http.ResponseWriter, r *http.Request) {
	rs, err := h.svc.Refresh(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.session.Remember(rs)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sourceJobId": rs.SourceJobID,
		"fetchedAt":   rs.FetchedAt,
		"rowCount":    len(rs.Rows),
	})
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeError(w, domain.ErrNotFound("job history is not configured"))
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, domain.ErrValidation("limit must be a positive integer"))
			return
		}
		limit = n
	}
	entries, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.JobHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// fetch returns the current result set, applying an explicit campaign
// selection from the query string to the session before use.
func (h *Handler) fetch(r *http.Request) (*domain.ResultSet, error) {
	if r.URL.Query().Has("campaign") {
		h.session.SetFilter(r.URL.Query().Get("campaign"))
	}
	rs, err := h.svc.Current(r.Context())
	if err != nil {
		return nil, err
	}
	h.session.Remember(rs)
	return rs, nil
}

// writeError maps domain errors to the JSON error envelope. Failures
// carry a diagnostic message and no data — callers fall back to an
// empty view, never a partial one.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		notFoundErr   *domain.NotFoundError
		submitErr     *domain.SubmissionError
		jobErr        *domain.JobFailureError
		matErr        *domain.MaterializationError
		credErr       *domain.CredentialError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &submitErr), errors.As(err, &jobErr), errors.As(err, &matErr):
		status = http.StatusBadGateway
	case errors.As(err, &credErr):
		status = http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]interface{}{
		"code":    status,
		"message": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
