package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ladla-backend/internal/middleware"
	"ladla-backend/internal/reservations"
	"ladla-backend/internal/transport"
)

type Source interface {
	Month(ctx context.Context, year, month int) ([]reservations.Reservation, error)
	Range(ctx context.Context, from, until string) ([]reservations.Reservation, error)
}

type Handler struct {
	source Source
	log    *slog.Logger
}

func NewHandler(source Source, log *slog.Logger) *Handler {
	return &Handler{source: source, log: log}
}

func (h *Handler) Routes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(admin)
		r.Get("/{year}", h.Year)
		r.Get("/{year}/{month}", h.Month)
	})
}

func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		transport.Failure(w, http.StatusBadRequest, "invalid year", nil)
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		transport.Failure(w, http.StatusBadRequest, "invalid month", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.source.Month(ctx, year, month)
	if err != nil {
		log.Error("dashboard month: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	stats := Aggregate(items, year, month)
	log.Info("dashboard month: ok", slog.Int("year", year), slog.Int("month", month), slog.Int("total", stats.Total))
	transport.Success(w, http.StatusOK, stats)
}

func (h *Handler) Year(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 || year > 9998 {
		transport.Failure(w, http.StatusBadRequest, "invalid year", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, err := h.source.Range(ctx, fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-01-01", year+1))
	if err != nil {
		log.Error("dashboard year: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	transport.Success(w, http.StatusOK, YearSummary(items, year))
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
