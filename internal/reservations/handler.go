package reservations

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ladla-backend/internal/httpx"
	"ladla-backend/internal/middleware"
	"ladla-backend/internal/schedule"
	"ladla-backend/internal/transport"
	"ladla-backend/internal/validation"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

// Routes mounts the reservation endpoints. Booking, quotes and availability
// are public; limit guards booking creation.
func (h *Handler) Routes(r chi.Router, admin, limit func(http.Handler) http.Handler) {
	r.Route("/reservations", func(r chi.Router) {
		r.With(limit).Post("/", h.Create)
		r.Post("/quote", h.Quote)
		r.Get("/disponibilites/{date}", h.Availability)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/semaine/{date}", h.Week)
			r.Get("/calendrier/{date}", h.Calendar)
			r.Get("/month/{year}/{month}", h.Month)
			r.Delete("/month/{year}/{month}", h.DeleteMonth)
			r.Get("/{id}", h.Get)
			r.Put("/{id}/status", h.UpdateStatus)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeRequest(w, r, maxBodyBytes, &req); err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn("reservations create: invalid json", slog.String("error", err.Error()))
		transport.Failure(w, status, msg, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("reservations create: validation error")
		transport.Failure(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	item, err := h.service.Create(ctx, req)
	if err != nil {
		h.writeServiceError(w, log, "reservations create", err)
		return
	}

	log.Info("reservations create: stored",
		slog.String("reservation_id", item.ID),
		slog.String("date", item.DateRdv),
		slog.String("time", item.HeureRdv),
		slog.Float64("prix", item.Prix),
	)
	transport.Success(w, http.StatusCreated, item)
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req QuoteRequest
	if err := httpx.DecodeRequest(w, r, maxBodyBytes, &req); err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn("reservations quote: invalid json", slog.String("error", err.Error()))
		transport.Failure(w, status, msg, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("reservations quote: validation error")
		transport.Failure(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	quote, err := h.service.Quote(ctx, req)
	if err != nil {
		h.writeServiceError(w, log, "reservations quote", err)
		return
	}
	transport.Success(w, http.StatusOK, quote)
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	date := strings.TrimSpace(chi.URLParam(r, "date"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	out, err := h.service.Availability(ctx, date)
	if err != nil {
		h.writeServiceError(w, log, "reservations availability", err)
		return
	}
	transport.Success(w, http.StatusOK, out)
}

func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	date := strings.TrimSpace(chi.URLParam(r, "date"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.Week(ctx, date)
	if err != nil {
		h.writeServiceError(w, log, "reservations week", err)
		return
	}

	log.Info("reservations week: ok", slog.String("date", date), slog.Int("count", len(items)))
	transport.Success(w, http.StatusOK, items)
}

func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	date := strings.TrimSpace(chi.URLParam(r, "date"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cal, err := h.service.Calendar(ctx, date)
	if err != nil {
		h.writeServiceError(w, log, "reservations calendar", err)
		return
	}
	transport.Success(w, http.StatusOK, cal)
}

func (h *Handler) Month(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	year, month, ok := yearMonth(r)
	if !ok {
		log.Warn("reservations month: invalid month")
		transport.Failure(w, http.StatusBadRequest, "invalid month", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.Month(ctx, year, month)
	if err != nil {
		h.writeServiceError(w, log, "reservations month", err)
		return
	}
	transport.Success(w, http.StatusOK, items)
}

func (h *Handler) DeleteMonth(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	year, month, ok := yearMonth(r)
	if !ok {
		log.Warn("reservations delete month: invalid month")
		transport.Failure(w, http.StatusBadRequest, "invalid month", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	count, err := h.service.DeleteMonth(ctx, year, month)
	if err != nil {
		h.writeServiceError(w, log, "reservations delete month", err)
		return
	}

	log.Info("reservations delete month: ok", slog.Int("year", year), slog.Int("month", month), slog.Int64("deleted", count))
	transport.Success(w, http.StatusOK, map[string]interface{}{
		"deleted": count,
		"year":    year,
		"month":   month,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "reservations get", err)
		return
	}
	transport.Success(w, http.StatusOK, Detail{Reservation: item, Transitions: schedule.Transitions(item.Status)})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req StatusRequest
	if err := httpx.DecodeRequest(w, r, maxBodyBytes, &req); err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn("reservations status: invalid json", slog.String("error", err.Error()))
		transport.Failure(w, status, msg, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("reservations status: validation error")
		transport.Failure(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}
	status, err := schedule.ParseStatus(req.Status)
	if err != nil {
		transport.Failure(w, http.StatusBadRequest, "invalid status", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.UpdateStatus(ctx, id, status)
	if err != nil {
		h.writeServiceError(w, log, "reservations status", err)
		return
	}

	log.Info("reservations status: ok", slog.String("reservation_id", id), slog.String("status", string(status)))
	transport.Success(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeServiceError(w, log, "reservations delete", err)
		return
	}

	log.Info("reservations delete: ok", slog.String("reservation_id", id))
	transport.Success(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, action string, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidDate), errors.Is(err, schedule.ErrInvalidTime):
		log.Warn(action + ": invalid date")
		transport.Failure(w, http.StatusBadRequest, "invalid date", nil)
	case errors.Is(err, schedule.ErrInvalidMonth):
		log.Warn(action + ": invalid month")
		transport.Failure(w, http.StatusBadRequest, "invalid month", nil)
	case errors.Is(err, ErrSlotPast):
		log.Warn(action + ": slot in the past")
		transport.Failure(w, http.StatusBadRequest, "slot is in the past", nil)
	case errors.Is(err, ErrUnknownFormula):
		log.Warn(action + ": unknown formula")
		transport.Failure(w, http.StatusBadRequest, "unknown formula", nil)
	case errors.Is(err, ErrSlotTaken):
		log.Warn(action + ": slot taken")
		transport.Failure(w, http.StatusConflict, "slot already booked", nil)
	case errors.Is(err, ErrNotFound):
		log.Warn(action + ": not found")
		transport.Failure(w, http.StatusNotFound, "reservation not found", nil)
	default:
		log.Error(action+": database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
	}
}

func yearMonth(r *http.Request) (int, int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
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
