package newsletter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ladla-backend/internal/httpx"
	"ladla-backend/internal/middleware"
	"ladla-backend/internal/transport"
	"ladla-backend/internal/validation"
)

const maxBodyBytes = 16 << 10

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

func (h *Handler) Routes(r chi.Router, admin, limit func(http.Handler) http.Handler) {
	r.Route("/newsletter", func(r chi.Router) {
		r.With(limit).Post("/subscribe", h.Subscribe)
		r.With(limit).Post("/unsubscribe", h.Unsubscribe)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.List)
			r.Get("/stats", h.Stats)
			r.Delete("/bulk", h.BulkDelete)
			r.Put("/{id}/status", h.UpdateStatus)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req SubscribeRequest
	if !h.decode(w, r, log, "newsletter subscribe", &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, reactivated, err := h.service.Subscribe(ctx, req)
	if err != nil {
		if errors.Is(err, ErrAlreadySubscribed) {
			log.Warn("newsletter subscribe: already subscribed")
			transport.Failure(w, http.StatusConflict, "already subscribed", nil)
			return
		}
		log.Error("newsletter subscribe: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	status := http.StatusCreated
	if reactivated {
		status = http.StatusOK
	}
	log.Info("newsletter subscribe: ok", slog.String("subscriber_id", item.ID), slog.Bool("reactivated", reactivated))
	transport.Success(w, status, item)
}

func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req UnsubscribeRequest
	if !h.decode(w, r, log, "newsletter unsubscribe", &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Unsubscribe(ctx, req.Email)
	if err != nil {
		h.writeServiceError(w, log, "newsletter unsubscribe", err)
		return
	}

	log.Info("newsletter unsubscribe: ok", slog.String("subscriber_id", item.ID))
	transport.Success(w, http.StatusOK, map[string]string{"status": string(item.Status)})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var status Status
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		parsed, ok := ParseStatus(raw)
		if !ok {
			transport.Failure(w, http.StatusBadRequest, "invalid status", nil)
			return
		}
		status = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, status)
	if err != nil {
		log.Error("newsletter list: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	transport.Success(w, http.StatusOK, items)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.service.Stats(ctx)
	if err != nil {
		log.Error("newsletter stats: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	transport.Success(w, http.StatusOK, stats)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req StatusRequest
	if !h.decode(w, r, log, "newsletter status", &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.UpdateStatus(ctx, id, Status(req.Status))
	if err != nil {
		h.writeServiceError(w, log, "newsletter status", err)
		return
	}

	log.Info("newsletter status: ok", slog.String("subscriber_id", id), slog.String("status", req.Status))
	transport.Success(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeServiceError(w, log, "newsletter delete", err)
		return
	}

	log.Info("newsletter delete: ok", slog.String("subscriber_id", id))
	transport.Success(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req IDsRequest
	if !h.decode(w, r, log, "newsletter bulk delete", &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	count, err := h.service.DeleteMany(ctx, req.IDs)
	if err != nil {
		log.Error("newsletter bulk delete: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("newsletter bulk delete: ok", slog.Int64("deleted", count))
	transport.Success(w, http.StatusOK, map[string]int64{"deleted": count})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, action string, req interface{}) bool {
	if err := httpx.DecodeRequest(w, r, maxBodyBytes, req); err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn(action + ": invalid json", slog.String("error", err.Error()))
		transport.Failure(w, status, msg, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn(action + ": validation error")
		transport.Failure(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, action string, err error) {
	if errors.Is(err, ErrNotFound) {
		log.Warn(action + ": not found")
		transport.Failure(w, http.StatusNotFound, "subscriber not found", nil)
		return
	}
	log.Error(action+": database error", slog.String("error", err.Error()))
	transport.Failure(w, http.StatusInternalServerError, "database error", nil)
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
