package contact

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

const maxBodyBytes = 32 << 10

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
	r.Route("/contact", func(r chi.Router) {
		r.With(limit).Post("/", h.Create)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/", h.List)
			r.Get("/unread-count", h.UnreadCount)
			r.Put("/read-all", h.MarkAllRead)
			r.Put("/bulk-read", h.BulkRead)
			r.Delete("/bulk", h.BulkDelete)
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
		log.Warn("contact create: invalid json", slog.String("error", err.Error()))
		transport.Failure(w, status, msg, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("contact create: validation error")
		transport.Failure(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Create(ctx, req)
	if err != nil {
		log.Error("contact create: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("contact create: stored", slog.String("message_id", item.ID))
	transport.Success(w, http.StatusCreated, map[string]string{"id": item.ID})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 50, 200)
	if err != nil {
		log.Warn("contact list: invalid query", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

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

	items, total, err := h.service.List(ctx, status, limit, offset)
	if err != nil {
		log.Error("contact list: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.Success(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  limit,
		"offset": offset,
		"total":  total,
	})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := h.service.UnreadCount(ctx)
	if err != nil {
		log.Error("contact unread count: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	transport.Success(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeServiceError(w, log, "contact get", err)
		return
	}
	transport.Success(w, http.StatusOK, item)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	var req StatusRequest
	if err := httpx.DecodeRequest(w, r, maxBodyBytes, &req); err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn("contact status: invalid json", slog.String("error", err.Error()))
		transport.Failure(w, status, msg, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("contact status: validation error")
		transport.Failure(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.UpdateStatus(ctx, id, Status(req.Status))
	if err != nil {
		h.writeServiceError(w, log, "contact status", err)
		return
	}

	log.Info("contact status: ok", slog.String("message_id", id), slog.String("status", req.Status))
	transport.Success(w, http.StatusOK, item)
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	count, err := h.service.MarkAllRead(ctx)
	if err != nil {
		log.Error("contact read all: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("contact read all: ok", slog.Int64("updated", count))
	transport.Success(w, http.StatusOK, map[string]int64{"updated": count})
}

func (h *Handler) BulkRead(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	req, ok := h.decodeIDs(w, r, log, "contact bulk read")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	count, err := h.service.MarkRead(ctx, req.IDs)
	if err != nil {
		log.Error("contact bulk read: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("contact bulk read: ok", slog.Int64("updated", count))
	transport.Success(w, http.StatusOK, map[string]int64{"updated": count})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeServiceError(w, log, "contact delete", err)
		return
	}

	log.Info("contact delete: ok", slog.String("message_id", id))
	transport.Success(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	req, ok := h.decodeIDs(w, r, log, "contact bulk delete")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	count, err := h.service.DeleteMany(ctx, req.IDs)
	if err != nil {
		log.Error("contact bulk delete: database error", slog.String("error", err.Error()))
		transport.Failure(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("contact bulk delete: ok", slog.Int64("deleted", count))
	transport.Success(w, http.StatusOK, map[string]int64{"deleted": count})
}

func (h *Handler) decodeIDs(w http.ResponseWriter, r *http.Request, log *slog.Logger, action string) (IDsRequest, bool) {
	var req IDsRequest
	if err := httpx.DecodeRequest(w, r, maxBodyBytes, &req); err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn(action + ": invalid json", slog.String("error", err.Error()))
		transport.Failure(w, status, msg, nil)
		return req, false
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn(action + ": validation error")
		transport.Failure(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return req, false
	}
	return req, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, action string, err error) {
	if errors.Is(err, ErrNotFound) {
		log.Warn(action + ": not found")
		transport.Failure(w, http.StatusNotFound, "message not found", nil)
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
