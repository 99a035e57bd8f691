package formulas

import (
	"bytes"
	"context"
	"encoding/json"
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

const maxBodyBytes = 64 << 10

type Handler struct {
	service         *Service
	val             *validation.Validator
	log             *slog.Logger
	premiumFallback float64
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, premiumFallback float64) *Handler {
	return &Handler{
		service:         service,
		val:             val,
		log:             log,
		premiumFallback: premiumFallback,
	}
}

// Routes mounts the formula endpoints. Reads are public, writes go through
// admin.
func (h *Handler) Routes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/formules", func(r chi.Router) {
		r.Get("/", h.ListAll)
		r.Get("/lavage-premium", h.PremiumWashPrice)
		r.Get("/{category}", h.List)
		r.Get("/{category}/count", h.Count)
		r.Get("/{category}/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/{category}", h.Create)
			r.Put("/{category}/{id}", h.Update)
			r.Delete("/{category}/{id}", h.Delete)
		})
	})
}

func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	grouped, err := h.service.Grouped(ctx)
	if err != nil {
		log.Error("formulas list all: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("formulas list all: ok")
	transport.WriteJSON(w, http.StatusOK, grouped)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	category := strings.TrimSpace(chi.URLParam(r, "category"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.service.List(ctx, category)
	if err != nil {
		h.writeServiceError(w, log, "formulas list", err)
		return
	}

	log.Info("formulas list: ok", slog.String("category", category), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	category := strings.TrimSpace(chi.URLParam(r, "category"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := h.service.Count(ctx, category)
	if err != nil {
		h.writeServiceError(w, log, "formulas count", err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"category": category,
		"count":    count,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	category := strings.TrimSpace(chi.URLParam(r, "category"))
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Get(ctx, category, id)
	if err != nil {
		h.writeServiceError(w, log, "formulas get", err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) PremiumWashPrice(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	vehicleType := strings.TrimSpace(r.URL.Query().Get("type_voiture"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	price, err := h.service.PremiumWashPrice(ctx, vehicleType, h.premiumFallback)
	if err != nil {
		log.Error("formulas premium wash: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"type_voiture": vehicleType,
		"prix":         price,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	category := strings.TrimSpace(chi.URLParam(r, "category"))

	var req UpsertRequest
	if err := httpx.DecodeRequest(w, r, maxBodyBytes, &req); err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn("formulas create: invalid json", slog.String("error", err.Error()))
		transport.WriteError(w, status, msg, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("formulas create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	item, err := h.service.Create(ctx, category, req)
	if err != nil {
		h.writeServiceError(w, log, "formulas create", err)
		return
	}

	log.Info("formulas create: ok", slog.String("formula_id", item.ID), slog.String("category", category))
	transport.WriteJSON(w, http.StatusCreated, item)
}

// Update replaces a formula, or only its premium wash price when that is the
// single field of the body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	category := strings.TrimSpace(chi.URLParam(r, "category"))
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	body, err := httpx.ReadBody(w, r, maxBodyBytes)
	if err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn("formulas update: unreadable body", slog.String("error", err.Error()))
		transport.WriteError(w, status, msg, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	var item Formula
	if isPremiumPriceOnly(body) {
		var req PremiumPriceRequest
		if err := httpx.DecodeJSON(bytes.NewReader(body), &req); err != nil {
			log.Warn("formulas update premium price: invalid json")
			transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			log.Warn("formulas update premium price: validation error")
			transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
			return
		}
		item, err = h.service.UpdatePremiumPrice(ctx, category, id, req.LavagePremiumPrix)
	} else {
		var req UpsertRequest
		if err := httpx.DecodeJSON(bytes.NewReader(body), &req); err != nil {
			log.Warn("formulas update: invalid json")
			transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			log.Warn("formulas update: validation error")
			transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
			return
		}
		item, err = h.service.Update(ctx, category, id, req)
	}
	if err != nil {
		h.writeServiceError(w, log, "formulas update", err)
		return
	}

	log.Info("formulas update: ok", slog.String("formula_id", id), slog.String("category", category))
	transport.WriteJSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	category := strings.TrimSpace(chi.URLParam(r, "category"))
	id := strings.TrimSpace(chi.URLParam(r, "id"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.Delete(ctx, category, id); err != nil {
		h.writeServiceError(w, log, "formulas delete", err)
		return
	}

	log.Info("formulas delete: ok", slog.String("formula_id", id), slog.String("category", category))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, log *slog.Logger, action string, err error) {
	switch {
	case errors.Is(err, ErrInvalidCategory):
		log.Warn(action + ": invalid category")
		transport.WriteError(w, http.StatusBadRequest, "invalid category", nil)
	case errors.Is(err, ErrNotFound):
		log.Warn(action + ": not found")
		transport.WriteError(w, http.StatusNotFound, "formula not found", nil)
	default:
		log.Error(action+": database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
	}
}

func isPremiumPriceOnly(body []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	_, ok := fields["lavage_premium_prix"]
	return ok && len(fields) == 1
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
