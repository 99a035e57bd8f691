package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ladla-backend/internal/auth"
	"ladla-backend/internal/httpx"
	"ladla-backend/internal/middleware"
	"ladla-backend/internal/transport"
	"ladla-backend/internal/validation"
)

const (
	RefreshCookie = "ladla_refresh"
	refreshPath   = "/api/admin"
	maxBodyBytes  = 8 << 10
)

type Handler struct {
	service      *Service
	val          *validation.Validator
	log          *slog.Logger
	cookieSecure bool
	refreshTTL   time.Duration
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, cookieSecure bool, refreshTTL time.Duration) *Handler {
	return &Handler{
		service:      service,
		val:          val,
		log:          log,
		cookieSecure: cookieSecure,
		refreshTTL:   refreshTTL,
	}
}

func (h *Handler) Routes(r chi.Router, admin, limit func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.With(limit).Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Get("/me", h.Me)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req LoginRequest
	if err := httpx.DecodeRequest(w, r, maxBodyBytes, &req); err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn("admin login: invalid json", slog.String("error", err.Error()))
		transport.Failure(w, status, msg, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin login: validation error")
		transport.Failure(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			log.Warn("admin login: not configured")
			transport.Failure(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		case errors.Is(err, ErrInvalidCredentials):
			log.Warn("admin login: invalid credentials", slog.String("username", req.Username))
			transport.Failure(w, http.StatusUnauthorized, "invalid credentials", nil)
		default:
			log.Error("admin login: error", slog.String("error", err.Error()))
			transport.Failure(w, http.StatusInternalServerError, "login error", nil)
		}
		return
	}

	h.setCookies(w, session)
	log.Info("admin login: ok", slog.String("username", session.Username))
	transport.Success(w, http.StatusOK, session)
}

// Refresh reads the refresh token from its cookie, or from the body for
// clients without cookies.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	token := ""
	if cookie, err := r.Cookie(RefreshCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req RefreshRequest
		if err := httpx.DecodeRequest(w, r, maxBodyBytes, &req); err != nil && !errors.Is(err, io.EOF) {
			status, msg := httpx.DecodeStatus(err)
			log.Warn("admin refresh: invalid json", slog.String("error", err.Error()))
			transport.Failure(w, status, msg, nil)
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		log.Warn("admin refresh: missing refresh token")
		transport.Failure(w, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	session, err := h.service.Refresh(ctx, token)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			transport.Failure(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		case errors.Is(err, auth.ErrInvalidToken):
			log.Warn("admin refresh: invalid refresh token")
			transport.Failure(w, http.StatusUnauthorized, "invalid refresh token", nil)
		default:
			log.Error("admin refresh: error", slog.String("error", err.Error()))
			transport.Failure(w, http.StatusInternalServerError, "refresh error", nil)
		}
		return
	}

	h.setCookies(w, session)
	log.Info("admin refresh: ok", slog.String("username", session.Username))
	transport.Success(w, http.StatusOK, session)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookies(w)
	h.logWithRequest(r).Info("admin logout: ok")
	transport.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	transport.Success(w, http.StatusOK, map[string]string{
		"username": middleware.AdminFromContext(r.Context()),
		"role":     auth.RoleAdmin,
	})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	username := middleware.AdminFromContext(r.Context())
	if username == "" {
		log.Warn("admin change password: no session")
		transport.Failure(w, http.StatusForbidden, "session required", nil)
		return
	}

	var req ChangePasswordRequest
	if err := httpx.DecodeRequest(w, r, maxBodyBytes, &req); err != nil {
		status, msg := httpx.DecodeStatus(err)
		log.Warn("admin change password: invalid json", slog.String("error", err.Error()))
		transport.Failure(w, status, msg, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin change password: validation error")
		transport.Failure(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	if err := h.service.ChangePassword(ctx, username, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			transport.Failure(w, http.StatusBadRequest, "password too short", nil)
		case errors.Is(err, ErrInvalidCredentials):
			log.Warn("admin change password: wrong current password", slog.String("username", username))
			transport.Failure(w, http.StatusUnauthorized, "invalid credentials", nil)
		default:
			log.Error("admin change password: error", slog.String("error", err.Error()))
			transport.Failure(w, http.StatusInternalServerError, "password error", nil)
		}
		return
	}

	log.Info("admin change password: ok", slog.String("username", username))
	transport.Success(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) setCookies(w http.ResponseWriter, session Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    session.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   session.ExpiresIn,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    session.RefreshToken,
		Path:     refreshPath,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.refreshTTL.Seconds()),
	})
}

func (h *Handler) clearCookies(w http.ResponseWriter) {
	expire := time.Now().Add(-1 * time.Hour)
	for _, c := range []struct{ name, path string }{
		{middleware.AccessCookie, "/"},
		{RefreshCookie, refreshPath},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			HttpOnly: true,
			Secure:   h.cookieSecure,
			SameSite: http.SameSiteLaxMode,
			Expires:  expire,
			MaxAge:   -1,
		})
	}
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
