package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"ladla-backend/internal/dashboard"
	"ladla-backend/internal/pricing"
	"ladla-backend/internal/schedule"
	"ladla-backend/internal/transport"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.Checks))
	for name := range s.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := s.Checks[name](ctx); err != nil {
			log.Warn("health check: failed", slog.String("check", name), slog.String("error", err.Error()))
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "up"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	transport.WriteJSON(w, status, resp)
}

type categoryInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type optionInfo struct {
	Key   pricing.Key `json:"key"`
	Label string      `json:"label"`
	Kind  string      `json:"kind"`
}

type publicConfig struct {
	Slots                  []string       `json:"slots"`
	Categories             []categoryInfo `json:"categories"`
	Options                []optionInfo   `json:"options"`
	PremiumWashFallback    float64        `json:"lavage_premium_prix_defaut"`
	OzoneDefaultPrice      float64        `json:"assainissement_ozone_prix_defaut"`
	CalendarRefreshSeconds int            `json:"calendar_refresh_seconds"`
	Timezone               string         `json:"timezone"`
}

// PublicConfig returns what a booking form needs before its first request:
// the slot list, the vehicle categories and the option catalog.
func (s *Server) PublicConfig(w http.ResponseWriter, r *http.Request) {
	cfg := publicConfig{
		Slots:                  schedule.TimeSlots(),
		Categories:             make([]categoryInfo, 0, len(pricing.Categories)),
		Options:                make([]optionInfo, 0, len(pricing.Catalog)),
		PremiumWashFallback:    s.Cfg.PremiumWashFallbackPrice,
		OzoneDefaultPrice:      s.Cfg.OzoneDefaultPrice,
		CalendarRefreshSeconds: s.Cfg.CalendarRefreshSeconds,
		Timezone:               s.Cfg.Location().String(),
	}
	for _, c := range pricing.Categories {
		cfg.Categories = append(cfg.Categories, categoryInfo{Key: c, Label: dashboard.VehicleLabel(c)})
	}
	for _, def := range pricing.Catalog {
		cfg.Options = append(cfg.Options, optionInfo{Key: def.Key, Label: def.Label, Kind: def.Kind.String()})
	}
	transport.Success(w, http.StatusOK, cfg)
}
