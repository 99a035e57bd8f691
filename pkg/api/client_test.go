package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"ladla-backend/internal/reservations"
	"ladla-backend/internal/schedule"
	"ladla-backend/internal/transport"
)

func newTestServer(t *testing.T, weekCalls *int32, failFirst bool) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/api/reservations", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var req reservations.CreateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				transport.Failure(w, http.StatusBadRequest, "invalid json", nil)
				return
			}
			if req.HeureRdv == "10:00" {
				transport.Failure(w, http.StatusConflict, "slot already booked", nil)
				return
			}
			transport.Success(w, http.StatusCreated, reservations.Reservation{ID: "r1", Nom: req.Nom, DateRdv: req.DateRdv, HeureRdv: req.HeureRdv, Status: schedule.StatusPending})
		})
		r.Get("/semaine/{date}", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Admin-Key") != "secret" {
				transport.Failure(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			n := atomic.AddInt32(weekCalls, 1)
			if failFirst && n == 1 {
				transport.Failure(w, http.StatusInternalServerError, "internal error", nil)
				return
			}
			transport.Success(w, http.StatusOK, []reservations.Reservation{{ID: "r1", DateRdv: chi.URLParam(r, "date")}})
		})
		r.Put("/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			var req reservations.StatusRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if r.Header.Get("Authorization") != "Bearer tok" {
				transport.Failure(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			transport.Success(w, http.StatusOK, reservations.Reservation{ID: chi.URLParam(r, "id"), Status: schedule.Status(req.Status)})
		})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateReservation(t *testing.T) {
	var calls int32
	srv := newTestServer(t, &calls, false)
	c := New(srv.URL + "/api/")

	got, err := c.CreateReservation(context.Background(), reservations.CreateRequest{Nom: "Martin", DateRdv: "2025-03-05", HeureRdv: "14:00"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID != "r1" || got.Status != schedule.StatusPending || got.HeureRdv != "14:00" {
		t.Fatalf("unexpected reservation %+v", got)
	}

	_, err = c.CreateReservation(context.Background(), reservations.CreateRequest{DateRdv: "2025-03-05", HeureRdv: "10:00"})
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Message != "slot already booked" {
		t.Fatalf("expected error message from envelope, got %v", err)
	}
}

func TestAdminCallsCarryCredentials(t *testing.T) {
	var calls int32
	srv := newTestServer(t, &calls, false)

	if _, err := New(srv.URL + "/api").WeekReservations(context.Background(), "2025-03-05"); !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 without key, got %v", err)
	}
	items, err := New(srv.URL+"/api", WithAdminKey("secret")).WeekReservations(context.Background(), "2025-03-05")
	if err != nil || len(items) != 1 || items[0].DateRdv != "2025-03-05" {
		t.Fatalf("unexpected week: %+v, %v", items, err)
	}

	updated, err := New(srv.URL+"/api", WithToken("tok")).UpdateStatus(context.Background(), "r9", "confirmed")
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.ID != "r9" || updated.Status != schedule.StatusConfirmed {
		t.Fatalf("unexpected reservation %+v", updated)
	}
}

func TestWatchWeekPollsUntilCancelled(t *testing.T) {
	var calls int32
	srv := newTestServer(t, &calls, true)
	c := New(srv.URL+"/api", WithAdminKey("secret"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var refreshes, failures int
	err := c.WatchWeek(ctx, "2025-03-05", 20*time.Millisecond, func(items []reservations.Reservation, err error) error {
		if err != nil {
			failures++
			if !IsStatus(err, http.StatusInternalServerError) {
				t.Errorf("unexpected error %v", err)
			}
			return nil
		}
		refreshes++
		if len(items) != 1 {
			t.Errorf("unexpected items %+v", items)
		}
		if refreshes == 3 {
			cancel()
		}
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if failures != 1 || refreshes != 3 {
		t.Fatalf("expected 1 failure then 3 refreshes, got %d and %d", failures, refreshes)
	}
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("expected 4 fetches, got %d", n)
	}
}

func TestWatchWeekStopsOnCallbackError(t *testing.T) {
	var calls int32
	srv := newTestServer(t, &calls, false)
	c := New(srv.URL+"/api", WithAdminKey("secret"))

	stop := errors.New("stop")
	err := c.WatchWeek(context.Background(), "2025-03-05", time.Millisecond, func([]reservations.Reservation, error) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if err := c.WatchWeek(context.Background(), "2025-03-05", 0, nil); err == nil {
		t.Fatalf("expected error for zero interval")
	}
}
