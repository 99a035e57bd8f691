package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusCreated, map[string]int{"count": 2})

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
		Error   string         `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data["count"] != 2 || body.Error != "" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestFailureEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Failure(rec, http.StatusBadRequest, "validation error", map[string]string{"Email": "email"})

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != false || body["error"] != "validation error" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if _, ok := body["data"]; ok {
		t.Fatalf("data must be omitted on failure")
	}
}

func TestWriteErrorLegacyShape(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotFound, "formule not found", nil)

	if rec.Body.String() != "{\"error\":\"formule not found\"}\n" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("missing content type")
	}
}
