package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ladla-backend/internal/contact"
	"ladla-backend/internal/reservations"
)

type capturedRequest struct {
	apiKey  string
	payload brevoSendRequest
}

func newTestClient(t *testing.T, status int, adminEmail string) (*BrevoClient, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload brevoSendRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		captured = append(captured, capturedRequest{apiKey: r.Header.Get("api-key"), payload: payload})
		w.WriteHeader(status)
		if status < 300 {
			_, _ = w.Write([]byte(`{"messageId":"<msg-1@brevo>"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":"unauthorized"}`))
	}))
	t.Cleanup(srv.Close)

	client := NewBrevoClient("key-123", "contact@ladla.fr", "", adminEmail, true)
	client.endpoint = srv.URL
	client.httpClient = srv.Client()
	return client, &captured
}

func sampleReservation() reservations.Reservation {
	return reservations.Reservation{
		ID:             "r1",
		Prenom:         "Lina",
		Nom:            "Martin",
		Email:          "lina@example.com",
		Telephone:      "0612345678",
		TypeVoiture:    "suv",
		MarqueVoiture:  "Peugeot 3008",
		Formule:        "Formule Intégrale",
		Prix:           140,
		DateRdv:        "2025-03-05",
		HeureRdv:       "14:00",
		OptionsSummary: []string{"Baume sièges x4 : 60.00 €"},
		Commentaires:   "<b>portail bleu</b>",
	}
}

func TestNewBrevoClientRequiresKeyAndSender(t *testing.T) {
	if NewBrevoClient("", "a@b.fr", "", "", false) != nil {
		t.Fatalf("expected nil client without api key")
	}
	if NewBrevoClient("key", " ", "", "", false) != nil {
		t.Fatalf("expected nil client without sender")
	}
	c := NewBrevoClient("key", "a@b.fr", "", "", false)
	if c == nil || c.senderName != "a@b.fr" {
		t.Fatalf("expected sender name to default to sender email, got %+v", c)
	}
}

func TestSendReservationConfirmation(t *testing.T) {
	client, captured := newTestClient(t, http.StatusCreated, "")

	id, err := client.SendReservationConfirmation(context.Background(), sampleReservation())
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if id != "<msg-1@brevo>" {
		t.Fatalf("unexpected message id %q", id)
	}
	if len(*captured) != 1 {
		t.Fatalf("expected one request, got %d", len(*captured))
	}
	req := (*captured)[0]
	if req.apiKey != "key-123" {
		t.Fatalf("api key header not set")
	}
	p := req.payload
	if p.To[0].Email != "lina@example.com" || p.To[0].Name != "Lina Martin" {
		t.Fatalf("unexpected recipient %+v", p.To)
	}
	if p.Sender.Name != "contact@ladla.fr" {
		t.Fatalf("unexpected sender %+v", p.Sender)
	}
	if p.Headers["X-Sib-Sandbox"] != "drop" {
		t.Fatalf("sandbox header missing")
	}
	if !strings.Contains(p.Subject, "mercredi 5 mars 2025") {
		t.Fatalf("subject should carry the french date: %q", p.Subject)
	}
	for _, want := range []string{"Formule Intégrale", "suv (Peugeot 3008)", "14:00", "140.00 €", "Baume sièges x4"} {
		if !strings.Contains(p.HtmlContent, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if p.ReplyTo != nil {
		t.Fatalf("customer confirmation should not set reply-to")
	}
}

func TestSendReservationAlertEscapesInput(t *testing.T) {
	client, captured := newTestClient(t, http.StatusCreated, "atelier@ladla.fr")

	if _, err := client.SendReservationAlert(context.Background(), sampleReservation()); err != nil {
		t.Fatalf("send: %v", err)
	}
	p := (*captured)[0].payload
	if p.To[0].Email != "atelier@ladla.fr" {
		t.Fatalf("alert should go to the shop, got %+v", p.To)
	}
	if p.ReplyTo == nil || p.ReplyTo.Email != "lina@example.com" {
		t.Fatalf("reply-to should be the customer, got %+v", p.ReplyTo)
	}
	if strings.Contains(p.HtmlContent, "<b>portail bleu</b>") {
		t.Fatalf("comments must be html escaped")
	}
	if !strings.Contains(p.HtmlContent, "&lt;b&gt;portail bleu&lt;/b&gt;") {
		t.Fatalf("escaped comments missing from body")
	}
}

func TestAlertsNeedAdminEmail(t *testing.T) {
	client, captured := newTestClient(t, http.StatusCreated, "")

	if _, err := client.SendReservationAlert(context.Background(), sampleReservation()); !errors.Is(err, ErrNoAdminEmail) {
		t.Fatalf("expected ErrNoAdminEmail, got %v", err)
	}
	if _, err := client.SendContactAlert(context.Background(), contact.Message{Email: "a@b.fr"}); !errors.Is(err, ErrNoAdminEmail) {
		t.Fatalf("expected ErrNoAdminEmail, got %v", err)
	}
	if len(*captured) != 0 {
		t.Fatalf("no request expected without admin email")
	}
}

func TestSendContactAlert(t *testing.T) {
	client, captured := newTestClient(t, http.StatusOK, "atelier@ladla.fr")

	msg := contact.Message{
		Nom:       "Paul",
		Email:     "paul@example.com",
		Message:   "Bonjour,\nest-ce possible samedi ?",
		CreatedAt: time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC),
	}
	if _, err := client.SendContactAlert(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	p := (*captured)[0].payload
	if p.Subject != "Contact : Sans sujet (Paul)" {
		t.Fatalf("unexpected subject %q", p.Subject)
	}
	if p.ReplyTo == nil || p.ReplyTo.Email != "paul@example.com" {
		t.Fatalf("reply-to should be the sender")
	}
	if !strings.Contains(p.HtmlContent, "05/03/2025 09:30") {
		t.Fatalf("body missing received date")
	}
	if strings.Contains(p.HtmlContent, "Telephone") {
		t.Fatalf("empty phone should be omitted")
	}
}

func TestSendReportsProviderError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusUnauthorized, "")

	_, err := client.SendReservationConfirmation(context.Background(), sampleReservation())
	if err == nil || !strings.Contains(err.Error(), "status=401") {
		t.Fatalf("expected provider status in error, got %v", err)
	}
}

func TestSendRejectsMissingRecipient(t *testing.T) {
	client, captured := newTestClient(t, http.StatusCreated, "")
	r := sampleReservation()
	r.Email = ""
	if _, err := client.SendReservationConfirmation(context.Background(), r); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
	if len(*captured) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestNilClient(t *testing.T) {
	var client *BrevoClient
	if _, err := client.SendReservationConfirmation(context.Background(), sampleReservation()); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if _, err := client.SendContactAlert(context.Background(), contact.Message{}); err == nil {
		t.Fatalf("expected error from nil client")
	}
}
