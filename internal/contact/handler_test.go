package contact

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"

	"ladla-backend/internal/validation"
)

type memoryRepo struct {
	mu    sync.Mutex
	items map[string]Message
}

func newMemoryRepo(items ...Message) *memoryRepo {
	repo := &memoryRepo{items: make(map[string]Message)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (m *memoryRepo) Create(ctx context.Context, item Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, id string) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return Message{}, mongo.ErrNoDocuments
	}
	return item, nil
}

func (m *memoryRepo) filtered(status Status) []Message {
	out := make([]Message, 0)
	for _, item := range m.items {
		if status == "" || item.Status == status {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memoryRepo) List(ctx context.Context, status Status, limit, offset int64) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.filtered(status)
	if offset >= int64(len(items)) {
		return []Message{}, nil
	}
	items = items[offset:]
	if limit < int64(len(items)) {
		items = items[:limit]
	}
	return items, nil
}

func (m *memoryRepo) Count(ctx context.Context, status Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filtered(status))), nil
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return Message{}, mongo.ErrNoDocuments
	}
	item.Status = status
	item.UpdatedAt = at
	m.items[id] = item
	return item, nil
}

func (m *memoryRepo) MarkRead(ctx context.Context, ids []string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var n int64
	for id, item := range m.items {
		if item.Status != StatusUnread || (len(ids) > 0 && !wanted[id]) {
			continue
		}
		item.Status = StatusRead
		item.UpdatedAt = at
		m.items[id] = item
		n++
	}
	return n, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *memoryRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

type failingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *failingNotifier) SendContactAlert(ctx context.Context, m Message) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	return "", errors.New("brevo unavailable")
}

func seedMessages() []Message {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return []Message{
		{ID: "m1", Nom: "A", Status: StatusUnread, CreatedAt: base},
		{ID: "m2", Nom: "B", Status: StatusUnread, CreatedAt: base.Add(time.Hour)},
		{ID: "m3", Nom: "C", Status: StatusRead, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "m4", Nom: "D", Status: StatusReplied, CreatedAt: base.Add(3 * time.Hour)},
	}
}

func newTestRouter(svc *Service) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(svc, validation.New(), log)
	pass := func(next http.Handler) http.Handler { return next }
	r := chi.NewRouter()
	h.Routes(r, pass, pass)
	return r
}

func newTestService(repo Repository, notifier Notifier) *Service {
	return NewService(repo, notifier, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func dataOf(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success {
		t.Fatalf("expected success envelope")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestCreateMessage(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &failingNotifier{}
	svc := newTestService(repo, notifier)
	h := newTestRouter(svc)

	rec := do(t, h, http.MethodPost, "/contact", `{"nom":"Sami","email":"SAMI@example.com","message":"Bonjour, un devis ?"}`)
	svc.Wait()
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.items) != 1 || notifier.calls != 1 {
		t.Fatalf("expected one stored message and one alert attempt")
	}
	for _, item := range repo.items {
		if item.Status != StatusUnread || item.Email != "sami@example.com" {
			t.Fatalf("unexpected message: %+v", item)
		}
	}

	rec = do(t, h, http.MethodPost, "/contact", `{"nom":"Sami","email":"nope","message":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	h := newTestRouter(newTestService(newMemoryRepo(seedMessages()...), nil))

	rec := do(t, h, http.MethodGet, "/contact?status=unread&limit=1", "")
	var page struct {
		Items []Message `json:"items"`
		Total int64     `json:"total"`
	}
	dataOf(t, rec, &page)
	if page.Total != 2 || len(page.Items) != 1 || page.Items[0].ID != "m2" {
		t.Fatalf("unexpected page: %+v", page)
	}

	if rec := do(t, h, http.MethodGet, "/contact?status=archived", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/contact?limit=0", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReadFlows(t *testing.T) {
	repo := newMemoryRepo(seedMessages()...)
	h := newTestRouter(newTestService(repo, nil))

	var count map[string]int64
	dataOf(t, do(t, h, http.MethodGet, "/contact/unread-count", ""), &count)
	if count["count"] != 2 {
		t.Fatalf("expected 2 unread, got %d", count["count"])
	}

	var updated map[string]int64
	dataOf(t, do(t, h, http.MethodPut, "/contact/bulk-read", `{"ids":["m1","m1","m3"]}`), &updated)
	if updated["updated"] != 1 || repo.items["m1"].Status != StatusRead || repo.items["m2"].Status != StatusUnread {
		t.Fatalf("bulk read touched the wrong messages: %v", updated)
	}

	dataOf(t, do(t, h, http.MethodPut, "/contact/read-all", ""), &updated)
	if updated["updated"] != 1 || repo.items["m2"].Status != StatusRead {
		t.Fatalf("read-all did not mark the remaining message")
	}
	if repo.items["m4"].Status != StatusReplied {
		t.Fatalf("read-all must not downgrade replied messages")
	}

	if rec := do(t, h, http.MethodPut, "/contact/m4/status", `{"status":"unread"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, "/contact/zzz/status", `{"status":"read"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteFlows(t *testing.T) {
	repo := newMemoryRepo(seedMessages()...)
	h := newTestRouter(newTestService(repo, nil))

	var deleted map[string]int64
	dataOf(t, do(t, h, http.MethodDelete, "/contact/bulk", `{"ids":["m1","m2","missing"]}`), &deleted)
	if deleted["deleted"] != 2 || len(repo.items) != 2 {
		t.Fatalf("unexpected bulk delete: %v", deleted)
	}
	if rec := do(t, h, http.MethodDelete, "/contact/bulk", `{"ids":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty id list must be rejected, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/contact/m3", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/contact/m3", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
