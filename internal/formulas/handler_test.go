package formulas

import (
	"context"
	"encoding/json"
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
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"ladla-backend/internal/cache"
	"ladla-backend/internal/pricing"
	"ladla-backend/internal/validation"
)

type memoryRepo struct {
	mu    sync.Mutex
	items map[string]Formula
	lists int
}

func newMemoryRepo(items ...Formula) *memoryRepo {
	repo := &memoryRepo{items: make(map[string]Formula)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (m *memoryRepo) Create(ctx context.Context, item Formula) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, category, id string) (Formula, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.Category != category {
		return Formula{}, mongo.ErrNoDocuments
	}
	return item, nil
}

func (m *memoryRepo) List(ctx context.Context, category string) ([]Formula, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := make([]Formula, 0)
	for _, item := range m.items {
		if category == "" || item.Category == category {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prix < out[j].Prix })
	return out, nil
}

// Update applies set the way $set would, through a bson round trip.
func (m *memoryRepo) Update(ctx context.Context, category, id string, set bson.M) (Formula, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.Category != category {
		return Formula{}, mongo.ErrNoDocuments
	}
	raw, err := bson.Marshal(item)
	if err != nil {
		return Formula{}, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return Formula{}, err
	}
	for k, v := range set {
		doc[k] = v
	}
	raw, err = bson.Marshal(doc)
	if err != nil {
		return Formula{}, err
	}
	var updated Formula
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return Formula{}, err
	}
	m.items[id] = updated
	return updated, nil
}

func (m *memoryRepo) Delete(ctx context.Context, category, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok || item.Category != category {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *memoryRepo) Count(ctx context.Context, category string) (int64, error) {
	items, _ := m.List(ctx, category)
	return int64(len(items)), nil
}

func ptr(v float64) *float64 { return &v }

func seed() []Formula {
	return []Formula{
		{ID: "c1", Category: pricing.CategoryCitadine, Nom: "Essentielle", Prix: 50, Duree: "1h", Services: []string{"Aspiration"}},
		{ID: "s1", Category: pricing.CategorySUV, Nom: "Intégrale SUV", Prix: 120, Duree: "3h", LavagePremium: true, LavagePremiumPrix: ptr(180)},
		{ID: "b1", Category: pricing.CategoryBerline, Nom: "Confort", Prix: 80, Duree: "2h", LavagePremiumPrix: ptr(140)},
	}
}

func newTestRouter(repo Repository, c cache.Cache) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(repo, c, time.Minute, time.UTC, log)
	h := NewHandler(svc, validation.New(), log, pricing.DefaultPremiumWashFallback)
	r := chi.NewRouter()
	h.Routes(r, func(next http.Handler) http.Handler { return next })
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListAllGroupsByCategory(t *testing.T) {
	h := newTestRouter(newMemoryRepo(seed()...), nil)
	rec := do(t, h, http.MethodGet, "/formules", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var grouped map[string][]Formula
	if err := json.NewDecoder(rec.Body).Decode(&grouped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(grouped) != len(pricing.Categories) {
		t.Fatalf("expected every category, got %v", grouped)
	}
	if len(grouped[pricing.CategoryPetiteCitadine]) != 0 || len(grouped[pricing.CategorySUV]) != 1 {
		t.Fatalf("unexpected grouping: %+v", grouped)
	}
}

func TestListUnknownCategory(t *testing.T) {
	h := newTestRouter(newMemoryRepo(seed()...), nil)
	rec := do(t, h, http.MethodGet, "/formules/camion", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"invalid category"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestListIsCachedUntilWrite(t *testing.T) {
	repo := newMemoryRepo(seed()...)
	h := newTestRouter(repo, cache.NewMemory())

	do(t, h, http.MethodGet, "/formules/citadine", "")
	do(t, h, http.MethodGet, "/formules/citadine", "")
	if repo.lists != 1 {
		t.Fatalf("expected a single repository read, got %d", repo.lists)
	}

	rec := do(t, h, http.MethodPost, "/formules/citadine", `{"nom":"Express","prix":35,"duree":"45min"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/formules/citadine", "")
	var items []Formula
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || repo.lists != 2 {
		t.Fatalf("cache was not invalidated: %d items, %d reads", len(items), repo.lists)
	}
}

func TestCreateValidation(t *testing.T) {
	h := newTestRouter(newMemoryRepo(), nil)
	rec := do(t, h, http.MethodPost, "/formules/berline", `{"nom":"","prix":-1,"duree":"1h"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Details["Nom"] != "required" || body.Details["Prix"] != "gte" {
		t.Fatalf("unexpected details: %+v", body.Details)
	}
}

func TestPartialPremiumPriceUpdate(t *testing.T) {
	repo := newMemoryRepo(seed()...)
	h := newTestRouter(repo, nil)

	rec := do(t, h, http.MethodPut, "/formules/citadine/c1", `{"lavage_premium_prix": 95}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := repo.items["c1"]
	if got.LavagePremiumPrix == nil || *got.LavagePremiumPrix != 95 {
		t.Fatalf("premium price not set: %+v", got.LavagePremiumPrix)
	}
	if got.Nom != "Essentielle" || got.Prix != 50 || len(got.Services) != 1 {
		t.Fatalf("partial update touched other fields: %+v", got)
	}

	rec = do(t, h, http.MethodPut, "/formules/citadine/c1", `{"lavage_premium_prix": null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.items["c1"].LavagePremiumPrix != nil {
		t.Fatalf("null should clear the premium price")
	}
}

func TestFullUpdateRequiresFields(t *testing.T) {
	h := newTestRouter(newMemoryRepo(seed()...), nil)
	rec := do(t, h, http.MethodPut, "/formules/citadine/c1", `{"lavage_premium_prix": 95, "nom": "X"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateAndDeleteNotFound(t *testing.T) {
	h := newTestRouter(newMemoryRepo(seed()...), nil)
	if rec := do(t, h, http.MethodPut, "/formules/suv/c1", `{"lavage_premium_prix": 10}`); rec.Code != http.StatusNotFound {
		t.Fatalf("wrong category must be 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/formules/citadine/missing", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/formules/citadine/c1", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCount(t *testing.T) {
	h := newTestRouter(newMemoryRepo(seed()...), nil)
	rec := do(t, h, http.MethodGet, "/formules/suv/count", "")
	var body struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 {
		t.Fatalf("expected 1, got %d", body.Count)
	}
}

// Unmatched vehicle types take the first priced formula in price order.
func TestPremiumWashPriceEndpoint(t *testing.T) {
	h := newTestRouter(newMemoryRepo(seed()...), nil)
	cases := map[string]float64{
		"SUV 4x4":    180,
		"berline":    140,
		"":           140,
		"utilitaire": 140,
	}
	for vehicle, want := range cases {
		rec := do(t, h, http.MethodGet, "/formules/lavage-premium?type_voiture="+strings.ReplaceAll(vehicle, " ", "%20"), "")
		var body struct {
			Prix float64 `json:"prix"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Prix != want {
			t.Fatalf("%q: got %.2f, want %.2f", vehicle, body.Prix, want)
		}
	}

	empty := newTestRouter(newMemoryRepo(), nil)
	rec := do(t, empty, http.MethodGet, "/formules/lavage-premium?type_voiture=suv", "")
	if !strings.Contains(rec.Body.String(), `"prix":120`) {
		t.Fatalf("expected fallback price, got %s", rec.Body.String())
	}
}
