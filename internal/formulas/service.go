package formulas

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ladla-backend/internal/cache"
	"ladla-backend/internal/pricing"
)

var (
	ErrNotFound        = errors.New("formula not found")
	ErrInvalidCategory = errors.New("invalid category")
)

const cachePrefix = "formules:"

type Service struct {
	repo     Repository
	cache    cache.Cache
	cacheTTL time.Duration
	location *time.Location
	log      *slog.Logger
}

func NewService(repo Repository, c cache.Cache, cacheTTL time.Duration, location *time.Location, log *slog.Logger) *Service {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Service{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
		location: location,
		log:      log,
	}
}

// List returns the formulas of one category, or every formula when
// category is empty. Results are served from the cache when possible.
func (s *Service) List(ctx context.Context, category string) ([]Formula, error) {
	if category != "" && !pricing.IsCategory(category) {
		return nil, ErrInvalidCategory
	}
	key := cachePrefix + category
	if category == "" {
		key = cachePrefix + "all"
	}

	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var items []Formula
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
	}

	items, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(items); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			s.log.Warn("formulas cache: set failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return items, nil
}

// Grouped returns every formula keyed by category. Known categories are
// always present, possibly empty.
func (s *Service) Grouped(ctx context.Context) (map[string][]Formula, error) {
	items, err := s.List(ctx, "")
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]Formula, len(pricing.Categories))
	for _, c := range pricing.Categories {
		grouped[c] = []Formula{}
	}
	for _, item := range items {
		grouped[item.Category] = append(grouped[item.Category], item)
	}
	return grouped, nil
}

func (s *Service) Get(ctx context.Context, category, id string) (Formula, error) {
	if !pricing.IsCategory(category) {
		return Formula{}, ErrInvalidCategory
	}
	item, err := s.repo.Get(ctx, category, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Formula{}, ErrNotFound
		}
		return Formula{}, err
	}
	return item, nil
}

func (s *Service) Count(ctx context.Context, category string) (int64, error) {
	if !pricing.IsCategory(category) {
		return 0, ErrInvalidCategory
	}
	return s.repo.Count(ctx, category)
}

func (s *Service) Create(ctx context.Context, category string, req UpsertRequest) (Formula, error) {
	if !pricing.IsCategory(category) {
		return Formula{}, ErrInvalidCategory
	}
	now := time.Now().In(s.location)
	item := Formula{
		ID:                primitive.NewObjectID().Hex(),
		Category:          category,
		Nom:               strings.TrimSpace(req.Nom),
		Prix:              *req.Prix,
		Duree:             strings.TrimSpace(req.Duree),
		Icone:             strings.TrimSpace(req.Icone),
		Services:          cleanServices(req.Services),
		LavagePremium:     req.LavagePremium,
		LavagePremiumPrix: req.LavagePremiumPrix,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return Formula{}, err
	}
	s.invalidate(ctx)
	return item, nil
}

func (s *Service) Update(ctx context.Context, category, id string, req UpsertRequest) (Formula, error) {
	set := bson.M{
		"nom":                 strings.TrimSpace(req.Nom),
		"prix":                *req.Prix,
		"duree":               strings.TrimSpace(req.Duree),
		"icone":               strings.TrimSpace(req.Icone),
		"services":            cleanServices(req.Services),
		"lavage_premium":      req.LavagePremium,
		"lavage_premium_prix": req.LavagePremiumPrix,
	}
	return s.update(ctx, category, id, set)
}

// UpdatePremiumPrice only touches lavage_premium_prix. A nil price clears it.
func (s *Service) UpdatePremiumPrice(ctx context.Context, category, id string, price *float64) (Formula, error) {
	return s.update(ctx, category, id, bson.M{"lavage_premium_prix": price})
}

func (s *Service) update(ctx context.Context, category, id string, set bson.M) (Formula, error) {
	if !pricing.IsCategory(category) {
		return Formula{}, ErrInvalidCategory
	}
	set["updated_at"] = time.Now().In(s.location)

	updated, err := s.repo.Update(ctx, category, strings.TrimSpace(id), set)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Formula{}, ErrNotFound
		}
		return Formula{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, category, id string) error {
	if !pricing.IsCategory(category) {
		return ErrInvalidCategory
	}
	deleted, err := s.repo.Delete(ctx, category, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.invalidate(ctx)
	return nil
}

// PriceContext returns the formulas the pricing resolver may match against
// for a category. An unknown category yields every formula.
func (s *Service) PriceContext(ctx context.Context, category string) ([]pricing.FormulaPrice, error) {
	if !pricing.IsCategory(category) {
		category = ""
	}
	items, err := s.List(ctx, category)
	if err != nil {
		return nil, err
	}
	out := make([]pricing.FormulaPrice, 0, len(items))
	for _, item := range items {
		out = append(out, item.PriceInfo())
	}
	return out, nil
}

// PremiumWashPrice resolves the premium wash price for a free-text vehicle
// type against every stored formula.
func (s *Service) PremiumWashPrice(ctx context.Context, vehicleType string, fallback float64) (float64, error) {
	prices, err := s.PriceContext(ctx, "")
	if err != nil {
		return 0, err
	}
	return pricing.MatchPremiumWashPrice(vehicleType, prices, fallback), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, cachePrefix); err != nil {
		s.log.Warn("formulas cache: invalidate failed", slog.String("error", err.Error()))
	}
}

func cleanServices(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
