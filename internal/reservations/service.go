package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"ladla-backend/internal/cache"
	"ladla-backend/internal/pricing"
	"ladla-backend/internal/schedule"
)

var (
	ErrNotFound       = errors.New("reservation not found")
	ErrSlotTaken      = errors.New("slot already booked")
	ErrSlotPast       = errors.New("slot is in the past")
	ErrUnknownFormula = errors.New("unknown formula")
)

const (
	availabilityPrefix = "disponibilites:"
	notifyTimeout      = 15 * time.Second
)

// FormulaSource gives access to the formulas prices are resolved against.
type FormulaSource interface {
	PriceContext(ctx context.Context, category string) ([]pricing.FormulaPrice, error)
}

type Notifier interface {
	SendReservationConfirmation(ctx context.Context, r Reservation) (string, error)
	SendReservationAlert(ctx context.Context, r Reservation) (string, error)
}

type Service struct {
	repo     Repository
	formulas FormulaSource
	resolver *pricing.Resolver
	notifier Notifier
	cache    cache.Cache
	cacheTTL time.Duration
	location *time.Location
	log      *slog.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewService(repo Repository, formulas FormulaSource, resolver *pricing.Resolver, notifier Notifier, c cache.Cache, cacheTTL time.Duration, location *time.Location, log *slog.Logger) *Service {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Service{
		repo:     repo,
		formulas: formulas,
		resolver: resolver,
		notifier: notifier,
		cache:    c,
		cacheTTL: cacheTTL,
		location: location,
		log:      log,
		now:      time.Now,
	}
}

// Create prices and stores a booking, then notifies the client and the
// admin in the background. A failed notification never fails the booking.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Reservation, error) {
	past, err := schedule.IsSlotPast(req.DateRdv, req.HeureRdv, s.location, s.now())
	if err != nil {
		return Reservation{}, err
	}
	if past {
		return Reservation{}, ErrSlotPast
	}

	taken, err := s.repo.SlotTaken(ctx, req.DateRdv, req.HeureRdv)
	if err != nil {
		return Reservation{}, err
	}
	if taken {
		return Reservation{}, ErrSlotTaken
	}

	quote, opts, err := s.price(ctx, req.TypeVoiture, req.Formule, req.Prix, req.Options)
	if err != nil {
		return Reservation{}, err
	}

	now := s.now().In(s.location)
	item := Reservation{
		ID:             primitive.NewObjectID().Hex(),
		Prenom:         strings.TrimSpace(req.Prenom),
		Nom:            strings.TrimSpace(req.Nom),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Telephone:      strings.TrimSpace(req.Telephone),
		Adresse:        strings.TrimSpace(req.Adresse),
		TypeVoiture:    strings.TrimSpace(req.TypeVoiture),
		MarqueVoiture:  strings.TrimSpace(req.MarqueVoiture),
		Formule:        strings.TrimSpace(req.Formule),
		PrixBase:       quote.PrixBase,
		PrixOptions:    quote.PrixOptions,
		Prix:           quote.Prix,
		DateRdv:        req.DateRdv,
		HeureRdv:       req.HeureRdv,
		Status:         schedule.StatusPending,
		Commentaires:   strings.TrimSpace(req.Commentaires),
		Options:        opts,
		OptionsSummary: quote.Summary,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return Reservation{}, err
	}
	s.invalidate(ctx)
	s.notify(item)
	return item, nil
}

// Quote prices a booking without storing it.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	quote, _, err := s.price(ctx, req.TypeVoiture, req.Formule, req.Prix, req.Options)
	return quote, err
}

func (s *Service) price(ctx context.Context, vehicleType, formula string, base *float64, opts pricing.Options) (Quote, pricing.Options, error) {
	formulas, err := s.formulaContext(ctx, vehicleType, formula)
	if err != nil {
		return Quote{}, opts, err
	}

	basePrice := 0.0
	switch {
	case base != nil:
		basePrice = *base
	case strings.TrimSpace(formula) != "":
		f, ok := pricing.FindFormula(formula, formulas)
		if !ok {
			return Quote{}, opts, ErrUnknownFormula
		}
		basePrice = f.Price
	}

	opts.Normalize()
	// The booking form seeds the premium wash price from the vehicle type.
	if opts.LavagePremium != nil && opts.LavagePremium.Selected && opts.LavagePremium.Price == nil {
		seeded := pricing.MatchPremiumWashPrice(vehicleType, formulas, s.resolver.FallbackPremiumPrice)
		opts.LavagePremium.Price = &seeded
	}

	pctx := pricing.Context{Formula: formula, Formulas: formulas}
	optionsTotal := s.resolver.TotalOptionsPrice(opts, pctx)
	return Quote{
		PrixBase:    basePrice,
		PrixOptions: optionsTotal,
		Prix:        s.resolver.Total(basePrice, opts, pctx),
		Lines:       s.resolver.Breakdown(opts, pctx),
		Summary:     s.resolver.Summary(opts, pctx),
	}, opts, nil
}

// formulaContext narrows formulas to the vehicle's category, widening to
// every formula when the booked one is not in that category.
func (s *Service) formulaContext(ctx context.Context, vehicleType, formula string) ([]pricing.FormulaPrice, error) {
	if s.formulas == nil {
		return nil, nil
	}
	category, ok := pricing.CanonicalCategory(vehicleType)
	if ok {
		scoped, err := s.formulas.PriceContext(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("load formulas: %w", err)
		}
		if _, found := pricing.FindFormula(formula, scoped); found || strings.TrimSpace(formula) == "" {
			return scoped, nil
		}
	}
	all, err := s.formulas.PriceContext(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load formulas: %w", err)
	}
	// Without a category the name must identify a single formula.
	if categories := pricing.FormulaCategories(formula, all); len(categories) > 1 {
		s.log.Warn("reservations pricing: ambiguous formula",
			slog.String("formula", formula),
			slog.String("vehicle_type", vehicleType),
			slog.String("categories", strings.Join(categories, ",")),
		)
		return nil, fmt.Errorf("%w: %q exists in several vehicle categories", ErrUnknownFormula, formula)
	}
	return all, nil
}

func (s *Service) notify(item Reservation) {
	if s.notifier == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		log := s.log.With(slog.String("reservation_id", item.ID))
		if id, err := s.notifier.SendReservationConfirmation(ctx, item); err != nil {
			log.Warn("reservations notify: confirmation failed", slog.String("error", err.Error()))
		} else {
			log.Info("reservations notify: confirmation sent", slog.String("message_id", id))
		}
		if id, err := s.notifier.SendReservationAlert(ctx, item); err != nil {
			log.Warn("reservations notify: admin alert failed", slog.String("error", err.Error()))
		} else {
			log.Info("reservations notify: admin alert sent", slog.String("message_id", id))
		}
	}()
}

// Wait blocks until pending notifications are done.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Get(ctx context.Context, id string) (Reservation, error) {
	item, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, err
	}
	return item, nil
}

// Week returns the reservations of the Monday-based week containing date.
func (s *Service) Week(ctx context.Context, date string) ([]Reservation, error) {
	ref, err := schedule.ParseDate(date, s.location)
	if err != nil {
		return nil, err
	}
	days := schedule.WeekDates(ref)
	return s.repo.ListRange(ctx, schedule.FormatDate(days[0]), schedule.FormatDate(days[6].AddDate(0, 0, 1)))
}

// Calendar lays the week's reservations out on the slot grid. Cancelled
// reservations are listed but do not occupy their cell.
func (s *Service) Calendar(ctx context.Context, date string) (Calendar, error) {
	ref, err := schedule.ParseDate(date, s.location)
	if err != nil {
		return Calendar{}, err
	}
	items, err := s.Week(ctx, date)
	if err != nil {
		return Calendar{}, err
	}
	return Calendar{
		Week:         schedule.BuildWeekGrid(ref, blockingEntries(items)),
		Reservations: items,
	}, nil
}

// Availability returns the free, not yet past slots of each day of the
// week containing date.
func (s *Service) Availability(ctx context.Context, date string) (Availability, error) {
	ref, err := schedule.ParseDate(date, s.location)
	if err != nil {
		return Availability{}, err
	}
	start := schedule.FormatDate(schedule.WeekStart(ref))
	key := availabilityPrefix + start

	// The cache holds occupancy only; past slots depend on the clock and
	// are dropped on every read.
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var cached Availability
		if err := json.Unmarshal(raw, &cached); err == nil {
			return s.withoutPastSlots(cached)
		}
	}

	items, err := s.Week(ctx, date)
	if err != nil {
		return Availability{}, err
	}
	week := schedule.BuildWeekGrid(ref, blockingEntries(items))
	grid := Availability{Start: week.Start, End: week.End, Slots: week.Slots, Free: week.FreeSlots()}

	if raw, err := json.Marshal(grid); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
			s.log.Warn("reservations cache: set failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return s.withoutPastSlots(grid)
}

func (s *Service) withoutPastSlots(grid Availability) (Availability, error) {
	now := s.now()
	free := make(map[string][]string, len(grid.Free))
	for day, slots := range grid.Free {
		remaining, err := schedule.FilterPastSlots(day, slots, s.location, now)
		if err != nil {
			return Availability{}, err
		}
		free[day] = remaining
	}
	grid.Free = free
	return grid, nil
}

func (s *Service) Month(ctx context.Context, year, month int) ([]Reservation, error) {
	from, until, err := schedule.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRange(ctx, from, until)
}

// Range returns reservations with from <= date_rdv < until.
func (s *Service) Range(ctx context.Context, from, until string) ([]Reservation, error) {
	return s.repo.ListRange(ctx, from, until)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status schedule.Status) (Reservation, error) {
	updated, err := s.repo.UpdateStatus(ctx, strings.TrimSpace(id), status, s.now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.invalidate(ctx)
	return nil
}

// DeleteMonth removes every reservation dated in year/month and returns
// how many were removed.
func (s *Service) DeleteMonth(ctx context.Context, year, month int) (int64, error) {
	from, until, err := schedule.MonthRange(year, month)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.DeleteRange(ctx, from, until)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	return count, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, availabilityPrefix); err != nil {
		s.log.Warn("reservations cache: invalidate failed", slog.String("error", err.Error()))
	}
}

func blockingEntries(items []Reservation) []schedule.Entry {
	entries := make([]schedule.Entry, 0, len(items))
	for _, item := range items {
		if item.Status.Blocking() {
			entries = append(entries, item.Entry())
		}
	}
	return entries
}
