package newsletter

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("subscriber not found")
	ErrAlreadySubscribed = errors.New("already subscribed")
)

type Service struct {
	repo     Repository
	location *time.Location
}

func NewService(repo Repository, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		location: location,
	}
}

// Subscribe registers email, or reactivates it when it was unsubscribed or
// made inactive. The bool reports whether an existing entry was reactivated.
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) (Subscriber, bool, error) {
	email := normalizeEmail(req.Email)
	now := time.Now().In(s.location)

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Status == StatusActive {
			return existing, false, ErrAlreadySubscribed
		}
		updated, err := s.repo.UpdateStatus(ctx, existing.ID, StatusActive, now)
		if err != nil {
			return Subscriber{}, false, err
		}
		return updated, true, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return Subscriber{}, false, err
	}

	item := Subscriber{
		ID:           primitive.NewObjectID().Hex(),
		Email:        email,
		Nom:          strings.TrimSpace(req.Nom),
		Status:       StatusActive,
		SubscribedAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Subscriber{}, false, ErrAlreadySubscribed
		}
		return Subscriber{}, false, err
	}
	return item, false, nil
}

func (s *Service) Unsubscribe(ctx context.Context, email string) (Subscriber, error) {
	existing, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Subscriber{}, ErrNotFound
		}
		return Subscriber{}, err
	}
	if existing.Status == StatusUnsubscribed {
		return existing, nil
	}
	return s.UpdateStatus(ctx, existing.ID, StatusUnsubscribed)
}

func (s *Service) List(ctx context.Context, status Status) ([]Subscriber, error) {
	return s.repo.List(ctx, status)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		Active:       counts[StatusActive],
		Inactive:     counts[StatusInactive],
		Unsubscribed: counts[StatusUnsubscribed],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Subscriber, error) {
	updated, err := s.repo.UpdateStatus(ctx, strings.TrimSpace(id), status, time.Now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Subscriber{}, ErrNotFound
		}
		return Subscriber{}, err
	}
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
	return nil
}

func (s *Service) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return 0, nil
	}
	return s.repo.DeleteMany(ctx, clean)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
