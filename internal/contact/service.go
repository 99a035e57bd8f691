package contact

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("message not found")

type Notifier interface {
	SendContactAlert(ctx context.Context, m Message) (string, error)
}

type Service struct {
	repo     Repository
	notifier Notifier
	location *time.Location
	log      *slog.Logger
	wg       sync.WaitGroup
}

func NewService(repo Repository, notifier Notifier, location *time.Location, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		location: location,
		log:      log,
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Message, error) {
	now := time.Now().In(s.location)
	item := Message{
		ID:        primitive.NewObjectID().Hex(),
		Nom:       strings.TrimSpace(req.Nom),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Telephone: strings.TrimSpace(req.Telephone),
		Sujet:     strings.TrimSpace(req.Sujet),
		Message:   strings.TrimSpace(req.Message),
		Status:    StatusUnread,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return Message{}, err
	}

	if s.notifier != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if _, err := s.notifier.SendContactAlert(ctx, item); err != nil {
				s.log.Warn("contact notify: admin alert failed", slog.String("message_id", item.ID), slog.String("error", err.Error()))
			}
		}()
	}
	return item, nil
}

// Wait blocks until pending notifications are done.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Get(ctx context.Context, id string) (Message, error) {
	item, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Message{}, ErrNotFound
		}
		return Message{}, err
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, status Status, limit, offset int64) ([]Message, int64, error) {
	items, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, StatusUnread)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Message, error) {
	updated, err := s.repo.UpdateStatus(ctx, strings.TrimSpace(id), status, time.Now().In(s.location))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Message{}, ErrNotFound
		}
		return Message{}, err
	}
	return updated, nil
}

func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	return s.repo.MarkRead(ctx, nil, time.Now().In(s.location))
}

func (s *Service) MarkRead(ctx context.Context, ids []string) (int64, error) {
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.MarkRead(ctx, ids, time.Now().In(s.location))
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
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.DeleteMany(ctx, ids)
}

func cleanIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
