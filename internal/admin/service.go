package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"ladla-backend/internal/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfigured      = errors.New("admin auth not configured")
)

type Service struct {
	repo     Repository
	manager  *auth.Manager
	location *time.Location
}

func NewService(repo Repository, manager *auth.Manager, location *time.Location) *Service {
	return &Service{
		repo:     repo,
		manager:  manager,
		location: location,
	}
}

// Bootstrap creates the first admin account when none exists. It reports
// whether an account was created.
func (s *Service) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return false, nil
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	now := time.Now().In(s.location)
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	if s.manager == nil {
		return Session{}, ErrNotConfigured
	}
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	_ = s.repo.TouchLogin(ctx, user.ID, time.Now().In(s.location))
	return s.issue(user.Username)
}

// Refresh trades a valid refresh token for a new session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if s.manager == nil {
		return Session{}, ErrNotConfigured
	}
	claims, err := s.manager.ParseRefresh(refreshToken)
	if err != nil || claims.Role != auth.RoleAdmin {
		return Session{}, auth.ErrInvalidToken
	}
	if _, err := s.repo.GetByUsername(ctx, claims.Subject); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, err
	}
	return s.issue(claims.Subject)
}

func (s *Service) ChangePassword(ctx context.Context, username, current, next string) error {
	if err := auth.CheckStrength(next); err != nil {
		return err
	}
	user, err := s.authenticate(ctx, username, current)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, hash, time.Now().In(s.location))
}

func (s *Service) authenticate(ctx context.Context, username, password string) (User, error) {
	user, err := s.repo.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) issue(username string) (Session, error) {
	access, err := s.manager.NewAccessToken(username, auth.RoleAdmin)
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.manager.NewRefreshToken(username, auth.RoleAdmin)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Username:     username,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.manager.AccessTTL.Seconds()),
	}, nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
