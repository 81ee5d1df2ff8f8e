package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cartpod/internal/auth"
	"cartpod/internal/cache"
	apperrors "cartpod/internal/errors"
	"cartpod/internal/metrics"
	"cartpod/internal/model"
	"cartpod/internal/repository"
)

// UserService is the credential store used by authentication and user
// administration.
type UserService interface {
	Create(ctx context.Context, name, email, password string, role model.Role) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Resolve returns the user for an authenticated request. It may be served
	// from cache, in which case credential fields are empty.
	Resolve(ctx context.Context, id uuid.UUID) (*model.User, error)
	VerifyPassword(user *model.User, password string) bool
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uuid.UUID, upd repository.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Forget(ctx context.Context, id uuid.UUID)
}

type userService struct {
	repo     repository.UserRepository
	cache    *cache.Client
	cacheTTL time.Duration
	events   metrics.Recorder
	log      logrus.FieldLogger
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client, cacheTTL time.Duration, events metrics.Recorder, log logrus.FieldLogger) UserService {
	return &userService{repo: repo, cache: cache, cacheTTL: cacheTTL, events: events, log: log}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

func (s *userService) Create(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperrors.ErrInvalidRole
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "Name is required")
	}
	if len([]rune(password)) < auth.MinPasswordLength {
		return nil, apperrors.NewValidationError("password", "Password must be at least 6 characters long")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        model.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

func (s *userService) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *userService) Resolve(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, s.cacheKey(id), user, s.cacheTTL)
	return user, nil
}

func (s *userService) VerifyPassword(user *model.User, password string) bool {
	if user == nil || user.PasswordHash == "" {
		return false
	}
	return auth.CheckPassword(user.PasswordHash, password)
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, upd repository.UserUpdate) (*model.User, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name", "Name is required")
		}
		upd.Name = &name
	}

	user, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, apperrors.ErrLastAdmin) {
			s.log.WithField("user_id", id).Warn("rejected demotion of the last admin")
		}
		return nil, err
	}
	s.Forget(ctx, id)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrLastAdmin) {
			s.events.AuthEvent(metrics.EventUserDelete, metrics.OutcomeRejected)
			s.log.WithField("user_id", id).Warn("rejected deletion of the last admin")
		}
		return err
	}
	s.Forget(ctx, id)
	s.events.AuthEvent(metrics.EventUserDelete, metrics.OutcomeSuccess)
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}

// Forget drops the cached copy of a user.
func (s *userService) Forget(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}
