package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"cartpod/internal/auth"
	apperrors "cartpod/internal/errors"
	"cartpod/internal/logging"
	"cartpod/internal/metrics"
	"cartpod/internal/model"
)

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, name, email, password string, role model.Role) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Authenticate resolves the user behind a session token. Every token or
	// identity problem is reported as ErrUnauthenticated.
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type authService struct {
	users      UserService
	tokens     auth.TokenIssuer
	sessionTTL time.Duration
	events     metrics.Recorder
	log        logrus.FieldLogger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users UserService, tokens auth.TokenIssuer, sessionTTL time.Duration, events metrics.Recorder, log logrus.FieldLogger) AuthService {
	return &authService{
		users:      users,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		events:     events,
		log:        log,
	}
}

// Register creates the user and signs them in.
func (s *authService) Register(ctx context.Context, name, email, password string, role model.Role) (*AuthResult, error) {
	user, err := s.users.Create(ctx, name, email, password, role)
	if err != nil {
		s.events.AuthEvent(metrics.EventRegister, metrics.OutcomeFailure)
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID, auth.KindSession, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.events.AuthEvent(metrics.EventRegister, metrics.OutcomeSuccess)
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and issues a session token. An unknown email and
// a wrong password fail identically.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		// Spend the same bcrypt work as a real comparison.
		auth.CheckPassword(dummyHash(), password)
		return nil, s.loginFailed(email)
	}

	if !s.users.VerifyPassword(user, password) {
		return nil, s.loginFailed(email)
	}

	token, err := s.tokens.Issue(user.ID, auth.KindSession, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.events.AuthEvent(metrics.EventLogin, metrics.OutcomeSuccess)
	s.log.WithField("user_id", user.ID).Info("user logged in")
	return &AuthResult{Token: token, User: user}, nil
}

func (s *authService) loginFailed(email string) error {
	s.events.AuthEvent(metrics.EventLogin, metrics.OutcomeFailure)
	s.log.WithField("email", logging.MaskEmail(email)).Info("login failed")
	return apperrors.ErrInvalidCredentials
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.events.AuthEvent(metrics.EventAuthenticate, metrics.OutcomeFailure)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}
	if claims.Kind != auth.KindSession {
		s.events.AuthEvent(metrics.EventAuthenticate, metrics.OutcomeFailure)
		return nil, fmt.Errorf("%w: %s token used as session", apperrors.ErrUnauthenticated, claims.Kind)
	}

	user, err := s.users.Resolve(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.events.AuthEvent(metrics.EventAuthenticate, metrics.OutcomeFailure)
			return nil, fmt.Errorf("%w: user no longer exists", apperrors.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return user, nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, _ := auth.HashPassword("not-a-real-password")
	return hash
})
