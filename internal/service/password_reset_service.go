package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cartpod/internal/auth"
	apperrors "cartpod/internal/errors"
	"cartpod/internal/logging"
	"cartpod/internal/metrics"
	"cartpod/internal/notify"
	"cartpod/internal/repository"
)

// PasswordResetService runs the forgot-password flow:
// NoResetPending -> ResetRequested -> Consumed | Expired | Cancelled.
type PasswordResetService interface {
	// RequestReset stores a reset token for email and mails it. Unknown
	// emails succeed without side effects.
	RequestReset(ctx context.Context, email string) error
	// ConsumeReset sets newPassword when token is the user's current, unexpired
	// reset token.
	ConsumeReset(ctx context.Context, token, newPassword string) error
	// SweepExpired clears reset tokens whose expiry has passed.
	SweepExpired(ctx context.Context) (int64, error)
}

type passwordResetService struct {
	repo     repository.UserRepository
	users    UserService
	tokens   auth.TokenIssuer
	notifier notify.Notifier
	ttl      time.Duration
	now      func() time.Time
	events   metrics.Recorder
	log      logrus.FieldLogger
}

// NewPasswordResetService creates the reset flow.
func NewPasswordResetService(
	repo repository.UserRepository,
	users UserService,
	tokens auth.TokenIssuer,
	notifier notify.Notifier,
	ttl time.Duration,
	events metrics.Recorder,
	log logrus.FieldLogger,
) PasswordResetService {
	return &passwordResetService{
		repo:     repo,
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		ttl:      ttl,
		now:      time.Now,
		events:   events,
		log:      log,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	log := s.log.WithField("email", logging.MaskEmail(email))

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.events.AuthEvent(metrics.EventResetRequest, metrics.OutcomeRejected)
			log.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}
	log = log.WithField("user_id", user.ID)

	token, err := s.tokens.Issue(user.ID, auth.KindReset, s.ttl)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	if err := s.repo.SetResetToken(ctx, user.ID, token, s.now().Add(s.ttl)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.notifier.SendPasswordResetEmail(ctx, user.Email, token); err != nil {
		// Only clears the token this request stored.
		if clearErr := s.repo.ClearResetToken(context.WithoutCancel(ctx), user.ID, token); clearErr != nil {
			log.WithError(clearErr).Error("roll back reset token after failed delivery")
		}
		s.events.AuthEvent(metrics.EventResetRequest, metrics.OutcomeFailure)
		log.WithError(err).Warn("password reset email delivery failed")
		return fmt.Errorf("%w: %v", apperrors.ErrEmailDelivery, err)
	}

	s.events.AuthEvent(metrics.EventResetRequest, metrics.OutcomeSuccess)
	log.Info("password reset requested")
	return nil
}

func (s *passwordResetService) ConsumeReset(ctx context.Context, token, newPassword string) error {
	if !auth.StrongPassword(newPassword) {
		return apperrors.ErrWeakPassword
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.events.AuthEvent(metrics.EventResetConsume, metrics.OutcomeFailure)
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidOrExpiredToken, err)
	}
	if claims.Kind != auth.KindReset {
		s.events.AuthEvent(metrics.EventResetConsume, metrics.OutcomeFailure)
		return fmt.Errorf("%w: %s token presented for reset", apperrors.ErrInvalidOrExpiredToken, claims.Kind)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ok, err := s.repo.ConsumeResetToken(ctx, claims.UserID, token, s.now(), hash)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !ok {
		s.events.AuthEvent(metrics.EventResetConsume, metrics.OutcomeFailure)
		return apperrors.ErrInvalidOrExpiredToken
	}

	s.users.Forget(ctx, claims.UserID)
	s.events.AuthEvent(metrics.EventResetConsume, metrics.OutcomeSuccess)
	s.log.WithField("user_id", claims.UserID).Info("password reset completed")
	return nil
}

func (s *passwordResetService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.ClearExpiredResetTokens(ctx, s.now())
	if err != nil {
		s.events.AuthEvent(metrics.EventResetSweep, metrics.OutcomeFailure)
		return 0, fmt.Errorf("clear expired reset tokens: %w", err)
	}
	s.events.AuthEvent(metrics.EventResetSweep, metrics.OutcomeSuccess)
	return n, nil
}
