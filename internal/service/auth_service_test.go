package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cartpod/internal/auth"
	apperrors "cartpod/internal/errors"
	"cartpod/internal/logging"
	"cartpod/internal/metrics"
	"cartpod/internal/model"
)

const sessionTTL = 7 * 24 * time.Hour

type authFixture struct {
	repo   *MockUserRepository
	tokens *auth.TokenService
	now    time.Time
	svc    AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{repo: new(MockUserRepository), now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	f.tokens = auth.NewTokenService("test-secret").WithClock(func() time.Time { return f.now })
	users := NewUserService(f.repo, nil, time.Minute, metrics.Nop{}, logging.Discard())
	f.svc = NewAuthService(users, f.tokens, sessionTTL, metrics.Nop{}, logging.Discard())
	return f
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func TestAuthService_Register(t *testing.T) {
	t.Run("creates user and issues a session token", func(t *testing.T) {
		f := newAuthFixture()
		id := uuid.New()
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.Email == "a@x.com" && u.Role == model.RoleOwner && auth.CheckPassword(u.PasswordHash, "secret1")
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*model.User).ID = id
		}).Return(nil)

		res, err := f.svc.Register(context.Background(), "A", " A@x.com", "secret1", model.RoleOwner)

		require.NoError(t, err)
		assert.Equal(t, id, res.User.ID)
		claims, err := f.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, id, claims.UserID)
		assert.Equal(t, auth.KindSession, claims.Kind)
		assert.WithinDuration(t, f.now.Add(sessionTTL), claims.ExpiresAt, 0)
		f.repo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("Create", mock.Anything, mock.Anything).Return(apperrors.ErrDuplicateEmail)

		res, err := f.svc.Register(context.Background(), "A", "A@X.COM", "secret1", model.RoleOwner)

		assert.Nil(t, res)
		assert.ErrorIs(t, err, apperrors.ErrDuplicateEmail)
	})

	t.Run("invalid role never reaches the store", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.svc.Register(context.Background(), "A", "a@x.com", "secret1", model.Role("root"))

		assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("short password", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.svc.Register(context.Background(), "A", "a@x.com", "abc", model.RoleOwner)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestAuthService_Login(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "a@x.com", Role: model.RoleOwner, PasswordHash: mustHash(t, "secret1")}

	t.Run("correct credentials", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("FindByEmail", mock.Anything, "a@x.com").Return(user, nil)

		res, err := f.svc.Login(context.Background(), "a@x.com", "secret1")

		require.NoError(t, err)
		claims, err := f.tokens.Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("FindByEmail", mock.Anything, "a@x.com").Return(user, nil)
		f.repo.On("FindByEmail", mock.Anything, "nouser@x.com").Return(nil, apperrors.ErrUserNotFound)

		_, wrongPw := f.svc.Login(context.Background(), "a@x.com", "wrong")
		_, unknown := f.svc.Login(context.Background(), "nouser@x.com", "secret1")

		assert.ErrorIs(t, wrongPw, apperrors.ErrInvalidCredentials)
		assert.ErrorIs(t, unknown, apperrors.ErrInvalidCredentials)
		assert.Equal(t, wrongPw.Error(), unknown.Error())
	})

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		f := newAuthFixture()
		f.repo.On("FindByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("connection refused"))

		_, err := f.svc.Login(context.Background(), "a@x.com", "secret1")

		require.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	user := &model.User{ID: uuid.New(), Email: "a@x.com", Role: model.RoleAdmin}

	tests := []struct {
		name    string
		token   func(f *authFixture) string
		setup   func(f *authFixture)
		wantErr error
	}{
		{
			name: "valid session token",
			token: func(f *authFixture) string {
				tok, _ := f.tokens.Issue(user.ID, auth.KindSession, time.Hour)
				return tok
			},
			setup: func(f *authFixture) { f.repo.On("FindByID", mock.Anything, user.ID).Return(user, nil) },
		},
		{
			name:    "missing token",
			token:   func(*authFixture) string { return "" },
			wantErr: apperrors.ErrUnauthenticated,
		},
		{
			name:    "garbage token",
			token:   func(*authFixture) string { return "not.a.jwt" },
			wantErr: apperrors.ErrUnauthenticated,
		},
		{
			name: "expired token",
			token: func(f *authFixture) string {
				tok, _ := f.tokens.Issue(user.ID, auth.KindSession, time.Hour)
				f.now = f.now.Add(2 * time.Hour)
				return tok
			},
			wantErr: apperrors.ErrUnauthenticated,
		},
		{
			name: "reset token is not a session",
			token: func(f *authFixture) string {
				tok, _ := f.tokens.Issue(user.ID, auth.KindReset, time.Hour)
				return tok
			},
			wantErr: apperrors.ErrUnauthenticated,
		},
		{
			name: "deleted user",
			token: func(f *authFixture) string {
				tok, _ := f.tokens.Issue(user.ID, auth.KindSession, time.Hour)
				return tok
			},
			setup:   func(f *authFixture) { f.repo.On("FindByID", mock.Anything, user.ID).Return(nil, apperrors.ErrUserNotFound) },
			wantErr: apperrors.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			got, err := f.svc.Authenticate(context.Background(), tt.token(f))

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})
	}
}
