package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Kind tags what a token may be used for.
type Kind string

const (
	// KindSession authenticates API requests.
	KindSession Kind = "session"
	// KindReset authorizes a single password reset.
	KindReset Kind = "reset"
)

var (
	// ErrInvalidToken covers malformed payloads, bad signatures and unknown claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for a well-formed token past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Claims represents JWT claims.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Kind   Kind      `json:"kind"`
	jwt.RegisteredClaims
}

// Token is the verified content of a bearer token.
type Token struct {
	UserID    uuid.UUID
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer mints and verifies signed tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, kind Kind, ttl time.Duration) (string, error)
	Verify(tokenString string) (*Token, error)
}

// TokenService handles JWT token generation and validation.
type TokenService struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

var _ TokenIssuer = (*TokenService)(nil)

// NewTokenService creates a token service signing with secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		now:    time.Now,
		// Expiry is checked against s.now below, not the package clock.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// WithClock replaces the time source. Used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs a token of the given kind for userID valid for ttl.
func (s *TokenService) Issue(userID uuid.UUID, kind Kind, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("issue %s token: empty user id", kind)
	}
	now := s.now()
	claims := &Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature first, then the claims, then expiry.
func (s *TokenService) Verify(tokenString string) (*Token, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.UserID == uuid.Nil || claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	if claims.Kind != KindSession && claims.Kind != KindReset {
		return nil, ErrInvalidToken
	}
	if !claims.VerifyExpiresAt(s.now(), true) {
		return nil, ErrExpiredToken
	}

	return &Token{
		UserID:    claims.UserID,
		Kind:      claims.Kind,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
