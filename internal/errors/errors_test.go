package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate email", ErrDuplicateEmail, http.StatusBadRequest, "DUPLICATE_EMAIL"},
		{"invalid credentials", ErrInvalidCredentials, http.StatusBadRequest, "INVALID_CREDENTIALS"},
		{"unauthenticated", ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"user not found", ErrUserNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped cart pod not found", fmt.Errorf("load: %w", ErrCartPodNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"last admin", ErrLastAdmin, http.StatusBadRequest, "LAST_ADMIN"},
		{"invalid reset token", ErrInvalidOrExpiredToken, http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN"},
		{"weak password", ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
		{"invalid role", ErrInvalidRole, http.StatusBadRequest, "INVALID_ROLE"},
		{"email delivery", ErrEmailDelivery, http.StatusInternalServerError, "EMAIL_DELIVERY_FAILED"},
		{"unknown", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_HidesInternalMessages(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("Error 1045: Access denied for user 'root'"))
	assert.Equal(t, "internal server error", httpErr.Message)
}

func TestValidationError(t *testing.T) {
	verr := &ValidationError{Fields: []FieldError{
		{Field: "email", Message: "Please enter a valid email"},
		{Field: "name", Message: "Name is required"},
	}}

	assert.True(t, errors.Is(verr, ErrValidation))
	assert.Equal(t, "Please enter a valid email; Name is required", verr.Error())

	httpErr := MapErrorToHTTP(fmt.Errorf("register: %w", verr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Len(t, httpErr.ToErrorResponse().Details, 2)
}

func TestMapErrorToHTTP_SpecificMessages(t *testing.T) {
	httpErr := MapErrorToHTTP(fmt.Errorf("delete: %w", ErrAdminOnly))
	assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
	assert.Equal(t, "access denied, admin only", httpErr.Message)

	httpErr = MapErrorToHTTP(fmt.Errorf("find: %w", ErrNotFound))
	assert.Equal(t, "not found", httpErr.Message)
}
