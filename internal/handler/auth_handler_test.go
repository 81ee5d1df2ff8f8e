package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cartpod/internal/errors"
	"cartpod/internal/model"
	"cartpod/internal/service"
)

func setupAuthHandler() (*MockAuthService, *MockPasswordResetService, *AuthHandler) {
	authSvc := new(MockAuthService)
	resetSvc := new(MockPasswordResetService)
	return authSvc, resetSvc, NewAuthHandler(authSvc, resetSvc)
}

func TestAuthHandler_Register(t *testing.T) {
	authSvc, resetSvc, h := setupAuthHandler()
	e := newTestEcho()
	e.POST("/auth/register", h.Register)

	user := &model.User{ID: uuid.New(), Name: "Jane", Email: "jane@example.com", Role: model.RoleOwner}
	authSvc.On("Register", mock.Anything, "Jane", "jane@example.com", "secret1", model.RoleOwner).
		Return(&service.AuthResult{Token: "tok", User: user}, nil)

	rec := doJSON(e, http.MethodPost, "/auth/register",
		`{"name":"Jane","email":"jane@example.com","password":"secret1","role":"owner"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var res service.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, user.ID, res.User.ID)
	assert.NotContains(t, rec.Body.String(), "password")
	authSvc.AssertExpectations(t)
	resetSvc.AssertExpectations(t)
}

func TestAuthHandler_RegisterRejectsInput(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"invalid role", `{"name":"Jane","email":"jane@example.com","password":"Secret1","role":"chef"}`, "INVALID_ROLE"},
		{"short password", `{"name":"Jane","email":"jane@example.com","password":"abc12","role":"owner"}`, "VALIDATION_ERROR"},
		{"bad email", `{"name":"Jane","email":"jane","password":"Secret1","role":"owner"}`, "VALIDATION_ERROR"},
		{"missing name", `{"email":"jane@example.com","password":"Secret1","role":"owner"}`, "VALIDATION_ERROR"},
		{"malformed body", `{"name":`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authSvc, _, h := setupAuthHandler()
			e := newTestEcho()
			e.POST("/auth/register", h.Register)

			rec := doJSON(e, http.MethodPost, "/auth/register", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			authSvc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAuthHandler_RegisterDuplicateEmail(t *testing.T) {
	authSvc, _, h := setupAuthHandler()
	e := newTestEcho()
	e.POST("/auth/register", h.Register)

	authSvc.On("Register", mock.Anything, "Jane", "jane@example.com", "Secret1", model.RoleAdmin).
		Return(nil, errors.ErrDuplicateEmail)

	rec := doJSON(e, http.MethodPost, "/auth/register",
		`{"name":"Jane","email":"jane@example.com","password":"Secret1","role":"admin"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user already exists", decodeError(t, rec).Error)
}

func TestAuthHandler_Login(t *testing.T) {
	authSvc, _, h := setupAuthHandler()
	e := newTestEcho()
	e.POST("/auth/login", h.Login)

	user := &model.User{ID: uuid.New(), Email: "jane@example.com", Role: model.RoleOwner}
	authSvc.On("Login", mock.Anything, "jane@example.com", "Secret1").
		Return(&service.AuthResult{Token: "tok", User: user}, nil)
	authSvc.On("Login", mock.Anything, "jane@example.com", "Wrong1").
		Return(nil, errors.ErrInvalidCredentials)

	rec := doJSON(e, http.MethodPost, "/auth/login", `{"email":"jane@example.com","password":"Wrong1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, rec).Code)

	rec = doJSON(e, http.MethodPost, "/auth/login", `{"email":"jane@example.com","password":"Secret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token":"tok"`)
}

func TestAuthHandler_LoginStoreFailure(t *testing.T) {
	authSvc, _, h := setupAuthHandler()
	e := newTestEcho()
	e.POST("/auth/login", h.Login)

	authSvc.On("Login", mock.Anything, "jane@example.com", "Secret1").
		Return(nil, fmt.Errorf("find user: %w", assert.AnError))

	rec := doJSON(e, http.MethodPost, "/auth/login", `{"email":"jane@example.com","password":"Secret1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestAuthHandler_Me(t *testing.T) {
	_, _, h := setupAuthHandler()
	user := &model.User{ID: uuid.New(), Name: "Jane", Role: model.RoleOwner, PasswordHash: "hash"}

	e := newTestEcho()
	e.GET("/auth/me", h.Me, withUser(user))
	e.GET("/anon/me", h.Me)

	rec := doJSON(e, http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ID.String())
	assert.NotContains(t, rec.Body.String(), "hash")

	rec = doJSON(e, http.MethodGet, "/anon/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	_, resetSvc, h := setupAuthHandler()
	e := newTestEcho()
	e.POST("/auth/forgot-password", h.ForgotPassword)

	resetSvc.On("RequestReset", mock.Anything, "nobody@example.com").Return(nil)
	resetSvc.On("RequestReset", mock.Anything, "jane@example.com").
		Return(fmt.Errorf("%w: smtp down", errors.ErrEmailDelivery))

	rec := doJSON(e, http.MethodPost, "/auth/forgot-password", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, forgotPasswordMessage, decodeMessage(t, rec))

	rec = doJSON(e, http.MethodPost, "/auth/forgot-password", `{"email":"jane@example.com"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "EMAIL_DELIVERY_FAILED", decodeError(t, rec).Code)
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	_, resetSvc, h := setupAuthHandler()
	e := newTestEcho()
	e.POST("/auth/reset-password", h.ResetPassword)

	resetSvc.On("ConsumeReset", mock.Anything, "expired", "NewSecret1").Return(errors.ErrInvalidOrExpiredToken)
	resetSvc.On("ConsumeReset", mock.Anything, "good", "weak").Return(errors.ErrWeakPassword)
	resetSvc.On("ConsumeReset", mock.Anything, "good", "NewSecret1").Return(nil)

	rec := doJSON(e, http.MethodPost, "/auth/reset-password", `{"token":"expired","password":"NewSecret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_OR_EXPIRED_TOKEN", decodeError(t, rec).Code)

	rec = doJSON(e, http.MethodPost, "/auth/reset-password", `{"token":"good","password":"weak"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "WEAK_PASSWORD", decodeError(t, rec).Code)

	rec = doJSON(e, http.MethodPost, "/auth/reset-password", `{"token":"good","password":"NewSecret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password has been reset successfully", decodeMessage(t, rec))
}
