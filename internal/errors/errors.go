package errors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrValidation is returned when input is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned when the email belongs to another user.
	ErrDuplicateEmail = errors.New("user already exists")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when no valid bearer token identifies the caller.
	ErrUnauthenticated = errors.New("please authenticate")
	// ErrForbidden is returned when the caller lacks the required role or ownership.
	ErrForbidden = errors.New("access denied")
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = kindOf(ErrNotFound, "user not found")
	// ErrCartPodNotFound is returned when a cart pod does not exist.
	ErrCartPodNotFound = kindOf(ErrNotFound, "cart pod not found")
	// ErrFoodCartNotFound is returned when a food cart does not exist.
	ErrFoodCartNotFound = kindOf(ErrNotFound, "food cart not found")
	// ErrAdminOnly is returned when a route requires the admin role.
	ErrAdminOnly = kindOf(ErrForbidden, "access denied, admin only")
	// ErrOwnerOnly is returned when a route requires the owner role.
	ErrOwnerOnly = kindOf(ErrForbidden, "access denied, owner only")
	// ErrNotResourceOwner is returned when the caller does not own the resource.
	ErrNotResourceOwner = kindOf(ErrForbidden, "not authorized")
	// ErrLastAdmin is returned when deleting or demoting the only admin.
	ErrLastAdmin = errors.New("cannot delete the last admin user")
	// ErrInvalidOrExpiredToken is returned when a reset token cannot be consumed.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	// ErrWeakPassword is returned when a password violates the password policy.
	ErrWeakPassword = errors.New("password must be at least 6 characters and contain a number, a lowercase and an uppercase letter")
	// ErrInvalidRole is returned when a role is not owner or admin.
	ErrInvalidRole = errors.New("invalid role")
	// ErrEmailDelivery is returned when the reset email could not be sent.
	ErrEmailDelivery = errors.New("failed to send reset email")
	// ErrCartPodNotEmpty is returned when deleting a cart pod that still has food carts.
	ErrCartPodNotEmpty = errors.New("cart pod still has food carts")
	// ErrInvalidImage is returned when an upload is not an acceptable image.
	ErrInvalidImage = errors.New("only image files up to 5MB are allowed")
)

// kindError is a specific error that also matches a broader sentinel.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

func kindOf(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field details and matches ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Code    string       `json:"code"`
	Details []FieldError `json:"details,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    []FieldError
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become a
// generic 500 so nothing internal leaks into the response body.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httpErr := NewHTTPError(http.StatusBadRequest, verr.Error(), "VALIDATION_ERROR")
		httpErr.Details = verr.Fields
		return httpErr
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrDuplicateEmail):
		return NewHTTPError(http.StatusBadRequest, ErrDuplicateEmail.Error(), "DUPLICATE_EMAIL")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, messageOf(err, ErrForbidden), "FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, messageOf(err, ErrNotFound), "NOT_FOUND")
	case errors.Is(err, ErrLastAdmin):
		return NewHTTPError(http.StatusBadRequest, ErrLastAdmin.Error(), "LAST_ADMIN")
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidOrExpiredToken.Error(), "INVALID_OR_EXPIRED_TOKEN")
	case errors.Is(err, ErrWeakPassword):
		return NewHTTPError(http.StatusBadRequest, ErrWeakPassword.Error(), "WEAK_PASSWORD")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidRole.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrCartPodNotEmpty):
		return NewHTTPError(http.StatusBadRequest, ErrCartPodNotEmpty.Error(), "CART_POD_NOT_EMPTY")
	case errors.Is(err, ErrInvalidImage):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidImage.Error(), "INVALID_IMAGE")
	case errors.Is(err, ErrEmailDelivery):
		return NewHTTPError(http.StatusInternalServerError, "Failed to send reset email. Please check your email configuration.", "EMAIL_DELIVERY_FAILED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// messageOf returns the most specific kindError message in err's chain, or
// fallback's message when err only wraps the bare sentinel.
func messageOf(err, fallback error) string {
	var kerr *kindError
	if errors.As(err, &kerr) {
		return kerr.msg
	}
	return fallback.Error()
}
