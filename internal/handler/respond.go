package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"cartpod/internal/errors"
)

// MessageResponse is a plain confirmation body.
type MessageResponse struct {
	Message string `json:"message"`
}

// respondError converts a domain error into an echo HTTP error carrying an
// errors.ErrorResponse body.
func respondError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return respondError(errors.NewValidationError("body", "invalid request body"))
	}
	if err := c.Validate(req); err != nil {
		return respondError(err)
	}
	return nil
}

// pathID parses the named path parameter as a UUID. Malformed ids are
// reported as notFound.
func pathID(c echo.Context, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, respondError(notFound)
	}
	return id, nil
}
