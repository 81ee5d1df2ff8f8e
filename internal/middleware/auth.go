package middleware

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "cartpod/internal/errors"
	"cartpod/internal/model"
	"cartpod/internal/service"
)

const (
	userContextKey  = "user"
	tokenContextKey = "token"
)

// Authenticator resolves the caller from an "Authorization: Bearer" header.
// The request is rejected with 401 when the header is missing, the token is
// invalid, expired or not a session token, or its user no longer exists.
func Authenticator(authService service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  userContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			user, err := authService.Authenticate(c.Request().Context(), token)
			if err != nil {
				return nil, err
			}
			c.Set(tokenContextKey, token)
			return user, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) || errors.Is(err, apperrors.ErrUnauthenticated) {
				return reject(c, apperrors.ErrUnauthenticated)
			}
			return reject(c, err)
		},
	})
}

// RequireRole admits only callers holding one of roles. It must run after
// Authenticator.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	denied := apperrors.ErrForbidden
	if len(roles) == 1 {
		switch roles[0] {
		case model.RoleAdmin:
			denied = apperrors.ErrAdminOnly
		case model.RoleOwner:
			denied = apperrors.ErrOwnerOnly
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return reject(c, apperrors.ErrUnauthenticated)
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return reject(c, denied)
		}
	}
}

// CurrentUser returns the authenticated user attached by Authenticator.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(userContextKey).(*model.User)
	return user, ok && user != nil
}

// CurrentToken returns the raw bearer token of the request.
func CurrentToken(c echo.Context) string {
	token, _ := c.Get(tokenContextKey).(string)
	return token
}

func reject(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}
