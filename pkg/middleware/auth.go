package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/skolahq/skola/pkg/auth"
	pkgerrors "github.com/skolahq/skola/pkg/errors"
)

// RequireAuth verifies the bearer token on every request and stashes the
// resolved actor in the request context, where handlers and services read it
// back with auth.ActorFromContext.
func RequireAuth(verifier *auth.TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return pkgerrors.Unauthorized("missing authorization header")
			}
			if !strings.HasPrefix(header, "Bearer ") {
				return pkgerrors.Unauthorized("authorization header is not a bearer token")
			}

			actor, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return err
			}

			ctx := auth.WithActor(c.Request().Context(), actor)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireRole refuses callers that hold none of the given roles. Use after
// RequireAuth.
func RequireRole(roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := auth.ActorFromContext(c.Request().Context())
			if err != nil {
				return err
			}
			for _, role := range roles {
				if actor.Role == role {
					return next(c)
				}
			}
			return pkgerrors.Forbidden("role-forbidden", "insufficient role")
		}
	}
}
