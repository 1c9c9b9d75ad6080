package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// adminMiddleware restricts a route to the admin portal, optionally narrowed
// to specific admin roles (e.g. user.RoleAdminOwner). Coach and learner
// tokens are rejected.
func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if !claims.IsAdmin || !claims.HasAnyRole(roles...) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
