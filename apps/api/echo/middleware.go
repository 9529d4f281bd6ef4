package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/camposdev/unipagos/core/user"
)

type Decision int

const (
	DecisionUnauthenticated Decision = iota
	DecisionDenied
	DecisionAllowed
)

// Decide is the route access check. An empty required set admits any
// authenticated identity; otherwise the caller's role must be in the set.
func Decide(claims *Claims, required []user.Role) Decision {
	if claims == nil {
		return DecisionUnauthenticated
	}
	if len(required) == 0 {
		return DecisionAllowed
	}
	role := user.ParseRole(claims.Role)
	for _, req := range required {
		if role == req {
			return DecisionAllowed
		}
	}
	return DecisionDenied
}

// roleMiddleware gates a route group on the caller's role. The denial payload
// names the caller's role and the roles the route accepts.
func roleMiddleware(required ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errUnauthorized
			}
			switch Decide(&claims, required) {
			case DecisionAllowed:
				return next(ctx)
			case DecisionDenied:
				return echo.NewHTTPError(http.StatusForbidden, echo.Map{
					"error":    "permission denied",
					"role":     user.ParseRole(claims.Role),
					"required": required,
				})
			default:
				return errUnauthorized
			}
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleAdmin)
}
