package middleware

import (
	"net/http"

	"userbase/internal/authz"
	"userbase/internal/common"

	"github.com/labstack/echo/v4"
)

// RequireDecision gates a route on a policy function evaluated against the
// authenticated actor. The service layer re-checks the same policy; the
// middleware just rejects early with the decision's reason.
func RequireDecision(check func(authz.Actor) authz.Decision) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := common.GetActorFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if d := check(actor); !d.Allowed() {
				return echo.NewHTTPError(http.StatusForbidden, d.Reason())
			}
			return next(c)
		}
	}
}
