package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/models"
)

// RequireUser rejects anonymous requests. Runs after Authenticate, before
// the handler, so a failing check never reaches the storage layer.
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return echo.NewHTTPError(http.StatusForbidden, "permission denied")
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CurrentUser(c).IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "permission denied")
		}
		return next(c)
	}
}

// CanMutateOrder is the object-level ownership predicate for orders. Safe
// methods are handled at the route level; mutation is owner-only with no
// admin bypass.
func CanMutateOrder(u *models.User, o *models.Order) bool {
	return u != nil && o != nil && u.ID == o.UserID
}
