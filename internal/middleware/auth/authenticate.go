package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/service/token"
)

const userContextKey = "user"

type Middleware struct {
	Tokens *token.Service
}

// Authenticate resolves "Authorization: Token <key>" to a user and stores it
// in the echo context. Requests without a valid header stay anonymous; the
// Require* middlewares decide whether that is acceptable.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key, ok := bearerKey(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return next(c)
		}

		user, err := m.Tokens.Resolve(c.Request().Context(), key)
		if err != nil {
			if errors.Is(err, token.ErrInvalidToken) {
				return echo.NewHTTPError(http.StatusForbidden, "permission denied")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		SetUser(c, user)
		return next(c)
	}
}

func bearerKey(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Token") {
		return "", false
	}
	key := strings.TrimSpace(parts[1])
	return key, key != ""
}

func SetUser(c echo.Context, u *models.User) {
	c.Set(userContextKey, u)
}

func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userContextKey).(*models.User)
	return u
}
