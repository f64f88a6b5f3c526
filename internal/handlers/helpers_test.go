package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/hash"
	"github.com/Skotchmaster/shop_api/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Token{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	), "failed to migrate tables")

	return db
}

func jsonContext(t *testing.T, e *echo.Echo, method, target string, payload any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword("password")
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock uint) *models.Product {
	t.Helper()

	p := models.Product{
		Name:        name,
		Description: name + " description",
		Price:       mustDecimal(t, price),
		Stock:       stock,
	}
	require.NoError(t, db.Create(&p).Error)
	return &p
}

func seedOrder(t *testing.T, db *gorm.DB, owner *models.User, status models.OrderStatus, items ...models.OrderItem) *models.Order {
	t.Helper()

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	order := models.Order{
		Number: uuid.NewString(),
		UserID: owner.ID,
		Status: status,
		Total:  total,
		Items:  items,
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func count[T any](t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	var model T
	require.NoError(t, db.Model(&model).Count(&n).Error)
	return n
}
