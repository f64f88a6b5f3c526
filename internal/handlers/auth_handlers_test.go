package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/internal/mykafka"
	"github.com/Skotchmaster/shop_api/internal/service/token"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()

	db := initTestDB(t)
	return &AuthHandler{
		DB:       db,
		Tokens:   &token.Service{DB: db},
		Producer: &mykafka.Producer{},
	}
}

func TestRegister_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]string
	}{
		{name: "missing username", payload: map[string]string{"password": "password", "email": "omar@example.com"}},
		{name: "missing password", payload: map[string]string{"username": "omar", "email": "omar@example.com"}},
		{name: "missing email", payload: map[string]string{"username": "omar", "password": "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHandler(t)
			e := echo.New()

			c, rec := jsonContext(t, e, http.MethodPost, "/register", tt.payload)
			require.NoError(t, h.Register(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			assert.EqualValues(t, 0, count[models.User](t, h.DB))
			assert.EqualValues(t, 0, count[models.Token](t, h.DB))
		})
	}
}

func TestRegister_CreatesUserAndToken(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	payload := map[string]string{
		"username": "omar",
		"password": "apitesting123",
		"email":    "omar@example.com",
	}
	c, rec := jsonContext(t, e, http.MethodPost, "/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])

	var user models.User
	require.NoError(t, h.DB.Where("username = ?", "omar").First(&user).Error)
	assert.Equal(t, "omar@example.com", user.Email)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.NotEqual(t, "apitesting123", user.PasswordHash)

	var tok models.Token
	require.NoError(t, h.DB.Where("user_id = ?", user.ID).First(&tok).Error)
	assert.Equal(t, resp["token"], tok.Key)

	assert.EqualValues(t, 1, count[models.User](t, h.DB))
	assert.EqualValues(t, 1, count[models.Token](t, h.DB))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	first := map[string]string{"username": "omar", "password": "apitesting123", "email": "omar@example.com"}
	second := map[string]string{"username": "omar", "password": "differentpass", "email": "notomar@example.com"}

	c, rec := jsonContext(t, e, http.MethodPost, "/register", first)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c2, rec2 := jsonContext(t, e, http.MethodPost, "/register", second)
	require.NoError(t, h.Register(c2))
	assert.Equal(t, http.StatusBadRequest, rec2.Code)

	assert.EqualValues(t, 1, count[models.User](t, h.DB))
	assert.EqualValues(t, 1, count[models.Token](t, h.DB))

	var user models.User
	require.NoError(t, h.DB.Where("username = ?", "omar").First(&user).Error)
	assert.Equal(t, "omar@example.com", user.Email)
}

func TestRegister_StorageFailureIsNotValidation(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	// break the token store so the transaction fails for a non-duplicate
	// reason
	require.NoError(t, h.DB.Migrator().DropTable(&models.Token{}))

	payload := map[string]string{"username": "omar", "password": "apitesting123", "email": "omar@example.com"}
	c, _ := jsonContext(t, e, http.MethodPost, "/register", payload)

	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, http.StatusInternalServerError, he.Code)

	// the user insert rolled back with the rest of the transaction
	assert.EqualValues(t, 0, count[models.User](t, h.DB))
}

func TestLogin_ReturnsRegistrationToken(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()

	payload := map[string]string{"username": "omar", "password": "apitesting123", "email": "omar@example.com"}
	c, rec := jsonContext(t, e, http.MethodPost, "/register", payload)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var registered map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &registered))

	login := map[string]string{"username": "omar", "password": "apitesting123"}
	c2, rec2 := jsonContext(t, e, http.MethodPost, "/login", login)
	require.NoError(t, h.Login(c2))
	require.Equal(t, http.StatusOK, rec2.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp))
	assert.Equal(t, registered["token"], resp["token"])

	// the single-token invariant holds across repeated logins
	c3, rec3 := jsonContext(t, e, http.MethodPost, "/login", login)
	require.NoError(t, h.Login(c3))
	require.Equal(t, http.StatusOK, rec3.Code)
	assert.EqualValues(t, 1, count[models.Token](t, h.DB))
}

func TestLogin_Failures(t *testing.T) {
	h := newAuthHandler(t)
	e := echo.New()
	seedUser(t, h.DB, "omar", models.RoleCustomer)

	tests := []struct {
		name    string
		payload map[string]string
	}{
		{name: "missing username", payload: map[string]string{"password": "password"}},
		{name: "missing password", payload: map[string]string{"username": "omar"}},
		{name: "wrong password", payload: map[string]string{"username": "omar", "password": "nope"}},
		{name: "unknown user", payload: map[string]string{"username": "ghost", "password": "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := jsonContext(t, e, http.MethodPost, "/login", tt.payload)
			require.NoError(t, h.Login(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
