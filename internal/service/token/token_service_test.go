package token

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Token{}))
	return &Service{DB: db}
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	u := models.User{Username: username, Email: username + "@example.com", PasswordHash: "x", Role: models.RoleCustomer}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)

	assert.Len(t, a, 40)
	assert.NotEqual(t, a, b)
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	svc := newTestService(t)
	user := seedUser(t, svc.DB, "alice")
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, first.Key)

	second, err := svc.GetOrCreate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Key, second.Key)

	var n int64
	require.NoError(t, svc.DB.Model(&models.Token{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestResolve(t *testing.T) {
	svc := newTestService(t)
	user := seedUser(t, svc.DB, "alice")
	ctx := context.Background()

	tok, err := svc.Create(ctx, user.ID)
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, tok.Key)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
	assert.Equal(t, "alice", resolved.Username)
}

func TestResolve_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
	}{
		{name: "empty key", key: ""},
		{name: "unknown key", key: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Resolve(ctx, tt.key)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
