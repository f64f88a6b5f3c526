package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shop_api/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

const keyBytes = 20

// Service issues and resolves the opaque bearer tokens used on every
// authenticated request. A user has at most one active token.
type Service struct {
	DB *gorm.DB
}

func GenerateKey() (string, error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *Service) Create(ctx context.Context, userID uint) (*models.Token, error) {
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	t := models.Token{Key: key, UserID: userID}
	if err := s.DB.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("token: create: %w", err)
	}
	return &t, nil
}

// GetOrCreate returns the user's existing token, issuing one only when none
// exists yet. Login stays idempotent with respect to the token row.
func (s *Service) GetOrCreate(ctx context.Context, userID uint) (*models.Token, error) {
	var t models.Token
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&t).Error
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("token: lookup: %w", err)
	}
	return s.Create(ctx, userID)
}

func (s *Service) Resolve(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, ErrInvalidToken
	}

	var t models.Token
	if err := s.DB.WithContext(ctx).Where("key = ?", key).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("token: lookup: %w", err)
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, t.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("token: load user: %w", err)
	}

	return &user, nil
}
