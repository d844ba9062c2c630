package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"todo-list/backend/internal/config"
	"todo-list/backend/internal/models"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenPair is what a successful login or refresh hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	LoginUser(ctx context.Context, email, password string) (*models.User, error)
	GenerateToken(ctx context.Context, user *models.User) (*TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	RevokeToken(ctx context.Context, refreshToken string) error
}

type AuthServiceImpl struct {
	db         *gorm.DB
	tokens     *TokenManager
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(db *gorm.DB, cfg config.AuthConfig, tokens *TokenManager) *AuthServiceImpl {
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthServiceImpl{db: db, tokens: tokens, refreshTTL: refreshTTL, now: time.Now}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) LoginUser(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		log.Printf("[auth] failed to record login for %s: %v", user.ID, err)
	}
	user.LastLoginAt = &now
	return &user, nil
}

func (s *AuthServiceImpl) GenerateToken(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refresh, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	token := models.Token{
		ID:           uuid.Must(uuid.NewV4()),
		UserId:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    s.now().Add(s.refreshTTL),
	}
	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.String(),
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
	}, nil
}

// RefreshToken exchanges a live refresh token for a new pair. The old token
// is consumed in the same transaction, so it can be used at most once.
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	id, err := uuid.FromString(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var pair *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var token models.Token
		if err := tx.Where("refresh_token = ?", id).First(&token).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		res := tx.Delete(&token)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 || token.Expired(s.now()) {
			return ErrInvalidToken
		}

		var user models.User
		if err := tx.First(&user, "id = ?", token.UserId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		if !user.IsActive {
			return ErrAccountDisabled
		}

		issuer := &AuthServiceImpl{db: tx, tokens: s.tokens, refreshTTL: s.refreshTTL, now: s.now}
		pair, err = issuer.GenerateToken(ctx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *AuthServiceImpl) RevokeToken(ctx context.Context, refreshToken string) error {
	id, err := uuid.FromString(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}
	return s.db.WithContext(ctx).Where("refresh_token = ?", id).Delete(&models.Token{}).Error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PurgeExpiredTokens removes refresh tokens that can no longer be redeemed.
func (s *AuthServiceImpl) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.Token{})
	return res.RowsAffected, res.Error
}
