package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	Name        string     `json:"name"`
	Password    string     `json:"-" gorm:"not null"`
	IsActive    bool       `json:"is_active" gorm:"not null"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Todos []Todo `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Token is a refresh token issued at login and rotated on refresh.
type Token struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserId       uuid.UUID `json:"user_id" gorm:"column:user_id;type:uuid;not null;index"`
	RefreshToken uuid.UUID `json:"refresh_token" gorm:"type:uuid;uniqueIndex;not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
