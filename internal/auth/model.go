package auth

import (
	"time"

	"github.com/gofrs/uuid"

	"ecommerce-backend/internal/user"
)

type RefreshToken struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	Token           string     `json:"token" db:"token"`
	ExpiresAt       time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	ReplacedByToken *string    `json:"replaced_by_token,omitempty" db:"replaced_by_token"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

func (t *RefreshToken) IsExpired() bool {
	return !time.Now().UTC().Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil || t.IsExpired()
}

// Claims is the actor identity carried by an access token.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   user.Role
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}
