package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a live refresh token. Only the token digest is persisted.
type Session struct {
	UserID    uuid.UUID
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TokenPair is what a client receives on login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
