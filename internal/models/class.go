package models

import (
	"time"

	"github.com/google/uuid"
)

type Class struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	JoinCode  string    `json:"join_code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ClassMember struct {
	ClassID  uuid.UUID `json:"class_id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}
