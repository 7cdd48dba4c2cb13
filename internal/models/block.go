package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Block struct {
	ID           uuid.UUID       `json:"id"`
	AssignmentID uuid.UUID       `json:"assignment_id"`
	Type         string          `json:"type"`
	Position     int             `json:"position"`
	Data         json.RawMessage `json:"data"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type Answer struct {
	ID           uuid.UUID       `json:"id"`
	BlockID      uuid.UUID       `json:"block_id"`
	AssignmentID uuid.UUID       `json:"assignment_id"`
	UserID       uuid.UUID       `json:"user_id"`
	Data         json.RawMessage `json:"data"`
	Score        *float64        `json:"score"`
	MaxScore     *float64        `json:"max_score"`
	Correct      *bool           `json:"correct"`
	Feedback     string          `json:"feedback,omitempty"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}
