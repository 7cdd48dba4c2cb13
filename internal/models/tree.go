package models

import (
	"time"

	"github.com/google/uuid"
)

// Subject is the root of a content tree. A nil ClassID makes the subject
// global, visible only to OwnerID.
type Subject struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	ClassID   *uuid.UUID `json:"class_id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s Subject) IsGlobal() bool {
	return s.ClassID == nil
}

type Chapter struct {
	ID              uuid.UUID `json:"id"`
	SubjectID       uuid.UUID `json:"subject_id"`
	Number          int       `json:"chapter_number"`
	Title           string    `json:"title"`
	Summary         *string   `json:"summary"`
	SummaryOverride bool      `json:"summary_override"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Paragraph struct {
	ID        uuid.UUID `json:"id"`
	ChapterID uuid.UUID `json:"chapter_id"`
	Number    int       `json:"paragraph_number"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Assignment.LetterIndex and BlockCount are derived on read and never stored.
type Assignment struct {
	ID             uuid.UUID  `json:"id"`
	ParagraphID    uuid.UUID  `json:"paragraph_id"`
	Index          int        `json:"assignment_index"`
	LetterIndex    string     `json:"letter_index"`
	Title          string     `json:"title"`
	AnswersEnabled bool       `json:"answers_enabled"`
	ClassID        *uuid.UUID `json:"class_id"`
	BlockCount     int        `json:"block_count"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
