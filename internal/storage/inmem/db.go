// Package inmem keeps every table in process memory behind a single lock.
// It backs local runs with storage.driver "memory" and the service tests, and
// gives the same numbering and transaction guarantees as the postgres store.
package inmem

import (
	"EduForge/internal/models"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type DB struct {
	mu sync.RWMutex

	users    map[uuid.UUID]*models.User
	sessions map[uuid.UUID][]models.Session
	classes  map[uuid.UUID]*models.Class
	members  map[uuid.UUID]map[uuid.UUID]models.ClassMember

	subjects    map[uuid.UUID]*models.Subject
	chapters    map[uuid.UUID]*models.Chapter
	paragraphs  map[uuid.UUID]*models.Paragraph
	assignments map[uuid.UUID]*models.Assignment
	blocks      map[uuid.UUID]*models.Block
	answers     map[uuid.UUID]*models.Answer
}

func New() *DB {
	return &DB{
		users:       make(map[uuid.UUID]*models.User),
		sessions:    make(map[uuid.UUID][]models.Session),
		classes:     make(map[uuid.UUID]*models.Class),
		members:     make(map[uuid.UUID]map[uuid.UUID]models.ClassMember),
		subjects:    make(map[uuid.UUID]*models.Subject),
		chapters:    make(map[uuid.UUID]*models.Chapter),
		paragraphs:  make(map[uuid.UUID]*models.Paragraph),
		assignments: make(map[uuid.UUID]*models.Assignment),
		blocks:      make(map[uuid.UUID]*models.Block),
		answers:     make(map[uuid.UUID]*models.Answer),
	}
}

func now() time.Time {
	return time.Now().UTC()
}

func sortBlocks(bs []models.Block) {
	sort.SliceStable(bs, func(i, j int) bool {
		if bs[i].Position != bs[j].Position {
			return bs[i].Position < bs[j].Position
		}
		if !bs[i].CreatedAt.Equal(bs[j].CreatedAt) {
			return bs[i].CreatedAt.Before(bs[j].CreatedAt)
		}
		return bs[i].ID.String() < bs[j].ID.String()
	})
}
