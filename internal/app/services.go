package app

import (
	"EduForge/internal/ai"
	"EduForge/internal/config"
	"EduForge/internal/service"
	"EduForge/internal/service/access"
	"EduForge/internal/service/answers"
	"EduForge/internal/service/auth"
	"EduForge/internal/service/authoring"
	"EduForge/internal/service/classes"
	"EduForge/internal/service/search"
	"EduForge/internal/service/study"
	"EduForge/internal/service/suggest"
	"EduForge/internal/service/tree"
	"EduForge/internal/storage/cache"
	"EduForge/internal/storage/elastic"
	"EduForge/internal/storage/minio_storage"
	"EduForge/pkg/logger"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Backends are the optional services. A nil field switches the feature off.
type Backends struct {
	Media  *minio_storage.MediaStorage
	Search *elastic.AssignmentSearchRepo
	Cache  *cache.Cache
	// AI is the real text generation provider; nil runs on the mock only.
	AI ai.Completer
}

type mediaStore interface {
	Upload(ctx context.Context, assignmentID, blockID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	URL(ctx context.Context, objectKey string) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

type searchStore interface {
	Index(ctx context.Context, doc elastic.AssignmentDoc) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, subjectIDs []uuid.UUID, size int) ([]elastic.Hit, error)
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// NewServices wires every service onto repos and the configured backends.
// Disabled backends are handed over as untyped nils.
func NewServices(log logger.Log, cfg *config.Config, repos Repositories, b Backends) (service.Collection, error) {
	prompts, err := ai.LoadPrompts()
	if err != nil {
		return service.Collection{}, fmt.Errorf("failed to load prompts: %w", err)
	}

	var media mediaStore
	if b.Media != nil {
		media = b.Media
	}
	var index searchStore
	if b.Search != nil {
		index = b.Search
	}
	var studyCache cacheStore
	if b.Cache != nil {
		studyCache = b.Cache
	}

	mock := ai.NewMock()
	provider := cfg.AI.Provider
	var (
		// suggestions fall back to the mock; study and grading report failures
		suggester ai.Completer = mock
		generator ai.Completer = mock
		grader    ai.Completer
	)
	if b.AI != nil {
		suggester = ai.NewFallback(log, b.AI, mock)
		generator = b.AI
		grader = b.AI
	} else {
		provider = "mock"
	}

	resolver := access.NewResolver(repos.Tree, repos.Blocks, repos.Classes)
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	searchService := search.NewSearchService(log, index, repos.Tree, repos.Blocks)

	return service.Collection{
		AuthService:      auth.NewAuthService(log, jwtManager, repos.Users, repos.Sessions),
		ClassService:     classes.NewClassService(log, repos.Classes, repos.Users, resolver),
		TreeService:      tree.NewTreeService(log, repos.Tree, resolver, searchService),
		AuthoringService: authoring.NewAuthoringService(log, repos.Blocks, resolver, media, searchService, cfg.Minio.MaxFileSize),
		AnswerService:    answers.NewAnswerService(log, repos.Blocks, repos.Answers, resolver, media, grader, prompts),
		SuggestService:   suggest.NewSuggestService(log, repos.Blocks, resolver, suggester, prompts),
		StudyService:     study.NewStudyService(log, repos.Tree, repos.Blocks, resolver, generator, prompts, studyCache),
		SearchService:    searchService,
		Features: service.Features{
			Storage:    cfg.Storage.Driver,
			Media:      media != nil,
			Search:     searchService.Enabled(),
			Cache:      studyCache != nil,
			AIProvider: provider,
		},
	}, nil
}
