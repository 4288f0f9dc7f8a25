package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
	"github.com/blitz-ai/feedback-console/pkg/cache"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/docstore"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

// DocumentService orchestrates document reads and writes over the store,
// keeping the cache consistent: listings may be served from cache, every
// successful write drops the touched container's entry.
type DocumentService interface {
	ListPage(ctx context.Context, container containers.Container, page, pageSize int) ([]*models.FeedbackDocument, error)
	ListAll(ctx context.Context, container containers.Container) ([]*models.FeedbackDocument, error)
	Search(ctx context.Context, container containers.Container, term, field string) ([]*models.FeedbackDocument, error)
	Create(ctx context.Context, container containers.Container, doc *models.FeedbackDocument) (*models.FeedbackDocument, error)
	Update(ctx context.Context, container containers.Container, id string, doc *models.FeedbackDocument) (*models.FeedbackDocument, error)
	Delete(ctx context.Context, container containers.Container, id string) error

	// Warm preloads the cache for a container the user has not opened yet.
	// Safe to run in the background; honors ctx cancellation and never
	// clobbers a foreground fetch.
	Warm(ctx context.Context, container containers.Container) error
}

type documentService struct {
	store  docstore.Store
	cache  *cache.Service
	logger *zap.Logger
}

// NewDocumentService creates a document service with dependencies.
func NewDocumentService(store docstore.Store, cacheSvc *cache.Service, logger *zap.Logger) DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &documentService{store: store, cache: cacheSvc, logger: logger}
}

func (s *documentService) ListPage(ctx context.Context, container containers.Container, page, pageSize int) ([]*models.FeedbackDocument, error) {
	if docs, ok := s.cache.GetPage(ctx, container, page, pageSize); ok {
		s.logger.Debug("Listing page served from cache",
			zap.String("container", string(container)), zap.Int("page", page))
		return docs, nil
	}

	docs, err := s.store.ListPage(ctx, container, page, pageSize)
	if err != nil {
		return nil, err
	}

	// Only a first-page fetch forms a usable prefix for the cache entry;
	// deeper pages would leave holes.
	if page == 1 {
		s.cache.StoreListing(ctx, container, docs, len(docs) < pageSize)
	}
	return docs, nil
}

func (s *documentService) ListAll(ctx context.Context, container containers.Container) ([]*models.FeedbackDocument, error) {
	if docs, ok := s.cache.GetAll(ctx, container); ok {
		return docs, nil
	}

	docs, err := s.store.ListAll(ctx, container)
	if err != nil {
		return nil, err
	}
	// A result at the store's cap may be truncated; caching it as complete
	// would make paged listing report exhaustion while rows remain.
	s.cache.StoreListing(ctx, container, docs, len(docs) < docstore.MaxListAll)
	return docs, nil
}

func (s *documentService) Search(ctx context.Context, container containers.Container, term, field string) ([]*models.FeedbackDocument, error) {
	// Rejected before any store call; an empty term must not match
	// everything.
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", apperrors.ErrValidation)
	}
	if field == "" {
		field = models.FieldUserPrompt
	}
	if !models.IsTrackedField(field) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidField, field)
	}

	// Search is always live, never cached.
	return s.store.Search(ctx, container, term, field)
}

func (s *documentService) Create(ctx context.Context, container containers.Container, doc *models.FeedbackDocument) (*models.FeedbackDocument, error) {
	created, err := s.store.Create(ctx, container, doc)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, container)
	return created, nil
}

func (s *documentService) Update(ctx context.Context, container containers.Container, id string, doc *models.FeedbackDocument) (*models.FeedbackDocument, error) {
	updated, err := s.store.Update(ctx, container, id, doc)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, container)
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, container containers.Container, id string) error {
	if err := s.store.Delete(ctx, container, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, container)
	return nil
}

func (s *documentService) Warm(ctx context.Context, container containers.Container) error {
	docs, err := s.store.ListAll(ctx, container)
	if err != nil {
		return fmt.Errorf("failed to warm cache for %s: %w", container, err)
	}
	s.cache.Preload(ctx, container, docs, len(docs) < docstore.MaxListAll)
	return nil
}
