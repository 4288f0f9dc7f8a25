package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
	"github.com/blitz-ai/feedback-console/pkg/cache"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/docstore"
	"github.com/blitz-ai/feedback-console/pkg/embeddings"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

// TransferService moves documents from an unofficial container to its paired
// official counterpart.
type TransferService interface {
	// Transfer relocates the document. On full success it returns the
	// destination document (with its new id). When the destination write
	// succeeded but the source delete failed, it returns the destination
	// document together with an *apperrors.TransferPartialError: the
	// document is duplicated, not lost, and needs manual reconciliation.
	Transfer(ctx context.Context, source, target containers.Container, id string) (*models.FeedbackDocument, error)
}

type transferService struct {
	store    docstore.Store
	embedder embeddings.Client
	cache    *cache.Service
	logger   *zap.Logger
}

// NewTransferService creates a transfer service with dependencies.
func NewTransferService(store docstore.Store, embedder embeddings.Client, cacheSvc *cache.Service, logger *zap.Logger) TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &transferService{store: store, embedder: embedder, cache: cacheSvc, logger: logger}
}

// Transfer is create-then-delete, never delete-then-create: the document is
// never transiently absent from both containers. The cost is possible
// transient duplication when the source delete fails, which is deliberate.
func (s *transferService) Transfer(ctx context.Context, source, target containers.Container, id string) (*models.FeedbackDocument, error) {
	if err := containers.ValidateTransferPair(source, target); err != nil {
		return nil, err
	}

	doc, err := s.store.GetByID(ctx, source, id)
	if err != nil {
		return nil, err
	}

	// Destination documents must never be missing vectors that should
	// exist, so fill the gaps before the destination write.
	if err := s.fillMissingVectors(ctx, doc); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, target, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to write document to %s: %w", target, err)
	}

	if err := s.store.Delete(ctx, source, id); err != nil {
		// The destination write already landed, so both caches may be
		// stale; drop both before reporting the partial outcome.
		s.cache.Invalidate(ctx, source, target)
		s.logger.Warn("Transfer left a duplicate behind",
			zap.String("source", string(source)),
			zap.String("target", string(target)),
			zap.String("source_id", id),
			zap.String("target_id", created.ID),
			zap.Error(err))
		return created, &apperrors.TransferPartialError{
			SourceContainer: string(source),
			TargetContainer: string(target),
			SourceID:        id,
			TargetID:        created.ID,
			Cause:           err,
		}
	}

	s.cache.Invalidate(ctx, source, target)
	s.logger.Info("Transferred document",
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.String("source_id", id),
		zap.String("target_id", created.ID))
	return created, nil
}

// fillMissingVectors computes embeddings for tracked text fields that have
// text but no vector yet. Runs synchronously; an embedding failure aborts
// the transfer before anything is written.
func (s *transferService) fillMissingVectors(ctx context.Context, doc *models.FeedbackDocument) error {
	for _, field := range models.TrackedFields {
		text, _ := doc.Field(field)
		if text == "" {
			continue
		}
		if vec, _ := doc.Vector(field); len(vec) > 0 {
			continue
		}

		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("failed to compute %s embedding: %w", field, err)
		}
		doc.SetVector(field, vec)
	}
	return nil
}
