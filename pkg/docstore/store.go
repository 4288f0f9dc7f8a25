package docstore

import (
	"context"

	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

// MaxListAll is the hard cap on documents returned by ListAll. Protects
// against unbounded dumps of very large containers.
const MaxListAll = 5000

// Store provides access to feedback documents partitioned by container.
//
// Implementations must surface a missing document as apperrors.ErrNotFound
// so callers can tell "already gone" apart from a connectivity failure.
type Store interface {
	// ListPage returns one page of documents, newest first by store
	// timestamp. Pages are 1-based; an empty page signals exhaustion.
	ListPage(ctx context.Context, container containers.Container, page, pageSize int) ([]*models.FeedbackDocument, error)

	// ListAll returns every document in the container, newest first,
	// bounded by MaxListAll.
	ListAll(ctx context.Context, container containers.Container) ([]*models.FeedbackDocument, error)

	// Search returns documents whose field contains term as a
	// case-insensitive substring, newest first. The term is literal, not a
	// prefix, word, or pattern.
	Search(ctx context.Context, container containers.Container, term, field string) ([]*models.FeedbackDocument, error)

	// GetByID fetches a single document.
	GetByID(ctx context.Context, container containers.Container, id string) (*models.FeedbackDocument, error)

	// Create assigns id and timestamp, persists, and returns the stored
	// document. Absent fields default to empty; vectors start empty.
	Create(ctx context.Context, container containers.Container, doc *models.FeedbackDocument) (*models.FeedbackDocument, error)

	// Update replaces the document by id and refreshes its timestamp.
	// Vectors whose source text changed are cleared so the external
	// embedding service recomputes them; a vector never stays silently
	// stale against newer text.
	Update(ctx context.Context, container containers.Container, id string, doc *models.FeedbackDocument) (*models.FeedbackDocument, error)

	// Delete removes the document by id. Deleting an absent id returns
	// apperrors.ErrNotFound.
	Delete(ctx context.Context, container containers.Container, id string) error
}

// reconcileVectors applies the staleness rule on update: when a tracked text
// field changed and the caller did not supply a fresh vector for it, the old
// vector is dropped. An absent vector is the signal for regeneration.
func reconcileVectors(old, updated *models.FeedbackDocument) {
	for _, field := range models.TrackedFields {
		oldText, _ := old.Field(field)
		newText, _ := updated.Field(field)
		if oldText == newText {
			continue
		}
		oldVec, _ := old.Vector(field)
		newVec, _ := updated.Vector(field)
		if sameVector(oldVec, newVec) {
			updated.SetVector(field, nil)
		}
	}
}

func sameVector(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
