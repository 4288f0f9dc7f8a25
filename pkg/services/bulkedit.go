package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
	"github.com/blitz-ai/feedback-console/pkg/cache"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/docstore"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

// PreviewRow is one reviewable find/replace match. The console may toggle
// Selected per row and hand-edit NewValue before applying.
type PreviewRow struct {
	ID       string `json:"id"`
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
	Selected bool   `json:"selected"`
}

// ApplyRow is one selected edit to commit.
type ApplyRow struct {
	ID       string `json:"id"`
	NewValue string `json:"new_value"`
}

// ApplyResult is the per-row outcome of an apply. Rows fail independently;
// a failed row never blocks or rolls back the others.
type ApplyResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkEditService runs two-phase find/replace over one field across one
// container.
type BulkEditService interface {
	Preview(ctx context.Context, container containers.Container, field, findText, replaceText string) ([]PreviewRow, error)
	Apply(ctx context.Context, container containers.Container, field string, rows []ApplyRow) ([]ApplyResult, error)
}

type bulkEditService struct {
	store  docstore.Store
	cache  *cache.Service
	logger *zap.Logger
}

// NewBulkEditService creates a bulk edit service with dependencies.
func NewBulkEditService(store docstore.Store, cacheSvc *cache.Service, logger *zap.Logger) BulkEditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &bulkEditService{store: store, cache: cacheSvc, logger: logger}
}

// Preview finds every document whose field contains findText and computes
// the replacement: every non-overlapping occurrence replaced left to right.
// An empty findText is a no-op, never a match-everything.
func (s *bulkEditService) Preview(ctx context.Context, container containers.Container, field, findText, replaceText string) ([]PreviewRow, error) {
	if !models.IsTrackedField(field) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidField, field)
	}
	if findText == "" {
		return []PreviewRow{}, nil
	}

	docs, err := s.store.Search(ctx, container, findText, field)
	if err != nil {
		return nil, err
	}

	rows := make([]PreviewRow, 0, len(docs))
	for _, doc := range docs {
		oldValue, _ := doc.Field(field)
		rows = append(rows, PreviewRow{
			ID:       doc.ID,
			Field:    field,
			OldValue: oldValue,
			NewValue: strings.ReplaceAll(oldValue, findText, replaceText),
			Selected: true,
		})
	}
	return rows, nil
}

// Apply commits the selected rows, one independent full-document update per
// row, dispatched concurrently. The result slice is ordered like the input;
// partial failure stays observable row by row.
func (s *bulkEditService) Apply(ctx context.Context, container containers.Container, field string, rows []ApplyRow) ([]ApplyResult, error) {
	if !models.IsTrackedField(field) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidField, field)
	}

	results := make([]ApplyResult, len(rows))
	var wg sync.WaitGroup
	for i, row := range rows {
		wg.Add(1)
		go func(i int, row ApplyRow) {
			defer wg.Done()
			results[i] = s.applyRow(ctx, container, field, row)
		}(i, row)
	}
	wg.Wait()

	applied := 0
	for _, r := range results {
		if r.Success {
			applied++
		}
	}
	if applied > 0 {
		s.cache.Invalidate(ctx, container)
	}
	s.logger.Info("Bulk edit applied",
		zap.String("container", string(container)),
		zap.String("field", field),
		zap.Int("requested", len(rows)),
		zap.Int("applied", applied))

	return results, nil
}

func (s *bulkEditService) applyRow(ctx context.Context, container containers.Container, field string, row ApplyRow) ApplyResult {
	doc, err := s.store.GetByID(ctx, container, row.ID)
	if err != nil {
		return ApplyResult{ID: row.ID, Error: err.Error()}
	}

	doc.SetField(field, row.NewValue)
	if _, err := s.store.Update(ctx, container, row.ID, doc); err != nil {
		return ApplyResult{ID: row.ID, Error: err.Error()}
	}
	return ApplyResult{ID: row.ID, Success: true}
}
