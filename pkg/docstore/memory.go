package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

// MemoryStore is an in-memory Store used in tests and for local development
// without a database.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[containers.Container]map[string]*memoryDoc
	seq  int64

	// now is swappable in tests.
	now func() int64
}

type memoryDoc struct {
	doc models.FeedbackDocument
	seq int64 // write order, breaks ts ties so pagination stays stable
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[containers.Container]map[string]*memoryDoc),
		now:  func() int64 { return time.Now().Unix() },
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) ListPage(ctx context.Context, container containers.Container, page, pageSize int) ([]*models.FeedbackDocument, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be 1-based", apperrors.ErrValidation)
	}
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: page size must be positive", apperrors.ErrValidation)
	}

	all := s.snapshot(container)
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*models.FeedbackDocument{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *MemoryStore) ListAll(ctx context.Context, container containers.Container) ([]*models.FeedbackDocument, error) {
	all := s.snapshot(container)
	if len(all) > MaxListAll {
		all = all[:MaxListAll]
	}
	return all, nil
}

func (s *MemoryStore) Search(ctx context.Context, container containers.Container, term, field string) ([]*models.FeedbackDocument, error) {
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", apperrors.ErrValidation)
	}
	if !models.IsTrackedField(field) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidField, field)
	}

	needle := strings.ToLower(term)
	var matches []*models.FeedbackDocument
	for _, doc := range s.snapshot(container) {
		value, _ := doc.Field(field)
		if strings.Contains(strings.ToLower(value), needle) {
			matches = append(matches, doc)
		}
	}
	return matches, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, container containers.Container, id string) (*models.FeedbackDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.docs[container][id]
	if !ok {
		return nil, fmt.Errorf("document %s in %s: %w", id, container, apperrors.ErrNotFound)
	}
	doc := entry.doc
	return &doc, nil
}

func (s *MemoryStore) Create(ctx context.Context, container containers.Container, doc *models.FeedbackDocument) (*models.FeedbackDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *doc
	created.ID = uuid.NewString()
	created.TS = s.now()
	s.seq++

	if s.docs[container] == nil {
		s.docs[container] = make(map[string]*memoryDoc)
	}
	s.docs[container][created.ID] = &memoryDoc{doc: created, seq: s.seq}

	out := created
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, container containers.Container, id string, doc *models.FeedbackDocument) (*models.FeedbackDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.docs[container][id]
	if !ok {
		return nil, fmt.Errorf("document %s in %s: %w", id, container, apperrors.ErrNotFound)
	}

	updated := *doc
	updated.ID = id
	reconcileVectors(&entry.doc, &updated)

	ts := s.now()
	if ts < entry.doc.TS {
		ts = entry.doc.TS // server timestamps never go backwards
	}
	updated.TS = ts
	s.seq++
	s.docs[container][id] = &memoryDoc{doc: updated, seq: s.seq}

	out := updated
	return &out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, container containers.Container, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[container][id]; !ok {
		return fmt.Errorf("document %s in %s: %w", id, container, apperrors.ErrNotFound)
	}
	delete(s.docs[container], id)
	return nil
}

// snapshot returns copies of all documents in a container, newest first.
func (s *MemoryStore) snapshot(container containers.Container) []*models.FeedbackDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*memoryDoc, 0, len(s.docs[container]))
	for _, entry := range s.docs[container] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].doc.TS != entries[j].doc.TS {
			return entries[i].doc.TS > entries[j].doc.TS
		}
		return entries[i].seq > entries[j].seq
	})

	docs := make([]*models.FeedbackDocument, len(entries))
	for i, entry := range entries {
		doc := entry.doc
		docs[i] = &doc
	}
	return docs
}
