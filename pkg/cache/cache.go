package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/blitz-ai/feedback-console/pkg/config"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

// ErrSnapshotOverflow is returned by Snapshot when the cached container
// count exceeds the configured bound. The persisted form is dropped whole
// rather than written partially.
var ErrSnapshotOverflow = errors.New("cache snapshot exceeds configured bounds")

const keyPrefix = "feedback_docs:"
const entryTTL = 5 * time.Minute

// entry is the cached state for one container.
type entry struct {
	Documents []*models.FeedbackDocument `json:"documents" yaml:"documents"`
	// Complete means the entry holds the container's full listing, so any
	// page can be served from it.
	Complete bool `json:"complete" yaml:"complete"`
	// Preloaded marks entries populated by background warming. A preload
	// never replaces a foreground entry.
	Preloaded bool      `json:"preloaded" yaml:"preloaded"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// Service is the document cache, keyed by container. It is an explicitly
// constructed dependency with a defined lifecycle, not a global. Search
// results are never cached; only unfiltered listings are.
//
// Consistency rule: every successful write through the owning services
// invalidates the touched containers, so a read after a write this process
// issued always refetches.
type Service struct {
	backend Backend
	bounds  config.CacheConfig
	logger  *zap.Logger
}

// NewService creates a cache service on the given backend.
func NewService(backend Backend, bounds config.CacheConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, bounds: bounds, logger: logger}
}

func key(container containers.Container) string {
	return keyPrefix + string(container)
}

// GetPage serves one listing page from cache. The second return is false on
// a miss or when the entry does not cover the requested page.
func (s *Service) GetPage(ctx context.Context, container containers.Container, page, pageSize int) ([]*models.FeedbackDocument, bool) {
	e := s.load(ctx, container)
	if e == nil {
		return nil, false
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if !e.Complete && end > len(e.Documents) {
		return nil, false
	}
	if start >= len(e.Documents) {
		return []*models.FeedbackDocument{}, true
	}
	if end > len(e.Documents) {
		end = len(e.Documents)
	}
	return e.Documents[start:end], true
}

// GetAll serves the full listing from cache, only when the entry is
// complete.
func (s *Service) GetAll(ctx context.Context, container containers.Container) ([]*models.FeedbackDocument, bool) {
	e := s.load(ctx, container)
	if e == nil || !e.Complete {
		return nil, false
	}
	return e.Documents, true
}

// StoreListing records a foreground fetch. complete marks a full container
// listing as opposed to a single page prefix.
func (s *Service) StoreListing(ctx context.Context, container containers.Container, docs []*models.FeedbackDocument, complete bool) {
	s.store(ctx, container, &entry{
		Documents: docs,
		Complete:  complete,
		FetchedAt: time.Now(),
	})
}

// Preload warms the cache for a container the user has not opened yet. It
// never overwrites an entry a foreground fetch populated, never replaces a
// more complete preload, and aborts when ctx is canceled (the user navigated
// away). complete marks whether docs is the container's full listing.
func (s *Service) Preload(ctx context.Context, container containers.Container, docs []*models.FeedbackDocument, complete bool) {
	if ctx.Err() != nil {
		return
	}

	if existing := s.load(ctx, container); existing != nil {
		if !existing.Preloaded {
			return
		}
		if len(existing.Documents) >= len(docs) {
			return
		}
	}

	if ctx.Err() != nil {
		return
	}
	s.store(ctx, container, &entry{
		Documents: docs,
		Complete:  complete,
		Preloaded: true,
		FetchedAt: time.Now(),
	})
}

// Invalidate drops the cache entry for every given container. Called after
// any successful create, update, delete, or transfer; a transfer passes both
// source and destination.
func (s *Service) Invalidate(ctx context.Context, touched ...containers.Container) {
	for _, container := range touched {
		if err := s.backend.Delete(ctx, key(container)); err != nil {
			// A failed invalidation must not fail the write that triggered
			// it, but it cannot be silent either.
			s.logger.Warn("Failed to invalidate cache entry",
				zap.String("container", string(container)),
				zap.Error(err))
		}
	}
}

// Clear drops every cached entry.
func (s *Service) Clear(ctx context.Context) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		s.logger.Warn("Failed to list cache keys for clear", zap.Error(err))
		return
	}
	for _, k := range keys {
		if err := s.backend.Delete(ctx, k); err != nil {
			s.logger.Warn("Failed to delete cache key", zap.String("key", k), zap.Error(err))
		}
	}
}

// snapshotFile is the operator-readable persisted form of the cache.
type snapshotFile struct {
	SavedAt    time.Time                `yaml:"saved_at"`
	Containers map[string]snapshotEntry `yaml:"containers"`
}

type snapshotEntry struct {
	Documents []*models.FeedbackDocument `yaml:"documents"`
	// Complete carries the entry's completeness across restarts; a page
	// prefix cached at shutdown must not come back claiming to be the
	// whole container.
	Complete bool `yaml:"complete"`
}

// Snapshot serializes the cache for persistence across restarts. Documents
// per container are truncated to the configured bound, which also clears
// the entry's completeness; if the container count itself exceeds its bound
// the snapshot is dropped entirely rather than written partially corrupt.
func (s *Service) Snapshot(ctx context.Context) ([]byte, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache keys: %w", err)
	}
	sort.Strings(keys)

	if s.bounds.MaxContainers > 0 && len(keys) > s.bounds.MaxContainers {
		return nil, fmt.Errorf("%w: %d containers cached, bound is %d",
			ErrSnapshotOverflow, len(keys), s.bounds.MaxContainers)
	}

	file := snapshotFile{
		SavedAt:    time.Now(),
		Containers: make(map[string]snapshotEntry, len(keys)),
	}
	for _, k := range keys {
		e := s.loadKey(ctx, k)
		if e == nil {
			continue
		}
		docs := e.Documents
		complete := e.Complete
		if s.bounds.MaxDocsPerContainer > 0 && len(docs) > s.bounds.MaxDocsPerContainer {
			docs = docs[:s.bounds.MaxDocsPerContainer]
			complete = false
		}
		file.Containers[strings.TrimPrefix(k, keyPrefix)] = snapshotEntry{
			Documents: docs,
			Complete:  complete,
		}
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize cache snapshot: %w", err)
	}
	return data, nil
}

// Restore loads a snapshot produced by Snapshot. Restored entries count as
// preloads: any live foreground fetch wins over them.
func (s *Service) Restore(ctx context.Context, data []byte) error {
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse cache snapshot: %w", err)
	}

	for name, snap := range file.Containers {
		container, err := containers.Parse(name)
		if err != nil {
			s.logger.Warn("Skipping unknown container in cache snapshot",
				zap.String("container", name))
			continue
		}
		s.Preload(ctx, container, snap.Documents, snap.Complete)
	}
	return nil
}

func (s *Service) load(ctx context.Context, container containers.Container) *entry {
	return s.loadKey(ctx, key(container))
}

func (s *Service) loadKey(ctx context.Context, k string) *entry {
	value, ok, err := s.backend.Get(ctx, k)
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("key", k), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var e entry
	if err := json.Unmarshal(value, &e); err != nil {
		s.logger.Warn("Dropping undecodable cache entry", zap.String("key", k), zap.Error(err))
		_ = s.backend.Delete(ctx, k)
		return nil
	}
	return &e
}

func (s *Service) store(ctx context.Context, container containers.Container, e *entry) {
	value, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("Failed to encode cache entry",
			zap.String("container", string(container)), zap.Error(err))
		return
	}
	if err := s.backend.Set(ctx, key(container), value, entryTTL); err != nil {
		s.logger.Warn("Cache write failed",
			zap.String("container", string(container)), zap.Error(err))
	}
}
