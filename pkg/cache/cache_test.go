package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blitz-ai/feedback-console/pkg/config"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

func newTestService(bounds config.CacheConfig) *Service {
	return NewService(NewMemoryBackend(), bounds, nil)
}

func docs(n int) []*models.FeedbackDocument {
	out := make([]*models.FeedbackDocument, n)
	for i := 0; i < n; i++ {
		out[i] = &models.FeedbackDocument{
			ID:         fmt.Sprintf("doc-%d", i),
			UserPrompt: fmt.Sprintf("prompt %d", i),
			TS:         int64(1000 - i), // newest first
		}
	}
	return out
}

func TestGetPageServesFromCompleteListing(t *testing.T) {
	svc := newTestService(config.CacheConfig{})
	ctx := context.Background()

	svc.StoreListing(ctx, containers.MLBOfficial, docs(25), true)

	page, ok := svc.GetPage(ctx, containers.MLBOfficial, 2, 10)
	require.True(t, ok)
	require.Len(t, page, 10)
	assert.Equal(t, "doc-10", page[0].ID)

	// Past the end of a complete listing: empty page, still a hit.
	page, ok = svc.GetPage(ctx, containers.MLBOfficial, 4, 10)
	require.True(t, ok)
	assert.Empty(t, page)
}

func TestGetPageMissesOnPartialEntry(t *testing.T) {
	svc := newTestService(config.CacheConfig{})
	ctx := context.Background()

	// Only the first page was fetched; page 2 is unknown, not empty.
	svc.StoreListing(ctx, containers.MLBOfficial, docs(10), false)

	_, ok := svc.GetPage(ctx, containers.MLBOfficial, 2, 10)
	assert.False(t, ok)

	page, ok := svc.GetPage(ctx, containers.MLBOfficial, 1, 10)
	require.True(t, ok)
	assert.Len(t, page, 10)
}

func TestInvalidateDropsEntry(t *testing.T) {
	svc := newTestService(config.CacheConfig{})
	ctx := context.Background()

	svc.StoreListing(ctx, containers.MLBOfficial, docs(5), true)
	svc.StoreListing(ctx, containers.MLBUnofficial, docs(5), true)

	// A transfer touches both containers.
	svc.Invalidate(ctx, containers.MLBUnofficial, containers.MLBOfficial)

	_, ok := svc.GetAll(ctx, containers.MLBOfficial)
	assert.False(t, ok, "read after write must refetch, not serve stale data")
	_, ok = svc.GetAll(ctx, containers.MLBUnofficial)
	assert.False(t, ok)
}

func TestPreloadNeverOverwritesForegroundEntry(t *testing.T) {
	svc := newTestService(config.CacheConfig{})
	ctx := context.Background()

	foreground := docs(3)
	svc.StoreListing(ctx, containers.NBAOfficial, foreground, true)

	// A bigger preload arrives late; the foreground entry must survive.
	svc.Preload(ctx, containers.NBAOfficial, docs(50), true)

	got, ok := svc.GetAll(ctx, containers.NBAOfficial)
	require.True(t, ok)
	assert.Len(t, got, 3)
}

func TestPreloadReplacesSmallerPreload(t *testing.T) {
	svc := newTestService(config.CacheConfig{})
	ctx := context.Background()

	svc.Preload(ctx, containers.NBAOfficial, docs(5), true)
	svc.Preload(ctx, containers.NBAOfficial, docs(20), true)

	got, ok := svc.GetAll(ctx, containers.NBAOfficial)
	require.True(t, ok)
	assert.Len(t, got, 20)

	// A smaller, later preload must not shrink the entry.
	svc.Preload(ctx, containers.NBAOfficial, docs(2), true)
	got, _ = svc.GetAll(ctx, containers.NBAOfficial)
	assert.Len(t, got, 20)
}

func TestPreloadHonorsCancellation(t *testing.T) {
	svc := newTestService(config.CacheConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // user navigated away before the warm fetch landed

	svc.Preload(ctx, containers.NBAOfficial, docs(10), true)

	_, ok := svc.GetAll(context.Background(), containers.NBAOfficial)
	assert.False(t, ok)
}

func TestSnapshotTruncatesDocumentsPerContainer(t *testing.T) {
	svc := newTestService(config.CacheConfig{MaxContainers: 4, MaxDocsPerContainer: 10})
	ctx := context.Background()

	svc.StoreListing(ctx, containers.MLBOfficial, docs(30), true)

	data, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	restored := newTestService(config.CacheConfig{MaxContainers: 4, MaxDocsPerContainer: 10})
	require.NoError(t, restored.Restore(ctx, data))

	// Truncation left a 10-doc prefix, so the restored entry is no longer
	// complete: page 1 is servable, the full listing is not.
	page, ok := restored.GetPage(ctx, containers.MLBOfficial, 1, 10)
	require.True(t, ok)
	require.Len(t, page, 10)
	assert.Equal(t, "doc-0", page[0].ID)

	_, ok = restored.GetAll(ctx, containers.MLBOfficial)
	assert.False(t, ok, "truncated snapshot must not be served as a complete listing")
}

func TestRestorePreservesIncompleteness(t *testing.T) {
	svc := newTestService(config.CacheConfig{MaxContainers: 8, MaxDocsPerContainer: 100})
	ctx := context.Background()

	// A first-page prefix cached at shutdown.
	svc.StoreListing(ctx, containers.MLBOfficial, docs(50), false)
	_, ok := svc.GetAll(ctx, containers.MLBOfficial)
	require.False(t, ok)

	data, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	restored := newTestService(config.CacheConfig{MaxContainers: 8, MaxDocsPerContainer: 100})
	require.NoError(t, restored.Restore(ctx, data))

	_, ok = restored.GetAll(ctx, containers.MLBOfficial)
	assert.False(t, ok, "page prefix must not come back as the complete listing")
	_, ok = restored.GetPage(ctx, containers.MLBOfficial, 2, 50)
	assert.False(t, ok, "pages beyond the restored prefix are unknown, not empty")

	page, ok := restored.GetPage(ctx, containers.MLBOfficial, 1, 50)
	require.True(t, ok)
	assert.Len(t, page, 50)
}

func TestRestorePreservesCompleteness(t *testing.T) {
	svc := newTestService(config.CacheConfig{MaxContainers: 8, MaxDocsPerContainer: 100})
	ctx := context.Background()

	svc.StoreListing(ctx, containers.NBAOfficial, docs(25), true)

	data, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	restored := newTestService(config.CacheConfig{MaxContainers: 8, MaxDocsPerContainer: 100})
	require.NoError(t, restored.Restore(ctx, data))

	got, ok := restored.GetAll(ctx, containers.NBAOfficial)
	require.True(t, ok)
	assert.Len(t, got, 25)
}

func TestSnapshotDroppedEntirelyOnContainerOverflow(t *testing.T) {
	svc := newTestService(config.CacheConfig{MaxContainers: 1, MaxDocsPerContainer: 100})
	ctx := context.Background()

	svc.StoreListing(ctx, containers.MLBOfficial, docs(1), true)
	svc.StoreListing(ctx, containers.NBAOfficial, docs(1), true)

	_, err := svc.Snapshot(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSnapshotOverflow))
}

func TestRestoredEntriesLoseToForegroundFetches(t *testing.T) {
	svc := newTestService(config.CacheConfig{MaxContainers: 8, MaxDocsPerContainer: 100})
	ctx := context.Background()

	svc.StoreListing(ctx, containers.MLBOfficial, docs(40), true)
	data, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	fresh := newTestService(config.CacheConfig{MaxContainers: 8, MaxDocsPerContainer: 100})
	fresh.StoreListing(ctx, containers.MLBOfficial, docs(2), true)
	require.NoError(t, fresh.Restore(ctx, data))

	got, ok := fresh.GetAll(ctx, containers.MLBOfficial)
	require.True(t, ok)
	assert.Len(t, got, 2, "restored snapshot must not clobber a live fetch")
}

func TestClear(t *testing.T) {
	svc := newTestService(config.CacheConfig{})
	ctx := context.Background()

	svc.StoreListing(ctx, containers.MLBOfficial, docs(3), true)
	svc.StoreListing(ctx, containers.NBAOfficial, docs(3), true)
	svc.Clear(ctx)

	_, ok := svc.GetAll(ctx, containers.MLBOfficial)
	assert.False(t, ok)
	_, ok = svc.GetAll(ctx, containers.NBAOfficial)
	assert.False(t, ok)
}
