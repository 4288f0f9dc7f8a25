package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blitz-ai/feedback-console/pkg/apperrors"
	"github.com/blitz-ai/feedback-console/pkg/containers"
	"github.com/blitz-ai/feedback-console/pkg/models"
)

func TestCreateAssignsIDAndTimestamp(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	doc, err := store.Create(ctx, containers.MLBUnofficial, &models.FeedbackDocument{
		UserPrompt: "how many home runs did the Yankees hit in 2023",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.NotZero(t, doc.TS)
	assert.Equal(t, "", doc.Query)
	assert.Empty(t, doc.QueryVector)

	got, err := store.GetByID(ctx, containers.MLBUnofficial, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.UserPrompt, got.UserPrompt)
}

func TestGetByIDNotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetByID(context.Background(), containers.MLBOfficial, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestDeleteAbsentIDIsNotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	doc, err := store.Create(ctx, containers.MLBOfficial, &models.FeedbackDocument{UserPrompt: "x"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, containers.MLBOfficial, doc.ID))

	// Second delete reports the document as already gone, not success.
	err = store.Delete(ctx, containers.MLBOfficial, doc.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestPaginationExhaustionCoversContainerExactlyOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var clock int64 = 1000
	store.now = func() int64 { clock++; return clock }

	const total = 23
	for i := 0; i < total; i++ {
		_, err := store.Create(ctx, containers.NBAOfficial, &models.FeedbackDocument{
			UserPrompt: fmt.Sprintf("question %d", i),
		})
		require.NoError(t, err)
	}

	seen := make(map[string]bool)
	var lastTS int64 = 1 << 62
	pages := 0
	for page := 1; ; page++ {
		docs, err := store.ListPage(ctx, containers.NBAOfficial, page, 5)
		require.NoError(t, err)
		if len(docs) == 0 {
			break
		}
		pages++
		for _, d := range docs {
			assert.False(t, seen[d.ID], "duplicate document %s across pages", d.ID)
			seen[d.ID] = true
			assert.LessOrEqual(t, d.TS, lastTS, "documents must be ordered newest first")
			lastTS = d.TS
		}
	}

	assert.Equal(t, total, len(seen))
	assert.Equal(t, 5, pages)
}

func TestSearchSubstringCaseInsensitive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Create(ctx, containers.MLBOfficial, &models.FeedbackDocument{
		UserPrompt: "Which pitcher has the most strikeouts?",
	})
	require.NoError(t, err)
	_, err = store.Create(ctx, containers.MLBOfficial, &models.FeedbackDocument{
		UserPrompt: "total STRIKEOUTS by team",
	})
	require.NoError(t, err)
	_, err = store.Create(ctx, containers.MLBOfficial, &models.FeedbackDocument{
		UserPrompt: "batting average leaders",
	})
	require.NoError(t, err)

	// Mid-string match, mixed case: not a prefix or whole-word search.
	docs, err := store.Search(ctx, containers.MLBOfficial, "rikeou", models.FieldUserPrompt)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSearchEmptyTermRejected(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Search(context.Background(), containers.MLBOfficial, "", models.FieldUserPrompt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestSearchInvalidFieldRejected(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Search(context.Background(), containers.MLBOfficial, "x", "id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidField))
}

func TestUpdateClearsVectorWhenTextChanges(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	doc, err := store.Create(ctx, containers.MLBOfficial, &models.FeedbackDocument{
		UserPrompt: "old question",
		Query:      "SELECT 1",
	})
	require.NoError(t, err)

	// Simulate the embedding service having populated the vectors.
	doc.UserPromptVector = []float32{0.1, 0.2}
	doc.QueryVector = []float32{0.3, 0.4}
	doc, err = store.Update(ctx, containers.MLBOfficial, doc.ID, doc)
	require.NoError(t, err)
	require.NotEmpty(t, doc.UserPromptVector)

	// Edit only the prompt; its vector must be dropped, the query's kept.
	doc.UserPrompt = "new question"
	updated, err := store.Update(ctx, containers.MLBOfficial, doc.ID, doc)
	require.NoError(t, err)

	assert.Empty(t, updated.UserPromptVector, "stale vector must not survive a text edit")
	assert.Equal(t, []float32{0.3, 0.4}, updated.QueryVector)
}

func TestUpdateKeepsCallerSuppliedFreshVector(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	doc, err := store.Create(ctx, containers.MLBOfficial, &models.FeedbackDocument{
		UserPrompt: "old question",
	})
	require.NoError(t, err)

	// Caller edits text and supplies a recomputed vector in the same write.
	doc.UserPrompt = "new question"
	doc.UserPromptVector = []float32{0.9, 0.8}
	updated, err := store.Update(ctx, containers.MLBOfficial, doc.ID, doc)
	require.NoError(t, err)

	assert.Equal(t, []float32{0.9, 0.8}, updated.UserPromptVector)
}

func TestUpdateRefreshesTimestampMonotonically(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var clock int64 = 100
	store.now = func() int64 { return clock }

	doc, err := store.Create(ctx, containers.MLBOfficial, &models.FeedbackDocument{UserPrompt: "a"})
	require.NoError(t, err)

	clock = 50 // wall clock went backwards
	doc.UserPrompt = "b"
	updated, err := store.Update(ctx, containers.MLBOfficial, doc.ID, doc)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, updated.TS, doc.TS)
}

func TestContainersAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	doc, err := store.Create(ctx, containers.MLBUnofficial, &models.FeedbackDocument{UserPrompt: "x"})
	require.NoError(t, err)

	_, err = store.GetByID(ctx, containers.MLBOfficial, doc.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
