// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(types.MemoryConfig{
		DBPath:     filepath.Join(t.TempDir(), "memory.db"),
		MaxResults: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveTurnAssignsDefaults(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveTurn(context.Background(), Turn{
		SessionID: "s1",
		UserID:    "u1",
		Question:  "q",
		Answer:    "a",
	}))

	turns, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.NotEmpty(t, turns[0].ID)
	assert.False(t, turns[0].CreatedAt.IsZero())
}

func TestSearchMatchesQuestionAndAnswer(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTurn(ctx, Turn{
		ID: "t1", SessionID: "s1", UserID: "u1",
		Question: "how does leader election work",
		Answer:   "A candidate wins with a majority of votes.",
	}))
	require.NoError(t, store.SaveTurn(ctx, Turn{
		ID: "t2", SessionID: "s1", UserID: "u1",
		Question: "what is log compaction",
		Answer:   "Snapshots truncate the replicated log.",
	}))

	// Match on question text.
	turns, err := store.Search(ctx, "leader election", 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "t1", turns[0].ID)

	// Match on answer text.
	turns, err = store.Search(ctx, "snapshots", 0)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "t2", turns[0].ID)
}

func TestSearchEmptyQuery(t *testing.T) {
	store := openTestStore(t)

	turns, err := store.Search(context.Background(), "   ", 0)
	require.NoError(t, err)
	assert.Nil(t, turns)
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, store.SaveTurn(ctx, Turn{
			ID: id, SessionID: "s1", UserID: "u1", Question: "q " + id, Answer: "a " + id,
		}))
	}

	turns, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "t3", turns[0].ID)
	assert.Equal(t, "t2", turns[1].ID)
}

func TestPersistSavesExchange(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	req := types.AskRequest{QuestionText: "what is quorum", UserID: "u1", SessionID: "s1"}
	answer := types.StructuredAnswer{
		MainAnswer:        "A quorum is a majority of voting members.",
		OverallConfidence: 0.83,
		GeneratedAt:       time.Now(),
	}

	require.NoError(t, store.Persist(ctx, req, answer))

	turns, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "what is quorum", turns[0].Question)
	assert.Equal(t, "A quorum is a majority of voting members.", turns[0].Answer)
	assert.Equal(t, "s1", turns[0].SessionID)
	assert.InDelta(t, 0.83, turns[0].Confidence, 1e-9)
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	cfg := types.MemoryConfig{DBPath: filepath.Join(dir, "memory.db"), MaxResults: 5}

	store, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, store.SaveTurn(context.Background(), Turn{
		ID: "t1", SessionID: "s1", UserID: "u1", Question: "persisted question", Answer: "persisted answer",
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	turns, err := reopened.Search(context.Background(), "persisted", 0)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}
