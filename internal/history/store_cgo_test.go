//go:build cgo

package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sonarlens/sonarlens/internal/config"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), config.HistoryConfig{
		Driver: "libsql",
		Path:   ":memory:",
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenMemoryStore(t *testing.T) {
	store := openMemoryStore(t)
	require.Equal(t, "libsql", store.Driver())
}

func TestSaveAndListRecent(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	cost := 0.002
	first := Exchange{
		RequestID:   "req-1",
		Model:       "sonar",
		UserPrompt:  "first question",
		Answer:      "first answer",
		Citations:   []string{"https://go.dev"},
		TotalTokens: 12,
		Cost:        &cost,
		CreatedAt:   time.Now().Add(-time.Hour).UTC(),
	}
	second := Exchange{
		RequestID:  "req-2",
		Model:      "sonar-pro",
		UserPrompt: "second question",
		Answer:     "second answer",
		CreatedAt:  time.Now().UTC(),
	}

	id1, err := store.Save(ctx, first)
	require.NoError(t, err)
	require.Positive(t, id1)

	id2, err := store.Save(ctx, second)
	require.NoError(t, err)
	require.Greater(t, id2, id1)

	listed, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	// Newest first
	require.Equal(t, "req-2", listed[0].RequestID)
	require.Equal(t, "req-1", listed[1].RequestID)
	require.Equal(t, []string{"https://go.dev"}, listed[1].Citations)
	require.NotNil(t, listed[1].Cost)
	require.Equal(t, 0.002, *listed[1].Cost)
	require.Nil(t, listed[0].Cost)
}

func TestListRecentHonorsLimit(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	for i := 0; i < 5; i++ {
		_, err := store.Save(ctx, Exchange{
			RequestID:  "req",
			Model:      "sonar",
			UserPrompt: "q",
			Answer:     "a",
		})
		require.NoError(t, err)
	}

	listed, err := store.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, listed, 3)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	_, err := store.Save(ctx, Exchange{
		RequestID:  "old",
		Model:      "sonar",
		UserPrompt: "q",
		Answer:     "a",
		CreatedAt:  time.Now().Add(-48 * time.Hour).UTC(),
	})
	require.NoError(t, err)

	_, err = store.Save(ctx, Exchange{
		RequestID:  "new",
		Model:      "sonar",
		UserPrompt: "q",
		Answer:     "a",
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	listed, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "new", listed[0].RequestID)
}
