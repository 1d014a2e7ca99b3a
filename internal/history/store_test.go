package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_RecordAndRecent(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, outcome := range []Outcome{OutcomeSuccess, OutcomeFailed, OutcomeSuccess} {
		require.NoError(t, store.Record(ctx, Record{
			BuildID:     NewBuildID(),
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
			Duration:    1500 * time.Millisecond,
			Outcome:     outcome,
			Pages:       10 + i,
			BrokenLinks: i,
			OutputHash:  "hash",
			Version:     "dev",
		}))
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 12, recent[0].Pages)
	assert.Equal(t, OutcomeSuccess, recent[0].Outcome)
	assert.Equal(t, base.Add(2*time.Minute), recent[0].StartedAt)
	assert.Equal(t, 1500*time.Millisecond, recent[0].Duration)
	assert.Equal(t, OutcomeFailed, recent[1].Outcome)
	assert.Equal(t, 1, recent[1].BrokenLinks)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStore_Errors(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	require.Error(t, store.Record(ctx, Record{}))

	rec := Record{BuildID: "same", StartedAt: time.Now(), Outcome: OutcomeSuccess}
	require.NoError(t, store.Record(ctx, rec))
	require.Error(t, store.Record(ctx, rec), "build ids are unique")
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".handbook", "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), Record{BuildID: "b1", StartedAt: time.Now(), Outcome: OutcomeSuccess}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	recent, err := reopened.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "b1", recent[0].BuildID)
}

func TestNewBuildID(t *testing.T) {
	a, b := NewBuildID(), NewBuildID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
