package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konstin/vws-python-mock/pkg/database"
	"github.com/konstin/vws-python-mock/pkg/raters"
	"github.com/konstin/vws-python-mock/pkg/store"
	"github.com/konstin/vws-python-mock/pkg/target"
	"github.com/konstin/vws-python-mock/pkg/testkit"
)

func TestMemoryAdd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	memory := store.NewMemory()
	first := database.New()
	require.NoError(t, memory.Add(ctx, first))

	t.Run("duplicate name is rejected", func(t *testing.T) {
		clash := database.New()
		clash.Name = first.Name
		assert.Error(t, memory.Add(ctx, clash))
	})

	t.Run("duplicate credential is rejected", func(t *testing.T) {
		clash := database.New()
		clash.ClientAccessKey = first.ClientAccessKey
		assert.Error(t, memory.Add(ctx, clash))
	})

	t.Run("distinct database is accepted", func(t *testing.T) {
		require.NoError(t, memory.Add(ctx, database.New()))
		databases, err := memory.Databases(ctx)
		require.NoError(t, err)
		assert.Len(t, databases, 2)
	})
}

func TestMemorySnapshotIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	memory := store.NewMemory()
	db := database.New()
	require.NoError(t, memory.Add(ctx, db))

	snapshot, err := memory.Databases(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	require.Empty(t, snapshot[0].Targets)

	// Mutating through the store does not show up in the taken snapshot.
	require.NoError(t, memory.WithDatabase(ctx, db.Name, func(live *database.Database) error {
		live.Targets = append(live.Targets, target.New(
			"isolated", 1, testkit.HighContrastPNG(1), true, nil,
			time.Second, raters.Quality{}, time.Now(),
		))
		return nil
	}))
	assert.Empty(t, snapshot[0].Targets)

	fresh, err := memory.Databases(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh[0].Targets, 1)

	// Nor does mutating a snapshot reach the store.
	fresh[0].Targets[0].Name = "scribbled"
	again, err := memory.Databases(ctx)
	require.NoError(t, err)
	assert.Equal(t, "isolated", again[0].Targets[0].Name)
}

func TestWithDatabaseUnknownName(t *testing.T) {
	t.Parallel()

	memory := store.NewMemory()
	err := memory.WithDatabase(context.Background(), "nope", func(*database.Database) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.ErrorIs(t, err, store.ErrDatabaseNotFound)
}

func TestReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	memory := store.NewMemory()
	require.NoError(t, memory.Add(ctx, database.New()))
	memory.Reset(ctx)

	databases, err := memory.Databases(ctx)
	require.NoError(t, err)
	assert.Empty(t, databases)
}
