package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunIntentStoreContract runs a suite of tests to verify that an IntentStore
// implementation adheres to the defined interface contract. It expects a
// freshly created, empty store.
func RunIntentStoreContract(t *testing.T, store IntentStore) {
	ctx := context.Background()

	t.Run("Cold Load Is Empty", func(t *testing.T) {
		entries, err := store.Load(ctx)
		require.NoError(t, err, "Load on a cold store should not return error")
		assert.Empty(t, entries)
	})

	t.Run("Save and Load", func(t *testing.T) {
		err := store.Save(ctx, map[string]string{
			"hello there": "greet",
			"bye now":     "farewell",
		})
		require.NoError(t, err, "Save should not return error")

		entries, err := store.Load(ctx)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "greet", entries["hello there"])
		assert.Equal(t, "farewell", entries["bye now"])
	})

	t.Run("Save Upserts", func(t *testing.T) {
		err := store.Save(ctx, map[string]string{
			"hello there": "greet_v2",
			"maybe":       "hedge",
		})
		require.NoError(t, err)

		entries, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "greet_v2", entries["hello there"], "existing phrases are overwritten")
		assert.Equal(t, "farewell", entries["bye now"], "untouched phrases are retained")
		assert.Equal(t, "hedge", entries["maybe"])
	})

	t.Run("Empty Save Is A No-Op", func(t *testing.T) {
		before, err := store.Load(ctx)
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, map[string]string{}))

		after, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}
