package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"activity-points/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activity(id, name, typ, date string, participants ...string) models.Activity {
	a := models.Activity{
		ID:              id,
		Name:            name,
		Description:     "about " + name,
		Type:            typ,
		Date:            date,
		MaxParticipants: 10,
		Status:          models.StatusPending,
		CreatedBy:       "demo",
		Participants:    participants,
	}
	a.Normalize()
	return a
}

func ids(list []models.Activity) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

// runCollectionSuite checks the behavior every driver must share.
func runCollectionSuite(t *testing.T, s *Store) {
	ctx := context.Background()
	acts := s.Activities

	t.Run("absent", func(t *testing.T) {
		_, ok, err := acts.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		deleted, err := acts.Delete(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	for _, a := range []models.Activity{
		activity("b", "Beach Cleanup", "volunteer", "2024-12-20"),
		activity("a", "Morning Yoga", "fitness", "2024-12-10", "u1", "u2"),
		activity("c", "Yoga at Night", "fitness", "2024-12-15", "u2"),
	} {
		_, err := acts.Set(ctx, a.ID, a)
		require.NoError(t, err)
	}

	t.Run("get", func(t *testing.T) {
		a, ok, err := acts.Get(ctx, "a")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Morning Yoga", a.Name)
		assert.Equal(t, []string{"u1", "u2"}, a.Participants)
		assert.Equal(t, 2, a.CurrentParticipants)
	})

	t.Run("insertion order", func(t *testing.T) {
		list, err := acts.List(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c"}, ids(list))

		// overwriting keeps the original position
		b := activity("b", "Beach Cleanup v2", "volunteer", "2024-12-20")
		_, err = acts.Set(ctx, "b", b)
		require.NoError(t, err)
		list, err = acts.List(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c"}, ids(list))
		assert.Equal(t, "Beach Cleanup v2", list[0].Name)
	})

	t.Run("filters", func(t *testing.T) {
		list, err := acts.List(ctx, Query{}.Match(Eq("type", "fitness")))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, ids(list))

		list, err = acts.List(ctx, Query{}.Match(Contains("name", "YOGA"), Contains("description", "YOGA")))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, ids(list))

		list, err = acts.List(ctx, Query{}.Match(Has("participants", "u2")).Match(Contains("name", "night")))
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, ids(list))

		list, err = acts.List(ctx, Query{}.Match(Eq("maxParticipants", 10)))
		require.NoError(t, err)
		assert.Len(t, list, 3)

		list, err = acts.List(ctx, Query{}.Match(Eq("type", "social")))
		require.NoError(t, err)
		assert.Empty(t, list)

		// LIKE metacharacters are plain text
		for _, term := range []string{"_", "%", "Y_ga", "%oga", `\`} {
			list, err = acts.List(ctx, Query{}.Match(Contains("name", term)))
			require.NoError(t, err)
			assert.Empty(t, list, term)
		}
	})

	t.Run("sort and page", func(t *testing.T) {
		list, err := acts.List(ctx, Query{}.Sort("date", false))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "b"}, ids(list))

		list, err = acts.List(ctx, Query{}.Sort("date", true))
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "a"}, ids(list))

		list, err = acts.List(ctx, Query{}.Sort("date", false).Page(1, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, ids(list))

		list, err = acts.List(ctx, Query{}.Sort("date", false).Page(0, 2))
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(list))

		list, err = acts.List(ctx, Query{}.Page(0, 10))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("invalid field", func(t *testing.T) {
		_, err := acts.List(ctx, Query{}.Match(Eq("name'; DROP", "x")))
		assert.Error(t, err)
	})

	t.Run("update", func(t *testing.T) {
		created, err := acts.Update(ctx, "d", func(cur models.Activity, exists bool) (models.Activity, error) {
			assert.False(t, exists)
			return activity("d", "Created", "social", "2025-01-01"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Created", created.Name)

		errStop := errors.New("stop")
		_, err = acts.Update(ctx, "d", func(cur models.Activity, exists bool) (models.Activity, error) {
			assert.True(t, exists)
			cur.Name = "Changed"
			return cur, errStop
		})
		assert.ErrorIs(t, err, errStop)

		got, _, err := acts.Get(ctx, "d")
		require.NoError(t, err)
		assert.Equal(t, "Created", got.Name)

		list, err := acts.List(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a", "c", "d"}, ids(list))
	})

	t.Run("concurrent updates serialize", func(t *testing.T) {
		const workers = 8
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := acts.Update(ctx, "d", func(cur models.Activity, exists bool) (models.Activity, error) {
					cur.Participants = append(cur.Participants, fmt.Sprintf("w%d", i))
					cur.Normalize()
					return cur, nil
				})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		got, _, err := acts.Get(ctx, "d")
		require.NoError(t, err)
		assert.Len(t, got.Participants, workers)
		assert.Equal(t, workers, got.CurrentParticipants)
	})

	t.Run("delete", func(t *testing.T) {
		deleted, err := acts.Delete(ctx, "a")
		require.NoError(t, err)
		assert.True(t, deleted)

		list, err := acts.List(ctx, Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "d"}, ids(list))
	})

	t.Run("kinds are separate", func(t *testing.T) {
		_, err := s.Ledgers.Set(ctx, "b", models.NewLedger("b"))
		require.NoError(t, err)
		l, ok, err := s.Ledgers.Get(ctx, "b")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "b", l.UserID)

		a, ok, err := acts.Get(ctx, "b")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Beach Cleanup v2", a.Name)
	})

	require.NoError(t, s.Ping(ctx))
}
