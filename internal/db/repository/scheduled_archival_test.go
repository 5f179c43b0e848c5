package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/media-vault/video-archive-go/internal/db"
	"github.com/media-vault/video-archive-go/internal/db/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduledArchivalRepository_Enqueue(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewScheduledArchivalRepository(td.Pool)
	ctx := context.Background()

	t.Run("enqueues new url", func(t *testing.T) {
		td.TruncateTables(t)

		created, err := repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc123")
		require.NoError(t, err)
		assert.True(t, created)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "https://www.youtube.com/watch?v=abc123", items[0].URL)
		assert.False(t, items[0].ScheduledAt.IsZero())
	})

	t.Run("duplicate url is a no-op", func(t *testing.T) {
		td.TruncateTables(t)

		created, err := repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc123")
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc123")
		require.NoError(t, err)
		assert.False(t, created)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestScheduledArchivalRepository_Dequeue(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewScheduledArchivalRepository(td.Pool)
	ctx := context.Background()

	t.Run("claims ready item and pushes lease forward", func(t *testing.T) {
		td.TruncateTables(t)

		_, err := repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc123")
		require.NoError(t, err)

		item, err := repo.Dequeue(ctx, 2*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "https://www.youtube.com/watch?v=abc123", item.URL)
		assert.True(t, item.NotBefore.After(time.Now().Add(time.Hour)))
	})

	t.Run("claimed item is invisible until lease expires", func(t *testing.T) {
		td.TruncateTables(t)

		_, err := repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc123")
		require.NoError(t, err)

		_, err = repo.Dequeue(ctx, 2*time.Hour)
		require.NoError(t, err)

		_, err = repo.Dequeue(ctx, 2*time.Hour)
		assert.True(t, db.IsNotFound(err))
	})

	t.Run("empty queue returns not found", func(t *testing.T) {
		td.TruncateTables(t)

		_, err := repo.Dequeue(ctx, 2*time.Hour)
		assert.True(t, db.IsNotFound(err))
	})

	t.Run("concurrent claimants win at most one each cycle", func(t *testing.T) {
		td.TruncateTables(t)

		_, err := repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc123")
		require.NoError(t, err)

		const claimants = 8
		results := make(chan error, claimants)

		var start sync.WaitGroup
		start.Add(claimants)
		for i := 0; i < claimants; i++ {
			go func() {
				start.Done()
				start.Wait()
				_, err := repo.Dequeue(ctx, 2*time.Hour)
				results <- err
			}()
		}

		var won int
		for i := 0; i < claimants; i++ {
			err := <-results
			if err == nil {
				won++
				continue
			}
			require.True(t, db.IsNotFound(err), "unexpected claim error: %v", err)
		}
		assert.Equal(t, 1, won)
	})

	t.Run("expired lease makes item claimable again", func(t *testing.T) {
		td.TruncateTables(t)

		_, err := repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc123")
		require.NoError(t, err)

		// Claim with a lease that is already in the past.
		first, err := repo.Dequeue(ctx, -time.Second)
		require.NoError(t, err)

		second, err := repo.Dequeue(ctx, 2*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})
}

func TestScheduledArchivalRepository_Reschedule(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewScheduledArchivalRepository(td.Pool)
	ctx := context.Background()

	t.Run("reschedule delays next attempt", func(t *testing.T) {
		td.TruncateTables(t)

		_, err := repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc123")
		require.NoError(t, err)

		item, err := repo.Dequeue(ctx, -time.Second)
		require.NoError(t, err)

		err = repo.Reschedule(ctx, item.ID, 10*time.Minute)
		require.NoError(t, err)

		_, err = repo.Dequeue(ctx, 2*time.Hour)
		assert.True(t, db.IsNotFound(err))
	})
}

func TestScheduledArchivalRepository_Delete(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewScheduledArchivalRepository(td.Pool)
	ctx := context.Background()

	t.Run("delete removes item", func(t *testing.T) {
		td.TruncateTables(t)

		_, err := repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc123")
		require.NoError(t, err)

		item, err := repo.Dequeue(ctx, 2*time.Hour)
		require.NoError(t, err)

		err = repo.Delete(ctx, item.ID)
		require.NoError(t, err)

		items, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("deleting a missing item is a no-op", func(t *testing.T) {
		td.TruncateTables(t)

		err := repo.Delete(ctx, 9999)
		assert.NoError(t, err)
	})
}

func TestScheduledArchivalRepository_URLs(t *testing.T) {
	td := testutil.SetupTestDatabase(t)
	defer td.Cleanup(t)

	repo := NewScheduledArchivalRepository(td.Pool)
	ctx := context.Background()

	td.TruncateTables(t)

	_, err := repo.Enqueue(ctx, "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)
	_, err = repo.Enqueue(ctx, "https://www.youtube.com/watch?v=def")
	require.NoError(t, err)

	urls, err := repo.URLs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://www.youtube.com/watch?v=abc",
		"https://www.youtube.com/watch?v=def",
	}, urls)
}
