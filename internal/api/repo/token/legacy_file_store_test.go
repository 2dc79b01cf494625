package token_repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ShopFulfillment/internal/api/domain/token"
	"ShopFulfillment/pkg/pointers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

func fileBackedService(t *testing.T) (*token.Service, *LegacyFileStore, *clock) {
	t.Helper()

	c := &clock{now: t0}
	store := NewLegacyFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	return token.NewTokenService(store, token.WithClock(c.Now)), store, c
}

func TestLegacyFileStore_TokenLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("should resolve just before ttl and expire just after", func(t *testing.T) {
		// given
		service, store, c := fileBackedService(t)
		issued, err := service.Issue(ctx, token.IssueRequest{FilePath: "books/go.pdf", ExpiresInMinutes: pointers.Ptr(60)})
		require.NoError(t, err)

		// when
		c.Set(t0.Add(59*time.Minute + 59*time.Second))
		_, errBefore := service.Resolve(ctx, issued.Token)
		c.Set(t0.Add(60*time.Minute + time.Second))
		_, errAfter := service.Resolve(ctx, issued.Token)

		// then
		assert.NoError(t, errBefore)
		assert.ErrorIs(t, errAfter, token.ErrExpired)

		stored, err := store.Get(ctx, issued.Token)
		require.NoError(t, err)
		assert.True(t, stored.Purged(), "expired token should be purged on access")
	})

	t.Run("should report consumption ahead of ttl", func(t *testing.T) {
		// given
		service, _, c := fileBackedService(t)
		issued, err := service.Issue(ctx, token.IssueRequest{FilePath: "a.zip"})
		require.NoError(t, err)

		c.Set(t0.Add(5 * time.Minute))
		_, err = service.Begin(ctx, issued.Token)
		require.NoError(t, err)
		require.NoError(t, service.Complete(ctx, issued.Token))

		// when
		c.Set(t0.Add(10 * time.Minute))
		_, err = service.Resolve(ctx, issued.Token)

		// then
		assert.ErrorIs(t, err, token.ErrAlreadyConsumed)
	})

	t.Run("should allow begin to be repeated", func(t *testing.T) {
		// given
		service, _, c := fileBackedService(t)
		issued, err := service.Issue(ctx, token.IssueRequest{FilePath: "a.zip"})
		require.NoError(t, err)

		// when
		c.Set(t0.Add(time.Minute))
		first, err := service.Begin(ctx, issued.Token)
		require.NoError(t, err)
		c.Set(t0.Add(2 * time.Minute))
		second, err := service.Begin(ctx, issued.Token)
		require.NoError(t, err)

		// then
		require.NotNil(t, second.StartedAt)
		assert.Equal(t, *first.StartedAt, *second.StartedAt)
	})

	t.Run("should let exactly one concurrent completion win", func(t *testing.T) {
		// given
		service, store, _ := fileBackedService(t)
		issued, err := service.Issue(ctx, token.IssueRequest{FilePath: "a.zip"})
		require.NoError(t, err)

		const callers = 16
		results := make([]error, callers)
		var wg sync.WaitGroup
		start := make(chan struct{})

		// when
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				results[i] = service.Complete(ctx, issued.Token)
			}()
		}
		close(start)
		wg.Wait()

		// then
		var wins, consumed int
		for _, err := range results {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, token.ErrAlreadyConsumed):
				consumed++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, callers-1, consumed)

		stored, err := store.Get(ctx, issued.Token)
		require.NoError(t, err)
		assert.True(t, stored.Completed)
	})

	t.Run("should not persist rejected paths", func(t *testing.T) {
		// given
		service, store, _ := fileBackedService(t)

		// when
		_, errTraversal := service.Issue(ctx, token.IssueRequest{FilePath: "../../etc/passwd"})
		_, errDoubleSlash := service.Issue(ctx, token.IssueRequest{FilePath: "//evil"})

		// then
		assert.ErrorIs(t, errTraversal, token.ErrValidation)
		assert.ErrorIs(t, errDoubleSlash, token.ErrValidation)
		_, err := os.Stat(store.path)
		assert.True(t, os.IsNotExist(err), "no token file should be written")
	})
}

func TestLegacyFileStore_PurgeExpired(t *testing.T) {
	t.Parallel()

	// given
	ctx := context.Background()
	store := NewLegacyFileStore(filepath.Join(t.TempDir(), "nested", "tokens.json"))
	require.NoError(t, store.Create(ctx, token.Token{Token: "old", FilePaths: []string{"a"}, ExpiresAt: t0}))
	require.NoError(t, store.Create(ctx, token.Token{Token: "done", FilePaths: []string{"a"}, ExpiresAt: t0, Completed: true}))
	require.NoError(t, store.Create(ctx, token.Token{Token: "fresh", FilePaths: []string{"a"}, ExpiresAt: t0.Add(time.Hour)}))

	// when
	n, err := store.PurgeExpired(ctx, t0.Add(time.Minute))

	// then
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	old, _ := store.Get(ctx, "old")
	done, _ := store.Get(ctx, "done")
	fresh, _ := store.Get(ctx, "fresh")
	assert.True(t, old.Purged())
	assert.False(t, done.Purged(), "completed tokens are kept for audit")
	assert.False(t, fresh.Purged())
}

func TestLegacyFileStore_ReadsExistingList(t *testing.T) {
	t.Parallel()

	// given
	path := filepath.Join(t.TempDir(), "tokens.json")
	legacy := `[{"token":"abc","file_paths":["old/file.zip"],"created_at":"2025-06-01T09:00:00Z","expires_at":"2025-06-01T10:00:00Z","started":false,"completed":false}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))
	store := NewLegacyFileStore(path)

	// when
	got, err := store.Get(context.Background(), "abc")

	// then
	require.NoError(t, err)
	assert.Equal(t, []string{"old/file.zip"}, got.FilePaths)
	assert.Equal(t, t0.Add(time.Hour), got.ExpiresAt.UTC())
}
