package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	out := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
	if url := os.Getenv("STAGEGRAPH_TEST_REDIS_URL"); url != "" {
		opts, err := redis.ParseURL(url)
		require.NoError(t, err)
		client := redis.NewClient(opts)
		t.Cleanup(func() { client.Close() })
		out["redis"] = NewRedisStore(client)
	}
	return out
}

func TestNew(t *testing.T) {
	a := New(time.Hour)
	b := New(time.Hour)

	assert.NotEqual(t, a.ID, b.ID)
	assert.NoError(t, ValidateID(a.ID))
	assert.Empty(t, a.SelectedKey)
	assert.False(t, a.IsExpired())
	assert.WithinDuration(t, a.CreatedAt.Add(time.Hour), a.ExpiresAt, time.Second)
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"", "../../etc/passwd", "not-a-uuid"} {
		err := ValidateID(id)
		assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound), "ValidateID(%q) = %v", id, err)
	}
}

func TestTouch(t *testing.T) {
	sess := New(-time.Minute)
	require.True(t, sess.IsExpired())
	sess.Touch(time.Minute)
	assert.False(t, sess.IsExpired())
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()

			sess := New(time.Hour)
			sess.SelectedKey = "n_3"
			require.NoError(t, store.Set(ctx, sess))

			got, err := store.Get(ctx, sess.ID)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "n_3", got.SelectedKey)
			assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

			sess.SelectedKey = "s_-1"
			require.NoError(t, store.Set(ctx, sess))
			got, err = store.Get(ctx, sess.ID)
			require.NoError(t, err)
			assert.Equal(t, "s_-1", got.SelectedKey)

			require.NoError(t, store.Delete(ctx, sess.ID))
			got, err = store.Get(ctx, sess.ID)
			require.NoError(t, err)
			assert.Nil(t, got)

			// Deleting twice is fine.
			assert.NoError(t, store.Delete(ctx, sess.ID))
		})
	}
}

func TestStoreMissingAndInvalid(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Get(ctx, New(time.Hour).ID)
			require.NoError(t, err)
			assert.Nil(t, got)

			got, err = store.Get(ctx, "../escape")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestStoreExpired(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		if name == "redis" {
			continue // Set refuses already expired sessions
		}
		t.Run(name, func(t *testing.T) {
			sess := New(-time.Minute)
			require.NoError(t, store.Set(ctx, sess))

			got, err := store.Get(ctx, sess.ID)
			require.NoError(t, err)
			assert.Nil(t, got, "expired session returned")
		})
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	live := New(time.Hour)
	require.NoError(t, store.Set(ctx, live))
	require.NoError(t, store.Set(ctx, New(-time.Minute)))
	require.Equal(t, 2, store.Len())

	require.NoError(t, store.Cleanup(ctx))
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, live.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestFileStoreCleanup(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Path())

	live := New(time.Hour)
	dead := New(-time.Minute)
	require.NoError(t, store.Set(ctx, live))
	require.NoError(t, store.Set(ctx, dead))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0600))

	require.NoError(t, store.Cleanup(ctx))

	assert.FileExists(t, filepath.Join(dir, live.ID+".json"))
	assert.NoFileExists(t, filepath.Join(dir, dead.ID+".json"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestFileStoreRejectsBadID(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = store.Set(context.Background(), &Session{ID: "../../x", ExpiresAt: time.Now().Add(time.Hour)})
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound))
}
