package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stages.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stages: []\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 10*time.Millisecond, func() { changed <- struct{}{} })
	}()

	// The watcher starts asynchronously; keep touching the other file
	// first, then the watched one, until a change comes through.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-changed:
			cancel()
			select {
			case err := <-done:
				assert.ErrorIs(t, err, context.Canceled)
			case <-time.After(5 * time.Second):
				t.Fatal("watchFile did not return after cancel")
			}
			return
		case <-deadline:
			cancel()
			t.Fatal("no change reported")
		case <-tick.C:
			require.NoError(t, os.WriteFile(other, []byte("x"), 0644))
			require.NoError(t, os.WriteFile(path, []byte("stages: []\n"), 0644))
		}
	}
}

func TestWatchFileIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stages.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	calls := 0
	go func() {
		for i := 0; i < 5; i++ {
			time.Sleep(50 * time.Millisecond)
			_ = os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644)
		}
	}()

	err := watchFile(ctx, path, 10*time.Millisecond, func() { calls++ })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, calls)
}

func TestWatchFileMissingDir(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "missing", "stages.yaml"), time.Millisecond, func() {})
	assert.Error(t, err)
}
