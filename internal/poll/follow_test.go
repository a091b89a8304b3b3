package poll

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFollowFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "payload.json")
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	changed := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- FollowFile(ctx, path, func() { changed <- struct{}{} })
	}()

	// The watcher registers asynchronously, so keep writing until it sees one.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(other, []byte(`{}`), 0o644)
		_ = os.WriteFile(path, []byte(`{"global_summary": "x"}`), 0o644)
		select {
		case <-changed:
			return true
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestFollowFile_MissingDirectory(t *testing.T) {
	err := FollowFile(context.Background(), filepath.Join(t.TempDir(), "missing", "f.json"), func() {})
	assert.Error(t, err)
}
