package frontend

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOpen(t *testing.T, fsys fs.FS, name string) fs.File {
	t.Helper()
	f, err := fsys.Open(name)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir)

	var changes atomic.Int32
	w := NewWatcher(dir, 100*time.Millisecond, func(string) { changes.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bundle.js"), []byte{byte(i)}, 0644))
	}

	assert.Eventually(t, func() bool { return changes.Load() == 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(1), changes.Load(), "a burst of writes reloads once")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	dir := t.TempDir()

	var last atomic.Value
	w := NewWatcher(dir, 50*time.Millisecond, func(p string) { last.Store(p) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	assets := filepath.Join(dir, "assets")
	require.NoError(t, os.Mkdir(assets, 0755))
	time.Sleep(150 * time.Millisecond)
	target := filepath.Join(assets, "index-abc.js")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0644))

	assert.Eventually(t, func() bool {
		p, _ := last.Load().(string)
		return p == target
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), 0, nil)
	err := w.Run(context.Background())
	assert.Error(t, err)
}
