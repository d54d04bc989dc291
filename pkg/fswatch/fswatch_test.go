package fswatch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shoenig/test"
	"github.com/shoenig/test/must"

	"github.com/rprtr258/fswatch/pkg/fswatch"
)

func TestWatchSingleFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "a.txt")
	must.NoError(t, os.WriteFile(file, []byte("one"), 0o644))

	changes := make(chan string, 16)
	w, err := fswatch.Watch(file, func(path string, stat fswatch.Snapshot) {
		changes <- path
	})
	must.NoError(t, err)
	defer w.Close()

	test.Eq(t, []string{file}, w.Watched())

	must.NoError(t, os.WriteFile(file, []byte("two"), 0o644))

	select {
	case path := <-changes:
		test.Eq(t, file, path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event arrived")
	}
}

func TestAddDropsNonexistentPaths(t *testing.T) {
	t.Parallel()

	w, err := fswatch.New()
	must.NoError(t, err)
	defer w.Close()

	w.Add(filepath.Join(t.TempDir(), "missing.txt"))
	test.Len(t, 0, w.Watched())
}

func TestCloseEmitsSingleEvent(t *testing.T) {
	t.Parallel()

	w, err := fswatch.New()
	must.NoError(t, err)

	closes := 0
	w.Subscribe(func(e fswatch.Event) {
		if e.Type == fswatch.EventClose {
			closes++
		}
	})

	test.NoError(t, w.Close())
	test.NoError(t, w.Close())
	test.Eq(t, 1, closes)
}
