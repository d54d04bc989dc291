package watcher

import (
	"testing"
	"time"

	"github.com/shoenig/test"
	"github.com/spf13/afero"
)

func TestStatterLatestIssuedWins(t *testing.T) {
	t.Parallel()

	s := newStatter(afero.NewMemMapFs())

	stale := s.issue("/a")
	fresh := s.issue("/a")

	test.True(t, s.apply("/a", fresh, func() {}))
	test.False(t, s.apply("/a", stale, func() {}))
}

func TestStatterForgetBlocksApply(t *testing.T) {
	t.Parallel()

	s := newStatter(afero.NewMemMapFs())

	gen := s.issue("/a")
	s.forget("/a")
	test.False(t, s.apply("/a", gen, func() {}))
}

func TestStatterGenerationsSurviveReregistration(t *testing.T) {
	t.Parallel()

	cache := NewStatCache()
	s := newStatter(afero.NewMemMapFs())

	// a stat issued in the watch's first life is still in flight when
	// the watch is torn down and established again
	stale := s.issue("/a")
	s.forget("/a")
	fresh := s.issue("/a")
	test.NotEq(t, stale, fresh)

	freshStat := Snapshot{ModTime: time.Unix(200, 0)}
	test.True(t, s.apply("/a", fresh, func() { cache.Put("/a", freshStat) }))
	test.False(t, s.apply("/a", stale, func() {
		cache.Put("/a", Snapshot{ModTime: time.Unix(100, 0)})
	}))

	got, ok := cache.Get("/a").Unpack()
	test.True(t, ok)
	test.True(t, got.ModTime.Equal(freshStat.ModTime))
}

func TestStatterForgetAllBlocksApply(t *testing.T) {
	t.Parallel()

	s := newStatter(afero.NewMemMapFs())

	genA := s.issue("/a")
	genB := s.issue("/b")
	s.forgetAll()

	test.False(t, s.apply("/a", genA, func() {}))
	test.False(t, s.apply("/b", genB, func() {}))
	test.NotEq(t, genB, s.issue("/a"))
}
