package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neutrino/internal/content"
	"neutrino/internal/search"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	id, err := s.BeginRun(ctx, "/src", "**/*.go", `*'func'`)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := s.Run(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "/src", run.Root)
	assert.Equal(t, "**/*.go", run.Glob)
	assert.Equal(t, `*'func'`, run.Pattern)
	assert.True(t, run.FinishedAt.IsZero())

	stats := search.StatsSnapshot{ObjectsDiscovered: 10, ObjectsContentMatched: 2, BytesRead: 4096}
	require.NoError(t, s.FinishRun(ctx, id, stats))

	run, err = s.Run(ctx, id)
	require.NoError(t, err)
	assert.False(t, run.FinishedAt.IsZero())
	assert.Equal(t, stats, run.Stats)
}

func TestStore_Results(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	id, err := s.BeginRun(ctx, "/src", "**/*", `*'Hello'`)
	require.NoError(t, err)

	matched := search.SearchResult{
		Kind:     search.Matched,
		Path:     "b/hello.txt",
		FullPath: "/src/b/hello.txt",
		Size:     13,
		Matches:  []content.MatchResult{{Begin: 0, End: 4}},
	}
	found := search.SearchResult{Kind: search.Found, Path: "a.txt", FullPath: "/src/a.txt", Size: 1}

	require.NoError(t, s.AddResult(ctx, id, matched))
	require.NoError(t, s.AddResult(ctx, id, found))
	// the same path is stored once per run
	require.NoError(t, s.AddResult(ctx, id, found))

	results, err := s.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []search.SearchResult{found, matched}, results)

	other, err := s.BeginRun(ctx, "/src", "**/*", "")
	require.NoError(t, err)
	results, err = s.Results(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_UnknownRun(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.Run(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = s.FinishRun(ctx, "nope", search.StatsSnapshot{})
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = s.AddResult(ctx, "nope", search.SearchResult{Path: "x"})
	assert.Error(t, err, "foreign key rejects results without a run")
}

func TestStore_ReopenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "results.db")

	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.BeginRun(ctx, "/src", "**/*", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
}
