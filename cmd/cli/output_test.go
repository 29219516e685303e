package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neutrino/internal/content"
	"neutrino/internal/search"
)

func TestConsoleRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := newConsoleRenderer(&buf, false)

	require.NoError(t, r.Result(search.SearchResult{Kind: search.Found, Path: "a/b.txt"}))
	require.NoError(t, r.Result(search.SearchResult{
		Kind:    search.Matched,
		Path:    "c.txt",
		Matches: []content.MatchResult{{Begin: 0, End: 6}, {Begin: 7, End: 11}},
	}))
	require.NoError(t, r.Finish(search.StatsSnapshot{ObjectsDiscovered: 2}, true, time.Second))

	assert.Equal(t, "a/b.txt\nc.txt : Matches @ [0, 6] - [7, 11]\n", buf.String(),
		"no colors or summary when not interactive")
}

func TestSummaryLine(t *testing.T) {
	stats := search.StatsSnapshot{
		ObjectsDiscovered:     1204,
		ObjectsGlobMatched:    40,
		ObjectsContentMatched: 3,
		BytesRead:             4_100_000,
	}

	assert.Equal(t, "40 match(es) out of 1,204 object(s) in 12ms.",
		summaryLine(stats, false, 12*time.Millisecond+300*time.Microsecond))
	assert.Equal(t, "3 match(es) out of 1,204 object(s), with 4.1 MB read in 1.5s.",
		summaryLine(stats, true, 1500*time.Millisecond))
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := newJSONRenderer(&buf)
	require.NoError(t, r.Finish(search.StatsSnapshot{}, false, 0))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	r = newJSONRenderer(&buf)
	require.NoError(t, r.Result(search.SearchResult{Kind: search.Found, Path: "a.txt", FullPath: "/r/a.txt", Size: 3}))
	require.NoError(t, r.Result(search.SearchResult{
		Kind:     search.Matched,
		Path:     "b.txt",
		FullPath: "/r/b.txt",
		Matches:  []content.MatchResult{{Begin: 1, End: 2}},
	}))
	require.NoError(t, r.Finish(search.StatsSnapshot{}, true, 0))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "found", decoded[0]["kind"])
	assert.Equal(t, "a.txt", decoded[0]["path"])
	assert.Equal(t, "matched", decoded[1]["kind"])
	assert.NotContains(t, decoded[0], "matches")
	assert.Len(t, decoded[1]["matches"], 1)
}
