package search

import (
	"context"
	"sync"
)

// resultProcessor handles result delivery and deduplication
type resultProcessor struct {
	results chan<- SearchResult
	seen    map[uint64]bool
	dedupe  bool
	stats   *Stats
	mu      sync.Mutex
}

func newResultProcessor(results chan<- SearchResult, dedupe bool, stats *Stats) *resultProcessor {
	return &resultProcessor{
		results: results,
		seen:    make(map[uint64]bool),
		dedupe:  dedupe,
		stats:   stats,
	}
}

// add delivers result unless its content was already delivered. It returns
// false if ctx ended before the result could be delivered.
func (rp *resultProcessor) add(ctx context.Context, result SearchResult) bool {
	if rp.dedupe && result.Fingerprint != 0 {
		rp.mu.Lock()
		if rp.seen[result.Fingerprint] {
			rp.mu.Unlock()
			rp.stats.Duplicates.Add(1)
			LogDebug("Skipping duplicate content: %s", result.Path)
			return true
		}
		rp.seen[result.Fingerprint] = true
		rp.mu.Unlock()
	}
	select {
	case rp.results <- result:
		return true
	case <-ctx.Done():
		return false
	}
}

func (rp *resultProcessor) close() {
	close(rp.results)
}
