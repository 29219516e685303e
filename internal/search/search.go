package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"neutrino/internal/content"
)

// Searcher walks a directory tree and, when a content pattern is set, scans
// every glob match with a pool of matcher workers.
type Searcher struct {
	opts        SearchOptions
	root        string
	glob        *Glob
	pattern     *content.Pattern
	excludeDirs map[string]bool
	stats       Stats
}

// DefaultOptions returns the options used by the command line front end.
func DefaultOptions() SearchOptions {
	return SearchOptions{
		Root:           ".",
		Glob:           defaultGlob,
		Concurrency:    DefaultConcurrency(),
		TraversalRatio: defaultTraversal,
		MaxSize:        defaultMaxSize,
		StackCapacity:  defaultStackCapacity,
		BufferSize:     defaultBufferSize,
		UseMMap:        true,
		MinMMapSize:    defaultMinMMapSize,
	}
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Glob == "" {
		o.Glob = defaultGlob
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency()
	}
	if o.TraversalRatio <= 0 || o.TraversalRatio >= 1 {
		o.TraversalRatio = defaultTraversal
	}
	if o.StackCapacity <= 0 {
		o.StackCapacity = defaultStackCapacity
	}
	if o.QueueSize <= 0 {
		o.QueueSize = o.Concurrency
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.MinMMapSize <= 0 {
		o.MinMMapSize = defaultMinMMapSize
	}
	return o
}

// New validates opts and compiles the glob and content pattern. A zero
// MaxSize disables the size ceiling.
func New(opts SearchOptions) (*Searcher, error) {
	opts = opts.withDefaults()

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	glob, err := CompileGlob(opts.Glob)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		opts:        opts,
		root:        root,
		glob:        glob,
		excludeDirs: make(map[string]bool, len(opts.ExcludeDirs)),
	}
	for _, d := range opts.ExcludeDirs {
		s.excludeDirs[filepath.ToSlash(filepath.Clean(d))] = true
	}
	if opts.Pattern != "" {
		if s.pattern, err = content.Compile(opts.Pattern); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Root returns the absolute search root.
func (s *Searcher) Root() string { return s.root }

// Options returns the effective options.
func (s *Searcher) Options() SearchOptions { return s.opts }

// ContentMode reports whether glob matches are scanned for a content pattern.
func (s *Searcher) ContentMode() bool { return s.pattern != nil }

// Stats returns the current counters. Counters accumulate across Search calls.
func (s *Searcher) Stats() StatsSnapshot { return s.stats.Snapshot() }

// workerSplit divides the concurrency budget between traversal and matching.
// Glob-only searches give every worker to traversal.
func (s *Searcher) workerSplit() (walkers, matchers int) {
	total := s.opts.Concurrency
	if s.pattern == nil {
		return total, 0
	}
	walkers = int(math.Round(float64(total) * s.opts.TraversalRatio))
	if walkers < 1 {
		walkers = 1
	}
	matchers = total - walkers
	if matchers < 1 {
		matchers = 1
	}
	return walkers, matchers
}

// Search starts the pipeline and returns the result stream. The channel is
// closed once traversal and all matcher workers are finished, or soon after
// ctx is cancelled. Results arrive in no particular order. The caller must
// drain the channel or cancel ctx.
func (s *Searcher) Search(ctx context.Context) <-chan SearchResult {
	results := make(chan SearchResult, s.opts.BufferSize)
	proc := newResultProcessor(results, s.opts.DeduplicateFiles, &s.stats)
	walkers, matchers := s.workerSplit()
	start := time.Now()

	LogInfo("Search started: root=%s glob=%s pattern=%q walkers=%d matchers=%d",
		s.root, s.glob, s.opts.Pattern, walkers, matchers)

	g, gctx := errgroup.WithContext(ctx)
	stack := NewParallelStack[searchRequest](gctx, walkers, s.opts.StackCapacity)
	stack.Seed(searchRequest{dir: s.root})

	var requests chan SearchResult
	if s.pattern != nil {
		requests = make(chan SearchResult, s.opts.QueueSize)
	}

	walkGroup := s.startWalkers(gctx, stack, walkers, proc, requests)
	g.Go(func() error {
		err := walkGroup.Wait()
		stack.Close()
		if requests != nil {
			close(requests)
		}
		return err
	})

	for i := 0; i < matchers; i++ {
		g.Go(func() error {
			var pf *content.Prefilter
			if s.opts.UseMMap {
				pf = content.NewPrefilter(s.pattern)
			}
			bufp := bufferPool.Get().(*[]byte)
			defer bufferPool.Put(bufp)

			for {
				select {
				case res, ok := <-requests:
					if !ok {
						return nil
					}
					matched, ok := s.matchFile(gctx, res, pf, *bufp)
					if !ok {
						continue
					}
					if !proc.add(gctx, matched) {
						return gctx.Err()
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	go func() {
		err := g.Wait()
		proc.close()
		switch {
		case ctx.Err() != nil:
			LogInfo("Search cancelled after %v", time.Since(start))
		case err != nil:
			LogError("Search failed: %v", err)
		}
		snap := s.stats.Snapshot()
		logAttrs(slog.LevelInfo, "search finished",
			slog.Duration("elapsed", time.Since(start)),
			slog.Int64("discovered", snap.ObjectsDiscovered),
			slog.Int64("glob_matched", snap.ObjectsGlobMatched),
			slog.Int64("content_matched", snap.ObjectsContentMatched),
			slog.Int64("bytes_read", snap.BytesRead),
			slog.Int64("skipped", snap.FilesSkipped),
			slog.Int64("errors", snap.Errors),
			slog.Int64("collisions", snap.Collisions),
		)
		if l := globalLogger.Load(); l != nil {
			_ = l.Flush()
		}
	}()

	return results
}

// startWalkers runs n traversal workers on stack. The returned group fails
// if a worker slot cannot be assigned.
func (s *Searcher) startWalkers(ctx context.Context, stack *ParallelStack[searchRequest], n int, proc *resultProcessor, requests chan<- SearchResult) *errgroup.Group {
	walkGroup := &errgroup.Group{}
	for i := 0; i < n; i++ {
		w, err := stack.Worker()
		if err != nil {
			walkGroup.Go(func() error {
				return fmt.Errorf("assigning traversal worker: %w", err)
			})
			break
		}
		walkGroup.Go(func() error {
			bufp := bufferPool.Get().(*[]byte)
			defer bufferPool.Put(bufp)
			s.walk(ctx, w, s.emitter(ctx, proc, requests, *bufp))
			return nil
		})
	}
	return walkGroup
}

// emitter returns the walker's sink: straight to the results in glob-only
// mode, or into the bounded request queue for the matchers.
func (s *Searcher) emitter(ctx context.Context, proc *resultProcessor, requests chan<- SearchResult, buf []byte) func(SearchResult) bool {
	if requests == nil {
		return func(r SearchResult) bool {
			if s.opts.DeduplicateFiles {
				if fp, err := fingerprint(r.FullPath, buf); err == nil {
					r.Fingerprint = fp
				}
			}
			return proc.add(ctx, r)
		}
	}
	return func(r SearchResult) bool {
		select {
		case requests <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}
}
