package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// ignoreRule is a compiled .gitignore together with the root-relative
// directory it was found in.
type ignoreRule struct {
	base string
	gi   *gitignore.GitIgnore
}

func (r ignoreRule) matches(rel string, isDir bool) bool {
	p := rel
	if r.base != "" {
		if !strings.HasPrefix(rel, r.base+"/") {
			return false
		}
		p = rel[len(r.base)+1:]
	}
	if r.gi.MatchesPath(p) {
		return true
	}
	return isDir && r.gi.MatchesPath(p+"/")
}

// walk drains traversal units from the worker's stack until traversal is
// complete or emit refuses a result.
func (s *Searcher) walk(ctx context.Context, w *StackWorker[searchRequest], emit func(SearchResult) bool) {
	for {
		req, ok := w.Pop()
		if !ok {
			return
		}
		if !s.readDir(ctx, req, w, emit) {
			return
		}
	}
}

// readDir enumerates one directory. Subdirectories within the depth limit
// become new traversal units; every other entry is tested against the glob.
func (s *Searcher) readDir(ctx context.Context, req searchRequest, w *StackWorker[searchRequest], emit func(SearchResult) bool) bool {
	entries, err := os.ReadDir(req.dir)
	if err != nil {
		s.stats.Errors.Add(1)
		LogDebug("Failed to read directory %s: %v", req.dir, err)
		return true
	}

	ignores := req.ignores
	if s.opts.RespectGitignore {
		if rule, ok := s.loadIgnore(req.dir, entries); ok {
			ignores = append(ignores[:len(ignores):len(ignores)], rule)
		}
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return false
		}
		name := entry.Name()
		full := filepath.Join(req.dir, name)
		rel, err := filepath.Rel(s.root, full)
		if err != nil {
			s.stats.Errors.Add(1)
			continue
		}
		rel = filepath.ToSlash(rel)
		s.stats.ObjectsDiscovered.Add(1)

		isDir := entry.IsDir()
		if s.excluded(name, rel, isDir, ignores) {
			continue
		}
		if isDir && (s.opts.MaxDepth <= 0 || req.depth+1 < s.opts.MaxDepth) {
			w.Push(searchRequest{dir: full, depth: req.depth + 1, ignores: ignores})
			continue
		}
		if !s.glob.Match(rel) {
			continue
		}
		s.stats.ObjectsGlobMatched.Add(1)
		if !emit(SearchResult{Kind: Found, Path: rel, FullPath: full}) {
			return false
		}
	}
	return true
}

// excluded checks hidden entries, excluded directory names and gitignore rules.
func (s *Searcher) excluded(name, rel string, isDir bool, ignores []ignoreRule) bool {
	if s.opts.ExcludeHidden && strings.HasPrefix(name, ".") {
		LogDebug("Skipping hidden entry: %s", rel)
		return true
	}
	if isDir && ((s.opts.UseDefaultSkips && skipDirs[name]) || s.excludeDirs[name] || s.excludeDirs[rel]) {
		LogDebug("Skipping directory: %s", rel)
		return true
	}
	for _, r := range ignores {
		if r.matches(rel, isDir) {
			LogDebug("Skipping ignored entry: %s", rel)
			return true
		}
	}
	return false
}

func (s *Searcher) loadIgnore(dir string, entries []os.DirEntry) (ignoreRule, bool) {
	for _, e := range entries {
		if e.Name() != ".gitignore" || e.IsDir() {
			continue
		}
		gi, err := gitignore.CompileIgnoreFile(filepath.Join(dir, e.Name()))
		if err != nil {
			s.stats.Errors.Add(1)
			LogDebug("Failed to load .gitignore in %s: %v", dir, err)
			return ignoreRule{}, false
		}
		base, err := filepath.Rel(s.root, dir)
		if err != nil {
			return ignoreRule{}, false
		}
		base = filepath.ToSlash(base)
		if base == "." {
			base = ""
		}
		return ignoreRule{base: base, gi: gi}, true
	}
	return ignoreRule{}, false
}
