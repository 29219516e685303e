package search

import (
	"errors"

	"neutrino/internal/content"
)

var (
	// ErrInvalidGlob is returned by New for a malformed filename glob.
	ErrInvalidGlob = errors.New("invalid filename glob")
	// ErrInvalidRoot is returned by New when the root is not a readable directory.
	ErrInvalidRoot = errors.New("invalid search root")
)

// ResultKind tells glob-only results apart from content matches.
type ResultKind int

const (
	Found ResultKind = iota
	Matched
)

func (k ResultKind) String() string {
	if k == Matched {
		return "matched"
	}
	return "found"
}

func (k ResultKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// SearchResult represents a single found file
type SearchResult struct {
	Kind        ResultKind            `json:"kind"`
	Path        string                `json:"path"` // relative to the root, slash separated
	FullPath    string                `json:"full_path"`
	Size        int64                 `json:"size,omitempty"`
	Matches     []content.MatchResult `json:"matches,omitempty"`
	Fingerprint uint64                `json:"-"` // content hash for duplicate detection, 0 if not computed
}

// SearchOptions contains search parameters
type SearchOptions struct {
	Root             string   // Directory to search, defaults to the working directory
	Glob             string   // Filename glob matched against root-relative paths
	Pattern          string   // Content pattern, empty for glob-only mode
	Concurrency      int      // Total worker budget
	TraversalRatio   float64  // Share of Concurrency given to traversal in content mode
	MaxDepth         int      // Directory levels to descend, 0 for unlimited
	MaxSize          int64    // Files larger than this are never scanned
	StackCapacity    int      // Per-worker traversal stack bound
	QueueSize        int      // Traversal to matcher queue bound
	BufferSize       int      // Result channel buffer size
	ExcludeHidden    bool     // Exclude hidden files and directories
	ExcludeDirs      []string // Directory names to skip, in addition to skipDirs
	UseDefaultSkips  bool     // Skip well-known build and VCS directories
	RespectGitignore bool     // Honor .gitignore files found during traversal
	UseMMap          bool     // Use memory mapping for large files
	MinMMapSize      int64    // Minimum file size for using mmap
	DeduplicateFiles bool     // Remove results with identical content
}

// searchRequest is one unit of traversal work: a directory and its depth
// below the root.
type searchRequest struct {
	dir     string
	depth   int
	ignores []ignoreRule
}
