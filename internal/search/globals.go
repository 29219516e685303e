package search

import (
	"runtime"
	"sync"
)

const (
	defaultGlob          = "**/*"
	defaultMaxSize       = 1 << 20 // 1MB
	defaultStackCapacity = 16
	defaultBufferSize    = 1000
	defaultMinMMapSize   = 256 << 10
	defaultTraversal     = 1.0 / 3
	readBufferSize       = 32 * 1024
)

var (
	// Common directories to skip when SearchOptions.UseDefaultSkips is set
	skipDirs = map[string]bool{
		"node_modules": true, ".git": true, ".svn": true, ".hg": true,
		"target": true, "build": true, "dist": true,
		"__pycache__": true, ".idea": true, ".vscode": true,
		"$RECYCLE.BIN": true, "System Volume Information": true,
	}

	// File read buffer pool
	bufferPool = sync.Pool{
		New: func() interface{} {
			b := make([]byte, readBufferSize)
			return &b
		},
	}
)

// DefaultConcurrency is half the logical CPUs, rounded up.
func DefaultConcurrency() int {
	return (runtime.NumCPU() + 1) / 2
}
