package search

import (
	"context"
	"io"
	"os"

	"github.com/cespare/xxhash"
	"github.com/edsrzf/mmap-go"

	"neutrino/internal/content"
)

const patternName = "pattern"

// matchesFileConstraints checks if the file can be scanned at all
func (s *Searcher) matchesFileConstraints(path string, info os.FileInfo) bool {
	if !info.Mode().IsRegular() {
		LogDebug("Not a regular file: %s", path)
		return false
	}
	if s.opts.MaxSize > 0 && info.Size() > s.opts.MaxSize {
		LogDebug("File too large: %s (%d bytes)", path, info.Size())
		return false
	}
	return true
}

// matchFile scans one glob match for the content pattern. It returns the
// result enriched with spans and true on a match. Any I/O failure or
// cancellation means no match.
func (s *Searcher) matchFile(ctx context.Context, res SearchResult, pf *content.Prefilter, buf []byte) (SearchResult, bool) {
	info, err := os.Stat(res.FullPath)
	if err != nil {
		s.stats.Errors.Add(1)
		LogDebug("Failed to stat %s: %v", res.FullPath, err)
		return res, false
	}
	if !s.matchesFileConstraints(res.FullPath, info) {
		s.stats.FilesSkipped.Add(1)
		return res, false
	}
	res.Size = info.Size()

	cs := content.NewContentSearcher()
	if err := cs.AddCompiled(patternName, s.pattern); err != nil {
		LogError("Failed to register pattern for %s: %v", res.FullPath, err)
		return res, false
	}
	if err := cs.Build(); err != nil {
		LogError("Failed to build content searcher for %s: %v", res.FullPath, err)
		return res, false
	}

	if s.opts.UseMMap && res.Size > 0 && res.Size >= s.opts.MinMMapSize {
		err = s.processByMMap(ctx, &res, cs, pf)
	} else {
		err = s.processByStream(ctx, &res, cs, buf)
	}
	s.stats.BytesRead.Add(cs.BytesRead())
	s.stats.Collisions.Add(cs.Collisions())
	if err != nil {
		if ctx.Err() == nil {
			s.stats.Errors.Add(1)
			LogWarning("Failed to read %s: %v", res.FullPath, err)
		}
		return res, false
	}
	if ctx.Err() != nil || !cs.Matched() {
		return res, false
	}

	mc, _ := cs.Context(patternName)
	res.Kind = Matched
	res.Matches = mc.Results()
	s.stats.ObjectsContentMatched.Add(1)
	if s.opts.DeduplicateFiles && res.Fingerprint == 0 {
		if fp, err := fingerprint(res.FullPath, buf); err == nil {
			res.Fingerprint = fp
		}
	}
	return res, true
}

// processByMMap scans a file through a read-only memory mapping, skipping
// the scan when the prefilter proves a required literal is missing.
func (s *Searcher) processByMMap(ctx context.Context, res *SearchResult, cs *content.ContentSearcher, pf *content.Prefilter) error {
	f, err := os.OpenFile(res.FullPath, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return err
	}
	defer data.Unmap()

	if s.opts.DeduplicateFiles {
		res.Fingerprint = xxhash.Sum64(data)
	}
	if pf != nil && !pf.MayMatch(data) {
		LogDebug("Prefilter rejected %s", res.FullPath)
		return nil
	}
	return cs.ScanBytes(ctx, data)
}

// processByStream feeds the file through buf until every pattern resolves.
func (s *Searcher) processByStream(ctx context.Context, res *SearchResult, cs *content.ContentSearcher, buf []byte) error {
	f, err := os.Open(res.FullPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return cs.Scan(ctx, f, buf)
}

// fingerprint hashes the whole file content.
func fingerprint(path string, buf []byte) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
