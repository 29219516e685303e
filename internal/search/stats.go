package search

import "sync/atomic"

// Stats holds process-wide counters updated by every worker.
type Stats struct {
	BytesRead             atomic.Int64
	ObjectsDiscovered     atomic.Int64
	ObjectsGlobMatched    atomic.Int64
	ObjectsContentMatched atomic.Int64
	FilesSkipped          atomic.Int64
	Errors                atomic.Int64
	Collisions            atomic.Int64
	Duplicates            atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	BytesRead             int64 `json:"bytes_read"`
	ObjectsDiscovered     int64 `json:"objects_discovered"`
	ObjectsGlobMatched    int64 `json:"objects_glob_matched"`
	ObjectsContentMatched int64 `json:"objects_content_matched"`
	FilesSkipped          int64 `json:"files_skipped"`
	Errors                int64 `json:"errors"`
	Collisions            int64 `json:"collisions"`
	Duplicates            int64 `json:"duplicates"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		BytesRead:             s.BytesRead.Load(),
		ObjectsDiscovered:     s.ObjectsDiscovered.Load(),
		ObjectsGlobMatched:    s.ObjectsGlobMatched.Load(),
		ObjectsContentMatched: s.ObjectsContentMatched.Load(),
		FilesSkipped:          s.FilesSkipped.Load(),
		Errors:                s.Errors.Load(),
		Collisions:            s.Collisions.Load(),
		Duplicates:            s.Duplicates.Load(),
	}
}
