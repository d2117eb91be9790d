package timeline

import "sort"

// IndexedInterval is one entity's active window on the shared tick timeline.
// Half-open semantics: the entity is active at Start and inactive exactly at End
type IndexedInterval struct {
	ID    string
	Start int64
	End   int64 // exclusive, must be > Start
}

// Index is a pre-sorted interval index answering point-containment queries.
// Built once per entity-set change, read-only afterwards; rebuilt wholesale,
// never mutated incrementally
type Index struct {
	intervals []IndexedInterval // ascending by Start
	maxSpan   int64
}

// NewIndex creates an empty index. FindActive on an empty index returns nil
func NewIndex() *Index {
	return &Index{}
}

// Build replaces the index contents with a sorted copy of intervals and
// recomputes the maximum span. O(n log n). Safe to call repeatedly
func (ix *Index) Build(intervals []IndexedInterval) {
	sorted := make([]IndexedInterval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var maxSpan int64
	for _, iv := range sorted {
		if span := iv.End - iv.Start; span > maxSpan {
			maxSpan = span
		}
	}

	ix.intervals = sorted
	ix.maxSpan = maxSpan
}

// FindActive returns the ids of all intervals containing point
// (Start <= point < End). O(log n + k) where k is the number of candidates
// within maxSpan of point. Result order is unspecified; callers must not
// depend on it
func (ix *Index) FindActive(point int64) []string {
	return ix.FindActiveInto(point, nil)
}

// FindActiveInto is FindActive appending into out to allow buffer reuse on
// the per-frame hot path
func (ix *Index) FindActiveInto(point int64, out []string) []string {
	if len(ix.intervals) == 0 {
		return out
	}

	// Upper bound: first index whose Start is strictly past the query point.
	// Everything at or after it starts in the future and cannot be active
	hi := sort.Search(len(ix.intervals), func(i int) bool {
		return ix.intervals[i].Start > point
	})

	// Scan backward from the upper bound. No interval starting earlier than
	// point-maxSpan can still cover point, so the scan terminates early.
	// Chords (shared Start) are contiguous after sorting and fall out of the
	// same pass
	cutoff := point - ix.maxSpan
	for j := hi - 1; j >= 0; j-- {
		iv := &ix.intervals[j]
		if iv.Start < cutoff {
			break
		}
		if point < iv.End {
			out = append(out, iv.ID)
		}
	}
	return out
}

// Len returns the number of indexed intervals
func (ix *Index) Len() int {
	return len(ix.intervals)
}

// MaxSpan returns the widest interval span, 0 when empty
func (ix *Index) MaxSpan() int64 {
	return ix.maxSpan
}

// Clear drops the interval storage for reclamation
func (ix *Index) Clear() {
	ix.intervals = nil
	ix.maxSpan = 0
}
