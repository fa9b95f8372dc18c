// Package temporal implements interval-algebra comparisons over the normalized
// temporal extents of maps and datasets. Absolute timestamps are compared as
// Unix nanoseconds, relative time as raw integer offsets; both collapse into
// the same Extent representation.
package temporal

// Extent is a normalized temporal interval. An extent without an end time is a
// point in time and is treated as a degenerate interval where end == start.
type Extent struct {
	Start  int64
	End    int64
	HasEnd bool
}

// IsPoint reports whether the extent is an instant rather than a proper interval.
func (e Extent) IsPoint() bool { return !e.HasEnd }

// effectiveEnd returns the comparison end: the start itself for point extents.
func (e Extent) effectiveEnd() int64 {
	if !e.HasEnd {
		return e.Start
	}
	return e.End
}
