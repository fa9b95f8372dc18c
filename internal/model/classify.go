package model

// Classify derives the time-type classification for a non-empty dataset from
// member aggregates (Unix nanoseconds for absolute time, raw offsets for
// relative time). The effective end is always re-derived from the members, so
// repeated refreshes over unchanged membership reach the same answer.
//
// No member carries an end time: every member is an instant and the dataset is
// point-typed, displaying the maximum member start as its end. A maximum member
// end earlier than the maximum member start means an instant lies beyond the
// last interval: the dataset is mixed and the end is replaced by that maximum
// start. An end equal to the maximum start still covers it and classifies as
// interval.
func Classify(maxEnd *int64, maxStart int64) MapTime {
	if maxEnd == nil {
		return MapTimePoint
	}
	if *maxEnd < maxStart {
		return MapTimeMixed
	}
	return MapTimeInterval
}
