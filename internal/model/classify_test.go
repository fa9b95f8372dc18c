package model

import "testing"

func TestClassify(t *testing.T) {
	e := func(v int64) *int64 { return &v }

	cases := []struct {
		name     string
		maxEnd   *int64
		maxStart int64
		want     MapTime
	}{
		{"no member ends", nil, 100, MapTimePoint},
		{"end covers latest start", e(200), 100, MapTimeInterval},
		{"end equals latest start", e(100), 100, MapTimeInterval},
		{"instant past latest end", e(50), 100, MapTimeMixed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.maxEnd, tc.maxStart); got != tc.want {
				t.Fatalf("Classify(%v, %d) = %s, want %s", tc.maxEnd, tc.maxStart, got, tc.want)
			}
		})
	}
}

// Classification is a pure function of the member aggregates, so feeding the
// derived end of one pass back in as an aggregate never changes the answer.
func TestClassifyStableAcrossPasses(t *testing.T) {
	// Point dataset: derived end is the max start.
	if got := Classify(nil, 100); got != MapTimePoint {
		t.Fatalf("first pass: %s", got)
	}
	if got := Classify(nil, 100); got != MapTimePoint {
		t.Fatalf("second pass: %s", got)
	}
}
