package temporal

import "testing"

func interval(start, end int64) Extent { return Extent{Start: start, End: end, HasEnd: true} }
func point(at int64) Extent            { return Extent{Start: at} }

func TestCompare(t *testing.T) {
	cases := []struct {
		name string
		a, b Extent
		want Relation
	}{
		{"equal intervals", interval(0, 10), interval(0, 10), RelationEqual},
		{"equal points", point(5), point(5), RelationEqual},
		{"starts", interval(0, 5), interval(0, 10), RelationStarts},
		{"finishes", interval(5, 10), interval(0, 10), RelationFinishes},
		{"during", interval(3, 7), interval(0, 10), RelationDuring},
		{"contains", interval(0, 10), interval(3, 7), RelationContains},
		{"contains with shared start", interval(0, 10), interval(0, 5), RelationContains},
		{"contains with shared end", interval(0, 10), interval(5, 10), RelationContains},
		{"overlaps", interval(0, 6), interval(4, 10), RelationOverlaps},
		{"overlapped", interval(4, 10), interval(0, 6), RelationOverlapped},
		{"meets", interval(0, 5), interval(5, 10), RelationMeets},
		{"met", interval(5, 10), interval(0, 5), RelationMet},
		{"before", interval(0, 4), interval(5, 10), RelationBefore},
		{"after", interval(5, 10), interval(0, 4), RelationAfter},
		{"point during interval", point(5), interval(0, 10), RelationDuring},
		{"interval contains point", interval(0, 10), point(5), RelationContains},
		{"point at interval start", point(0), interval(0, 10), RelationStarts},
		{"point at interval end", point(10), interval(0, 10), RelationFinishes},
		{"point before point", point(1), point(2), RelationBefore},
		{"point after point", point(2), point(1), RelationAfter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compare(tc.a, tc.b); got != tc.want {
				t.Fatalf("Compare(%+v, %+v) = %q, want %q", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

// Each asymmetric relation must flip to its converse when the arguments swap.
func TestCompareConverses(t *testing.T) {
	converse := map[Relation]Relation{
		RelationEqual:      RelationEqual,
		RelationStarts:     RelationContains,
		RelationFinishes:   RelationContains,
		RelationDuring:     RelationContains,
		RelationOverlaps:   RelationOverlapped,
		RelationOverlapped: RelationOverlaps,
		RelationMeets:      RelationMet,
		RelationMet:        RelationMeets,
		RelationBefore:     RelationAfter,
		RelationAfter:      RelationBefore,
	}
	pairs := []struct{ a, b Extent }{
		{interval(0, 10), interval(0, 10)},
		{interval(0, 5), interval(0, 10)},
		{interval(5, 10), interval(0, 10)},
		{interval(3, 7), interval(0, 10)},
		{interval(0, 6), interval(4, 10)},
		{interval(0, 5), interval(5, 10)},
		{interval(0, 4), interval(5, 10)},
		{point(3), interval(0, 10)},
		{point(1), point(2)},
	}
	for _, p := range pairs {
		fwd := Compare(p.a, p.b)
		rev := Compare(p.b, p.a)
		want, ok := converse[fwd]
		if !ok {
			t.Fatalf("Compare(%+v, %+v) = %q has no converse entry", p.a, p.b, fwd)
		}
		if rev != want {
			t.Errorf("Compare(%+v, %+v) = %q but reverse = %q, want %q", p.a, p.b, fwd, rev, want)
		}
	}
}

func TestLegacyAliases(t *testing.T) {
	if RelationFollows != RelationMet || RelationPrecedes != RelationMeets {
		t.Fatalf("legacy aliases drifted")
	}
}
