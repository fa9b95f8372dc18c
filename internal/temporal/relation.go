package temporal

// Relation is the temporal relation of one extent to another.
type Relation string

const (
	RelationEqual      Relation = "equal"
	RelationStarts     Relation = "starts"
	RelationFinishes   Relation = "finishes"
	RelationDuring     Relation = "during"
	RelationContains   Relation = "contains"
	RelationOverlaps   Relation = "overlaps"
	RelationOverlapped Relation = "overlapped"
	RelationMeets      Relation = "meets"
	RelationMet        Relation = "met"
	RelationBefore     Relation = "before"
	RelationAfter      Relation = "after"

	// Legacy names for the boundary-touch relations: A follows B when A starts
	// exactly where B ends, A precedes B when A ends exactly where B starts.
	RelationFollows  = RelationMet
	RelationPrecedes = RelationMeets
)

// Compare returns the relation of a to b. The checks are ordered so that every
// pair of extents lands on exactly one relation; the equal-start and equal-end
// superset cases classify as contains.
func Compare(a, b Extent) Relation {
	sa, ea := a.Start, a.effectiveEnd()
	sb, eb := b.Start, b.effectiveEnd()

	switch {
	case sa == sb && ea == eb:
		return RelationEqual
	case sa == sb && ea < eb:
		return RelationStarts
	case ea == eb && sa > sb:
		return RelationFinishes
	case sa >= sb && ea <= eb:
		return RelationDuring
	case sa <= sb && ea >= eb:
		return RelationContains
	case sa < sb && ea > sb && ea < eb:
		return RelationOverlaps
	case sa > sb && sa < eb && ea > eb:
		return RelationOverlapped
	case ea == sb:
		return RelationMeets
	case sa == eb:
		return RelationMet
	case ea < sb:
		return RelationBefore
	}
	return RelationAfter
}
