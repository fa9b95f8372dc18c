package model

import (
	"time"

	"github.com/mwort/grass/internal/temporal"
)

// TemporalType selects how a dataset or map expresses time.
type TemporalType string

const (
	// TemporalAbsolute uses calendar timestamps with an optional time zone.
	TemporalAbsolute TemporalType = "absolute"
	// TemporalRelative uses integer offsets from a dataset-defined origin.
	TemporalRelative TemporalType = "relative"
)

// Valid reports whether t is a known temporal type.
func (t TemporalType) Valid() bool {
	return t == TemporalAbsolute || t == TemporalRelative
}

// MapTime classifies the members of a dataset: instants, proper intervals,
// or a mixture. It is unset while the dataset is empty.
type MapTime string

const (
	MapTimePoint    MapTime = "point"
	MapTimeInterval MapTime = "interval"
	MapTimeMixed    MapTime = "mixed"
)

// MapKind identifies the record kind of an individual map.
type MapKind string

const (
	KindRaster   MapKind = "raster"
	KindRaster3D MapKind = "raster3d"
	KindVector   MapKind = "vector"
)

// DatasetKind identifies a space-time dataset series type.
type DatasetKind string

const (
	KindSTRDS  DatasetKind = "strds"  // space-time raster dataset
	KindSTR3DS DatasetKind = "str3ds" // space-time 3D raster dataset
	KindSTVDS  DatasetKind = "stvds"  // space-time vector dataset
)

// MapKind returns the member kind a dataset of this kind registers.
func (k DatasetKind) MapKind() MapKind {
	switch k {
	case KindSTR3DS:
		return KindRaster3D
	case KindSTVDS:
		return KindVector
	default:
		return KindRaster
	}
}

// Valid reports whether k is a known dataset kind.
func (k DatasetKind) Valid() bool {
	return k == KindSTRDS || k == KindSTR3DS || k == KindSTVDS
}

// Dataset is a named, typed group of time-stamped maps (a space-time dataset).
// Start/End carry absolute time, StartOffset/EndOffset relative time; which pair
// is live follows TemporalType. MapRegister is nil until the first registration.
type Dataset struct {
	ID           string       `json:"id"`
	Mapset       string       `json:"mapset"`
	Kind         DatasetKind  `json:"kind"`
	TemporalType TemporalType `json:"temporalType"`
	SemanticType string       `json:"semanticType,omitempty"`
	Title        *string      `json:"title,omitempty"`
	Description  *string      `json:"description,omitempty"`
	Granularity  *string      `json:"granularity,omitempty"`
	MapRegister  *string      `json:"mapRegister,omitempty"`
	Start        *time.Time   `json:"startTime,omitempty"`
	End          *time.Time   `json:"endTime,omitempty"`
	StartOffset  *int64       `json:"startOffset,omitempty"`
	EndOffset    *int64       `json:"endOffset,omitempty"`
	TimeZone     *string      `json:"timeZone,omitempty"`
	MapCount     int          `json:"mapCount"`
	MapTime      *MapTime     `json:"mapTime,omitempty"`
	CreationTime time.Time    `json:"creationTime"`
}

// Reset returns the dataset handle to an unbound state after teardown.
func (d *Dataset) Reset() {
	*d = Dataset{}
}

// Map is an individual time-stamped record eligible for registration into
// datasets. DatasetRegister names the map-side junction table shared across all
// datasets of the same kind this map belongs to; nil until first registration.
type Map struct {
	ID              string       `json:"id"`
	Mapset          string       `json:"mapset"`
	Kind            MapKind      `json:"kind"`
	TemporalType    TemporalType `json:"temporalType"`
	DatasetRegister *string      `json:"datasetRegister,omitempty"`
	Start           *time.Time   `json:"startTime,omitempty"`
	End             *time.Time   `json:"endTime,omitempty"`
	StartOffset     *int64       `json:"startOffset,omitempty"`
	EndOffset       *int64       `json:"endOffset,omitempty"`
	TimeZone        *string      `json:"timeZone,omitempty"`
	CreationTime    time.Time    `json:"creationTime"`
}

// HasValidTime reports whether the map carries a resolvable temporal value for
// its temporal type. Maps without one cannot be registered.
func (m *Map) HasValidTime() bool {
	switch m.TemporalType {
	case TemporalAbsolute:
		return m.Start != nil
	case TemporalRelative:
		return m.StartOffset != nil
	}
	return false
}

// Extent normalizes the map's temporal value for interval-algebra comparison.
// Absolute timestamps map to Unix nanoseconds, relative offsets pass through.
// Maps without an end time become degenerate point extents.
func (m *Map) Extent() temporal.Extent {
	e := temporal.Extent{}
	if m.TemporalType == TemporalRelative {
		if m.StartOffset != nil {
			e.Start = *m.StartOffset
		}
		if m.EndOffset != nil {
			e.End = *m.EndOffset
			e.HasEnd = true
		}
		return e
	}
	if m.Start != nil {
		e.Start = m.Start.UnixNano()
	}
	if m.End != nil {
		e.End = m.End.UnixNano()
		e.HasEnd = true
	}
	return e
}

// MemberOrder is a validated sort key for member listings.
type MemberOrder string

const (
	OrderStartAsc  MemberOrder = "start"
	OrderStartDesc MemberOrder = "start_desc"
	OrderEndAsc    MemberOrder = "end"
	OrderEndDesc   MemberOrder = "end_desc"
)

// Valid reports whether o is a known sort key. The empty order defaults to
// start time ascending.
func (o MemberOrder) Valid() bool {
	switch o {
	case "", OrderStartAsc, OrderStartDesc, OrderEndAsc, OrderEndDesc:
		return true
	}
	return false
}

// ListMembersRequest captures filters used when listing a dataset's members.
// Before/After bound the member start time (absolute mode); BeforeOffset and
// AfterOffset are their relative-mode counterparts.
type ListMembersRequest struct {
	Mapset       string
	DatasetID    string
	Before       *time.Time
	After        *time.Time
	BeforeOffset *int64
	AfterOffset  *int64
	Order        MemberOrder
	Limit        int
}

// RelationMatrix is the full pairwise temporal-relation table over a dataset's
// members ordered by start time. Relations[i][j] holds the relation of member
// IDs[i] to member IDs[j]; the diagonal is always "equal".
type RelationMatrix struct {
	IDs       []string              `json:"ids"`
	Relations [][]temporal.Relation `json:"relations"`
}
