package store

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/mwort/grass/internal/model"
)

// identRx matches the only shape of identifier we ever interpolate into DDL or
// DML. Register table names are generated internally, never taken from callers,
// but every name is still validated before substitution.
var identRx = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateIdent rejects identifiers that are unsafe to interpolate into SQL.
func ValidateIdent(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier: %w", model.ErrValidation)
	}
	if len(name) > 128 || !identRx.MatchString(name) {
		return fmt.Errorf("invalid identifier %q: %w", name, model.ErrValidation)
	}
	return nil
}

// sanitizeIdent lowercases s and folds every run of characters outside
// [a-z0-9_] into a single underscore, so record ids like "tempmean@climate"
// yield usable table-name fragments.
func sanitizeIdent(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !ok {
			r = '_'
		}
		if r == '_' && lastUnderscore {
			continue
		}
		lastUnderscore = r == '_'
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), "_")
}

// DatasetRegisterName returns the deterministic name of the dataset-side
// junction table: <name>_<mapset>_<map kind>_register.
func DatasetRegisterName(d *model.Dataset) (string, error) {
	name := fmt.Sprintf("%s_%s_%s_register",
		sanitizeIdent(d.ID), sanitizeIdent(d.Mapset), d.Kind.MapKind())
	if err := ValidateIdent(name); err != nil {
		return "", err
	}
	return name, nil
}

// MapRegisterName returns a fresh, collision-resistant name for the map-side
// junction table: map_<random suffix>_<dataset kind>_register. The table is
// shared across every dataset of that kind the map is registered to.
func MapRegisterName(kind model.DatasetKind) (string, error) {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")
	name := fmt.Sprintf("map_%s_%s_register", suffix, kind)
	if err := ValidateIdent(name); err != nil {
		return "", err
	}
	return name, nil
}

// TimeColumns returns the live start/end column pair for a temporal type.
// Absolute and relative values occupy distinct columns in the catalog tables so
// one schema serves both modes.
func TimeColumns(tt model.TemporalType) (start, end string) {
	if tt == model.TemporalRelative {
		return "start_offset", "end_offset"
	}
	return "start_time", "end_time"
}

// OrderClause maps a validated member sort key onto an ORDER BY expression for
// the temporal type's live columns. Sort keys never reach SQL as raw caller
// strings.
func OrderClause(tt model.TemporalType, o model.MemberOrder) (string, error) {
	start, end := TimeColumns(tt)
	switch o {
	case "", model.OrderStartAsc:
		return start + " ASC", nil
	case model.OrderStartDesc:
		return start + " DESC", nil
	case model.OrderEndAsc:
		return end + " ASC", nil
	case model.OrderEndDesc:
		return end + " DESC", nil
	}
	return "", fmt.Errorf("unknown member order %q: %w", o, model.ErrValidation)
}

// RegisterTableDDL builds the CREATE TABLE statement for a junction table.
// Columns follow the owning entity's temporal type: timestampType (the driver's
// timestamp column type) plus a timezone column for absolute time, BIGINT
// offsets for relative time. The id primary key carries the uniqueness
// invariant: one row per (dataset, map) pair, and a concurrent duplicate insert
// surfaces as a constraint violation instead of a second row.
func RegisterTableDDL(table string, tt model.TemporalType, timestampType string) (string, error) {
	if err := ValidateIdent(table); err != nil {
		return "", err
	}
	if tt == model.TemporalRelative {
		return fmt.Sprintf(`CREATE TABLE %s (
    id TEXT PRIMARY KEY,
    start_time BIGINT,
    end_time BIGINT
)`, table), nil
	}
	return fmt.Sprintf(`CREATE TABLE %s (
    id TEXT PRIMARY KEY,
    start_time %[2]s,
    end_time %[2]s,
    timezone TEXT
)`, table, timestampType), nil
}
