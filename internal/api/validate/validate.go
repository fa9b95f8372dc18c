package validate

import (
	"fmt"
	"regexp"
)

// nameRx matches map, dataset and mapset names: a letter followed by letters,
// digits, underscores or dots. Dots and mixed case are folded away before the
// names ever become table-name fragments.
var nameRx = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)

// Name validates a record or mapset name.
func Name(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(v) > 100 {
		return fmt.Errorf("%s exceeds 100 characters", field)
	}
	if !nameRx.MatchString(v) {
		return fmt.Errorf("%s contains invalid characters; allowed letters, digits, underscore, dot", field)
	}
	return nil
}

// NonEmpty rejects the empty string for a required field.
func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// MaxLen bounds an optional string field.
func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}
