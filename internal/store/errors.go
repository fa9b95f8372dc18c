package store

import (
	"errors"

	"github.com/mwort/grass/internal/model"
)

// IsNotFound reports whether err wraps model.ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, model.ErrNotFound) }

// IsValidation reports whether err wraps model.ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, model.ErrValidation) }

// IsConflict reports whether err wraps model.ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, model.ErrConflict) }
