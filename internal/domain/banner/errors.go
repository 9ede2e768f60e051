package banner

import (
	"errors"
	"fmt"

	"bannerserver/internal/domain/layout"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrMalformedSuggestion = errors.New("malformed design suggestion")
	ErrInvalidSuggestion   = errors.New("invalid design suggestion")
	ErrInvalidTemplate     = layout.ErrInvalidTemplate
	ErrProviderFailure     = errors.New("provider failure")
	ErrBackgroundMissing   = errors.New("background image missing")
	ErrInvalidImage        = errors.New("invalid image payload")
)

// ValidationError names the offending field. Err is the category sentinel
// so callers can match with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }
