package crud

import (
	"errors"
	"fmt"
)

// ErrImproperlyConfigured reports a view whose configuration cannot serve the request.
// It is a programming error and surfaces as a 500.
var ErrImproperlyConfigured = errors.New("improperly configured")

func improperlyConfigured(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrImproperlyConfigured, fmt.Sprintf(format, args...))
}
