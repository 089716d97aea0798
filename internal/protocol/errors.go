package protocol

import (
	"errors"
	"fmt"
)

// ErrInvalidData is wrapped by every decode failure: wrong markers, unknown
// tags, truncated streams and malformed lengths.
var ErrInvalidData = errors.New("invalid analyzer protocol data")

// invalidData adds context to ErrInvalidData.
func invalidData(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}
