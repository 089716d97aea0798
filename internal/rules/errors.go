package rules

import (
	"errors"
	"fmt"
)

var ErrDecodeFailure = errors.New("failed to decode rules configuration")

// WrapDecodeFailure adds context to ErrDecodeFailure
func WrapDecodeFailure(err error) error {
	return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
}
