package texmap

import (
	"errors"
	"fmt"
)

// Contract violations reported by Blit. They are always wrapped in a
// *ContractError; use errors.Is to test for a specific one.
var (
	ErrInvalidDimensions   = errors.New("dimensions must be positive")
	ErrComponentCount      = errors.New("component count must be between 1 and 4")
	ErrByteCountMismatch   = errors.New("source byte count does not match width*height*components")
	ErrInvalidPolicy       = errors.New("invalid out-of-range policy")
	ErrOwnershipUnset      = errors.New("allocator did not signal buffer ownership")
	ErrDestinationTooSmall = errors.New("allocated destination buffer is too small")
)

// ContractError describes an invalid Blit request. No pixel work has been
// done when one is returned.
type ContractError struct {
	Field string
	Err   error
	// Detail is an optional human-readable elaboration (expected vs got).
	Detail string
}

func (e *ContractError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("texmap: %s: %v (%s)", e.Field, e.Err, e.Detail)
	}
	return fmt.Sprintf("texmap: %s: %v", e.Field, e.Err)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

func contractErr(field string, err error, detail string) *ContractError {
	return &ContractError{Field: field, Err: err, Detail: detail}
}
