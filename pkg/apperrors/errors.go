package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidContainer = errors.New("invalid container name")
	ErrInvalidDatabase  = errors.New("invalid database name")
	ErrInvalidField     = errors.New("invalid document field")
)

// TransferPartialError reports a transfer where the destination write
// succeeded but the source delete did not. The document now exists in both
// containers and needs manual reconciliation; callers must surface this
// distinctly from total failure.
type TransferPartialError struct {
	SourceContainer string
	TargetContainer string
	SourceID        string
	TargetID        string
	Cause           error
}

func (e *TransferPartialError) Error() string {
	return fmt.Sprintf("document transferred to %s as %s but source cleanup in %s failed: %v",
		e.TargetContainer, e.TargetID, e.SourceContainer, e.Cause)
}

func (e *TransferPartialError) Unwrap() error {
	return e.Cause
}

// IsPartialTransfer reports whether err is a partial transfer outcome.
func IsPartialTransfer(err error) bool {
	var pe *TransferPartialError
	return errors.As(err, &pe)
}
