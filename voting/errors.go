package voting

import (
	"errors"
	"fmt"
)

const Codespace = "ballot"

var (
	ErrDuplicateCreation    = errors.New("duplicate creation")
	ErrNotFound             = errors.New("not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrDeadlinePassed       = errors.New("deadline passed")
	ErrDeadlineNotYetPassed = errors.New("deadline not yet passed")
	ErrCountMismatch        = errors.New("count mismatch")
	ErrAddressMismatch      = errors.New("address mismatch")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrInvalidRecord        = errors.New("invalid record")
)

// Result codes, stable across releases. 0 is success and 1 is reserved for
// failures outside the engine.
const (
	CodeOK uint32 = iota
	CodeInternal
	CodeDuplicateCreation
	CodeNotFound
	CodeUnauthorized
	CodeDeadlinePassed
	CodeDeadlineNotYetPassed
	CodeCountMismatch
	CodeAddressMismatch
	CodeCapacityExceeded
	CodeInvalidRecord
)

var kindCodes = []struct {
	kind error
	code uint32
}{
	{ErrDuplicateCreation, CodeDuplicateCreation},
	{ErrNotFound, CodeNotFound},
	{ErrUnauthorized, CodeUnauthorized},
	{ErrDeadlinePassed, CodeDeadlinePassed},
	{ErrDeadlineNotYetPassed, CodeDeadlineNotYetPassed},
	{ErrCountMismatch, CodeCountMismatch},
	{ErrAddressMismatch, CodeAddressMismatch},
	{ErrCapacityExceeded, CodeCapacityExceeded},
	{ErrInvalidRecord, CodeInvalidRecord},
}

// Error is returned by every failing engine operation. Kind is one of the
// sentinels above and Cause, when set, is the underlying failure.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func newError(kind error, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func (e *Error) Code() uint32 {
	return Code(e.Kind)
}

// Code maps err to its result code. The first matching kind wins.
func Code(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		err = e.Kind
	}
	for _, kc := range kindCodes {
		if errors.Is(err, kc.kind) {
			return kc.code
		}
	}
	return CodeInternal
}
