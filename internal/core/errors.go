package core

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors so callers can map them to a transport
// status without string matching.
type Kind int

const (
	// KindValidation marks malformed or out-of-range input. Client-correctable.
	KindValidation Kind = iota + 1
	// KindConflict marks an operation that is invalid for the entity's
	// current state (paying a completed plan, executing a paused definition).
	KindConflict
	// KindNotFound marks a missing referenced entity.
	KindNotFound
	// KindInvariant marks an internal arithmetic or state invariant violation.
	// Surfacing one of these is a logic bug, not a user error.
	KindInvariant
)

// Error is the typed error returned by every engine operation.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is lets errors.Is match any two sentinel errors of the same identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.Kind == t.Kind && e.Message == t.Message)
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Invariantf(format string, args ...any) *Error {
	return &Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from an error chain, or 0 when the chain carries
// no engine error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Named failures referenced across the engines. Kept as sentinels so both
// services and tests can errors.Is against them.
var (
	ErrNotActive               = &Error{Kind: KindConflict, Message: "recurring definition is not active"}
	ErrOutOfWindow             = &Error{Kind: KindConflict, Message: "date is outside the definition's start/end window"}
	ErrNoRemainingInstallments = &Error{Kind: KindConflict, Message: "all installments have been paid"}
	ErrPlanActive              = &Error{Kind: KindConflict, Message: "active installment plan cannot be deleted, cancel it first"}
	ErrAlreadyGenerated        = &Error{Kind: KindConflict, Message: "statement already exists for this billing cycle"}
	ErrCycleNotClosed          = &Error{Kind: KindConflict, Message: "billing cycle has not ended yet"}
	ErrInvalidAmount           = &Error{Kind: KindValidation, Message: "invalid amount"}
)
