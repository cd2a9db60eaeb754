// Package apperr carries the error taxonomy shared by every layer: a small
// kinded error type so the HTTP boundary can map failures to status codes
// without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation covers malformed input: bad JSON, out-of-range
	// recurrence fields, unknown timezones, end before start.
	KindValidation
	// KindNotFound is a missing row on get/update/delete paths.
	KindNotFound
	// KindStore is RelStore infrastructure failure.
	KindStore
	// KindCalendar is CalStore failure after retry exhaustion, XML parse
	// failure or a malformed VEVENT.
	KindCalendar
	// KindInvariant means the two stores disagree about an event's
	// existence. Fatal for the current operation.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not-found"
	case KindStore:
		return "store"
	case KindCalendar:
		return "calendar"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on kind sentinels produced by New.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to err. A nil err yields nil. If err already carries
// a kind it is preserved, so wrapping at layer boundaries never launders a
// validation failure into an infrastructure one.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if k := KindOf(err); k != KindUnknown {
		kind = k
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Invariant(format string, args ...any) *Error {
	return New(KindInvariant, format, args...)
}

// KindOf reports the kind of the first kinded error in err's chain,
// KindUnknown if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
