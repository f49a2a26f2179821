package errs

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound              Kind = "notFound"
	KindBookingConflict       Kind = "bookingConflict"
	KindInvalidInterval       Kind = "invalidInterval"
	KindStaleQuote            Kind = "staleQuote"
	KindDependencyUnavailable Kind = "dependencyUnavailable"
	// KindInvalidState is an operation the record's current status forbids,
	// such as confirming a cancelled booking.
	KindInvalidState Kind = "invalidState"
	KindInvalidInput Kind = "invalidInput"
)

// Error is the caller-facing error carried out of the booking core.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	// OverlappingBookingID is set on conflicts when the blocking booking is known.
	OverlappingBookingID string
	Err                  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, ErrSlotStoreBusy) works
// on wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Code == "" || e.Code == t.Code)
}

var (
	// ErrSlotStoreBusy is returned when the per-provider section could not be
	// entered before the reservation deadline.
	ErrSlotStoreBusy = &Error{Kind: KindDependencyUnavailable, Code: "slotStoreBusy", Message: "slot store busy"}
)

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Code: "notFound", Message: fmt.Sprintf(format, args...)}
}

func InvalidInterval(format string, args ...any) error {
	return &Error{Kind: KindInvalidInterval, Code: "invalidInterval", Message: fmt.Sprintf(format, args...)}
}

func Conflict(overlappingBookingID string) error {
	return &Error{
		Kind:                 KindBookingConflict,
		Code:                 "bookingConflict",
		Message:              "requested interval overlaps an existing booking",
		OverlappingBookingID: overlappingBookingID,
	}
}

func StaleQuote(format string, args ...any) error {
	return &Error{Kind: KindStaleQuote, Code: "staleQuote", Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Code: "invalidState", Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Code: "invalidInput", Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a failed collaborator call.
func Unavailable(dependency string, err error) error {
	return &Error{
		Kind:    KindDependencyUnavailable,
		Code:    "dependencyUnavailable",
		Message: dependency + " unavailable",
		Err:     err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ConflictingBooking returns the overlapping booking id of a conflict error.
func ConflictingBooking(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindBookingConflict {
		return e.OverlappingBookingID, true
	}
	return "", false
}
