// Package booking implements the availability and admission core of the
// reservation service: it decides whether a booking request may be
// admitted against the configured table inventory and guarantees that no
// (date, hour, party size) bucket is ever booked beyond its capacity,
// even under concurrent requests. It also authorizes cancellations.
//
// All failures are reported as typed errors defined in this file so that
// handlers can map them to HTTP responses. The package never panics on
// business-rule failures.
package booking

import (
	"errors"
	"fmt"
)

// ErrNoCapacity is returned when the requested bucket is fully booked.
// Handlers should translate this into an HTTP 409 response.
var ErrNoCapacity = errors.New("no tables available")

// ErrNotFound is returned when a reservation id does not exist.
var ErrNotFound = errors.New("reservation not found")

// ErrForbidden is returned when a standard user attempts to cancel a
// reservation owned by someone else. Handlers should translate this into
// an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// InvalidReason identifies which business rule a booking request broke.
// Each reason maps to a distinct user-facing message in the handler layer.
type InvalidReason int

const (
	ReasonMissingField InvalidReason = iota // required request field absent
	ReasonBadDate                           // unparseable, same-day or past date
	ReasonBadTime                           // hour outside the allowed set
	ReasonBadPartySize                      // party size not in the inventory
)

// ValidationError reports a business-rule failure with a specific reason.
// It is always recoverable: the user corrects the input and retries.
type ValidationError struct {
	Reason InvalidReason
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonMissingField:
		return "missing date or time"
	case ReasonBadDate:
		return "invalid date"
	case ReasonBadTime:
		return "invalid time"
	case ReasonBadPartySize:
		return "invalid count of guests"
	}
	return "invalid request"
}

// StorageError wraps a backend failure that survived one retry. The
// original error is available via errors.Unwrap.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// AsValidation returns the ValidationError inside err, if any.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsStorage reports whether err carries a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
