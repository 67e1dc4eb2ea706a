// Package repository defines error types that are reused across multiple
// repositories and by the availability controller. These sentinel values
// allow higher layers such as handlers to distinguish between different
// failure scenarios: a caller must be able to tell "seats unavailable"
// apart from "server broken". Handlers translate each sentinel into the
// matching HTTP status.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrInsufficientSeats is returned when a reservation requests more
// seats than the ride has remaining. The check-and-decrement is atomic,
// so this error guarantees nothing was booked.
var ErrInsufficientSeats = errors.New("insufficient seats")

// ErrRideClosed is returned when a reservation targets a ride whose
// status is not open (closed or cancelled).
var ErrRideClosed = errors.New("ride is not open for booking")

// ErrRideDeparted is returned when a reservation targets a ride whose
// departure time has already passed.
var ErrRideDeparted = errors.New("ride has already departed")

// ErrAlreadyCancelled is returned when a cancellation targets a booking
// that is already cancelled. The seats of a cancelled booking were
// credited back exactly once; re-cancelling must not credit them again.
var ErrAlreadyCancelled = errors.New("booking already cancelled")

// ErrInvalidSeatAdjustment is returned when a ride update would lower
// total_seats below the number of seats currently held by confirmed
// bookings.
var ErrInvalidSeatAdjustment = errors.New("total seats below booked seats")

// ErrHasActiveBookings is returned when a ride delete or cancel is
// blocked because confirmed bookings still reference the ride.
var ErrHasActiveBookings = errors.New("ride has active bookings")

// ErrInvalidSeatCount is returned when a reservation requests zero
// seats. Handlers should translate this into an HTTP 400 response.
var ErrInvalidSeatCount = errors.New("seat count must be positive")

// ErrInvalidStatus is returned when a status transition names an
// unknown target state.
var ErrInvalidStatus = errors.New("invalid status")
