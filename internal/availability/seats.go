// Package availability implements the seat-inventory core of the
// service: every reservation and release of seats on a ride goes
// through this package, which guarantees that for any ride
//
//	seats_remaining + sum(seats_booked of confirmed bookings) == total_seats
//
// holds after every completed operation, and that concurrent
// reservations on the same ride serialize so the count never goes
// negative or double-allocates.
package availability

import (
	"github.com/Haudass/westride/internal/model"
	"github.com/Haudass/westride/internal/repository"
)

// SeatLedger is the pure seat arithmetic of a single ride. It exists so
// the inventory rules can be checked without a database; the controller
// enforces the same rules through conditional updates and row locks.
type SeatLedger struct {
	Total     uint32
	Remaining uint32
}

// Booked returns the number of seats held by confirmed bookings.
func (l SeatLedger) Booked() uint32 {
	return l.Total - l.Remaining
}

// Reserve claims n seats. It fails with ErrInvalidSeatCount for n == 0
// and ErrInsufficientSeats when fewer than n seats remain.
func (l SeatLedger) Reserve(n uint32) (SeatLedger, error) {
	if n == 0 {
		return l, repository.ErrInvalidSeatCount
	}
	if n > l.Remaining {
		return l, repository.ErrInsufficientSeats
	}
	l.Remaining -= n
	return l, nil
}

// Release credits n seats back after a cancellation. Crediting more
// seats than are booked would break the conservation invariant, so it
// fails with ErrAlreadyCancelled — the only way to get here is a repeat
// release of the same booking.
func (l SeatLedger) Release(n uint32) (SeatLedger, error) {
	if n > l.Booked() {
		return l, repository.ErrAlreadyCancelled
	}
	l.Remaining += n
	return l, nil
}

// AdjustTotal changes the capacity of the ride, keeping booked seats
// intact. It fails with ErrInvalidSeatAdjustment when the new total
// would not cover the seats already booked.
func (l SeatLedger) AdjustTotal(newTotal uint32) (SeatLedger, error) {
	booked := l.Booked()
	if newTotal < booked {
		return l, repository.ErrInvalidSeatAdjustment
	}
	return SeatLedger{Total: newTotal, Remaining: newTotal - booked}, nil
}

// CanTransition reports whether a booking may move from one status to
// the other. Confirmed bookings may be cancelled; cancelled is terminal
// and rebooking requires a new booking.
func CanTransition(from, to string) bool {
	switch {
	case from == model.BookingConfirmed && to == model.BookingCancelled:
		return true
	case from == to:
		return true // no-op transition
	default:
		return false
	}
}

// ReleasesSeats reports whether a transition returns the booking's
// seats to the ride.
func ReleasesSeats(from, to string) bool {
	return from == model.BookingConfirmed && to == model.BookingCancelled
}
