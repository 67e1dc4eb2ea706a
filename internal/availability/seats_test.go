package availability

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Haudass/westride/internal/model"
	"github.com/Haudass/westride/internal/repository"
)

func TestSeatLedgerReserve(t *testing.T) {
	l := SeatLedger{Total: 4, Remaining: 4}

	l, err := l.Reserve(3)
	require.NoError(t, err)
	require.Equal(t, uint32(1), l.Remaining)
	require.Equal(t, uint32(3), l.Booked())

	_, err = l.Reserve(2)
	require.ErrorIs(t, err, repository.ErrInsufficientSeats)

	_, err = l.Reserve(0)
	require.ErrorIs(t, err, repository.ErrInvalidSeatCount)

	l, err = l.Reserve(1)
	require.NoError(t, err)
	require.Equal(t, uint32(0), l.Remaining)
}

func TestSeatLedgerRelease(t *testing.T) {
	l := SeatLedger{Total: 4, Remaining: 1}

	l, err := l.Release(2)
	require.NoError(t, err)
	require.Equal(t, uint32(3), l.Remaining)

	// Crediting more than is booked would make remaining exceed total.
	_, err = l.Release(2)
	require.ErrorIs(t, err, repository.ErrAlreadyCancelled)
}

// Any sequence of successful reserves and releases preserves
// remaining + booked == total.
func TestSeatLedgerConservation(t *testing.T) {
	l := SeatLedger{Total: 10, Remaining: 10}
	steps := []struct {
		reserve bool
		n       uint32
	}{
		{true, 3}, {true, 4}, {false, 2}, {true, 5}, {false, 1}, {false, 4},
	}
	for _, s := range steps {
		var err error
		if s.reserve {
			l, err = l.Reserve(s.n)
		} else {
			l, err = l.Release(s.n)
		}
		require.NoError(t, err)
		require.Equal(t, l.Total, l.Remaining+l.Booked())
		require.LessOrEqual(t, l.Remaining, l.Total)
	}
}

func TestSeatLedgerAdjustTotal(t *testing.T) {
	l := SeatLedger{Total: 5, Remaining: 2} // 3 booked

	grown, err := l.AdjustTotal(8)
	require.NoError(t, err)
	require.Equal(t, uint32(5), grown.Remaining)
	require.Equal(t, uint32(3), grown.Booked())

	shrunk, err := l.AdjustTotal(3)
	require.NoError(t, err)
	require.Equal(t, uint32(0), shrunk.Remaining)

	_, err = l.AdjustTotal(2)
	require.ErrorIs(t, err, repository.ErrInvalidSeatAdjustment)
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(model.BookingConfirmed, model.BookingCancelled))
	require.True(t, CanTransition(model.BookingConfirmed, model.BookingConfirmed))
	require.True(t, CanTransition(model.BookingCancelled, model.BookingCancelled))
	// Cancelled is terminal.
	require.False(t, CanTransition(model.BookingCancelled, model.BookingConfirmed))
	require.False(t, CanTransition(model.BookingConfirmed, "pending"))
}

func TestReleasesSeats(t *testing.T) {
	require.True(t, ReleasesSeats(model.BookingConfirmed, model.BookingCancelled))
	require.False(t, ReleasesSeats(model.BookingConfirmed, model.BookingConfirmed))
	require.False(t, ReleasesSeats(model.BookingCancelled, model.BookingCancelled))
}

func TestGuards(t *testing.T) {
	ride := model.Ride{ID: 1, DriverID: 10}
	booking := model.Booking{ID: 5, PassengerID: 20, RideID: 1}

	require.True(t, CanMutateRide(10, ride))
	require.False(t, CanMutateRide(20, ride))

	require.True(t, CanCancelBooking(20, booking, ride))  // passenger
	require.True(t, CanCancelBooking(10, booking, ride))  // driver
	require.False(t, CanCancelBooking(30, booking, ride)) // stranger

	require.True(t, CanChangeBookingStatus(10, ride))
	require.False(t, CanChangeBookingStatus(20, ride))

	require.True(t, CanViewBooking(20, booking, ride))
	require.True(t, CanViewBooking(10, booking, ride))
	require.False(t, CanViewBooking(30, booking, ride))
}
