package availability

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Haudass/westride/internal/model"
	"github.com/Haudass/westride/internal/repository"
)

var rideCols = []string{"id", "driver_id", "departure", "destination", "price_cents",
	"total_seats", "seats_remaining", "departure_time", "status", "created_at", "updated_at"}

var bookingCols = []string{"id", "passenger_id", "ride_id", "seats_booked", "status",
	"payment_status", "created_at", "updated_at"}

func newTestController(t *testing.T) (*Controller, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctl := NewController(db, repository.NewRideRepo(db), repository.NewBookingRepo(db))
	return ctl, mock
}

func rideRow(driverID uint64, total, remaining uint32, status string, departs time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(rideCols).
		AddRow(1, driverID, "Yerevan", "Gyumri", 2500, total, remaining, departs, status, now, now)
}

func bookingRow(id, passengerID uint64, seats uint32, status, pay string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(bookingCols).
		AddRow(id, passengerID, 1, seats, status, pay, now, now)
}

func TestReserveSeatsSuccess(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(rideRow(10, 4, 4, model.RideOpen, departs))
	mock.ExpectExec("UPDATE rides").
		WithArgs(uint32(2), uint64(1), model.RideOpen, uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(uint64(20), uint64(1), uint32(2), model.BookingConfirmed, model.PaymentPending).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("FROM bookings WHERE id = \\?").WithArgs(int64(7)).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingConfirmed, model.PaymentPending))
	mock.ExpectCommit()

	b, err := ctl.ReserveSeats(context.Background(), 1, 20, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(7), b.ID)
	require.Equal(t, model.BookingConfirmed, b.Status)
	require.Equal(t, uint32(2), b.SeatsBooked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsInsufficient(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(rideRow(10, 4, 1, model.RideOpen, departs))
	// Conditional update touches no rows: the race loser path.
	mock.ExpectExec("UPDATE rides").
		WithArgs(uint32(2), uint64(1), model.RideOpen, uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Re-read shows the ride still open, so the failure was seat count.
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(rideRow(10, 4, 1, model.RideOpen, departs))
	mock.ExpectRollback()

	_, err := ctl.ReserveSeats(context.Background(), 1, 20, 2)
	require.ErrorIs(t, err, repository.ErrInsufficientSeats)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsRideClosedMidway(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(rideRow(10, 4, 4, model.RideOpen, departs))
	mock.ExpectExec("UPDATE rides").
		WithArgs(uint32(2), uint64(1), model.RideOpen, uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Re-read shows the driver closed the ride between read and update.
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(rideRow(10, 4, 4, model.RideClosed, departs))
	mock.ExpectRollback()

	_, err := ctl.ReserveSeats(context.Background(), 1, 20, 2)
	require.ErrorIs(t, err, repository.ErrRideClosed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsRideNotOpen(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(rideRow(10, 4, 4, model.RideCancelled, departs))
	mock.ExpectRollback()

	_, err := ctl.ReserveSeats(context.Background(), 1, 20, 1)
	require.ErrorIs(t, err, repository.ErrRideClosed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsRideDeparted(t *testing.T) {
	ctl, mock := newTestController(t)
	departed := time.Now().UTC().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(rideRow(10, 4, 4, model.RideOpen, departed))
	mock.ExpectRollback()

	_, err := ctl.ReserveSeats(context.Background(), 1, 20, 1)
	require.ErrorIs(t, err, repository.ErrRideDeparted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsRideNotFound(t *testing.T) {
	ctl, mock := newTestController(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(99).
		WillReturnRows(sqlmock.NewRows(rideCols))
	mock.ExpectRollback()

	_, err := ctl.ReserveSeats(context.Background(), 99, 20, 1)
	require.ErrorIs(t, err, repository.ErrRideNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsDriverOwnRide(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(rideRow(10, 4, 4, model.RideOpen, departs))
	mock.ExpectRollback()

	_, err := ctl.ReserveSeats(context.Background(), 1, 10, 1)
	require.ErrorIs(t, err, repository.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatsZeroSeats(t *testing.T) {
	ctl, _ := newTestController(t)
	_, err := ctl.ReserveSeats(context.Background(), 1, 20, 0)
	require.ErrorIs(t, err, repository.ErrInvalidSeatCount)
}

func TestReserveSeatsInsertFailureRollsBack(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(rideRow(10, 4, 4, model.RideOpen, departs))
	mock.ExpectExec("UPDATE rides").
		WithArgs(uint32(2), uint64(1), model.RideOpen, uint32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnError(errors.New("connection lost"))
	// Seat decrement must not survive the failed insert.
	mock.ExpectRollback()

	_, err := ctl.ReserveSeats(context.Background(), 1, 20, 2)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingByPassenger(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).WithArgs(7).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingConfirmed, model.PaymentPending))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = ? FOR UPDATE")).WithArgs(uint64(1)).
		WillReturnRows(rideRow(10, 4, 2, model.RideOpen, departs))
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(model.BookingCancelled, model.PaymentPending, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("seats_remaining = seats_remaining + ?")).
		WithArgs(uint32(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM bookings WHERE id = \\?").WithArgs(uint64(7)).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingCancelled, model.PaymentPending))

	b, err := ctl.CancelBooking(context.Background(), 7, 20)
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, b.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingPaidBecomesRefunded(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).WithArgs(7).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingConfirmed, model.PaymentPaid))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = ? FOR UPDATE")).WithArgs(uint64(1)).
		WillReturnRows(rideRow(10, 4, 2, model.RideOpen, departs))
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(model.BookingCancelled, model.PaymentRefunded, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("seats_remaining = seats_remaining + ?")).
		WithArgs(uint32(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM bookings WHERE id = \\?").WithArgs(uint64(7)).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingCancelled, model.PaymentRefunded))

	b, err := ctl.CancelBooking(context.Background(), 7, 20)
	require.NoError(t, err)
	require.Equal(t, model.PaymentRefunded, b.PaymentStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).WithArgs(7).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingCancelled, model.PaymentRefunded))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = ? FOR UPDATE")).WithArgs(uint64(1)).
		WillReturnRows(rideRow(10, 4, 4, model.RideOpen, departs))
	// No seat credit may happen a second time.
	mock.ExpectRollback()

	_, err := ctl.CancelBooking(context.Background(), 7, 20)
	require.ErrorIs(t, err, repository.ErrAlreadyCancelled)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelBookingForbidden(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).WithArgs(7).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingConfirmed, model.PaymentPending))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = ? FOR UPDATE")).WithArgs(uint64(1)).
		WillReturnRows(rideRow(10, 4, 2, model.RideOpen, departs))
	mock.ExpectRollback()

	_, err := ctl.CancelBooking(context.Background(), 7, 55)
	require.ErrorIs(t, err, repository.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeBookingStatusInvalid(t *testing.T) {
	ctl, _ := newTestController(t)
	_, err := ctl.ChangeBookingStatus(context.Background(), 7, 10, "pending")
	require.ErrorIs(t, err, repository.ErrInvalidStatus)
}

func TestChangeBookingStatusDriverCancels(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).WithArgs(7).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingConfirmed, model.PaymentPending))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = ? FOR UPDATE")).WithArgs(uint64(1)).
		WillReturnRows(rideRow(10, 4, 2, model.RideOpen, departs))
	mock.ExpectExec("UPDATE bookings SET status").
		WithArgs(model.BookingCancelled, model.PaymentPending, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("seats_remaining = seats_remaining + ?")).
		WithArgs(uint32(2), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM bookings WHERE id = \\?").WithArgs(uint64(7)).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingCancelled, model.PaymentPending))

	b, err := ctl.ChangeBookingStatus(context.Background(), 7, 10, model.BookingCancelled)
	require.NoError(t, err)
	require.Equal(t, model.BookingCancelled, b.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeBookingStatusPassengerForbidden(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).WithArgs(7).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingConfirmed, model.PaymentPending))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = ? FOR UPDATE")).WithArgs(uint64(1)).
		WillReturnRows(rideRow(10, 4, 2, model.RideOpen, departs))
	mock.ExpectRollback()

	// The booking's own passenger may cancel via CancelBooking but may
	// not use the driver transition endpoint.
	_, err := ctl.ChangeBookingStatus(context.Background(), 7, 20, model.BookingCancelled)
	require.ErrorIs(t, err, repository.ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeBookingStatusNoOp(t *testing.T) {
	ctl, mock := newTestController(t)
	departs := time.Now().UTC().Add(24 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ? FOR UPDATE")).WithArgs(7).
		WillReturnRows(bookingRow(7, 20, 2, model.BookingConfirmed, model.PaymentPending))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rides WHERE id = ? FOR UPDATE")).WithArgs(uint64(1)).
		WillReturnRows(rideRow(10, 4, 2, model.RideOpen, departs))
	mock.ExpectCommit()

	b, err := ctl.ChangeBookingStatus(context.Background(), 7, 10, model.BookingConfirmed)
	require.NoError(t, err)
	require.Equal(t, model.BookingConfirmed, b.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
