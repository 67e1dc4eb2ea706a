package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Haudass/westride/internal/model"
)

var bookingCols = []string{"id", "passenger_id", "ride_id", "seats_booked", "status",
	"payment_status", "created_at", "updated_at"}

func newBookingRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookingRepo(db), mock
}

func TestBookingGetByIDNotFound(t *testing.T) {
	repo, mock := newBookingRepo(t)
	mock.ExpectQuery("FROM bookings WHERE id = \\?").WithArgs(42).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	_, err := repo.GetByID(context.Background(), 42)
	require.ErrorIs(t, err, ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRideForDriverOwnership(t *testing.T) {
	repo, mock := newBookingRepo(t)

	// Ride exists but belongs to another driver.
	mock.ExpectQuery("SELECT driver_id FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"driver_id"}).AddRow(10))

	_, err := repo.ListByRideForDriver(context.Background(), 1, 99)
	require.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRideForDriverMissingRide(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectQuery("SELECT driver_id FROM rides WHERE id = \\?").WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"driver_id"}))

	_, err := repo.ListByRideForDriver(context.Background(), 404, 10)
	require.ErrorIs(t, err, ErrRideNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByRideForDriverManifest(t *testing.T) {
	repo, mock := newBookingRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT driver_id FROM rides WHERE id = \\?").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"driver_id"}).AddRow(10))
	mock.ExpectQuery("FROM bookings b").WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "passenger_id", "name", "phone", "seats_booked", "status", "payment_status", "created_at",
		}).
			AddRow(5, 20, "Ani", "+37491000000", 2, model.BookingConfirmed, model.PaymentPending, now).
			AddRow(6, 21, "Vahe", "+37493000000", 1, model.BookingCancelled, model.PaymentRefunded, now))

	out, err := repo.ListByRideForDriver(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "Ani", out[0].PassengerName)
	require.Equal(t, uint32(2), out[0].SeatsBooked)
	require.Equal(t, model.BookingCancelled, out[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByPassenger(t *testing.T) {
	repo, mock := newBookingRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM bookings b").WithArgs(uint64(20)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "ride_id", "seats_booked", "status", "payment_status",
			"departure", "destination", "price_cents", "departure_time", "name", "created_at",
		}).AddRow(5, 1, 2, model.BookingConfirmed, model.PaymentPending,
			"Yerevan", "Gyumri", 2500, now.Add(24*time.Hour), "Karen", now))

	out, err := repo.ListByPassenger(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Karen", out[0].DriverName)
	require.Equal(t, "Gyumri", out[0].Destination)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDetailNotFound(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectQuery("FROM bookings b").WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetDetail(context.Background(), 77)
	require.ErrorIs(t, err, ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
