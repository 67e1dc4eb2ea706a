package availability

import (
	"context"
	"database/sql"
	"time"

	"github.com/Haudass/westride/internal/model"
	"github.com/Haudass/westride/internal/repository"
)

// Controller mediates every seat reservation and release against the
// ride inventory. All mutations run in a single transaction against the
// injected handle: the seat decrement and the booking insert commit
// together or not at all. Concurrent reservations on one ride serialize
// through a conditional UPDATE on the ride row; cancellations take an
// explicit row lock before crediting seats back.
type Controller struct {
	db       *sql.DB
	rides    *repository.RideRepo
	bookings *repository.BookingRepo
}

// NewController constructs a Controller. All dependencies must be non-nil.
func NewController(db *sql.DB, rides *repository.RideRepo, bookings *repository.BookingRepo) *Controller {
	if db == nil || rides == nil || bookings == nil {
		panic("nil dependency passed to NewController")
	}
	return &Controller{db: db, rides: rides, bookings: bookings}
}

// ReserveSeats books seats on a ride for a passenger. The availability
// check and the decrement are one conditional UPDATE, so of two
// concurrent reservations whose combined request exceeds the remaining
// seats at most the one that fits succeeds; the other fails with
// ErrInsufficientSeats and leaves no trace.
//
// Failure modes: ErrInvalidSeatCount (seats == 0), ErrRideNotFound,
// ErrForbidden (driver booking their own ride), ErrRideClosed,
// ErrRideDeparted, ErrInsufficientSeats.
func (ctl *Controller) ReserveSeats(ctx context.Context, rideID, passengerID uint64, seats uint32) (model.Booking, error) {
	if seats == 0 {
		return model.Booking{}, repository.ErrInvalidSeatCount
	}

	tx, err := ctl.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rd, err := ctl.rides.GetTx(ctx, tx, rideID)
	if err != nil {
		return model.Booking{}, err
	}
	if rd.DriverID == passengerID {
		return model.Booking{}, repository.ErrForbidden
	}
	if rd.Status != model.RideOpen {
		return model.Booking{}, repository.ErrRideClosed
	}
	if !rd.DepartureTime.After(time.Now().UTC()) {
		return model.Booking{}, repository.ErrRideDeparted
	}

	ok, err := ctl.rides.TryReserveSeatsTx(ctx, tx, rideID, seats)
	if err != nil {
		return model.Booking{}, err
	}
	if !ok {
		// Zero affected rows: either the seats ran out or the ride was
		// closed between our read and the update. Re-read to tell them apart.
		rd, err = ctl.rides.GetTx(ctx, tx, rideID)
		if err != nil {
			return model.Booking{}, err
		}
		if rd.Status != model.RideOpen {
			return model.Booking{}, repository.ErrRideClosed
		}
		return model.Booking{}, repository.ErrInsufficientSeats
	}

	b := model.Booking{
		PassengerID:   passengerID,
		RideID:        rideID,
		SeatsBooked:   seats,
		Status:        model.BookingConfirmed,
		PaymentStatus: model.PaymentPending,
	}
	if err := ctl.bookings.CreateTx(ctx, tx, &b); err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true
	return b, nil
}

// CancelBooking moves a confirmed booking to cancelled and credits its
// seats back to the ride in the same transaction. The booking's
// passenger and the ride's driver may cancel. Re-cancelling fails with
// ErrAlreadyCancelled and never credits seats a second time.
func (ctl *Controller) CancelBooking(ctx context.Context, bookingID, requesterID uint64) (model.Booking, error) {
	tx, err := ctl.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, rd, err := ctl.lockBookingAndRide(ctx, tx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !CanCancelBooking(requesterID, b, rd) {
		return model.Booking{}, repository.ErrForbidden
	}
	if b.Status == model.BookingCancelled {
		return model.Booking{}, repository.ErrAlreadyCancelled
	}

	if err := ctl.cancelLockedTx(ctx, tx, &b); err != nil {
		return model.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true
	return ctl.bookings.GetByID(ctx, b.ID)
}

// ChangeBookingStatus is the driver-side status transition. Only the
// ride's driver may call it; moving a booking away from confirmed uses
// the same seat-restoration rule as CancelBooking, and a cancelled
// booking cannot be confirmed again.
func (ctl *Controller) ChangeBookingStatus(ctx context.Context, bookingID, requesterID uint64, newStatus string) (model.Booking, error) {
	if newStatus != model.BookingConfirmed && newStatus != model.BookingCancelled {
		return model.Booking{}, repository.ErrInvalidStatus
	}

	tx, err := ctl.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Booking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, rd, err := ctl.lockBookingAndRide(ctx, tx, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if !CanChangeBookingStatus(requesterID, rd) {
		return model.Booking{}, repository.ErrForbidden
	}
	if b.Status == model.BookingCancelled {
		return model.Booking{}, repository.ErrAlreadyCancelled
	}
	if !CanTransition(b.Status, newStatus) {
		return model.Booking{}, repository.ErrInvalidStatus
	}
	if b.Status == newStatus {
		// Nothing to do; report current state.
		if err := tx.Commit(); err != nil {
			return model.Booking{}, err
		}
		committed = true
		return b, nil
	}

	if ReleasesSeats(b.Status, newStatus) {
		if err := ctl.cancelLockedTx(ctx, tx, &b); err != nil {
			return model.Booking{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Booking{}, err
	}
	committed = true
	return ctl.bookings.GetByID(ctx, b.ID)
}

// lockBookingAndRide takes row locks on the booking and then its ride.
// Lock order is booking first, ride second, everywhere, so two
// cancellations or a cancellation and a ride edit cannot deadlock.
func (ctl *Controller) lockBookingAndRide(ctx context.Context, tx *sql.Tx, bookingID uint64) (model.Booking, model.Ride, error) {
	b, err := ctl.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		return model.Booking{}, model.Ride{}, err
	}
	rd, err := ctl.rides.GetForUpdateTx(ctx, tx, b.RideID)
	if err != nil {
		return model.Booking{}, model.Ride{}, err
	}
	return b, rd, nil
}

// cancelLockedTx flips a locked confirmed booking to cancelled and
// credits its seats back to the locked ride. Paid bookings move to
// refunded so the payment collaborator can reconcile.
func (ctl *Controller) cancelLockedTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	pay := b.PaymentStatus
	if pay == model.PaymentPaid {
		pay = model.PaymentRefunded
	}
	if err := ctl.bookings.UpdateStatusTx(ctx, tx, b.ID, model.BookingCancelled, pay); err != nil {
		return err
	}
	if err := ctl.rides.ReleaseSeatsTx(ctx, tx, b.RideID, b.SeatsBooked); err != nil {
		return err
	}
	b.Status = model.BookingCancelled
	b.PaymentStatus = pay
	return nil
}
