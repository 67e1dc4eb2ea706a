package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Haudass/westride/internal/model"
)

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// BookingRepo provides persistence for the bookings table. Rows that
// change seat inventory are only written inside transactions driven by
// the availability controller; list and detail reads go straight to the
// handle.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, passenger_id, ride_id, seats_booked, status,
	payment_status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var b model.Booking
	err := row.Scan(&b.ID, &b.PassengerID, &b.RideID, &b.SeatsBooked,
		&b.Status, &b.PaymentStatus, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the record from the stored row. The caller
// must commit or roll back; a booking never becomes visible without the
// ride's matching seat decrement committing with it.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (passenger_id, ride_id, seats_booked, status, payment_status)
		VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.PassengerID, b.RideID, b.SeatsBooked, b.Status, b.PaymentStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return err
	}
	*b = stored
	return nil
}

// GetByID returns a single booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// GetForUpdateTx reads a booking with an exclusive row lock so a status
// transition cannot race another cancellation of the same booking.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	b, err := scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// UpdateStatusTx writes a new status and payment status for a booking
// within the caller's transaction.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status, paymentStatus string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status=?, payment_status=?, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		status, paymentStatus, id)
	return err
}

// UpdatePaymentStatus records a payment state change reported by the
// payment collaborator. It does not touch seat inventory.
func (r *BookingRepo) UpdatePaymentStatus(ctx context.Context, id uint64, paymentStatus string) (model.Booking, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_status=?, updated_at=UTC_TIMESTAMP() WHERE id=?`,
		paymentStatus, id)
	if err != nil {
		return model.Booking{}, err
	}
	return r.GetByID(ctx, id)
}

// PassengerBookingDetail is a booking joined with its ride and driver,
// as shown in the passenger's booking list.
type PassengerBookingDetail struct {
	ID            uint64    `json:"id"`
	RideID        uint64    `json:"ride_id"`
	SeatsBooked   uint32    `json:"seats_booked"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Departure     string    `json:"departure"`
	Destination   string    `json:"destination"`
	PriceCents    uint32    `json:"price_cents"`
	DepartureTime time.Time `json:"departure_time"`
	DriverName    string    `json:"driver_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListByPassenger returns the passenger's bookings with ride and driver
// details, newest first.
func (r *BookingRepo) ListByPassenger(ctx context.Context, passengerID uint64) ([]PassengerBookingDetail, error) {
	const q = `SELECT b.id, b.ride_id, b.seats_booked, b.status, b.payment_status,
			r.departure, r.destination, r.price_cents, r.departure_time,
			u.name, b.created_at
		FROM bookings b
		JOIN rides r ON r.id = b.ride_id
		JOIN users u ON u.id = r.driver_id
		WHERE b.passenger_id = ?
		ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PassengerBookingDetail, 0)
	for rows.Next() {
		var d PassengerBookingDetail
		if err := rows.Scan(&d.ID, &d.RideID, &d.SeatsBooked, &d.Status, &d.PaymentStatus,
			&d.Departure, &d.Destination, &d.PriceCents, &d.DepartureTime,
			&d.DriverName, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RideBookingDetail is a booking joined with its passenger, as shown in
// the driver's per-ride manifest.
type RideBookingDetail struct {
	ID             uint64    `json:"id"`
	PassengerID    uint64    `json:"passenger_id"`
	PassengerName  string    `json:"passenger_name"`
	PassengerPhone string    `json:"passenger_phone"`
	SeatsBooked    uint32    `json:"seats_booked"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListByRideForDriver returns all bookings on a ride for its driver,
// oldest first. Returns ErrRideNotFound when the ride does not exist and
// ErrForbidden when the caller does not own it.
func (r *BookingRepo) ListByRideForDriver(ctx context.Context, rideID, driverID uint64) ([]RideBookingDetail, error) {
	var actualDriverID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT driver_id FROM rides WHERE id = ?`, rideID).Scan(&actualDriverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRideNotFound
	}
	if err != nil {
		return nil, err
	}
	if actualDriverID != driverID {
		return nil, ErrForbidden
	}

	const q = `SELECT b.id, b.passenger_id, u.name, u.phone,
			b.seats_booked, b.status, b.payment_status, b.created_at
		FROM bookings b
		JOIN users u ON u.id = b.passenger_id
		WHERE b.ride_id = ?
		ORDER BY b.created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RideBookingDetail, 0)
	for rows.Next() {
		var d RideBookingDetail
		if err := rows.Scan(&d.ID, &d.PassengerID, &d.PassengerName, &d.PassengerPhone,
			&d.SeatsBooked, &d.Status, &d.PaymentStatus, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// BookingDetail is a single booking joined with ride, passenger and
// driver information for the detail endpoint. DriverID is included so
// handlers can authorize the requester.
type BookingDetail struct {
	ID            uint64    `json:"id"`
	PassengerID   uint64    `json:"passenger_id"`
	RideID        uint64    `json:"ride_id"`
	DriverID      uint64    `json:"driver_id"`
	SeatsBooked   uint32    `json:"seats_booked"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	Departure     string    `json:"departure"`
	Destination   string    `json:"destination"`
	PriceCents    uint32    `json:"price_cents"`
	DepartureTime time.Time `json:"departure_time"`
	PassengerName string    `json:"passenger_name"`
	DriverName    string    `json:"driver_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetDetail loads a booking with its ride and both user names. The
// caller is responsible for checking that the requester is the
// passenger or the ride's driver.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*BookingDetail, error) {
	const q = `SELECT b.id, b.passenger_id, b.ride_id, r.driver_id,
			b.seats_booked, b.status, b.payment_status,
			r.departure, r.destination, r.price_cents, r.departure_time,
			p.name, d.name, b.created_at, b.updated_at
		FROM bookings b
		JOIN rides r ON r.id = b.ride_id
		JOIN users p ON p.id = b.passenger_id
		JOIN users d ON d.id = r.driver_id
		WHERE b.id = ?`
	var det BookingDetail
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&det.ID, &det.PassengerID, &det.RideID, &det.DriverID,
		&det.SeatsBooked, &det.Status, &det.PaymentStatus,
		&det.Departure, &det.Destination, &det.PriceCents, &det.DepartureTime,
		&det.PassengerName, &det.DriverName, &det.CreatedAt, &det.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &det, nil
}

// ActiveSeatsTx returns the number of seats held by confirmed bookings
// on a ride, read inside the caller's transaction.
func (r *BookingRepo) ActiveSeatsTx(ctx context.Context, tx *sql.Tx, rideID uint64) (uint32, error) {
	var n uint32
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(seats_booked),0) FROM bookings WHERE ride_id = ? AND status = ?`,
		rideID, model.BookingConfirmed).Scan(&n)
	return n, err
}
