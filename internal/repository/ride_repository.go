package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Haudass/westride/internal/model"
)

// ErrRideNotFound is returned when a ride lookup matches no row.
var ErrRideNotFound = errors.New("ride not found")

// RideRepo provides persistence for the rides table. Seat counts on a
// ride are mutated only under a transaction: either by the availability
// controller (reserve/cancel) or by UpdateForDriver when the driver
// edits total_seats. Plain reads never cache seats_remaining; every
// check reads committed state.
type RideRepo struct {
	db *sql.DB
}

// NewRideRepo returns a new RideRepo bound to the given database.
func NewRideRepo(db *sql.DB) *RideRepo { return &RideRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning rides and bookings.
func (r *RideRepo) DB() *sql.DB { return r.db }

const rideColumns = `id, driver_id, departure, destination, price_cents,
	total_seats, seats_remaining, departure_time, status, created_at, updated_at`

func scanRide(row interface{ Scan(...any) error }) (model.Ride, error) {
	var rd model.Ride
	err := row.Scan(&rd.ID, &rd.DriverID, &rd.Departure, &rd.Destination,
		&rd.PriceCents, &rd.TotalSeats, &rd.SeatsRemaining, &rd.DepartureTime,
		&rd.Status, &rd.CreatedAt, &rd.UpdatedAt)
	return rd, err
}

// Create inserts a new ride for the driver. seats_remaining starts equal
// to total_seats and status starts open. The stored row is read back so
// the caller sees database-assigned timestamps.
func (r *RideRepo) Create(ctx context.Context, rd *model.Ride) error {
	const q = `INSERT INTO rides
		(driver_id, departure, destination, price_cents, total_seats, seats_remaining, departure_time, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		rd.DriverID, rd.Departure, rd.Destination, rd.PriceCents,
		rd.TotalSeats, rd.TotalSeats, rd.DepartureTime.UTC(), model.RideOpen)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*rd = stored
	return nil
}

// GetByID returns a single ride or ErrRideNotFound.
func (r *RideRepo) GetByID(ctx context.Context, id uint64) (model.Ride, error) {
	rd, err := scanRide(r.db.QueryRowContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ride{}, ErrRideNotFound
	}
	return rd, err
}

// GetTx reads a ride inside an existing transaction.
func (r *RideRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Ride, error) {
	rd, err := scanRide(tx.QueryRowContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ride{}, ErrRideNotFound
	}
	return rd, err
}

// GetForUpdateTx reads a ride with an exclusive row lock. Callers use it
// to serialize seat mutations against concurrent reservations: any
// conditional seat UPDATE on the same ride blocks until the transaction
// holding this lock commits or rolls back.
func (r *RideRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Ride, error) {
	rd, err := scanRide(tx.QueryRowContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ride{}, ErrRideNotFound
	}
	return rd, err
}

// TryReserveSeatsTx performs the atomic check-and-decrement that the
// no-overbooking guarantee rests on. The WHERE clause makes the update
// conditional: it only applies when the ride is open and has at least
// `seats` remaining, so two concurrent reservations serialize on the row
// and the loser observes zero affected rows. Returns true when the
// seats were taken.
func (r *RideRepo) TryReserveSeatsTx(ctx context.Context, tx *sql.Tx, rideID uint64, seats uint32) (bool, error) {
	const q = `UPDATE rides
		SET seats_remaining = seats_remaining - ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ? AND status = ? AND seats_remaining >= ?`
	res, err := tx.ExecContext(ctx, q, seats, rideID, model.RideOpen, seats)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseSeatsTx credits seats back to a ride after a booking is
// cancelled. The caller must hold the ride's row lock (GetForUpdateTx)
// in the same transaction so the credit cannot race a reservation.
func (r *RideRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, rideID uint64, seats uint32) error {
	const q = `UPDATE rides
		SET seats_remaining = seats_remaining + ?, updated_at = UTC_TIMESTAMP()
		WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, seats, rideID)
	return err
}

// ListUpcoming returns open rides that have not yet departed, soonest
// first. Rides with no seats left are included so passengers can still
// see them; Search filters those out.
func (r *RideRepo) ListUpcoming(ctx context.Context) ([]model.Ride, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rideColumns+` FROM rides
		 WHERE status = ? AND departure_time >= UTC_TIMESTAMP()
		 ORDER BY departure_time ASC`, model.RideOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

// ListByDriver returns all rides published by the driver, newest first.
func (r *RideRepo) ListByDriver(ctx context.Context, driverID uint64) ([]model.Ride, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE driver_id = ? ORDER BY departure_time DESC`,
		driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

func collectRides(rows *sql.Rows) ([]model.Ride, error) {
	out := make([]model.Ride, 0)
	for rows.Next() {
		rd, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RideSearchQuery defines filters & pagination for searching rides.
// Departure and Destination are matched case-insensitively as
// substrings. Date, when set, restricts results to rides departing on
// that calendar day (UTC).
type RideSearchQuery struct {
	Departure   string
	Destination string
	Date        *time.Time
	Page        int
	PageSize    int
}

// Search returns bookable rides (open, seats remaining) matching the
// query, plus the total match count for pagination.
func (r *RideRepo) Search(ctx context.Context, q RideSearchQuery) ([]model.Ride, int64, error) {
	where := []string{"status = ?", "seats_remaining > 0"}
	args := []any{model.RideOpen}

	if q.Departure != "" {
		where = append(where, "LOWER(departure) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Departure)+"%")
	}
	if q.Destination != "" {
		where = append(where, "LOWER(destination) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Destination)+"%")
	}
	if q.Date != nil {
		where = append(where, "DATE(departure_time) = ?")
		args = append(args, q.Date.UTC().Format("2006-01-02"))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rides WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	argsData := append(append([]any{}, args...), limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE `+cond+`
		 ORDER BY departure_time ASC
		 LIMIT ? OFFSET ?`, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := collectRides(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// RidePatch carries optional ride fields for UpdateForDriver. Nil
// pointers leave the column untouched.
type RidePatch struct {
	Departure     *string
	Destination   *string
	PriceCents    *uint32
	TotalSeats    *uint32
	DepartureTime *time.Time
	Status        *string
}

// UpdateForDriver applies a patch to a ride owned by the driver. The
// ride row is locked for the duration so seat arithmetic cannot race a
// concurrent reservation. Lowering total_seats below the seats already
// held by confirmed bookings fails with ErrInvalidSeatAdjustment;
// setting status to cancelled while confirmed bookings exist fails with
// ErrHasActiveBookings.
func (r *RideRepo) UpdateForDriver(ctx context.Context, rideID, driverID uint64, p RidePatch) (model.Ride, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Ride{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rd, err := r.GetForUpdateTx(ctx, tx, rideID)
	if err != nil {
		return model.Ride{}, err
	}
	if rd.DriverID != driverID {
		return model.Ride{}, ErrForbidden
	}

	booked := rd.TotalSeats - rd.SeatsRemaining
	if p.Departure != nil {
		rd.Departure = *p.Departure
	}
	if p.Destination != nil {
		rd.Destination = *p.Destination
	}
	if p.PriceCents != nil {
		rd.PriceCents = *p.PriceCents
	}
	if p.DepartureTime != nil {
		rd.DepartureTime = p.DepartureTime.UTC()
	}
	if p.TotalSeats != nil {
		if *p.TotalSeats < booked {
			return model.Ride{}, ErrInvalidSeatAdjustment
		}
		rd.TotalSeats = *p.TotalSeats
		rd.SeatsRemaining = *p.TotalSeats - booked
	}
	if p.Status != nil {
		switch *p.Status {
		case model.RideOpen, model.RideClosed:
			rd.Status = *p.Status
		case model.RideCancelled:
			if booked > 0 {
				return model.Ride{}, ErrHasActiveBookings
			}
			rd.Status = model.RideCancelled
		default:
			return model.Ride{}, ErrInvalidStatus
		}
	}

	const q = `UPDATE rides SET departure=?, destination=?, price_cents=?,
		total_seats=?, seats_remaining=?, departure_time=?, status=?,
		updated_at=UTC_TIMESTAMP() WHERE id=?`
	if _, err := tx.ExecContext(ctx, q,
		rd.Departure, rd.Destination, rd.PriceCents,
		rd.TotalSeats, rd.SeatsRemaining, rd.DepartureTime, rd.Status, rd.ID); err != nil {
		return model.Ride{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Ride{}, err
	}
	committed = true
	return r.GetByID(ctx, rideID)
}

// DeleteForDriver removes a ride owned by the driver. The delete is
// blocked with ErrHasActiveBookings while confirmed bookings reference
// the ride; the driver must wait for cancellations instead of silently
// dropping passengers. Cancelled bookings are removed with the ride.
func (r *RideRepo) DeleteForDriver(ctx context.Context, rideID, driverID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rd, err := r.GetForUpdateTx(ctx, tx, rideID)
	if err != nil {
		return err
	}
	if rd.DriverID != driverID {
		return ErrForbidden
	}

	// The ride row lock serializes against reservations, which update the
	// same row before inserting a booking, so this count cannot go stale.
	var active uint32
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(seats_booked),0) FROM bookings WHERE ride_id = ? AND status = ?`,
		rideID, model.BookingConfirmed).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrHasActiveBookings
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE ride_id = ?`, rideID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rides WHERE id = ?`, rideID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
