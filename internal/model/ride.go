package model

import "time"

// Ride status values stored in rides.status.  A ride is bookable only
// while it is open.  Closed rides keep their bookings but accept no new
// ones; cancelled rides are terminal.
const (
	RideOpen      = "open"
	RideClosed    = "closed"
	RideCancelled = "cancelled"
)

// Ride represents a driver-published trip offer with a fixed seat
// capacity, as stored in the `rides` table.
//
// Fields:
//  ID             – primary key identifier.
//  DriverID       – user who published the ride.
//  Departure      – origin city or stop.
//  Destination    – destination city or stop.
//  PriceCents     – price per seat in cents (must be positive).
//  TotalSeats     – seat capacity of the ride (must be positive).
//  SeatsRemaining – live count of unclaimed seats; the invariant
//                   seats_remaining + sum of confirmed seats_booked
//                   == total_seats holds after every operation.
//  DepartureTime  – when the ride departs.
//  Status         – open, closed or cancelled.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Ride struct {
	ID             uint64    `json:"id"`
	DriverID       uint64    `json:"driver_id"`
	Departure      string    `json:"departure"`
	Destination    string    `json:"destination"`
	PriceCents     uint32    `json:"price_cents"`
	TotalSeats     uint32    `json:"total_seats"`
	SeatsRemaining uint32    `json:"seats_remaining"`
	DepartureTime  time.Time `json:"departure_time"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
