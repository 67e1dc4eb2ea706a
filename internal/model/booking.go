package model

import "time"

// Booking status values.  A booking is created confirmed and the only
// transition is confirmed -> cancelled; cancelled is terminal and a new
// booking is required to rebook.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Payment status values tracked on bookings.  No payment processing
// happens in this service; an external collaborator moves the field.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// ValidPaymentStatus reports whether s is a known payment status value.
func ValidPaymentStatus(s string) bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentRefunded
}

// Booking records a passenger's claim on a number of seats on a ride,
// as stored in the `bookings` table.
//
// Fields:
//  ID            – primary key identifier.
//  PassengerID   – user who booked the seats.
//  RideID        – ride being booked.
//  SeatsBooked   – number of seats claimed (must be positive).
//  Status        – confirmed or cancelled.
//  PaymentStatus – pending, paid or refunded.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64    `json:"id"`
	PassengerID   uint64    `json:"passenger_id"`
	RideID        uint64    `json:"ride_id"`
	SeatsBooked   uint32    `json:"seats_booked"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
