// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used by the publisher and consumer.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published when seats are successfully booked.
// It carries enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	PassengerID   uint64 `json:"passenger_id"`
	RideID        uint64 `json:"ride_id"`
	DriverID      uint64 `json:"driver_id"`
	SeatsBooked   uint32 `json:"seats_booked"`
	Departure     string `json:"departure"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departure_time"`
	PriceCents    uint32 `json:"price_cents"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is cancelled and its
// seats are credited back to the ride.
type BookingCancelledEvent struct {
	BookingID     uint64 `json:"booking_id"`
	PassengerID   uint64 `json:"passenger_id"`
	RideID        uint64 `json:"ride_id"`
	DriverID      uint64 `json:"driver_id"`
	SeatsReleased uint32 `json:"seats_released"`
	Departure     string `json:"departure"`
	Destination   string `json:"destination"`
	CancelledBy   uint64 `json:"cancelled_by"`
	CancelledAt   string `json:"cancelled_at"`
}
