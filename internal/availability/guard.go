package availability

import "github.com/Haudass/westride/internal/model"

// Authorization predicates. These are pure functions of identity and
// resource, called before every mutating operation; the role string in
// the JWT is never compared directly in handlers.

// CanMutateRide reports whether the user may edit, close or delete the
// ride. Only the publishing driver may.
func CanMutateRide(userID uint64, ride model.Ride) bool {
	return userID == ride.DriverID
}

// CanCancelBooking reports whether the user may cancel the booking.
// The booking's passenger and the ride's driver both may.
func CanCancelBooking(userID uint64, booking model.Booking, ride model.Ride) bool {
	return userID == booking.PassengerID || userID == ride.DriverID
}

// CanChangeBookingStatus reports whether the user may move the booking
// to an arbitrary status. Only the ride's driver may; passengers are
// limited to cancellation via CanCancelBooking.
func CanChangeBookingStatus(userID uint64, ride model.Ride) bool {
	return userID == ride.DriverID
}

// CanViewBooking reports whether the user may read the booking's
// detail. Same parties as cancellation.
func CanViewBooking(userID uint64, booking model.Booking, ride model.Ride) bool {
	return userID == booking.PassengerID || userID == ride.DriverID
}
