package usecase

// Messages of the operational errors returned by the bookings usecase.
const (
	MsgBookingNeedsTour = "Booking must belong to a tour!"
	MsgBookingNeedsUser = "Booking must belong to a user!"
)
