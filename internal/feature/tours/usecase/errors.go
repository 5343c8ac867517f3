package usecase

import "errors"

// Messages of the operational errors returned by the tours usecase.
const (
	MsgTourNotFound    = "No tour found with that ID"
	MsgNoTourWithName  = "There is no tour with that name."
	MsgDiscountTooHigh = "Discount price should be below regular price"
	MsgLatLngFormat    = "Please provide latitude and longitude in the format lat,lng."
	MsgUnknownUnit     = "Unit must be mi or km."
	MsgInvalidDistance = "Distance must be a positive number."
	MsgInvalidYear     = "Year must be a number between 1970 and 9999."
	MsgGuideNotFound   = "Every guide must be an existing user."
)

// ErrInvalidPoint is returned when a lat,lng pair cannot be parsed.
var ErrInvalidPoint = errors.New("invalid lat,lng pair")
