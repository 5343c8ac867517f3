// Package dto defines the request bodies of the bookings feature.
package dto

// CreateBookingReq is the body of POST /bookings.
type CreateBookingReq struct {
	Tour  uint     `json:"tour" binding:"required"`
	User  uint     `json:"user" binding:"required"`
	Price *float64 `json:"price" binding:"omitempty,min=0"`
	Paid  *bool    `json:"paid"`
}

// UpdateBookingReq is the body of PATCH /bookings/:id.
type UpdateBookingReq struct {
	Price *float64 `json:"price" binding:"omitempty,min=0"`
	Paid  *bool    `json:"paid"`
}
