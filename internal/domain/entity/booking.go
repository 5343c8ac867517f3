package entity

import "time"

// Booking records a user's purchase of a tour.
type Booking struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TourID    uint      `gorm:"not null;index" json:"tourId"`
	Tour      *Tour     `json:"tour,omitempty"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      *User     `json:"user,omitempty"`
	Price     float64   `gorm:"not null" json:"price"`
	Paid      bool      `gorm:"not null" json:"paid"`
	Revision  int       `gorm:"not null;default:0" json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
}
