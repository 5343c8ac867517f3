package entity

import "time"

// Review is a user's rating of a tour. A user reviews a tour at most once.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Review    string    `gorm:"type:text;not null" json:"review"`
	Rating    int       `gorm:"not null" json:"rating"`
	TourID    uint      `gorm:"not null;uniqueIndex:idx_reviews_tour_user" json:"tour"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reviews_tour_user" json:"userId"`
	User      *User     `json:"user,omitempty"`
	Revision  int       `gorm:"not null;default:0" json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}
