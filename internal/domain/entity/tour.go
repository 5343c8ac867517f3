package entity

import (
	"encoding/json"
	"time"
)

// Difficulty levels a tour may have.
const (
	DifficultyEasy      = "easy"
	DifficultyMedium    = "medium"
	DifficultyDifficult = "difficult"
)

// DefaultRatingsAverage is the rating of a tour without reviews.
const DefaultRatingsAverage = 4.5

// Location is a point on the map, optionally bound to a day of the tour.
type Location struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address,omitempty"`
	Description string  `json:"description,omitempty"`
	Day         int     `json:"day,omitempty"`
}

// Tour is a bookable tour.
type Tour struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	Name            string      `gorm:"uniqueIndex;size:40;not null" json:"name"`
	Slug            string      `gorm:"index;size:64" json:"slug"`
	Duration        int         `gorm:"not null" json:"duration"`
	MaxGroupSize    int         `gorm:"not null" json:"maxGroupSize"`
	Difficulty      string      `gorm:"size:16;not null" json:"difficulty"`
	RatingsAverage  float64     `gorm:"default:4.5" json:"ratingsAverage"`
	RatingsQuantity int         `gorm:"default:0" json:"ratingsQuantity"`
	Price           float64     `gorm:"not null" json:"price"`
	PriceDiscount   float64     `json:"priceDiscount,omitempty"`
	Summary         string      `gorm:"size:512;not null" json:"summary"`
	Description     string      `gorm:"type:text" json:"description,omitempty"`
	ImageCover      string      `gorm:"size:255;not null" json:"imageCover"`
	Images          []string    `gorm:"serializer:json" json:"images"`
	StartDates      []time.Time `gorm:"serializer:json" json:"startDates"`
	SecretTour      bool        `gorm:"not null;default:false" json:"secretTour"`
	StartLocation   Location    `gorm:"serializer:json" json:"startLocation"`
	Locations       []Location  `gorm:"serializer:json" json:"locations"`
	Guides          []User      `gorm:"many2many:tour_guides" json:"guides"`
	Reviews         []Review    `gorm:"foreignKey:TourID" json:"reviews,omitempty"`
	Revision        int         `gorm:"not null;default:0" json:"revision"`
	CreatedAt       time.Time   `json:"-"`
	UpdatedAt       time.Time   `json:"-"`
}

// DurationWeeks is the tour duration expressed in weeks.
func (t Tour) DurationWeeks() float64 {
	return float64(t.Duration) / 7
}

type tourJSON Tour

// MarshalJSON adds the derived durationWeeks field.
func (t Tour) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		tourJSON
		DurationWeeks float64 `json:"durationWeeks"`
	}{tourJSON(t), t.DurationWeeks()})
}

// UnmarshalJSON ignores derived fields.
func (t *Tour) UnmarshalJSON(b []byte) error {
	var v tourJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Tour(v)
	return nil
}

// TourStat aggregates tours of one difficulty.
type TourStat struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// MonthlyPlan lists the tours starting in one month.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// TourDistance is a tour's distance from a reference point.
type TourDistance struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}
