// Package dto defines the request bodies of the tours feature.
package dto

import (
	"time"

	"natours/internal/domain/entity"
	"natours/internal/feature/tours/usecase"
	"natours/internal/platform/sanitize"
)

// LocationReq is a point on the map.
type LocationReq struct {
	Lat         float64 `json:"lat" binding:"min=-90,max=90"`
	Lng         float64 `json:"lng" binding:"min=-180,max=180"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	Day         int     `json:"day" binding:"min=0"`
}

func (l *LocationReq) location() *entity.Location {
	if l == nil {
		return nil
	}
	return &entity.Location{Lat: l.Lat, Lng: l.Lng, Address: l.Address, Description: l.Description, Day: l.Day}
}

func locations(ls []LocationReq) []entity.Location {
	if ls == nil {
		return nil
	}
	out := make([]entity.Location, 0, len(ls))
	for i := range ls {
		out = append(out, *ls[i].location())
	}
	return out
}

// clean strips markup from free text.
func clean(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitize.Text(*s)
	return &v
}

// CreateTourReq is the body of POST /tours.
type CreateTourReq struct {
	Name            string        `json:"name" binding:"required,min=10,max=40"`
	Duration        int           `json:"duration" binding:"required,min=1"`
	MaxGroupSize    int           `json:"maxGroupSize" binding:"required,min=1"`
	Difficulty      string        `json:"difficulty" binding:"required,oneof=easy medium difficult"`
	RatingsAverage  *float64      `json:"ratingsAverage" binding:"omitempty,min=1,max=5"`
	RatingsQuantity *int          `json:"ratingsQuantity" binding:"omitempty,min=0"`
	Price           float64       `json:"price" binding:"required,gt=0"`
	PriceDiscount   *float64      `json:"priceDiscount" binding:"omitempty,min=0"`
	Summary         string        `json:"summary" binding:"required,max=512"`
	Description     string        `json:"description"`
	ImageCover      string        `json:"imageCover" binding:"required,max=255"`
	Images          []string      `json:"images"`
	StartDates      []time.Time   `json:"startDates"`
	SecretTour      bool          `json:"secretTour"`
	StartLocation   *LocationReq  `json:"startLocation"`
	Locations       []LocationReq `json:"locations" binding:"dive"`
	Guides          []uint        `json:"guides"`
}

// Input converts the request for the usecase.
func (r CreateTourReq) Input() usecase.TourInput {
	in := usecase.TourInput{
		Name:            &r.Name,
		Duration:        &r.Duration,
		MaxGroupSize:    &r.MaxGroupSize,
		Difficulty:      &r.Difficulty,
		RatingsAverage:  r.RatingsAverage,
		RatingsQuantity: r.RatingsQuantity,
		Price:           &r.Price,
		PriceDiscount:   r.PriceDiscount,
		Summary:         clean(&r.Summary),
		Description:     clean(&r.Description),
		ImageCover:      &r.ImageCover,
		Images:          r.Images,
		StartDates:      r.StartDates,
		SecretTour:      &r.SecretTour,
		StartLocation:   r.StartLocation.location(),
		Locations:       locations(r.Locations),
		Guides:          r.Guides,
	}
	if in.Images == nil {
		in.Images = []string{}
	}
	if in.StartDates == nil {
		in.StartDates = []time.Time{}
	}
	if in.Locations == nil {
		in.Locations = []entity.Location{}
	}
	return in
}

// UpdateTourReq is the body of PATCH /tours/:id. Absent fields are kept.
type UpdateTourReq struct {
	Name            *string       `json:"name" binding:"omitempty,min=10,max=40"`
	Duration        *int          `json:"duration" binding:"omitempty,min=1"`
	MaxGroupSize    *int          `json:"maxGroupSize" binding:"omitempty,min=1"`
	Difficulty      *string       `json:"difficulty" binding:"omitempty,oneof=easy medium difficult"`
	RatingsAverage  *float64      `json:"ratingsAverage" binding:"omitempty,min=1,max=5"`
	RatingsQuantity *int          `json:"ratingsQuantity" binding:"omitempty,min=0"`
	Price           *float64      `json:"price" binding:"omitempty,gt=0"`
	PriceDiscount   *float64      `json:"priceDiscount" binding:"omitempty,min=0"`
	Summary         *string       `json:"summary" binding:"omitempty,max=512"`
	Description     *string       `json:"description"`
	ImageCover      *string       `json:"imageCover" binding:"omitempty,max=255"`
	Images          []string      `json:"images"`
	StartDates      []time.Time   `json:"startDates"`
	SecretTour      *bool         `json:"secretTour"`
	StartLocation   *LocationReq  `json:"startLocation"`
	Locations       []LocationReq `json:"locations" binding:"omitempty,dive"`
	Guides          []uint        `json:"guides"`
}

// Input converts the request for the usecase.
func (r UpdateTourReq) Input() usecase.TourInput {
	return usecase.TourInput{
		Name:            r.Name,
		Duration:        r.Duration,
		MaxGroupSize:    r.MaxGroupSize,
		Difficulty:      r.Difficulty,
		RatingsAverage:  r.RatingsAverage,
		RatingsQuantity: r.RatingsQuantity,
		Price:           r.Price,
		PriceDiscount:   r.PriceDiscount,
		Summary:         clean(r.Summary),
		Description:     clean(r.Description),
		ImageCover:      r.ImageCover,
		Images:          r.Images,
		StartDates:      r.StartDates,
		SecretTour:      r.SecretTour,
		StartLocation:   r.StartLocation.location(),
		Locations:       locations(r.Locations),
		Guides:          r.Guides,
	}
}
