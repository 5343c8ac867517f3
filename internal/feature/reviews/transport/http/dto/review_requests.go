// Package dto defines the request bodies of the reviews feature.
package dto

// CreateReviewReq is the body of POST /reviews. The tour may come from the
// nested route instead. The author is always the logged in user.
type CreateReviewReq struct {
	Review string `json:"review" binding:"required"`
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Tour   uint   `json:"tour"`
}

// UpdateReviewReq is the body of PATCH /reviews/:id.
type UpdateReviewReq struct {
	Review *string `json:"review" binding:"omitempty,min=1"`
	Rating *int    `json:"rating" binding:"omitempty,min=1,max=5"`
}
