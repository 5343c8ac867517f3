package usecase

// Messages of the operational errors returned by the reviews usecase.
const (
	MsgTourRequired  = "Review must belong to a tour."
	MsgNotYourReview = "You can only change your own reviews."
)
