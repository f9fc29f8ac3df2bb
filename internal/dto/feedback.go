package dto

// AddFeedbackRequest is the payload for posting a review on a package.
type AddFeedbackRequest struct {
	UserID  string  `json:"userId" validate:"required"`
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment"`
	Name    string  `json:"name"`
}

// UpdateFeedbackRequest mutates an existing review. Ownership is asserted via
// UserID; the mobile client sends it in the body per the API contract.
type UpdateFeedbackRequest struct {
	UserID  string  `json:"userId" validate:"required"`
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Comment *string `json:"comment"`
	Name    string  `json:"name"`
}

// DeleteFeedbackRequest identifies the review owner for the ownership check.
type DeleteFeedbackRequest struct {
	UserID string `json:"userId" validate:"required"`
}
