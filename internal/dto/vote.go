package dto

// CastVoteRequest records a student's package preference.
type CastVoteRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	PackageID string `json:"packageId" validate:"required"`
}
