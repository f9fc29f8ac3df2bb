package dto

import (
	"time"

	"github.com/noah-isme/ivms-api/internal/models"
	"github.com/noah-isme/ivms-api/pkg/storage"
)

// SubmitUndertakingRequest carries the declaration form fields; signature
// scans travel as multipart files next to it.
type SubmitUndertakingRequest struct {
	UserID         string `form:"userId" json:"userId" validate:"required"`
	StudentID      string `form:"studentId" json:"studentId" validate:"required"`
	Semester       string `form:"semester" json:"semester" validate:"required"`
	Branch         string `form:"branch" json:"branch" validate:"required"`
	RollNo         string `form:"rollNo" json:"rollNo" validate:"required"`
	ParentName     string `form:"parentName" json:"parentName" validate:"required"`
	PlacesVisited  string `form:"placesVisited" json:"placesVisited" validate:"required"`
	TourPeriod     string `form:"tourPeriod" json:"tourPeriod" validate:"required"`
	FacultyDetails string `form:"facultyDetails" json:"facultyDetails" validate:"required"`
}

// UpdateUndertakingRequest patches individual fields; nil means unchanged.
type UpdateUndertakingRequest struct {
	Semester       *string `form:"semester" json:"semester"`
	Branch         *string `form:"branch" json:"branch"`
	RollNo         *string `form:"rollNo" json:"rollNo"`
	ParentName     *string `form:"parentName" json:"parentName"`
	PlacesVisited  *string `form:"placesVisited" json:"placesVisited"`
	TourPeriod     *string `form:"tourPeriod" json:"tourPeriod"`
	FacultyDetails *string `form:"facultyDetails" json:"facultyDetails"`
}

// UndertakingResponse decorates a stored undertaking with time-limited
// download links for its signature scans.
type UndertakingResponse struct {
	models.Undertaking
	StudentSignatureURL string     `json:"student_signature_url,omitempty"`
	ParentSignatureURL  string     `json:"parent_signature_url,omitempty"`
	SignedURLExpiresAt  *time.Time `json:"signed_url_expires_at,omitempty"`
}

// UndertakingDeleteResult reports the record removal plus per-file cleanup
// outcomes. File deletion failures are warnings, never request failures.
type UndertakingDeleteResult struct {
	DeletedFiles []string                 `json:"deletedFiles"`
	Warnings     []string                 `json:"warnings"`
	Errors       []string                 `json:"errors"`
	Outcomes     []storage.CleanupOutcome `json:"outcomes"`
}
