package dto

import "github.com/noah-isme/ivms-api/internal/models"

// SubmitVisitRequest carries a new visit-approval application. Numeric and
// date fields arrive as text-input strings from the mobile form and are
// coerced by the service.
type SubmitVisitRequest struct {
	UserID            string `json:"userId" validate:"required"`
	Role              string `json:"role" validate:"required"`
	FullName          string `json:"fullName" validate:"required"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone" validate:"required"`
	Industry          string `json:"industry" validate:"required"`
	Date              string `json:"date" validate:"required"`
	StudentsCount     string `json:"studentsCount" validate:"required"`
	Faculty           string `json:"faculty" validate:"required"`
	Transport         string `json:"transport" validate:"required"`
	PackageDetails    string `json:"packageDetails" validate:"required"`
	Activity          string `json:"activity" validate:"required"`
	Duration          string `json:"duration" validate:"required"`
	Distance          string `json:"distance" validate:"required"`
	TicketCost        string `json:"ticketCost" validate:"required"`
	DriverPhoneNumber string `json:"driverPhoneNumber" validate:"required"`
	Checklist         string `json:"checklist" validate:"required"`
	StudentRep        string `json:"studentRep"`
}

// CheckRequestResponse reports whether a submitter has an outstanding request.
type CheckRequestResponse struct {
	Exists  bool                 `json:"exists"`
	Request *models.VisitRequest `json:"request,omitempty"`
}

// UpdateRequestStatusRequest moves a request through its state machine.
type UpdateRequestStatusRequest struct {
	Status models.RequestStatus `json:"status" validate:"required"`
}
