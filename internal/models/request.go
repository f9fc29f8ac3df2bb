package models

import "time"

// RequestStatus enumerates the visit request state machine.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// ValidRequestStatus reports whether s is one of the three known states.
func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// Outstanding reports whether a request in this state blocks a new submission.
func (s RequestStatus) Outstanding() bool {
	return s == RequestPending || s == RequestApproved
}

// VisitRequest is a submitted visit-approval application.
type VisitRequest struct {
	ID                string        `db:"id" json:"id"`
	UserID            string        `db:"user_id" json:"user_id"`
	Role              string        `db:"role" json:"role"`
	FullName          string        `db:"full_name" json:"full_name"`
	Email             string        `db:"email" json:"email"`
	Phone             string        `db:"phone" json:"phone"`
	Industry          string        `db:"industry" json:"industry"`
	VisitDate         time.Time     `db:"visit_date" json:"visit_date"`
	StudentsCount     int           `db:"students_count" json:"students_count"`
	Faculty           string        `db:"faculty" json:"faculty"`
	Transport         string        `db:"transport" json:"transport"`
	PackageDetails    string        `db:"package_details" json:"package_details"`
	Activity          string        `db:"activity" json:"activity"`
	Duration          string        `db:"duration" json:"duration"`
	Distance          float64       `db:"distance" json:"distance"`
	TicketCost        float64       `db:"ticket_cost" json:"ticket_cost"`
	DriverPhoneNumber string        `db:"driver_phone_number" json:"driver_phone_number"`
	Checklist         string        `db:"checklist" json:"checklist"`
	StudentRep        string        `db:"student_rep" json:"student_rep"`
	Status            RequestStatus `db:"status" json:"status"`
	SubmittedAt       time.Time     `db:"submitted_at" json:"submitted_at"`
}
