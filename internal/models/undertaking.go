package models

import "time"

// Undertaking is a signed consent/declaration form tied to one student and
// one semester. Signature paths reference files in the upload store and may
// be absent when the form was submitted without scans.
type Undertaking struct {
	ID                   string    `db:"id" json:"id"`
	UserID               string    `db:"user_id" json:"user_id"`
	StudentID            string    `db:"student_id" json:"student_id"`
	Semester             string    `db:"semester" json:"semester"`
	Branch               string    `db:"branch" json:"branch"`
	RollNo               string    `db:"roll_no" json:"roll_no"`
	ParentName           string    `db:"parent_name" json:"parent_name"`
	PlacesVisited        string    `db:"places_visited" json:"places_visited"`
	TourPeriod           string    `db:"tour_period" json:"tour_period"`
	FacultyDetails       string    `db:"faculty_details" json:"faculty_details"`
	StudentSignaturePath *string   `db:"student_signature_path" json:"student_signature_path,omitempty"`
	ParentSignaturePath  *string   `db:"parent_signature_path" json:"parent_signature_path,omitempty"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// UndertakingRefKind selects which column an undertaking lookup matches.
type UndertakingRefKind int

const (
	// UndertakingByID matches the record's own identity.
	UndertakingByID UndertakingRefKind = iota
	// UndertakingByApplicant matches the submitting user's reference.
	UndertakingByApplicant
)

// UndertakingRef is a tagged lookup reference. Callers that only hold the
// applicant's user id resolve through UndertakingByApplicant instead of an
// implicit try-both query.
type UndertakingRef struct {
	Kind UndertakingRefKind
	ID   string
}
