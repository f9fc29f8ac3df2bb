package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleHOD      UserRole = "HOD"
	RoleIndustry UserRole = "INDUSTRY"
	RoleStudent  UserRole = "STUDENT"
)

// User is a directory entry consulted for review/vote authorship and
// denormalized snapshots. Registration and credentials live elsewhere.
type User struct {
	ID           string   `db:"id" json:"id"`
	Email        string   `db:"email" json:"email"`
	FullName     string   `db:"full_name" json:"full_name"`
	Role         UserRole `db:"role" json:"role"`
	Gender       string   `db:"gender" json:"gender"`
	ProfileImage *string  `db:"profile_image" json:"profile_image,omitempty"`
	Active       bool     `db:"active" json:"active"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
