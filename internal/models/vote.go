package models

import "time"

// Vote records a student's one-time choice of preferred package.
type Vote struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	PackageID string    `db:"package_id" json:"package_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// VotedUser is a vote joined to the voter's directory entry.
type VotedUser struct {
	StudentID string    `db:"student_id" json:"student_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Gender    string    `db:"gender" json:"gender"`
	PackageID string    `db:"package_id" json:"package_id"`
	VotedAt   time.Time `db:"voted_at" json:"voted_at"`
}

// VoteStatistics aggregates voting turnout for the HOD dashboard.
type VoteStatistics struct {
	VotedUsers       []VotedUser `json:"voted_users"`
	TotalStudents    int         `json:"total_students"`
	MaleCount        int         `json:"male_count"`
	FemaleCount      int         `json:"female_count"`
	MalePercentage   float64     `json:"male_percentage"`
	FemalePercentage float64     `json:"female_percentage"`
}
