package models

import (
	"time"

	"github.com/lib/pq"
)

// Package represents a visit/trip offering published by an industry partner.
type Package struct {
	ID             string         `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Description    string         `db:"description" json:"description"`
	Duration       string         `db:"duration" json:"duration"`
	Price          float64        `db:"price" json:"price"`
	Activities     pq.StringArray `db:"activities" json:"activities"`
	Inclusions     pq.StringArray `db:"inclusions" json:"inclusions"`
	Instructions   string         `db:"instructions" json:"instructions"`
	ImagePath      *string        `db:"image_path" json:"-"`
	ImageURL       string         `db:"-" json:"image_url,omitempty"`
	Votes          int            `db:"votes" json:"votes"`
	VotePercentage float64        `db:"vote_percentage" json:"vote_percentage"`
	Rating         float64        `db:"rating" json:"rating"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// PackageDetail bundles a package with its review thread.
type PackageDetail struct {
	Package
	Reviews []Review `json:"reviews"`
}

// Review is a single user's rating and comment on a package. The reviewer's
// name and profile image are denormalized snapshots captured at write time.
type Review struct {
	ID              string    `db:"id" json:"id"`
	PackageID       string    `db:"package_id" json:"package_id"`
	UserID          string    `db:"user_id" json:"user_id"`
	FullName        string    `db:"full_name" json:"full_name"`
	ProfileImage    *string   `db:"profile_image" json:"-"`
	ProfileImageURL string    `db:"-" json:"profile_image_url,omitempty"`
	Rating          int       `db:"rating" json:"rating"`
	Comment         *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
