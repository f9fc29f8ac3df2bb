package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ivms-api/internal/models"
)

// ReviewRepository owns the review thread of each package and keeps the
// package's aggregate rating consistent with it. Every mutation recomputes
// the mean inside the same transaction, so the stored rating can never drift
// from the review set.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// FindByUser returns the review a user left on a package, or nil.
func (r *ReviewRepository) FindByUser(ctx context.Context, packageID, userID string) (*models.Review, error) {
	const query = `
SELECT id, package_id, user_id, full_name, profile_image, rating, comment, created_at, updated_at
FROM package_reviews
WHERE package_id = $1 AND user_id = $2`
	var item models.Review
	if err := r.db.GetContext(ctx, &item, query, packageID, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find review by user: %w", err)
	}
	return &item, nil
}

// Add appends a review and recomputes the package rating atomically.
// Returns sql.ErrNoRows when the package is absent and ErrDuplicateKey when
// the (package, user) pair already has a review.
func (r *ReviewRepository) Add(ctx context.Context, review *models.Review) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var packageID string
	if err = tx.GetContext(ctx, &packageID, `SELECT id FROM packages WHERE id = $1 FOR UPDATE`, review.PackageID); err != nil {
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		return fmt.Errorf("lock package for review: %w", err)
	}

	now := time.Now().UTC()
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.CreatedAt = now
	review.UpdatedAt = now

	const insertQuery = `
INSERT INTO package_reviews (id, package_id, user_id, full_name, profile_image, rating, comment, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err = tx.ExecContext(ctx, insertQuery,
		review.ID, review.PackageID, review.UserID, review.FullName,
		review.ProfileImage, review.Rating, review.Comment, review.CreatedAt, review.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert review: %w", err)
	}

	if err = recomputeRating(ctx, tx, review.PackageID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	return nil
}

// Update mutates a review owned by userID and recomputes the rating.
// Returns sql.ErrNoRows when no review matches both id and owner.
func (r *ReviewRepository) Update(ctx context.Context, packageID, reviewID, userID string, rating int, comment *string, fullName string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateQuery = `
UPDATE package_reviews SET
	rating = $4,
	comment = $5,
	full_name = CASE WHEN $6 <> '' THEN $6 ELSE full_name END,
	updated_at = $7
WHERE id = $1 AND package_id = $2 AND user_id = $3`
	result, err := tx.ExecContext(ctx, updateQuery, reviewID, packageID, userID, rating, comment, fullName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err = recomputeRating(ctx, tx, packageID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review update: %w", err)
	}
	return nil
}

// Delete removes a review owned by userID and recomputes the rating over the
// remaining set (zero when the thread empties out).
func (r *ReviewRepository) Delete(ctx context.Context, packageID, reviewID, userID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const deleteQuery = `DELETE FROM package_reviews WHERE id = $1 AND package_id = $2 AND user_id = $3`
	result, err := tx.ExecContext(ctx, deleteQuery, reviewID, packageID, userID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err = recomputeRating(ctx, tx, packageID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit review delete: %w", err)
	}
	return nil
}

// RefreshSnapshots updates the denormalized reviewer name/image wherever the
// user has reviews. Called opportunistically when a profile changes.
func (r *ReviewRepository) RefreshSnapshots(ctx context.Context, userID, fullName string, profileImage *string) error {
	const query = `
UPDATE package_reviews SET full_name = $2, profile_image = $3, updated_at = $4
WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID, fullName, profileImage, time.Now().UTC()); err != nil {
		return fmt.Errorf("refresh review snapshots: %w", err)
	}
	return nil
}

func recomputeRating(ctx context.Context, tx *sqlx.Tx, packageID string) error {
	const query = `
UPDATE packages SET
	rating = COALESCE((SELECT AVG(rating)::float FROM package_reviews WHERE package_id = $1), 0),
	updated_at = $2
WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, packageID, time.Now().UTC()); err != nil {
		return fmt.Errorf("recompute package rating: %w", err)
	}
	return nil
}
