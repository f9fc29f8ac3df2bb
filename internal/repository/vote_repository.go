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

// VoteRepository is the vote ledger's store. Casting a vote, bumping the
// target counter and rewriting every package's percentage share happen in one
// transaction, so concurrent casts serialize on the unique student index
// instead of racing a read-then-write check.
type VoteRepository struct {
	db *sqlx.DB
}

// NewVoteRepository constructs the repository.
func NewVoteRepository(db *sqlx.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// FindByStudent returns the student's existing vote, or nil.
func (r *VoteRepository) FindByStudent(ctx context.Context, studentID string) (*models.Vote, error) {
	const query = `SELECT id, student_id, package_id, created_at FROM package_votes WHERE student_id = $1`
	var item models.Vote
	if err := r.db.GetContext(ctx, &item, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find vote by student: %w", err)
	}
	return &item, nil
}

// Cast inserts the vote, increments the target package counter and rewrites
// vote_percentage across all packages from the committed totals.
// Returns ErrDuplicateKey when the student already voted and sql.ErrNoRows
// when the package does not exist.
func (r *VoteRepository) Cast(ctx context.Context, vote *models.Vote) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin vote transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	vote.CreatedAt = time.Now().UTC()

	const insertQuery = `INSERT INTO package_votes (id, student_id, package_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err = tx.ExecContext(ctx, insertQuery, vote.ID, vote.StudentID, vote.PackageID, vote.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		// The package foreign key trips before the counter update would.
		if isForeignKeyViolation(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("insert vote: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE packages SET votes = votes + 1, updated_at = $2 WHERE id = $1`, vote.PackageID, vote.CreatedAt)
	if err != nil {
		return fmt.Errorf("increment package votes: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment package votes rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	const rebalanceQuery = `
UPDATE packages SET vote_percentage = CASE
	WHEN totals.total = 0 THEN 0
	ELSE packages.votes * 100.0 / totals.total
END
FROM (SELECT COALESCE(SUM(votes), 0) AS total FROM packages) AS totals`
	if _, err = tx.ExecContext(ctx, rebalanceQuery); err != nil {
		return fmt.Errorf("rebalance vote percentages: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit vote: %w", err)
	}
	return nil
}

// ListVotedUsers joins votes to the user directory, skipping votes whose
// student id no longer resolves.
func (r *VoteRepository) ListVotedUsers(ctx context.Context) ([]models.VotedUser, error) {
	const query = `
SELECT
	v.student_id AS student_id,
	u.full_name AS full_name,
	u.gender AS gender,
	v.package_id AS package_id,
	v.created_at AS voted_at
FROM package_votes v
JOIN users u ON u.id = v.student_id
ORDER BY v.created_at ASC`
	var items []models.VotedUser
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list voted users: %w", err)
	}
	return items, nil
}
