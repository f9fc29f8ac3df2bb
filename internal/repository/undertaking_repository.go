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

// UndertakingRepository persists signed declaration forms. Uniqueness per
// (user, student, semester) is a database constraint; lookups are explicit
// about whether they match the record id or the applicant reference.
type UndertakingRepository struct {
	db *sqlx.DB
}

// NewUndertakingRepository constructs the repository.
func NewUndertakingRepository(db *sqlx.DB) *UndertakingRepository {
	return &UndertakingRepository{db: db}
}

const undertakingColumns = `
	id, user_id, student_id, semester, branch, roll_no, parent_name,
	places_visited, tour_period, faculty_details, student_signature_path,
	parent_signature_path, created_at, updated_at`

// FindExisting returns the undertaking already filed for the applicant,
// student and semester, or nil.
func (r *UndertakingRepository) FindExisting(ctx context.Context, userID, studentID, semester string) (*models.Undertaking, error) {
	query := fmt.Sprintf(`SELECT %s FROM undertakings WHERE user_id = $1 AND student_id = $2 AND semester = $3`, undertakingColumns)
	var item models.Undertaking
	if err := r.db.GetContext(ctx, &item, query, userID, studentID, semester); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find existing undertaking: %w", err)
	}
	return &item, nil
}

// Create inserts a new undertaking. Returns ErrDuplicateKey when one already
// exists for the same (user, student, semester).
func (r *UndertakingRepository) Create(ctx context.Context, u *models.Undertaking) error {
	now := time.Now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	const query = `
INSERT INTO undertakings (id, user_id, student_id, semester, branch, roll_no, parent_name, places_visited, tour_period, faculty_details, student_signature_path, parent_signature_path, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := r.db.ExecContext(ctx, query,
		u.ID, u.UserID, u.StudentID, u.Semester, u.Branch, u.RollNo,
		u.ParentName, u.PlacesVisited, u.TourPeriod, u.FacultyDetails,
		u.StudentSignaturePath, u.ParentSignaturePath, u.CreatedAt, u.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert undertaking: %w", err)
	}
	return nil
}

// Get resolves a tagged reference to a single undertaking.
func (r *UndertakingRepository) Get(ctx context.Context, ref models.UndertakingRef) (*models.Undertaking, error) {
	column := "id"
	if ref.Kind == models.UndertakingByApplicant {
		column = "user_id"
	}
	query := fmt.Sprintf(`SELECT %s FROM undertakings WHERE %s = $1 ORDER BY created_at DESC LIMIT 1`, undertakingColumns, column)
	var item models.Undertaking
	if err := r.db.GetContext(ctx, &item, query, ref.ID); err != nil {
		return nil, fmt.Errorf("get undertaking: %w", err)
	}
	return &item, nil
}

// Update overwrites the mutable fields of an undertaking.
func (r *UndertakingRepository) Update(ctx context.Context, u *models.Undertaking) error {
	u.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE undertakings SET
	semester = $2, branch = $3, roll_no = $4, parent_name = $5,
	places_visited = $6, tour_period = $7, faculty_details = $8,
	student_signature_path = $9, parent_signature_path = $10, updated_at = $11
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		u.ID, u.Semester, u.Branch, u.RollNo, u.ParentName,
		u.PlacesVisited, u.TourPeriod, u.FacultyDetails,
		u.StudentSignaturePath, u.ParentSignaturePath, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("update undertaking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update undertaking rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an undertaking by id.
func (r *UndertakingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM undertakings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete undertaking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete undertaking rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
