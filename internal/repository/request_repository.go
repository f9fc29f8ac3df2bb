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

// RequestRepository persists visit requests. Admission (one outstanding
// request per submitter) is enforced by locking the submitter's active rows
// before inserting, so concurrent submissions serialize.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `
	id, user_id, role, full_name, email, phone, industry, visit_date,
	students_count, faculty, transport, package_details, activity, duration,
	distance, ticket_cost, driver_phone_number, checklist, student_rep,
	status, submitted_at`

// FindOutstanding returns the submitter's pending or approved request, or nil.
func (r *RequestRepository) FindOutstanding(ctx context.Context, userID string) (*models.VisitRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM visit_requests WHERE user_id = $1 AND status IN ($2, $3) LIMIT 1`, requestColumns)
	var item models.VisitRequest
	if err := r.db.GetContext(ctx, &item, query, userID, models.RequestPending, models.RequestApproved); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find outstanding request: %w", err)
	}
	return &item, nil
}

// Create inserts a new pending request unless the submitter already has an
// outstanding one. When blocked it returns the existing request together
// with ErrOutstandingRequest.
func (r *RequestRepository) Create(ctx context.Context, req *models.VisitRequest) (existing *models.VisitRequest, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin request transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockQuery := fmt.Sprintf(`SELECT %s FROM visit_requests WHERE user_id = $1 AND status IN ($2, $3) LIMIT 1 FOR UPDATE`, requestColumns)
	var current models.VisitRequest
	err = tx.GetContext(ctx, &current, lockQuery, req.UserID, models.RequestPending, models.RequestApproved)
	if err == nil {
		return &current, ErrOutstandingRequest
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("lock outstanding request: %w", err)
	}
	err = nil

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.RequestPending
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now().UTC()
	}

	const insertQuery = `
INSERT INTO visit_requests (id, user_id, role, full_name, email, phone, industry, visit_date, students_count, faculty, transport, package_details, activity, duration, distance, ticket_cost, driver_phone_number, checklist, student_rep, status, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	if _, err = tx.ExecContext(ctx, insertQuery,
		req.ID, req.UserID, req.Role, req.FullName, req.Email, req.Phone,
		req.Industry, req.VisitDate, req.StudentsCount, req.Faculty,
		req.Transport, req.PackageDetails, req.Activity, req.Duration,
		req.Distance, req.TicketCost, req.DriverPhoneNumber, req.Checklist,
		req.StudentRep, req.Status, req.SubmittedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrOutstandingRequest
		}
		return nil, fmt.Errorf("insert request: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit request: %w", err)
	}
	return nil, nil
}

// List returns all requests, newest first (HOD review queue).
func (r *RequestRepository) List(ctx context.Context) ([]models.VisitRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM visit_requests ORDER BY submitted_at DESC`, requestColumns)
	var items []models.VisitRequest
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return items, nil
}

// ListByUser returns a submitter's requests, newest first.
func (r *RequestRepository) ListByUser(ctx context.Context, userID string) ([]models.VisitRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM visit_requests WHERE user_id = $1 ORDER BY submitted_at DESC`, requestColumns)
	var items []models.VisitRequest
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list requests by user: %w", err)
	}
	return items, nil
}

// GetByID fetches a single request.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.VisitRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM visit_requests WHERE id = $1`, requestColumns)
	var item models.VisitRequest
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return &item, nil
}

// UpdateStatus transitions a request to the given state.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE visit_requests SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update request status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM visit_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete request rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
