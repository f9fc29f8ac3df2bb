package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ivms-api/internal/models"
)

// PackageRepository provides persistence for visit packages and their
// embedded review threads.
type PackageRepository struct {
	db *sqlx.DB
}

// NewPackageRepository constructs the repository.
func NewPackageRepository(db *sqlx.DB) *PackageRepository {
	return &PackageRepository{db: db}
}

const packageColumns = `
	id, name, description, duration, price, activities, inclusions,
	instructions, image_path, votes, vote_percentage, rating, created_at, updated_at`

// Create inserts a new package with zeroed aggregates.
func (r *PackageRepository) Create(ctx context.Context, p *models.Package) error {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	const query = `
INSERT INTO packages (id, name, description, duration, price, activities, inclusions, instructions, image_path, votes, vote_percentage, rating, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0, 0, $10, $11)`
	if _, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Duration, p.Price,
		pq.Array([]string(p.Activities)), pq.Array([]string(p.Inclusions)),
		p.Instructions, p.ImagePath, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert package: %w", err)
	}
	return nil
}

// Update overwrites package content fields. Aggregates (votes, percentage,
// rating) are owned by the vote ledger and review aggregator and stay put.
func (r *PackageRepository) Update(ctx context.Context, p *models.Package) error {
	p.UpdatedAt = time.Now().UTC()

	const query = `
UPDATE packages SET
	name = $2, description = $3, duration = $4, price = $5,
	activities = $6, inclusions = $7, instructions = $8, image_path = $9,
	updated_at = $10
WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.Duration, p.Price,
		pq.Array([]string(p.Activities)), pq.Array([]string(p.Inclusions)),
		p.Instructions, p.ImagePath, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update package rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns all packages ordered by creation time.
func (r *PackageRepository) List(ctx context.Context) ([]models.Package, error) {
	query := fmt.Sprintf(`SELECT %s FROM packages ORDER BY created_at ASC`, packageColumns)
	var items []models.Package
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return items, nil
}

// GetByID fetches a single package.
func (r *PackageRepository) GetByID(ctx context.Context, id string) (*models.Package, error) {
	query := fmt.Sprintf(`SELECT %s FROM packages WHERE id = $1`, packageColumns)
	var item models.Package
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, fmt.Errorf("get package: %w", err)
	}
	return &item, nil
}

// ListReviews returns a package's reviews in posting order.
func (r *PackageRepository) ListReviews(ctx context.Context, packageID string) ([]models.Review, error) {
	const query = `
SELECT id, package_id, user_id, full_name, profile_image, rating, comment, created_at, updated_at
FROM package_reviews
WHERE package_id = $1
ORDER BY created_at ASC`
	var items []models.Review
	if err := r.db.SelectContext(ctx, &items, query, packageID); err != nil {
		return nil, fmt.Errorf("list package reviews: %w", err)
	}
	return items, nil
}
