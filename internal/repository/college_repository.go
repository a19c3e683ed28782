package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-admin-api/internal/models"
)

const collegeColumns = `id, name, code, address, city, state, pincode, phone, email, website, logo_url, created_at, updated_at`

// CollegeRepository provides database access for tenants.
type CollegeRepository struct {
	db *sqlx.DB
}

// NewCollegeRepository creates a new instance of CollegeRepository.
func NewCollegeRepository(db *sqlx.DB) *CollegeRepository {
	return &CollegeRepository{db: db}
}

// List returns every college ordered by name.
func (r *CollegeRepository) List(ctx context.Context) ([]models.College, error) {
	query := `SELECT ` + collegeColumns + ` FROM colleges ORDER BY name ASC`
	var colleges []models.College
	if err := r.db.SelectContext(ctx, &colleges, query); err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	return colleges, nil
}

// FindByID returns a college by identifier.
func (r *CollegeRepository) FindByID(ctx context.Context, id string) (*models.College, error) {
	query := `SELECT ` + collegeColumns + ` FROM colleges WHERE id = $1 LIMIT 1`
	var college models.College
	if err := r.db.GetContext(ctx, &college, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find college by id: %w", err)
	}
	return &college, nil
}

// ExistsByNameOrCode reports whether a college already uses the name or code.
func (r *CollegeRepository) ExistsByNameOrCode(ctx context.Context, name, code string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM colleges WHERE LOWER(name) = LOWER($1) OR LOWER(code) = LOWER($2))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name, code); err != nil {
		return false, fmt.Errorf("check college exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new college.
func (r *CollegeRepository) Create(ctx context.Context, college *models.College) error {
	if college.ID == "" {
		college.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if college.CreatedAt.IsZero() {
		college.CreatedAt = now
	}
	college.UpdatedAt = now

	const query = `INSERT INTO colleges (id, name, code, address, city, state, pincode, phone, email, website, logo_url, created_at, updated_at)
VALUES (:id, :name, :code, :address, :city, :state, :pincode, :phone, :email, :website, :logo_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, college); err != nil {
		return fmt.Errorf("create college: %w", err)
	}
	return nil
}

// Delete removes a college. Used to undo a registration that failed half way.
func (r *CollegeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM colleges WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete college: %w", err)
	}
	return nil
}
