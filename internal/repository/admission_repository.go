package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-admin-api/internal/models"
)

const (
	pendingColumns  = `id, college_id, email, data, created_at`
	rejectedColumns = `id, pending_admission_id, college_id, email, rejected_by, rejected_reason, rejected_at, application_data`
	decisionColumns = `pending_admission_id, college_id, decision, user_id, student_id, decided_by, decided_at`
)

// AdmissionRepository stores pending and rejected applications and their decisions.
type AdmissionRepository struct {
	db *sqlx.DB
}

// NewAdmissionRepository constructs an AdmissionRepository.
func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// CreatePending inserts a submitted application.
func (r *AdmissionRepository) CreatePending(ctx context.Context, pending *models.PendingAdmission) error {
	if pending.ID == "" {
		pending.ID = uuid.NewString()
	}
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now().UTC()
	}
	if pending.Data == nil {
		pending.Data = models.JSONMap{}
	}
	const query = `INSERT INTO pending_admissions (id, college_id, email, data, created_at) VALUES (:id, :college_id, :email, :data, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, pending); err != nil {
		return fmt.Errorf("create pending admission: %w", err)
	}
	return nil
}

// FindPending returns a pending application of the college.
func (r *AdmissionRepository) FindPending(ctx context.Context, id, collegeID string) (*models.PendingAdmission, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_admissions WHERE id = $1 AND college_id = $2 LIMIT 1`
	var pending models.PendingAdmission
	if err := r.db.GetContext(ctx, &pending, query, id, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find pending admission: %w", err)
	}
	return &pending, nil
}

// ListPending returns pending applications newest first with the total count.
func (r *AdmissionRepository) ListPending(ctx context.Context, filter models.AdmissionFilter) ([]models.PendingAdmission, int, error) {
	base, args := admissionScope("pending_admissions", "email", "data", filter)
	page := models.Pagination{Page: filter.Page, PageSize: filter.PageSize}
	offset := page.Normalize()

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d", pendingColumns, base, page.PageSize, offset)
	var items []models.PendingAdmission
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list pending admissions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count pending admissions: %w", err)
	}
	return items, total, nil
}

// DeletePending removes a pending application. Deleting a missing row is not an error.
func (r *AdmissionRepository) DeletePending(ctx context.Context, id, collegeID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_admissions WHERE id = $1 AND college_id = $2`, id, collegeID); err != nil {
		return fmt.Errorf("delete pending admission: %w", err)
	}
	return nil
}

// FindDecision returns the recorded decision for a pending application.
func (r *AdmissionRepository) FindDecision(ctx context.Context, pendingID, collegeID string) (*models.AdmissionDecision, error) {
	query := `SELECT ` + decisionColumns + ` FROM admission_decisions WHERE pending_admission_id = $1 AND college_id = $2 LIMIT 1`
	var decision models.AdmissionDecision
	if err := r.db.GetContext(ctx, &decision, query, pendingID, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admission decision: %w", err)
	}
	return &decision, nil
}

// CreateDecision records a decision. A decision already stored for the application is kept.
func (r *AdmissionRepository) CreateDecision(ctx context.Context, decision *models.AdmissionDecision) error {
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = time.Now().UTC()
	}
	const query = `INSERT INTO admission_decisions (pending_admission_id, college_id, decision, user_id, student_id, decided_by, decided_at)
VALUES (:pending_admission_id, :college_id, :decision, :user_id, :student_id, :decided_by, :decided_at)
ON CONFLICT (pending_admission_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, decision); err != nil {
		return fmt.Errorf("create admission decision: %w", err)
	}
	return nil
}

// FindRejectedByPendingID returns the archive entry created for a pending application.
func (r *AdmissionRepository) FindRejectedByPendingID(ctx context.Context, pendingID, collegeID string) (*models.RejectedAdmission, error) {
	query := `SELECT ` + rejectedColumns + ` FROM rejected_admissions WHERE pending_admission_id = $1 AND college_id = $2 LIMIT 1`
	var rejected models.RejectedAdmission
	if err := r.db.GetContext(ctx, &rejected, query, pendingID, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find rejected admission: %w", err)
	}
	return &rejected, nil
}

// CreateRejected archives a rejected application.
func (r *AdmissionRepository) CreateRejected(ctx context.Context, rejected *models.RejectedAdmission) error {
	if rejected.ID == "" {
		rejected.ID = uuid.NewString()
	}
	if rejected.RejectedAt.IsZero() {
		rejected.RejectedAt = time.Now().UTC()
	}
	if rejected.ApplicationData == nil {
		rejected.ApplicationData = models.JSONMap{}
	}
	const query = `INSERT INTO rejected_admissions (id, pending_admission_id, college_id, email, rejected_by, rejected_reason, rejected_at, application_data)
VALUES (:id, :pending_admission_id, :college_id, :email, :rejected_by, :rejected_reason, :rejected_at, :application_data)
ON CONFLICT (pending_admission_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, rejected); err != nil {
		return fmt.Errorf("create rejected admission: %w", err)
	}
	return nil
}

// ListRejected returns archived rejections newest first with the total count.
func (r *AdmissionRepository) ListRejected(ctx context.Context, filter models.AdmissionFilter) ([]models.RejectedAdmission, int, error) {
	base, args := admissionScope("rejected_admissions", "email", "application_data", filter)
	page := models.Pagination{Page: filter.Page, PageSize: filter.PageSize}
	offset := page.Normalize()

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY rejected_at DESC, id DESC LIMIT %d OFFSET %d", rejectedColumns, base, page.PageSize, offset)
	var items []models.RejectedAdmission
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list rejected admissions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count rejected admissions: %w", err)
	}
	return items, total, nil
}

func admissionScope(table, emailColumn, dataColumn string, filter models.AdmissionFilter) (string, []interface{}) {
	args := []interface{}{filter.CollegeID}
	conditions := []string{"college_id = $1"}
	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(%s) LIKE $%d OR LOWER(%s::text) LIKE $%d)", emailColumn, len(args)+1, dataColumn, len(args)+1))
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	return fmt.Sprintf("FROM %s WHERE %s", table, strings.Join(conditions, " AND ")), args
}
