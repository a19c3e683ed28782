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

const feeColumns = `id, student_id, kind, fee_type, amount, payment_date, payment_mode, academic_year, program, branch, created_at, updated_at`

// FeeRepository reads and writes the fee ledger.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// ListLedger returns the college's transactions joined with their students in ledger order.
// Only non-empty filter values constrain the result.
func (r *FeeRepository) ListLedger(ctx context.Context, collegeID string, filter models.FeeFilter) ([]models.FeeLedgerRow, error) {
	args := []interface{}{collegeID}
	conditions := []string{"s.college_id = $1"}
	for _, f := range []struct{ column, value string }{
		{"f.program", filter.Program},
		{"f.branch", filter.Branch},
		{"f.academic_year", filter.AcademicYear},
	} {
		if f.value == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", f.column, len(args)+1))
		args = append(args, f.value)
	}

	query := fmt.Sprintf(`SELECT f.id, f.student_id, f.kind, f.fee_type, f.amount, f.payment_date, f.payment_mode, f.academic_year, f.program, f.branch, f.created_at, f.updated_at,
s.email AS student_email, s.full_name AS student_full_name, s.roll_number AS student_roll_number
FROM fee_transactions f
INNER JOIN students s ON s.id = f.student_id
WHERE %s
ORDER BY f.created_at ASC, f.id ASC`, strings.Join(conditions, " AND "))

	var rows []models.FeeLedgerRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fee ledger: %w", err)
	}
	return rows, nil
}

// ListByStudent returns a student's transactions in ledger order.
func (r *FeeRepository) ListByStudent(ctx context.Context, studentID, collegeID string) ([]models.FeeTransaction, error) {
	const query = `SELECT f.id, f.student_id, f.kind, f.fee_type, f.amount, f.payment_date, f.payment_mode, f.academic_year, f.program, f.branch, f.created_at, f.updated_at
FROM fee_transactions f
INNER JOIN students s ON s.id = f.student_id
WHERE f.student_id = $1 AND s.college_id = $2
ORDER BY f.created_at ASC, f.id ASC`
	var items []models.FeeTransaction
	if err := r.db.SelectContext(ctx, &items, query, studentID, collegeID); err != nil {
		return nil, fmt.Errorf("list student fee transactions: %w", err)
	}
	return items, nil
}

// FindByID returns a transaction whose student belongs to the college.
func (r *FeeRepository) FindByID(ctx context.Context, id, collegeID string) (*models.FeeTransaction, error) {
	const query = `SELECT f.id, f.student_id, f.kind, f.fee_type, f.amount, f.payment_date, f.payment_mode, f.academic_year, f.program, f.branch, f.created_at, f.updated_at
FROM fee_transactions f
INNER JOIN students s ON s.id = f.student_id
WHERE f.id = $1 AND s.college_id = $2
LIMIT 1`
	var tx models.FeeTransaction
	if err := r.db.GetContext(ctx, &tx, query, id, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find fee transaction: %w", err)
	}
	return &tx, nil
}

// Create inserts a ledger entry.
func (r *FeeRepository) Create(ctx context.Context, tx *models.FeeTransaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now
	query := `INSERT INTO fee_transactions (` + feeColumns + `)
VALUES (:id, :student_id, :kind, :fee_type, :amount, :payment_date, :payment_mode, :academic_year, :program, :branch, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tx); err != nil {
		return fmt.Errorf("create fee transaction: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a ledger entry. Kind and student never change.
func (r *FeeRepository) Update(ctx context.Context, tx *models.FeeTransaction) error {
	tx.UpdatedAt = time.Now().UTC()
	const query = `UPDATE fee_transactions SET fee_type = :fee_type, amount = :amount, payment_date = :payment_date, payment_mode = :payment_mode,
academic_year = :academic_year, program = :program, branch = :branch, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, tx)
	if err != nil {
		return fmt.Errorf("update fee transaction: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
