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

const studentColumns = `id, user_id, email, college_id, full_name, roll_number, program, branch, academic_year, documents, created_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student of the college.
func (r *StudentRepository) FindByID(ctx context.Context, id, collegeID string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1 AND college_id = $2 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindByUserID returns the student row an identity holds in the college.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID, collegeID string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE user_id = $1 AND college_id = $2 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user: %w", err)
	}
	return &student, nil
}

// Create inserts a new student row.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	if student.Documents == nil {
		student.Documents = models.JSONMap{}
	}
	const query = `INSERT INTO students (id, user_id, email, college_id, full_name, roll_number, program, branch, academic_year, documents, created_at)
VALUES (:id, :user_id, :email, :college_id, :full_name, :roll_number, :program, :branch, :academic_year, :documents, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}
