package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-admin-api/internal/models"
)

var studentRowColumns = []string{"id", "user_id", "email", "college_id", "full_name", "roll_number", "program", "branch", "academic_year", "documents", "created_at"}

func TestStudentFindByUserIDIsTenantScoped(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow("s1", "u1", "asha@example.com", "c1", "Asha", "CS-01", "BTech", "CSE", "2024-25", []byte(`{"marksheet":"c1/1_a_marks.pdf"}`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE user_id = $1 AND college_id = $2")).
		WithArgs("u1", "c1").
		WillReturnRows(rows)

	student, err := repo.FindByUserID(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "s1", student.ID)
	assert.Equal(t, "CS-01", *student.RollNumber)
	assert.Equal(t, "c1/1_a_marks.pdf", student.Documents["marksheet"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id = $1 AND college_id = $2")).
		WithArgs("s9", "c1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "s9", "c1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "u1", "asha@example.com", "c1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{UserID: "u1", Email: "asha@example.com", CollegeID: "c1"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.False(t, student.CreatedAt.IsZero())
	assert.NotNil(t, student.Documents)
	assert.NoError(t, mock.ExpectationsWereMet())
}
