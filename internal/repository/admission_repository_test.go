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

func TestListPendingNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "college_id", "email", "data", "created_at"}).
		AddRow("p2", "c1", "b@mail.com", []byte(`{"full_name":"B"}`), now).
		AddRow("p1", "c1", "a@mail.com", []byte(`{"data":{"name":"A"}}`), now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM pending_admissions WHERE college_id = $1 ORDER BY created_at DESC, id DESC LIMIT 20 OFFSET 0")).
		WithArgs("c1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pending_admissions WHERE college_id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	items, total, err := repo.ListPending(context.Background(), models.AdmissionFilter{CollegeID: "c1"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, total)
	assert.Equal(t, "p2", items[0].ID)
	assert.Equal(t, "B", items[0].Data["full_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE college_id = $1 AND (LOWER(email) LIKE $2 OR LOWER(data::text) LIKE $2)")).
		WithArgs("c1", "%asha%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "college_id", "email", "data", "created_at"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM pending_admissions")).
		WithArgs("c1", "%asha%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.ListPending(context.Background(), models.AdmissionFilter{CollegeID: "c1", Search: " Asha "})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDecisionMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM admission_decisions WHERE pending_admission_id = $1 AND college_id = $2")).
		WithArgs("p1", "c1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindDecision(context.Background(), "p1", "c1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectedIgnoresDuplicates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (pending_admission_id) DO NOTHING")).WillReturnResult(sqlmock.NewResult(0, 0))

	rejected := &models.RejectedAdmission{PendingAdmissionID: "p1", CollegeID: "c1", Email: "a@mail.com", RejectedBy: "Admin", RejectedReason: "incomplete"}
	require.NoError(t, repo.CreateRejected(context.Background(), rejected))
	assert.NotEmpty(t, rejected.ID)
	assert.NotNil(t, rejected.ApplicationData)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePendingScopesToCollege(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM pending_admissions WHERE id = $1 AND college_id = $2")).
		WithArgs("p1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeletePending(context.Background(), "p1", "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
