package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-admin-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var collegeRowColumns = []string{"id", "name", "code", "address", "city", "state", "pincode", "phone", "email", "website", "logo_url", "created_at", "updated_at"}

func TestCollegeListOrderedByName(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCollegeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(collegeRowColumns).
		AddRow("c1", "Alpha College", "ALP", "", "Pune", "MH", "411001", "", "", nil, nil, now, now).
		AddRow("c2", "Beta College", "BET", "", "Delhi", "DL", "110001", "", "", "https://beta.edu", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM colleges ORDER BY name ASC")).WillReturnRows(rows)

	colleges, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, colleges, 2)
	assert.Equal(t, "Alpha College", colleges[0].Name)
	require.NotNil(t, colleges[1].Website)
	assert.Equal(t, "https://beta.edu", *colleges[1].Website)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollegeFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCollegeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM colleges WHERE id = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollegeCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCollegeRepository(db)

	mock.ExpectExec("INSERT INTO colleges").WillReturnResult(sqlmock.NewResult(1, 1))

	college := &models.College{Name: "Gamma", Code: "GAM"}
	require.NoError(t, repo.Create(context.Background(), college))
	assert.NotEmpty(t, college.ID)
	assert.False(t, college.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
