package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-admin-api/internal/models"
)

var ledgerColumns = []string{"id", "student_id", "kind", "fee_type", "amount", "payment_date", "payment_mode", "academic_year", "program", "branch", "created_at", "updated_at", "student_email", "student_full_name", "student_roll_number"}

func TestListLedgerAppliesOnlyNonEmptyFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(ledgerColumns).
		AddRow("f1", "s1", "charge", "tuition", "1000.00", nil, nil, "2024-25", "BTech", "CSE", now, now, "asha@college.edu", "Asha", "R1").
		AddRow("f2", "s1", "payment", "tuition", "400.50", now, "upi", "2024-25", "BTech", "CSE", now, now, "asha@college.edu", "Asha", "R1")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.college_id = $1 AND f.program = $2 AND f.academic_year = $3\nORDER BY f.created_at ASC, f.id ASC")).
		WithArgs("c1", "BTech", "2024-25").
		WillReturnRows(rows)

	items, err := repo.ListLedger(context.Background(), "c1", models.FeeFilter{Program: "BTech", AcademicYear: "2024-25"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.FeeKindCharge, items[0].Kind)
	assert.True(t, items[1].Amount.Equal(decimal.RequireFromString("400.5")))
	require.NotNil(t, items[1].StudentFullName)
	assert.Equal(t, "Asha", *items[1].StudentFullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLedgerWithoutFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.college_id = $1\nORDER BY")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(ledgerColumns))

	items, err := repo.ListLedger(context.Background(), "c1", models.FeeFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectExec("UPDATE fee_transactions SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.FeeTransaction{ID: "missing", Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRepository(db)

	mock.ExpectExec("INSERT INTO fee_transactions").WillReturnResult(sqlmock.NewResult(1, 1))

	tx := &models.FeeTransaction{StudentID: "s1", Kind: models.FeeKindPayment, Amount: decimal.RequireFromString("250.00")}
	require.NoError(t, repo.Create(context.Background(), tx))
	assert.NotEmpty(t, tx.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
