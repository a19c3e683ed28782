package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeKind distinguishes ledger entries.
type FeeKind string

const (
	FeeKindCharge  FeeKind = "charge"
	FeeKindPayment FeeKind = "payment"
)

// FeeStatus is the derived payment state of a student.
type FeeStatus string

const (
	FeeStatusPaid    FeeStatus = "Paid"
	FeeStatusPartial FeeStatus = "Partial"
	FeeStatusUnpaid  FeeStatus = "Unpaid"
)

// Rank orders statuses for sorting; fully paid ranks highest.
func (s FeeStatus) Rank() int {
	switch s {
	case FeeStatusPaid:
		return 2
	case FeeStatusPartial:
		return 1
	}
	return 0
}

// FeeTransaction is a single ledger entry.
type FeeTransaction struct {
	ID           string          `db:"id" json:"id"`
	StudentID    string          `db:"student_id" json:"student_id"`
	Kind         FeeKind         `db:"kind" json:"kind"`
	FeeType      string          `db:"fee_type" json:"fee_type"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate  *time.Time      `db:"payment_date" json:"payment_date,omitempty"`
	PaymentMode  *string         `db:"payment_mode" json:"payment_mode,omitempty"`
	AcademicYear *string         `db:"academic_year" json:"academic_year,omitempty"`
	Program      *string         `db:"program" json:"program,omitempty"`
	Branch       *string         `db:"branch" json:"branch,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// FeeLedgerRow is a transaction joined with the owning student.
type FeeLedgerRow struct {
	FeeTransaction
	StudentEmail      string  `db:"student_email"`
	StudentFullName   *string `db:"student_full_name"`
	StudentRollNumber *string `db:"student_roll_number"`
}

// FeeFilter holds the exact-match filters; empty values impose no constraint.
type FeeFilter struct {
	Program      string `form:"program" json:"program"`
	Branch       string `form:"branch" json:"branch"`
	AcademicYear string `form:"academic_year" json:"academic_year"`
}

// FeeSummary is the per-student projection of the ledger. It is never stored.
type FeeSummary struct {
	StudentID    string          `json:"student_id"`
	Name         string          `json:"name"`
	RollNumber   string          `json:"roll_number"`
	Program      string          `json:"program"`
	Branch       string          `json:"branch"`
	AcademicYear string          `json:"academic_year"`
	TotalFee     decimal.Decimal `json:"total_fee"`
	Paid         decimal.Decimal `json:"paid"`
	Due          decimal.Decimal `json:"due"`
	Status       FeeStatus       `json:"status"`
}

// FeeSortKey selects the summary ordering.
type FeeSortKey string

const (
	FeeSortDue    FeeSortKey = "due"
	FeeSortStatus FeeSortKey = "status"
)

// FeeStatement is a student's own view of the ledger.
type FeeStatement struct {
	Summary      *FeeSummary      `json:"summary,omitempty"`
	Transactions []FeeTransaction `json:"transactions"`
}
