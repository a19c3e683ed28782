package dto

import "encoding/json"

// RecordFeeTransactionRequest inserts a ledger entry, or updates one when ID is set.
// Amount accepts a JSON number or a numeric string.
type RecordFeeTransactionRequest struct {
	ID           string          `json:"id"`
	StudentID    string          `json:"student_id" validate:"required_without=ID"`
	Kind         string          `json:"kind" validate:"omitempty,oneof=charge payment"`
	FeeType      string          `json:"fee_type" validate:"max=80"`
	Amount       json.RawMessage `json:"amount"`
	PaymentDate  *string         `json:"payment_date" validate:"omitempty,datetime=2006-01-02"`
	PaymentMode  *string         `json:"payment_mode" validate:"omitempty,max=40"`
	AcademicYear *string         `json:"academic_year" validate:"omitempty,max=20"`
	Program      *string         `json:"program" validate:"omitempty,max=80"`
	Branch       *string         `json:"branch" validate:"omitempty,max=80"`
}

// FeeSummaryQuery is bound from the summaries and export query strings.
type FeeSummaryQuery struct {
	Program      string `form:"program"`
	Branch       string `form:"branch"`
	AcademicYear string `form:"academic_year"`
	Search       string `form:"search"`
	Sort         string `form:"sort"`
	Format       string `form:"format"`
}
