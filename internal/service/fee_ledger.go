package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/college-admin-api/internal/models"
	"github.com/noah-isme/college-admin-api/pkg/export"
)

const (
	fallbackStudentName = "Student"
	fallbackRollNumber  = "N/A"
)

var feeExportColumns = []export.Column{
	{Title: "Student Name"},
	{Title: "Roll Number"},
	{Title: "Program"},
	{Title: "Branch"},
	{Title: "Academic Year"},
	{Title: "Total Fee", Align: export.AlignRight},
	{Title: "Paid", Align: export.AlignRight},
	{Title: "Due", Align: export.AlignRight},
	{Title: "Payment Status"},
}

// Aggregate folds ledger rows into one summary per student, in the order each
// student first appears. Students without rows do not appear.
func Aggregate(rows []models.FeeLedgerRow) []models.FeeSummary {
	index := make(map[string]int, len(rows))
	summaries := make([]models.FeeSummary, 0)
	for _, row := range rows {
		i, ok := index[row.StudentID]
		if !ok {
			i = len(summaries)
			index[row.StudentID] = i
			summaries = append(summaries, models.FeeSummary{
				StudentID:    row.StudentID,
				Name:         studentDisplayName(row.StudentFullName, row.StudentEmail),
				RollNumber:   valueOr(row.StudentRollNumber, fallbackRollNumber),
				Program:      valueOr(row.Program, ""),
				Branch:       valueOr(row.Branch, ""),
				AcademicYear: valueOr(row.AcademicYear, ""),
				TotalFee:     decimal.Zero,
				Paid:         decimal.Zero,
			})
		}
		switch row.Kind {
		case models.FeeKindCharge:
			summaries[i].TotalFee = summaries[i].TotalFee.Add(row.Amount)
		case models.FeeKindPayment:
			summaries[i].Paid = summaries[i].Paid.Add(row.Amount)
		}
	}
	for i := range summaries {
		summaries[i].Due, summaries[i].Status = deriveStatus(summaries[i].TotalFee, summaries[i].Paid)
	}
	return summaries
}

// deriveStatus returns the clamped due amount and the payment status.
func deriveStatus(total, paid decimal.Decimal) (decimal.Decimal, models.FeeStatus) {
	outstanding := total.Sub(paid)
	due := decimal.Max(decimal.Zero, outstanding)
	switch {
	case outstanding.LessThanOrEqual(decimal.Zero):
		return due, models.FeeStatusPaid
	case paid.IsZero():
		return due, models.FeeStatusUnpaid
	default:
		return due, models.FeeStatusPartial
	}
}

// FilterAndSort narrows summaries by a name or roll substring and orders them
// by sortKey. Unknown keys keep the input order.
func FilterAndSort(summaries []models.FeeSummary, search string, sortKey models.FeeSortKey) []models.FeeSummary {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.FeeSummary, 0, len(summaries))
	for _, s := range summaries {
		if needle == "" ||
			strings.Contains(strings.ToLower(s.Name), needle) ||
			strings.Contains(strings.ToLower(s.RollNumber), needle) {
			out = append(out, s)
		}
	}

	switch sortKey {
	case models.FeeSortDue:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Due.GreaterThan(out[j].Due) })
	case models.FeeSortStatus:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Status.Rank() > out[j].Status.Rank() })
	}
	return out
}

// feeDataset lays summaries out in the export column order.
func feeDataset(summaries []models.FeeSummary) export.Dataset {
	data := export.Dataset{Columns: feeExportColumns, Rows: make([][]string, 0, len(summaries))}
	for _, s := range summaries {
		data.Append(
			s.Name, s.RollNumber, s.Program, s.Branch, s.AcademicYear,
			s.TotalFee.StringFixed(2), s.Paid.StringFixed(2), s.Due.StringFixed(2),
			string(s.Status),
		)
	}
	return data
}

// FeeExportFilename names an export after its academic year filter.
func FeeExportFilename(academicYear, ext string) string {
	year := strings.TrimSpace(academicYear)
	if year == "" {
		year = "all"
	}
	return fmt.Sprintf("fees_%s.%s", year, ext)
}

// parseAmount accepts a JSON number or a numeric string.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return decimal.Zero, fmt.Errorf("amount must be numeric")
		}
		trimmed = []byte(strings.TrimSpace(s))
	}
	amount, err := decimal.NewFromString(string(trimmed))
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount must be numeric")
	}
	return amount, nil
}

func studentDisplayName(fullName *string, email string) string {
	if fullName != nil && strings.TrimSpace(*fullName) != "" {
		return strings.TrimSpace(*fullName)
	}
	if local := emailLocalPart(email); local != "" {
		return local
	}
	return fallbackStudentName
}

func valueOr(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}
