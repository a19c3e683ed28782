package service

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-admin-api/internal/models"
	"github.com/noah-isme/college-admin-api/pkg/export"
)

func ledgerRow(studentID string, kind models.FeeKind, amount int64) models.FeeLedgerRow {
	return models.FeeLedgerRow{
		FeeTransaction: models.FeeTransaction{StudentID: studentID, Kind: kind, Amount: decimal.NewFromInt(amount)},
		StudentEmail:   studentID + "@example.com",
	}
}

func TestAggregateStatusExamples(t *testing.T) {
	rows := []models.FeeLedgerRow{
		ledgerRow("paid", models.FeeKindCharge, 500),
		ledgerRow("unpaid", models.FeeKindCharge, 1000),
		ledgerRow("paid", models.FeeKindCharge, 300),
		ledgerRow("partial", models.FeeKindCharge, 1000),
		ledgerRow("paid", models.FeeKindPayment, 800),
		ledgerRow("partial", models.FeeKindPayment, 400),
	}

	summaries := Aggregate(rows)
	require.Len(t, summaries, 3)
	assert.Equal(t, []string{"paid", "unpaid", "partial"}, []string{summaries[0].StudentID, summaries[1].StudentID, summaries[2].StudentID})

	assert.Equal(t, models.FeeStatusPaid, summaries[0].Status)
	assert.True(t, summaries[0].TotalFee.Equal(decimal.NewFromInt(800)))
	assert.True(t, summaries[0].Due.IsZero())

	assert.Equal(t, models.FeeStatusUnpaid, summaries[1].Status)
	assert.True(t, summaries[1].Due.Equal(decimal.NewFromInt(1000)))

	assert.Equal(t, models.FeeStatusPartial, summaries[2].Status)
	assert.True(t, summaries[2].Due.Equal(decimal.NewFromInt(600)))
}

func TestAggregateOverpaymentAndNegativeAmounts(t *testing.T) {
	summaries := Aggregate([]models.FeeLedgerRow{
		ledgerRow("s1", models.FeeKindCharge, 100),
		ledgerRow("s1", models.FeeKindPayment, 150),
		ledgerRow("s2", models.FeeKindCharge, 500),
		ledgerRow("s2", models.FeeKindCharge, -100),
	})
	require.Len(t, summaries, 2)
	assert.Equal(t, models.FeeStatusPaid, summaries[0].Status)
	assert.True(t, summaries[0].Due.IsZero())
	assert.True(t, summaries[1].TotalFee.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, models.FeeStatusUnpaid, summaries[1].Status)
}

func TestAggregateDisplayFallbacks(t *testing.T) {
	year := "2024-25"
	rows := []models.FeeLedgerRow{
		{FeeTransaction: models.FeeTransaction{StudentID: "a", Kind: models.FeeKindCharge, Amount: decimal.NewFromInt(1), AcademicYear: &year}, StudentEmail: "asha@example.com", StudentFullName: strPtr("Asha Rao"), StudentRollNumber: strPtr("R-1")},
		{FeeTransaction: models.FeeTransaction{StudentID: "b", Kind: models.FeeKindCharge, Amount: decimal.NewFromInt(1)}, StudentEmail: "ben@example.com"},
		{FeeTransaction: models.FeeTransaction{StudentID: "c", Kind: models.FeeKindCharge, Amount: decimal.NewFromInt(1)}},
	}
	summaries := Aggregate(rows)
	require.Len(t, summaries, 3)
	assert.Equal(t, "Asha Rao", summaries[0].Name)
	assert.Equal(t, "R-1", summaries[0].RollNumber)
	assert.Equal(t, "2024-25", summaries[0].AcademicYear)
	assert.Equal(t, "ben", summaries[1].Name)
	assert.Equal(t, "N/A", summaries[1].RollNumber)
	assert.Equal(t, "Student", summaries[2].Name)
	assert.Empty(t, Aggregate(nil))
}

func TestFilterAndSortStatusIsStable(t *testing.T) {
	input := []models.FeeSummary{
		{StudentID: "u1", Status: models.FeeStatusUnpaid},
		{StudentID: "p1", Status: models.FeeStatusPaid},
		{StudentID: "pa1", Status: models.FeeStatusPartial},
		{StudentID: "u2", Status: models.FeeStatusUnpaid},
		{StudentID: "p2", Status: models.FeeStatusPaid},
		{StudentID: "pa2", Status: models.FeeStatusPartial},
	}
	out := FilterAndSort(input, "", models.FeeSortStatus)
	ids := make([]string, 0, len(out))
	for _, s := range out {
		ids = append(ids, s.StudentID)
	}
	assert.Equal(t, []string{"p1", "p2", "pa1", "pa2", "u1", "u2"}, ids)
	assert.Equal(t, "u1", input[0].StudentID)
}

func TestFilterAndSortDueAndSearch(t *testing.T) {
	input := []models.FeeSummary{
		{StudentID: "1", Name: "Asha", RollNumber: "CS-01", Due: decimal.NewFromInt(100)},
		{StudentID: "2", Name: "Ben", RollNumber: "ME-07", Due: decimal.NewFromInt(900)},
		{StudentID: "3", Name: "Chitra", RollNumber: "CS-02", Due: decimal.NewFromInt(100)},
	}
	out := FilterAndSort(input, "", models.FeeSortDue)
	assert.Equal(t, "2", out[0].StudentID)
	assert.Equal(t, "1", out[1].StudentID)
	assert.Equal(t, "3", out[2].StudentID)

	out = FilterAndSort(input, " cs- ", "name")
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].StudentID)

	out = FilterAndSort(input, "", "name")
	assert.Equal(t, []string{"1", "2", "3"}, []string{out[0].StudentID, out[1].StudentID, out[2].StudentID})

	out = FilterAndSort(input, "BEN", "")
	require.Len(t, out, 1)
	assert.Equal(t, "2", out[0].StudentID)
}

func TestFeeCSVRoundTrip(t *testing.T) {
	summaries := []models.FeeSummary{
		{Name: "Asha Rao", RollNumber: "CS-01", Program: "B.Tech", Branch: "CSE", AcademicYear: "2024-25", TotalFee: decimal.NewFromInt(1000), Paid: decimal.NewFromInt(400), Due: decimal.NewFromInt(600), Status: models.FeeStatusPartial},
		{Name: "Ben", RollNumber: "N/A", TotalFee: decimal.RequireFromString("250.5"), Paid: decimal.Zero, Due: decimal.RequireFromString("250.5"), Status: models.FeeStatusUnpaid},
	}
	data, err := export.NewCSVExporter().Render(feeDataset(summaries))
	require.NoError(t, err)

	text := string(data)
	assert.False(t, strings.HasSuffix(text, "\n"))
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student Name,Roll Number,Program,Branch,Academic Year,Total Fee,Paid,Due,Payment Status", lines[0])
	assert.Equal(t, "Asha Rao,CS-01,B.Tech,CSE,2024-25,1000.00,400.00,600.00,Partial", lines[1])
	assert.Equal(t, "Ben,N/A,,,,250.50,0.00,250.50,Unpaid", lines[2])

	records, err := csv.NewReader(strings.NewReader(text)).ReadAll()
	require.NoError(t, err)
	for i, s := range summaries {
		rec := records[i+1]
		assert.Equal(t, s.Name, rec[0])
		assert.Equal(t, s.RollNumber, rec[1])
		assert.Equal(t, string(s.Status), rec[8])
		assert.True(t, s.Due.Equal(decimal.RequireFromString(rec[7])))
	}
}

func TestFeeCSVQuotesCommas(t *testing.T) {
	data, err := export.NewCSVExporter().Render(feeDataset([]models.FeeSummary{{Name: "Rao, Asha", Status: models.FeeStatusPaid}}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Rao, Asha"`)
}

func TestFeeExportFilename(t *testing.T) {
	assert.Equal(t, "fees_2024-25.csv", FeeExportFilename("2024-25", "csv"))
	assert.Equal(t, "fees_all.csv", FeeExportFilename(" ", "csv"))
	assert.Equal(t, "fees_all.pdf", FeeExportFilename("", "pdf"))
}

func TestParseAmount(t *testing.T) {
	for raw, want := range map[string]string{`1500`: "1500", `"99.50"`: "99.5", `" 12 "`: "12", `-20`: "-20"} {
		got, err := parseAmount(json.RawMessage(raw))
		require.NoError(t, err, raw)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), raw)
	}
	for _, raw := range []string{``, `null`, `"abc"`, `true`, `{}`} {
		_, err := parseAmount(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}
