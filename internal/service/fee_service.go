package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
	"github.com/noah-isme/college-admin-api/pkg/export"
	"github.com/noah-isme/college-admin-api/pkg/logger"
)

const (
	feeExportCSV = "csv"
	feeExportPDF = "pdf"
)

type feeRepository interface {
	ListLedger(ctx context.Context, collegeID string, filter models.FeeFilter) ([]models.FeeLedgerRow, error)
	ListByStudent(ctx context.Context, studentID, collegeID string) ([]models.FeeTransaction, error)
	FindByID(ctx context.Context, id, collegeID string) (*models.FeeTransaction, error)
	Create(ctx context.Context, tx *models.FeeTransaction) error
	Update(ctx context.Context, tx *models.FeeTransaction) error
}

type feeStudentFinder interface {
	FindByID(ctx context.Context, id, collegeID string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID, collegeID string) (*models.Student, error)
}

type feeMetrics interface {
	ObserveDBQuery(label string, duration time.Duration)
	RecordFeeTransaction(kind models.FeeKind)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// FeeExport is a rendered fee report ready to be sent as an attachment.
type FeeExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FeeService aggregates the fee ledger and records transactions.
type FeeService struct {
	repo      feeRepository
	students  feeStudentFinder
	metrics   feeMetrics
	csv       csvRenderer
	pdf       pdfRenderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeService constructs a FeeService.
func NewFeeService(repo feeRepository, students feeStudentFinder, metrics feeMetrics, validate *validator.Validate, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *FeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &FeeService{
		repo:      repo,
		students:  students,
		metrics:   metrics,
		csv:       csv,
		pdf:       pdf,
		validator: validate,
		logger:    logger,
	}
}

// LoadSummaries aggregates the tenant's ledger into per-student summaries.
func (s *FeeService) LoadSummaries(ctx context.Context, principal models.Principal, filter models.FeeFilter) ([]models.FeeSummary, error) {
	collegeID, err := tenantOf(principal)
	if err != nil {
		return nil, err
	}
	filter.Program = strings.TrimSpace(filter.Program)
	filter.Branch = strings.TrimSpace(filter.Branch)
	filter.AcademicYear = strings.TrimSpace(filter.AcademicYear)

	start := time.Now()
	rows, err := s.repo.ListLedger(ctx, collegeID, filter)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("fee_ledger", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Store(err, "failed to load fee ledger")
	}
	return Aggregate(rows), nil
}

// Summaries loads, filters and sorts summaries for a list query.
func (s *FeeService) Summaries(ctx context.Context, principal models.Principal, query dto.FeeSummaryQuery) ([]models.FeeSummary, error) {
	summaries, err := s.LoadSummaries(ctx, principal, models.FeeFilter{
		Program:      query.Program,
		Branch:       query.Branch,
		AcademicYear: query.AcademicYear,
	})
	if err != nil {
		return nil, err
	}
	return FilterAndSort(summaries, query.Search, models.FeeSortKey(strings.ToLower(strings.TrimSpace(query.Sort)))), nil
}

// RecordTransaction inserts a ledger entry, or updates the mutable fields of an
// existing one when req.ID is set.
func (s *FeeService) RecordTransaction(ctx context.Context, principal models.Principal, req dto.RecordFeeTransactionRequest) (*models.FeeTransaction, error) {
	collegeID, err := tenantOf(principal)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid fee transaction payload")
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	paymentDate, err := parsePaymentDate(req.PaymentDate)
	if err != nil {
		return nil, err
	}

	if req.ID != "" {
		return s.updateTransaction(ctx, collegeID, req, amount, paymentDate)
	}

	if req.Kind == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind is required")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Store(err, "failed to load student")
	}
	tx := &models.FeeTransaction{
		StudentID:    req.StudentID,
		Kind:         models.FeeKind(req.Kind),
		FeeType:      strings.TrimSpace(req.FeeType),
		Amount:       amount,
		PaymentDate:  paymentDate,
		PaymentMode:  trimmedOrNil(req.PaymentMode),
		AcademicYear: trimmedOrNil(req.AcademicYear),
		Program:      trimmedOrNil(req.Program),
		Branch:       trimmedOrNil(req.Branch),
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, appErrors.Store(err, "failed to record fee transaction")
	}
	if s.metrics != nil {
		s.metrics.RecordFeeTransaction(tx.Kind)
	}
	logger.For(ctx, s.logger).Info("fee transaction recorded",
		zap.String("transaction_id", tx.ID),
		zap.String("student_id", tx.StudentID),
		zap.String("kind", string(tx.Kind)),
	)
	return tx, nil
}

func (s *FeeService) updateTransaction(ctx context.Context, collegeID string, req dto.RecordFeeTransactionRequest, amount decimal.Decimal, paymentDate *time.Time) (*models.FeeTransaction, error) {
	existing, err := s.repo.FindByID(ctx, req.ID, collegeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee transaction not found")
		}
		return nil, appErrors.Store(err, "failed to load fee transaction")
	}
	if req.Kind != "" && models.FeeKind(req.Kind) != existing.Kind {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind cannot be changed")
	}
	if req.StudentID != "" && req.StudentID != existing.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student cannot be changed")
	}

	existing.FeeType = strings.TrimSpace(req.FeeType)
	existing.Amount = amount
	existing.PaymentDate = paymentDate
	existing.PaymentMode = trimmedOrNil(req.PaymentMode)
	existing.AcademicYear = trimmedOrNil(req.AcademicYear)
	existing.Program = trimmedOrNil(req.Program)
	existing.Branch = trimmedOrNil(req.Branch)
	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee transaction not found")
		}
		return nil, appErrors.Store(err, "failed to update fee transaction")
	}
	logger.For(ctx, s.logger).Info("fee transaction updated", zap.String("transaction_id", existing.ID))
	return existing, nil
}

// ListStudentTransactions returns a tenant student's ledger entries.
func (s *FeeService) ListStudentTransactions(ctx context.Context, principal models.Principal, studentID string) ([]models.FeeTransaction, error) {
	collegeID, err := tenantOf(principal)
	if err != nil {
		return nil, err
	}
	if _, err := s.students.FindByID(ctx, studentID, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Store(err, "failed to load student")
	}
	items, err := s.repo.ListByStudent(ctx, studentID, collegeID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list fee transactions")
	}
	if items == nil {
		items = []models.FeeTransaction{}
	}
	return items, nil
}

// StudentStatement returns the caller's own fee summary and transactions.
func (s *FeeService) StudentStatement(ctx context.Context, principal models.Principal) (*models.FeeStatement, error) {
	collegeID, err := tenantOf(principal)
	if err != nil {
		return nil, err
	}
	student, err := s.students.FindByUserID(ctx, principal.SessionUserID(), collegeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student record not found")
		}
		return nil, appErrors.Store(err, "failed to load student")
	}
	items, err := s.repo.ListByStudent(ctx, student.ID, collegeID)
	if err != nil {
		return nil, appErrors.Store(err, "failed to list fee transactions")
	}

	rows := make([]models.FeeLedgerRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, models.FeeLedgerRow{
			FeeTransaction:    item,
			StudentEmail:      student.Email,
			StudentFullName:   student.FullName,
			StudentRollNumber: student.RollNumber,
		})
	}
	statement := &models.FeeStatement{Transactions: items}
	if statement.Transactions == nil {
		statement.Transactions = []models.FeeTransaction{}
	}
	if summaries := Aggregate(rows); len(summaries) > 0 {
		statement.Summary = &summaries[0]
	}
	return statement, nil
}

// ExportCSV renders summaries as CSV in their given order.
func (s *FeeService) ExportCSV(summaries []models.FeeSummary) ([]byte, error) {
	return s.csv.Render(feeDataset(summaries))
}

// ExportPDF renders summaries as a PDF table.
func (s *FeeService) ExportPDF(summaries []models.FeeSummary, title string) ([]byte, error) {
	return s.pdf.Render(feeDataset(summaries), title)
}

// Export builds the fee report requested by query in CSV (default) or PDF.
func (s *FeeService) Export(ctx context.Context, principal models.Principal, query dto.FeeSummaryQuery) (*FeeExport, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = feeExportCSV
	}
	if format != feeExportCSV && format != feeExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	summaries, err := s.Summaries(ctx, principal, query)
	if err != nil {
		return nil, err
	}

	result := &FeeExport{Filename: FeeExportFilename(query.AcademicYear, format)}
	if format == feeExportPDF {
		title := "Fee Report"
		if year := strings.TrimSpace(query.AcademicYear); year != "" {
			title += " " + year
		}
		result.ContentType = "application/pdf"
		result.Data, err = s.ExportPDF(summaries, title)
	} else {
		result.ContentType = "text/csv"
		result.Data, err = s.ExportCSV(summaries)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render fee export")
	}
	return result, nil
}

func parsePaymentDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*raw))
	if err != nil {
		return nil, appErrors.Validation(err, "payment_date must be YYYY-MM-DD")
	}
	return &t, nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
