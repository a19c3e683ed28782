package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
	"github.com/noah-isme/college-admin-api/internal/service"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
	"github.com/noah-isme/college-admin-api/pkg/response"
)

type feeService interface {
	Summaries(ctx context.Context, principal models.Principal, query dto.FeeSummaryQuery) ([]models.FeeSummary, error)
	Export(ctx context.Context, principal models.Principal, query dto.FeeSummaryQuery) (*service.FeeExport, error)
	RecordTransaction(ctx context.Context, principal models.Principal, req dto.RecordFeeTransactionRequest) (*models.FeeTransaction, error)
	ListStudentTransactions(ctx context.Context, principal models.Principal, studentID string) ([]models.FeeTransaction, error)
	StudentStatement(ctx context.Context, principal models.Principal) (*models.FeeStatement, error)
}

// FeeHandler exposes the fee ledger.
type FeeHandler struct {
	service feeService
}

// NewFeeHandler constructs a FeeHandler.
func NewFeeHandler(svc feeService) *FeeHandler {
	return &FeeHandler{service: svc}
}

// Summaries godoc
// @Summary Per-student fee summaries
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param program query string false "Program"
// @Param branch query string false "Branch"
// @Param academic_year query string false "Academic year"
// @Param search query string false "Name or roll number search"
// @Param sort query string false "due or status; any other value keeps ledger order"
// @Success 200 {object} response.Envelope
// @Router /fees/summaries [get]
func (h *FeeHandler) Summaries(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.FeeSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	summaries, err := h.service.Summaries(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil, map[string]interface{}{"count": len(summaries)})
}

// Export godoc
// @Summary Export fee summaries
// @Tags Fees
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Param academic_year query string false "Academic year"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /fees/export [get]
func (h *FeeHandler) Export(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.FeeSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	export, err := h.service.Export(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, export.Filename, export.ContentType, export.Data)
}

// CreateTransaction godoc
// @Summary Record a fee transaction
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RecordFeeTransactionRequest true "Transaction"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /fees/transactions [post]
func (h *FeeHandler) CreateTransaction(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.RecordFeeTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid transaction payload"))
		return
	}
	req.ID = ""
	tx, err := h.service.RecordTransaction(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tx)
}

// UpdateTransaction godoc
// @Summary Update a fee transaction
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param payload body dto.RecordFeeTransactionRequest true "Transaction"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /fees/transactions/{id} [put]
func (h *FeeHandler) UpdateTransaction(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.RecordFeeTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid transaction payload"))
		return
	}
	req.ID = c.Param("id")
	tx, err := h.service.RecordTransaction(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tx, nil)
}

// StudentTransactions godoc
// @Summary List a student's transactions
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param studentID path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /fees/students/{studentID}/transactions [get]
func (h *FeeHandler) StudentTransactions(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	txs, err := h.service.ListStudentTransactions(c.Request.Context(), claims, c.Param("studentID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, txs, nil)
}

// MyStatement godoc
// @Summary Own fee statement
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /fees/me [get]
func (h *FeeHandler) MyStatement(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	statement, err := h.service.StudentStatement(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statement, nil)
}
