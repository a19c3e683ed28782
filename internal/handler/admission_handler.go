package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
	"github.com/noah-isme/college-admin-api/pkg/response"
)

type admissionService interface {
	SubmitApplication(ctx context.Context, req dto.SubmitApplicationRequest, clientIP string) (*models.PendingAdmission, error)
	UploadDocument(ctx context.Context, collegeID, filename string, r io.Reader, size int64, clientIP string) (*models.UploadedDocument, error)
	OpenDocument(ctx context.Context, token string) (*os.File, string, error)
	ListPending(ctx context.Context, principal models.Principal, query dto.AdmissionListQuery) ([]models.PendingAdmission, *models.Pagination, error)
	GetPending(ctx context.Context, principal models.Principal, id string) (*models.PendingAdmission, error)
	Approve(ctx context.Context, principal models.Principal, pendingID string) (*models.AdmissionOutcome, error)
	Reject(ctx context.Context, principal models.Principal, pendingID, reason string) (*models.RejectedAdmission, error)
	ListRejected(ctx context.Context, principal models.Principal, query dto.AdmissionListQuery) ([]models.RejectedAdmission, *models.Pagination, error)
}

// AdmissionHandler serves the public application form and the review queue.
type AdmissionHandler struct {
	service admissionService
}

// NewAdmissionHandler constructs an AdmissionHandler.
func NewAdmissionHandler(svc admissionService) *AdmissionHandler {
	return &AdmissionHandler{service: svc}
}

// Submit godoc
// @Summary Submit an application
// @Tags Admissions
// @Accept json
// @Produce json
// @Param payload body dto.SubmitApplicationRequest true "Application"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /admissions [post]
func (h *AdmissionHandler) Submit(c *gin.Context) {
	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid application payload"))
		return
	}
	pending, err := h.service.SubmitApplication(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, pending)
}

// UploadDocument godoc
// @Summary Upload an applicant document
// @Tags Admissions
// @Accept multipart/form-data
// @Produce json
// @Param college_id formData string true "College ID"
// @Param file formData file true "Document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /admissions/documents [post]
func (h *AdmissionHandler) UploadDocument(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Validation(err, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Validation(err, "unable to read upload"))
		return
	}
	defer file.Close()

	doc, err := h.service.UploadDocument(c.Request.Context(), strings.TrimSpace(c.PostForm("college_id")), header.Filename, file, header.Size, c.ClientIP())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// ServeDocument godoc
// @Summary Download an applicant document
// @Description Streams a document referenced by a signed, expiring token
// @Tags Admissions
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /admissions/documents/{token} [get]
func (h *AdmissionHandler) ServeDocument(c *gin.Context) {
	file, contentType, err := h.service.OpenDocument(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "document not found"))
		return
	}
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", filepath.Base(file.Name())),
	})
}

// ListPending godoc
// @Summary List pending applications
// @Tags Admissions
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admissions/pending [get]
func (h *AdmissionHandler) ListPending(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.AdmissionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	items, pagination, err := h.service.ListPending(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// GetPending godoc
// @Summary Get a pending application
// @Tags Admissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admissions/pending/{id} [get]
func (h *AdmissionHandler) GetPending(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	pending, err := h.service.GetPending(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending, nil)
}

// Approve godoc
// @Summary Approve an application
// @Description Provisions the applicant's account and student record
// @Tags Admissions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admissions/pending/{id}/approve [post]
func (h *AdmissionHandler) Approve(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	outcome, err := h.service.Approve(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// Reject godoc
// @Summary Reject an application
// @Tags Admissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param payload body dto.RejectAdmissionRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admissions/pending/{id}/reject [post]
func (h *AdmissionHandler) Reject(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.RejectAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid rejection payload"))
		return
	}
	rejected, err := h.service.Reject(c.Request.Context(), claims, c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rejected, nil)
}

// ListRejected godoc
// @Summary List rejected applications
// @Tags Admissions
// @Produce json
// @Security BearerAuth
// @Param search query string false "Email search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admissions/rejected [get]
func (h *AdmissionHandler) ListRejected(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.AdmissionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	items, pagination, err := h.service.ListRejected(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}
