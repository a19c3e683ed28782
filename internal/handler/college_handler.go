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

type collegeService interface {
	List(ctx context.Context) ([]models.College, error)
	Get(ctx context.Context, id string) (*models.College, error)
	Register(ctx context.Context, req dto.RegisterCollegeRequest) (*service.CollegeRegistration, error)
}

// CollegeHandler exposes tenant endpoints.
type CollegeHandler struct {
	service collegeService
}

// NewCollegeHandler constructs a CollegeHandler.
func NewCollegeHandler(svc collegeService) *CollegeHandler {
	return &CollegeHandler{service: svc}
}

// List godoc
// @Summary List colleges
// @Description Public tenant list used by the sign-in college picker
// @Tags Colleges
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /colleges [get]
func (h *CollegeHandler) List(c *gin.Context) {
	colleges, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, colleges, nil)
}

// Register godoc
// @Summary Register a college
// @Description Creates a college together with its first administrator
// @Tags Colleges
// @Accept json
// @Produce json
// @Param payload body dto.RegisterCollegeRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /colleges/register [post]
func (h *CollegeHandler) Register(c *gin.Context) {
	var req dto.RegisterCollegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid registration payload"))
		return
	}
	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Current godoc
// @Summary Current college
// @Tags Colleges
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /colleges/current [get]
func (h *CollegeHandler) Current(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if claims.CollegeID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	college, err := h.service.Get(c.Request.Context(), claims.CollegeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, college, nil)
}
