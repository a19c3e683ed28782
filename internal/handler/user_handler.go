package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
	"github.com/noah-isme/college-admin-api/pkg/response"
)

type userService interface {
	CreateUser(ctx context.Context, principal models.Principal, req dto.CreateUserRequest) (*models.RoleMember, error)
	DeleteUser(ctx context.Context, principal models.Principal, userID string, role models.Role) error
	ListUsersByCollege(ctx context.Context, principal models.Principal, filter models.UserFilter) ([]models.RoleMember, *models.Pagination, error)
	AssignUserRole(ctx context.Context, principal models.Principal, userID string, req dto.AssignRoleRequest) (*models.RoleAssignment, error)
	ResolveUserRole(ctx context.Context, principal models.Principal, userID string) (*models.RoleMatch, error)
	GetProfile(ctx context.Context, principal models.Principal) (*models.Profile, error)
	UpdateProfile(ctx context.Context, principal models.Principal, req models.UpdateProfileRequest) (*models.Profile, error)
}

// UserHandler handles college membership and profile endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List college users
// @Description Lists admins, staff and students of the caller's college
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter"
// @Param search query string false "Email or name search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var query dto.UserListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query"))
		return
	}
	filter := models.UserFilter{Search: query.Search, Page: query.Page, PageSize: query.PageSize}
	if role := strings.TrimSpace(query.Role); role != "" {
		r := models.Role(strings.ToLower(role))
		filter.Role = &r
	}

	members, pagination, err := h.service.ListUsersByCollege(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, pagination)
}

// Create godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid user payload"))
		return
	}
	member, err := h.service.CreateUser(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Delete godoc
// @Summary Delete user
// @Description Removes the user's role in the caller's college
// @Tags Users
// @Security BearerAuth
// @Param role path string true "Role"
// @Param id path string true "User ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{role}/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	role := models.Role(strings.ToLower(c.Param("role")))
	if !role.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown role"))
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), claims, c.Param("id"), role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignRole godoc
// @Summary Assign role
// @Description Replaces the role the user holds in the caller's college
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param payload body dto.AssignRoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/role [put]
func (h *UserHandler) AssignRole(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid role payload"))
		return
	}
	assignment, err := h.service.AssignUserRole(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// ResolveRole godoc
// @Summary Resolve role
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/role [get]
func (h *UserHandler) ResolveRole(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	match, err := h.service.ResolveUserRole(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, match, nil)
}

// GetProfile godoc
// @Summary Own profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	profile, err := h.service.GetProfile(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile [put]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid profile payload"))
		return
	}
	profile, err := h.service.UpdateProfile(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}
