package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
)

type fakeUserSrv struct {
	filter  models.UserFilter
	deleted []string
	role    dto.AssignRoleRequest
}

func (f *fakeUserSrv) CreateUser(_ context.Context, _ models.Principal, req dto.CreateUserRequest) (*models.RoleMember, error) {
	return &models.RoleMember{UserID: "u1", Email: req.Email, Role: models.Role(req.Role)}, nil
}

func (f *fakeUserSrv) DeleteUser(_ context.Context, _ models.Principal, userID string, role models.Role) error {
	f.deleted = append(f.deleted, string(role)+"/"+userID)
	return nil
}

func (f *fakeUserSrv) ListUsersByCollege(_ context.Context, _ models.Principal, filter models.UserFilter) ([]models.RoleMember, *models.Pagination, error) {
	f.filter = filter
	return []models.RoleMember{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeUserSrv) AssignUserRole(_ context.Context, _ models.Principal, userID string, req dto.AssignRoleRequest) (*models.RoleAssignment, error) {
	f.role = req
	return &models.RoleAssignment{UserID: userID, Role: models.Role(req.Role)}, nil
}

func (f *fakeUserSrv) ResolveUserRole(_ context.Context, _ models.Principal, userID string) (*models.RoleMatch, error) {
	return &models.RoleMatch{Role: models.RoleStaff}, nil
}

func (f *fakeUserSrv) GetProfile(_ context.Context, principal models.Principal) (*models.Profile, error) {
	return &models.Profile{ID: principal.SessionUserID(), FullName: "Asha"}, nil
}

func (f *fakeUserSrv) UpdateProfile(_ context.Context, principal models.Principal, req models.UpdateProfileRequest) (*models.Profile, error) {
	return &models.Profile{ID: principal.SessionUserID(), FullName: *req.FullName}, nil
}

func TestUserHandlerListFilters(t *testing.T) {
	srv := &fakeUserSrv{}
	h := NewUserHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/users?role=Staff&search=ravi&page=3", nil)
	withClaims(c, models.RoleAdmin)
	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.filter.Role)
	assert.Equal(t, models.RoleStaff, *srv.filter.Role)
	assert.Equal(t, "ravi", srv.filter.Search)
	assert.Equal(t, 3, srv.filter.Page)
}

func TestUserHandlerDelete(t *testing.T) {
	srv := &fakeUserSrv{}
	h := NewUserHandler(srv)

	c, rec := newTestContext(http.MethodDelete, "/users/teacher/u1", nil)
	c.Params = gin.Params{{Key: "role", Value: "teacher"}, {Key: "id", Value: "u1"}}
	withClaims(c, models.RoleAdmin)
	h.Delete(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.deleted)

	c, rec = newTestContext(http.MethodDelete, "/users/student/u1", nil)
	c.Params = gin.Params{{Key: "role", Value: "student"}, {Key: "id", Value: "u1"}}
	withClaims(c, models.RoleAdmin)
	h.Delete(c)
	c.Writer.WriteHeaderNow() // gin's engine flushes the status after the handler chain
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"student/u1"}, srv.deleted)
}

func TestUserHandlerAssignRoleAndProfile(t *testing.T) {
	srv := &fakeUserSrv{}
	h := NewUserHandler(srv)

	c, rec := newTestContext(http.MethodPut, "/users/u1/role", jsonBody(`{"role":"staff"}`))
	c.Params = gin.Params{{Key: "id", Value: "u1"}}
	withClaims(c, models.RoleAdmin)
	h.AssignRole(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff", srv.role.Role)

	c, rec = newTestContext(http.MethodPut, "/profile", jsonBody(`{"full_name":"Asha Rao"}`))
	withClaims(c, models.RoleStudent)
	h.UpdateProfile(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Asha Rao")
}
