package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/college-admin-api/internal/models"
)

func rbacStatus(claims *models.JWTClaims, path string, guard gin.HandlerFunc) int {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/users/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, guard, func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestRequireRoles(t *testing.T) {
	staff := &models.JWTClaims{UserID: "s1", CollegeID: "c1", Role: models.RoleStaff}
	student := &models.JWTClaims{UserID: "st1", CollegeID: "c1", Role: models.RoleStudent}
	unbound := &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}
	guard := RequireRoles(models.RoleAdmin, models.RoleStaff)

	assert.Equal(t, http.StatusOK, rbacStatus(staff, "/users/x", guard))
	assert.Equal(t, http.StatusForbidden, rbacStatus(student, "/users/x", guard))
	assert.Equal(t, http.StatusForbidden, rbacStatus(unbound, "/users/x", guard))
	assert.Equal(t, http.StatusUnauthorized, rbacStatus(nil, "/users/x", guard))
}

func TestClaimsIgnoresForeignValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := Claims(c)
	assert.False(t, ok)

	c.Set(ContextUserKey, "not-claims")
	_, ok = Claims(c)
	assert.False(t, ok)

	c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1"})
	claims, ok := Claims(c)
	assert.True(t, ok)
	assert.Equal(t, "u1", claims.UserID)
}
