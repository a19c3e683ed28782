package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
	"github.com/noah-isme/college-admin-api/pkg/logger"
)

type stubValidator struct {
	claims *models.JWTClaims
	seen   string
}

func (s *stubValidator) ValidateToken(_ context.Context, token string) (*models.JWTClaims, error) {
	s.seen = token
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func serve(handler gin.HandlerFunc, authHeader string, next gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", handler, next)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTSetsClaimsAndTenant(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1", CollegeID: "c1", Role: models.RoleStaff}}
	var tenant interface{}
	var claims interface{}
	rec := serve(JWT(validator), "bearer  good ", func(c *gin.Context) {
		claims, _ = c.Get(ContextUserKey)
		tenant, _ = c.Get(logger.ContextTenantKey)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "good", validator.seen)
	assert.Same(t, validator.claims, claims)
	assert.Equal(t, "c1", tenant)
}

func TestJWTRejects(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1"}}
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	assert.Equal(t, http.StatusUnauthorized, serve(JWT(validator), "", ok).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(JWT(validator), "Basic abc", ok).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(JWT(validator), "Bearer expired", ok).Code)
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "u1"}}
	var present bool
	next := func(c *gin.Context) {
		_, present = c.Get(ContextUserKey)
		c.Status(http.StatusOK)
	}

	rec := serve(OptionalJWT(validator), "Bearer expired", next)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, present)

	rec = serve(OptionalJWT(validator), "Bearer good", next)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, present)
}
