package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/noah-isme/college-admin-api/internal/models"
)

const (
	testCollegeID = "6f1c2b3a-0d4e-4f5a-9b6c-7d8e9f0a1b2c"
	testAdminID   = "admin-user-1"
)

func adminPrincipal() *models.JWTClaims {
	return &models.JWTClaims{UserID: testAdminID, Email: "principal@college.edu", CollegeID: testCollegeID, Role: models.RoleAdmin}
}

type stubCollegeFinder struct {
	colleges map[string]*models.College
	err      error
}

func newStubCollegeFinder() *stubCollegeFinder {
	return &stubCollegeFinder{colleges: map[string]*models.College{
		testCollegeID: {ID: testCollegeID, Name: "Riverside College", Code: "RVC"},
	}}
}

func (s *stubCollegeFinder) FindByID(ctx context.Context, id string) (*models.College, error) {
	if s.err != nil {
		return nil, s.err
	}
	if c, ok := s.colleges[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type stubProfileFinder struct {
	profiles map[string]*models.Profile
}

func (s *stubProfileFinder) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func strPtr(v string) *string { return &v }
