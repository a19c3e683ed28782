package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

type stubRoleMatcher struct {
	assignment *models.RoleAssignment
	err        error
}

func (s *stubRoleMatcher) MatchEmail(ctx context.Context, email, collegeID string) (*models.RoleAssignment, error) {
	return s.assignment, s.err
}

func (s *stubRoleMatcher) ResolveRole(ctx context.Context, identityID, collegeID string) (*models.RoleMatch, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.assignment == nil || s.assignment.UserID != identityID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user has no role in this college")
	}
	return &models.RoleMatch{Role: s.assignment.Role, Assignment: s.assignment}, nil
}

type recordingSignIns struct {
	outcomes []string
}

func (r *recordingSignIns) RecordSignIn(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

type authFixture struct {
	svc      *AuthService
	identity *IdentityService
	repo     *memIdentityRepo
	roles    *stubRoleMatcher
	limiter  *stubLimiter
	metrics  *recordingSignIns
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	identity, repo, _ := newIdentityFixture()
	repo.seed(t, "user-1", "asha@example.com", "Password123")
	f := &authFixture{
		identity: identity,
		repo:     repo,
		roles:    &stubRoleMatcher{},
		limiter:  &stubLimiter{allow: true},
		metrics:  &recordingSignIns{},
	}
	profiles := &stubProfileFinder{profiles: map[string]*models.Profile{
		"user-1": {ID: "user-1", Email: "asha@example.com", FullName: "Asha Rao"},
	}}
	f.svc = NewAuthService(identity, f.roles, newStubCollegeFinder(), profiles, f.limiter, f.metrics, nil, nil, AuthConfig{SignInPerMinute: 5})
	return f
}

func loginRequest() models.LoginRequest {
	return models.LoginRequest{Email: "asha@example.com", Password: "Password123", CollegeID: testCollegeID, IP: "10.0.0.9"}
}

func TestSignInAndVerifySuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.roles.assignment = &models.RoleAssignment{ID: "staff-1", UserID: "user-1", Email: "asha@example.com", CollegeID: testCollegeID, Role: models.RoleStaff}

	resp, err := f.svc.SignInAndVerify(context.Background(), loginRequest())
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, resp.Role)
	assert.Equal(t, "/staff-dashboard", resp.RedirectTo)
	assert.Equal(t, "Asha Rao", resp.User.FullName)
	assert.Equal(t, "Riverside College", resp.College.Name)
	assert.EqualValues(t, time.Hour.Seconds(), resp.ExpiresIn)
	assert.Equal(t, []string{"success"}, f.metrics.outcomes)
	assert.Equal(t, []string{"signin:ip:10.0.0.9", "signin:email:asha@example.com"}, f.limiter.keys)

	claims, err := f.svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testCollegeID, claims.CollegeID)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestSignInAndVerifyNotRegisteredSignsOut(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.SignInAndVerify(context.Background(), loginRequest())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
	assert.Equal(t, "Your email is not registered for this college", appErr.Message)
	assert.Equal(t, []string{"not_registered"}, f.metrics.outcomes)

	require.Len(t, f.repo.sessions, 1)
	for _, s := range f.repo.sessions {
		assert.True(t, s.Revoked)
	}
}

func TestSignInAndVerifyIdentityMismatch(t *testing.T) {
	f := newAuthFixture(t)
	f.roles.assignment = &models.RoleAssignment{UserID: "someone-else", Role: models.RoleAdmin}

	_, err := f.svc.SignInAndVerify(context.Background(), loginRequest())
	assert.True(t, errors.Is(err, appErrors.ErrIdentityMismatch))
	for _, s := range f.repo.sessions {
		assert.True(t, s.Revoked)
	}
}

func TestSignInAndVerifyRejections(t *testing.T) {
	f := newAuthFixture(t)

	req := loginRequest()
	req.Password = "wrong"
	_, err := f.svc.SignInAndVerify(context.Background(), req)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	req = loginRequest()
	req.CollegeID = "0b7f1d7e-1111-4222-8333-944455556666"
	_, err = f.svc.SignInAndVerify(context.Background(), req)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	req = loginRequest()
	req.Email = "not-an-email"
	_, err = f.svc.SignInAndVerify(context.Background(), req)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	f.limiter.allow = false
	_, err = f.svc.SignInAndVerify(context.Background(), loginRequest())
	assert.True(t, errors.Is(err, appErrors.ErrRateLimited))
	assert.Contains(t, f.metrics.outcomes, "rate_limited")
}

func TestLogoutInvalidatesToken(t *testing.T) {
	f := newAuthFixture(t)
	f.roles.assignment = &models.RoleAssignment{UserID: "user-1", Role: models.RoleAdmin}
	resp, err := f.svc.SignInAndVerify(context.Background(), loginRequest())
	require.NoError(t, err)

	claims, err := f.svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(context.Background(), claims))

	_, err = f.svc.ValidateToken(context.Background(), resp.AccessToken)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
	assert.True(t, errors.Is(f.svc.Logout(context.Background(), nil), appErrors.ErrUnauthorized))
}

func TestRefreshKeepsBinding(t *testing.T) {
	f := newAuthFixture(t)
	f.roles.assignment = &models.RoleAssignment{UserID: "user-1", Role: models.RoleStudent}
	resp, err := f.svc.SignInAndVerify(context.Background(), loginRequest())
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	claims, err := f.svc.ValidateToken(context.Background(), refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, testCollegeID, claims.CollegeID)
}

func TestRefreshPicksUpRoleChange(t *testing.T) {
	f := newAuthFixture(t)
	f.roles.assignment = &models.RoleAssignment{UserID: "user-1", Role: models.RoleAdmin}
	resp, err := f.svc.SignInAndVerify(context.Background(), loginRequest())
	require.NoError(t, err)

	f.roles.assignment = &models.RoleAssignment{UserID: "user-1", Role: models.RoleStudent}
	refreshed, err := f.svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	claims, err := f.svc.ValidateToken(context.Background(), refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, testCollegeID, claims.CollegeID)

	stored := f.repo.sessions[claims.SessionID()]
	require.NotNil(t, stored)
	require.NotNil(t, stored.Role)
	assert.Equal(t, models.RoleStudent, *stored.Role)
}

func TestRefreshAfterRoleRemovalSignsOut(t *testing.T) {
	f := newAuthFixture(t)
	f.roles.assignment = &models.RoleAssignment{UserID: "user-1", Role: models.RoleAdmin}
	resp, err := f.svc.SignInAndVerify(context.Background(), loginRequest())
	require.NoError(t, err)

	f.roles.assignment = nil
	_, err = f.svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: resp.RefreshToken})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
	for _, s := range f.repo.sessions {
		assert.True(t, s.Revoked)
	}
}

func TestMe(t *testing.T) {
	f := newAuthFixture(t)
	info, err := f.svc.Me(context.Background(), adminPrincipalFor("user-1"))
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", info.User.FullName)
	assert.Equal(t, "Riverside College", info.College.Name)
	require.NotNil(t, info.Profile)

	_, err = f.svc.Me(context.Background(), &models.JWTClaims{})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func adminPrincipalFor(userID string) *models.JWTClaims {
	p := adminPrincipal()
	p.UserID = userID
	return p
}
