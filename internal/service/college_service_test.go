package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

type memCollegeRepo struct {
	colleges  map[string]*models.College
	listCalls int
	deleted   []string
}

func (m *memCollegeRepo) List(ctx context.Context) ([]models.College, error) {
	m.listCalls++
	out := make([]models.College, 0, len(m.colleges))
	for _, c := range m.colleges {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memCollegeRepo) FindByID(ctx context.Context, id string) (*models.College, error) {
	if c, ok := m.colleges[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memCollegeRepo) ExistsByNameOrCode(ctx context.Context, name, code string) (bool, error) {
	for _, c := range m.colleges {
		if strings.EqualFold(c.Name, name) || strings.EqualFold(c.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCollegeRepo) Create(ctx context.Context, college *models.College) error {
	college.ID = fmt.Sprintf("college-%d", len(m.colleges)+1)
	m.colleges[college.ID] = college
	return nil
}

func (m *memCollegeRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.colleges, id)
	return nil
}

type memCache struct {
	values      map[string][]byte
	invalidated []string
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			delete(m.values, k)
		}
	}
	return nil
}

type stubRoleAssigner struct {
	err         error
	assignments []models.RoleAssignment
}

func (s *stubRoleAssigner) AssignRole(ctx context.Context, identityID string, role models.Role, collegeID string) (*models.RoleAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	a := models.RoleAssignment{ID: "admin-row", UserID: identityID, CollegeID: collegeID, Role: role}
	s.assignments = append(s.assignments, a)
	return &a, nil
}

func registration() dto.RegisterCollegeRequest {
	return dto.RegisterCollegeRequest{
		Name:          "Hillside Institute",
		Code:          "hsi",
		AdminEmail:    "dean@hillside.edu",
		AdminPassword: "Password123",
		AdminFullName: "Dean",
	}
}

func newCollegeFixture() (*CollegeService, *memCollegeRepo, *stubIdentityAdmin, *stubRoleAssigner, *memCache) {
	repo := &memCollegeRepo{colleges: map[string]*models.College{}}
	identity := newStubIdentityAdmin()
	roles := &stubRoleAssigner{}
	cache := &memCache{values: map[string][]byte{}}
	svc := NewCollegeService(repo, identity, roles, NewCacheService(cache, nil, time.Minute, nil, true), time.Minute, nil, nil)
	return svc, repo, identity, roles, cache
}

func TestRegisterCollege(t *testing.T) {
	svc, repo, identity, roles, cache := newCollegeFixture()

	result, err := svc.Register(context.Background(), registration())
	require.NoError(t, err)
	assert.Equal(t, "HSI", result.College.Code)
	assert.Equal(t, models.RoleAdmin, result.Admin.Role)
	assert.Len(t, identity.identities, 1)
	assert.Len(t, roles.assignments, 1)
	assert.Contains(t, repo.colleges, result.College.ID)
	assert.Equal(t, []string{"colleges:*"}, cache.invalidated)

	_, err = svc.Register(context.Background(), registration())
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestRegisterCollegeCompensatesOnFailure(t *testing.T) {
	svc, repo, identity, roles, _ := newCollegeFixture()
	roles.err = appErrors.Clone(appErrors.ErrStore, "boom")

	_, err := svc.Register(context.Background(), registration())
	require.Error(t, err)
	assert.Empty(t, repo.colleges)
	assert.Len(t, repo.deleted, 1)
	assert.Len(t, identity.deleted, 1)

	roles.err = nil
	identity.createErr = appErrors.Clone(appErrors.ErrValidation, "bad password")
	_, err = svc.Register(context.Background(), registration())
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.colleges)
}

func TestListCollegesIsCached(t *testing.T) {
	svc, repo, _, _, _ := newCollegeFixture()
	repo.colleges["c1"] = &models.College{ID: "c1", Name: "Alpha"}

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	second, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.Register(context.Background(), registration())
	require.NoError(t, err)
	third, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, third, 2)
	assert.Equal(t, 2, repo.listCalls)
}

func TestAddAdminReusesIdentity(t *testing.T) {
	svc, repo, identity, roles, _ := newCollegeFixture()
	repo.colleges["c1"] = &models.College{ID: "c1", Name: "Alpha"}
	identity.identities["existing"] = &models.Identity{ID: "existing", Email: "ops@alpha.edu"}

	assignment, err := svc.AddAdmin(context.Background(), "c1", "ops@alpha.edu", "", "")
	require.NoError(t, err)
	assert.Equal(t, "existing", assignment.UserID)
	assert.Len(t, identity.identities, 1)

	_, err = svc.AddAdmin(context.Background(), "c1", "new@alpha.edu", "Password123", "New Admin")
	require.NoError(t, err)
	assert.Len(t, identity.identities, 2)
	assert.Len(t, roles.assignments, 2)

	_, err = svc.AddAdmin(context.Background(), "missing", "new@alpha.edu", "Password123", "")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
