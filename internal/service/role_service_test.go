package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

// memRoleRepo keeps one table per role keyed by user and college.
type memRoleRepo struct {
	mu       sync.Mutex
	tables   map[models.Role]map[string]*models.RoleAssignment
	emails   map[string]string
	findErr  error
	insertN  int
	colleges map[string]string
	// ledger marks student rows that own fee transactions
	ledger map[string]bool
}

func newMemRoleRepo() *memRoleRepo {
	return &memRoleRepo{
		tables: map[models.Role]map[string]*models.RoleAssignment{
			models.RoleAdmin:   {},
			models.RoleStaff:   {},
			models.RoleStudent: {},
		},
		emails:   map[string]string{},
		colleges: map[string]string{testCollegeID: "Riverside College"},
		ledger:   map[string]bool{},
	}
}

func roleKey(userID, collegeID string) string { return userID + "|" + collegeID }

func (m *memRoleRepo) put(role models.Role, userID, email, collegeID string) *models.RoleAssignment {
	m.insertN++
	a := &models.RoleAssignment{ID: fmt.Sprintf("%s-%d", role, m.insertN), UserID: userID, Email: email, CollegeID: collegeID, Role: role}
	m.tables[role][roleKey(userID, collegeID)] = a
	return a
}

func (m *memRoleRepo) FindByUserID(ctx context.Context, role models.Role, userID, collegeID string) (*models.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.tables[role][roleKey(userID, collegeID)]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memRoleRepo) FindByEmail(ctx context.Context, role models.Role, email, collegeID string) (*models.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, a := range m.tables[role] {
		if a.Email == email && a.CollegeID == collegeID {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memRoleRepo) Reassign(ctx context.Context, userID, collegeID string, role models.Role) (*models.RoleAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := roleKey(userID, collegeID)
	for other, table := range m.tables {
		if a, ok := table[key]; ok && other != role && m.ledger[a.ID] {
			return nil, models.ErrRoleInUse
		}
	}
	if current, ok := m.tables[role][key]; ok {
		for other, table := range m.tables {
			if other != role {
				delete(table, key)
			}
		}
		return current, nil
	}
	for _, table := range m.tables {
		delete(table, key)
	}
	email, ok := m.emails[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return m.put(role, userID, email, collegeID), nil
}

func (m *memRoleRepo) Insert(ctx context.Context, assignment *models.RoleAssignment, fullName *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := m.put(assignment.Role, assignment.UserID, assignment.Email, assignment.CollegeID)
	assignment.ID = created.ID
	return nil
}

func (m *memRoleRepo) Delete(ctx context.Context, role models.Role, userID, collegeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := roleKey(userID, collegeID)
	a, ok := m.tables[role][key]
	if !ok {
		return 0, nil
	}
	if m.ledger[a.ID] {
		return 0, models.ErrRoleInUse
	}
	delete(m.tables[role], key)
	return 1, nil
}

func (m *memRoleRepo) CountAssignments(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, table := range m.tables {
		for _, a := range table {
			if a.UserID == userID {
				n++
			}
		}
	}
	return n, nil
}

func (m *memRoleRepo) ListByCollege(ctx context.Context, role models.Role, collegeID string) ([]models.RoleMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RoleMember
	for _, a := range m.tables[role] {
		if a.CollegeID == collegeID {
			out = append(out, models.RoleMember{ID: a.ID, UserID: a.UserID, Email: a.Email, CollegeID: collegeID, CollegeName: m.colleges[collegeID], Role: role})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memRoleRepo) rolesOf(userID, collegeID string) []models.Role {
	var out []models.Role
	for _, role := range models.RolePriority {
		if _, ok := m.tables[role][roleKey(userID, collegeID)]; ok {
			out = append(out, role)
		}
	}
	return out
}

func TestAssignRoleKeepsExactlyOneRole(t *testing.T) {
	repo := newMemRoleRepo()
	repo.emails["u1"] = "u1@example.com"
	repo.put(models.RoleStudent, "u1", "u1@example.com", testCollegeID)
	repo.put(models.RoleStaff, "u1", "u1@example.com", testCollegeID)
	svc := NewRoleService(repo, newStubCollegeFinder(), nil)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		role := models.RolePriority[rng.Intn(len(models.RolePriority))]
		assignment, err := svc.AssignRole(context.Background(), "u1", role, testCollegeID)
		require.NoError(t, err)
		assert.Equal(t, role, assignment.Role)
		assert.Equal(t, []models.Role{role}, repo.rolesOf("u1", testCollegeID))
	}
}

func TestAssignRoleKeepsStudentLedgerRow(t *testing.T) {
	repo := newMemRoleRepo()
	repo.emails["u1"] = "u1@example.com"
	student := repo.put(models.RoleStudent, "u1", "u1@example.com", testCollegeID)
	repo.ledger[student.ID] = true
	svc := NewRoleService(repo, newStubCollegeFinder(), nil)

	for i := 0; i < 3; i++ {
		assignment, err := svc.AssignRole(context.Background(), "u1", models.RoleStudent, testCollegeID)
		require.NoError(t, err)
		assert.Equal(t, student.ID, assignment.ID)
	}

	_, err := svc.AssignRole(context.Background(), "u1", models.RoleStaff, testCollegeID)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, []models.Role{models.RoleStudent}, repo.rolesOf("u1", testCollegeID))
	assert.Same(t, student, repo.tables[models.RoleStudent][roleKey("u1", testCollegeID)])
}

func TestAssignRoleErrors(t *testing.T) {
	repo := newMemRoleRepo()
	svc := NewRoleService(repo, newStubCollegeFinder(), nil)

	_, err := svc.AssignRole(context.Background(), "u1", models.Role("teacher"), testCollegeID)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.AssignRole(context.Background(), "ghost", models.RoleStaff, testCollegeID)
	assert.True(t, errors.Is(err, appErrors.ErrProfileNotFound))
}

func TestResolveRoleUsesPriority(t *testing.T) {
	repo := newMemRoleRepo()
	repo.put(models.RoleStudent, "u1", "u1@example.com", testCollegeID)
	repo.put(models.RoleAdmin, "u1", "u1@example.com", testCollegeID)
	svc := NewRoleService(repo, newStubCollegeFinder(), nil)

	match, err := svc.ResolveRole(context.Background(), "u1", testCollegeID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, match.Role)
	assert.Equal(t, "Riverside College", match.College.Name)

	_, err = svc.ResolveRole(context.Background(), "u2", testCollegeID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.ResolveRole(context.Background(), "u1", "missing-college")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestMatchEmail(t *testing.T) {
	repo := newMemRoleRepo()
	repo.put(models.RoleStudent, "u1", "u1@example.com", testCollegeID)
	repo.put(models.RoleStaff, "u1", "u1@example.com", testCollegeID)
	repo.put(models.RoleAdmin, "u1", "u1@example.com", "other-college")
	svc := NewRoleService(repo, newStubCollegeFinder(), nil)

	match, err := svc.MatchEmail(context.Background(), "u1@example.com", testCollegeID)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, models.RoleStaff, match.Role)

	match, err = svc.MatchEmail(context.Background(), "nobody@example.com", testCollegeID)
	require.NoError(t, err)
	assert.Nil(t, match)

	repo.findErr = errors.New("connection reset")
	_, err = svc.MatchEmail(context.Background(), "u1@example.com", testCollegeID)
	assert.True(t, errors.Is(err, appErrors.ErrStore))
}
