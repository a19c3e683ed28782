package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

type roleRepository interface {
	FindByUserID(ctx context.Context, role models.Role, userID, collegeID string) (*models.RoleAssignment, error)
	FindByEmail(ctx context.Context, role models.Role, email, collegeID string) (*models.RoleAssignment, error)
	Reassign(ctx context.Context, userID, collegeID string, role models.Role) (*models.RoleAssignment, error)
}

type collegeFinder interface {
	FindByID(ctx context.Context, id string) (*models.College, error)
}

// RoleService resolves and assigns the single role an identity holds per college.
type RoleService struct {
	repo     roleRepository
	colleges collegeFinder
	logger   *zap.Logger
}

// NewRoleService constructs a RoleService.
func NewRoleService(repo roleRepository, colleges collegeFinder, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{repo: repo, colleges: colleges, logger: logger}
}

// ResolveRole returns the highest-priority role the identity holds in the college.
func (s *RoleService) ResolveRole(ctx context.Context, identityID, collegeID string) (*models.RoleMatch, error) {
	college, err := s.colleges.FindByID(ctx, collegeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, appErrors.Store(err, "failed to load college")
	}

	for _, role := range models.RolePriority {
		assignment, err := s.repo.FindByUserID(ctx, role, identityID, collegeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Store(err, "failed to resolve role")
		}
		return &models.RoleMatch{Role: role, Assignment: assignment, College: college}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "user has no role in this college")
}

// AssignRole makes role the identity's only role in the college.
func (s *RoleService) AssignRole(ctx context.Context, identityID string, role models.Role, collegeID string) (*models.RoleAssignment, error) {
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role must be one of admin, staff, student")
	}
	if identityID == "" || collegeID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user and college are required")
	}

	assignment, err := s.repo.Reassign(ctx, identityID, collegeID, role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrProfileNotFound, "user profile not found")
		}
		if errors.Is(err, models.ErrRoleInUse) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student has fee transactions and cannot change role")
		}
		return nil, appErrors.Store(err, "failed to assign role")
	}

	s.logger.Info("role assigned",
		zap.String("user_id", identityID),
		zap.String("college_id", collegeID),
		zap.String("role", string(role)),
	)
	return assignment, nil
}

// MatchEmail looks the email up in all role tables of the college concurrently and
// returns the highest-priority match, or nil when none exists.
func (s *RoleService) MatchEmail(ctx context.Context, email, collegeID string) (*models.RoleAssignment, error) {
	results := make([]*models.RoleAssignment, len(models.RolePriority))
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range models.RolePriority {
		i, role := i, role
		g.Go(func() error {
			assignment, err := s.repo.FindByEmail(gctx, role, email, collegeID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil
				}
				return err
			}
			results[i] = assignment
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, appErrors.Store(err, "failed to look up user roles")
	}

	for _, assignment := range results {
		if assignment != nil {
			return assignment, nil
		}
	}
	return nil, nil
}
