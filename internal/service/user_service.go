package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

type userRoleRepository interface {
	Insert(ctx context.Context, assignment *models.RoleAssignment, fullName *string) error
	Delete(ctx context.Context, role models.Role, userID, collegeID string) (int64, error)
	CountAssignments(ctx context.Context, userID string) (int, error)
	ListByCollege(ctx context.Context, role models.Role, collegeID string) ([]models.RoleMember, error)
}

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}

type roleManager interface {
	roleAssigner
	ResolveRole(ctx context.Context, identityID, collegeID string) (*models.RoleMatch, error)
}

// UserService manages the users of a college and the caller's own profile.
type UserService struct {
	identity  identityAdmin
	roleRepo  userRoleRepository
	roles     roleManager
	profiles  profileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(identity identityAdmin, roleRepo userRoleRepository, roles roleManager, profiles profileRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{identity: identity, roleRepo: roleRepo, roles: roles, profiles: profiles, validator: validate, logger: logger}
}

// CreateUser provisions a confirmed identity with one role in the caller's college.
func (s *UserService) CreateUser(ctx context.Context, principal models.Principal, req dto.CreateUserRequest) (*models.RoleMember, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid user payload")
	}
	collegeID := principal.SessionCollegeID()
	role := models.Role(req.Role)

	identity, err := s.identity.AdminCreateIdentity(ctx, req.Email, req.Password, true, models.JSONMap{"full_name": req.FullName})
	if err != nil {
		return nil, err
	}
	fullName, _ := identity.Metadata["full_name"].(string)

	assignment := &models.RoleAssignment{UserID: identity.ID, Email: identity.Email, CollegeID: collegeID, Role: role}
	if err := s.roleRepo.Insert(ctx, assignment, &fullName); err != nil {
		if delErr := s.identity.AdminDeleteIdentity(ctx, identity.ID); delErr != nil {
			s.logger.Warn("failed to remove identity of failed user creation", zap.String("user_id", identity.ID), zap.Error(delErr))
		}
		return nil, appErrors.Store(err, "failed to assign user role")
	}

	s.logger.Info("user created",
		zap.String("user_id", identity.ID),
		zap.String("college_id", collegeID),
		zap.String("role", string(role)),
	)
	return &models.RoleMember{
		ID:        assignment.ID,
		UserID:    identity.ID,
		Email:     identity.Email,
		FullName:  &fullName,
		CollegeID: collegeID,
		Role:      role,
		CreatedAt: assignment.CreatedAt,
	}, nil
}

// DeleteUser removes the user's role in the caller's college. The identity is
// deleted too unless it still holds a role in another college.
func (s *UserService) DeleteUser(ctx context.Context, principal models.Principal, userID string, role models.Role) error {
	if !role.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "role must be one of admin, staff, student")
	}
	if userID == principal.SessionUserID() {
		return appErrors.Clone(appErrors.ErrForbidden, "you cannot delete your own account")
	}

	affected, err := s.roleRepo.Delete(ctx, role, userID, principal.SessionCollegeID())
	if err != nil {
		if errors.Is(err, models.ErrRoleInUse) {
			return appErrors.Clone(appErrors.ErrConflict, "student has fee transactions and cannot be deleted")
		}
		return appErrors.Store(err, "failed to delete user role")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found in this college")
	}

	remaining, err := s.roleRepo.CountAssignments(ctx, userID)
	if err != nil {
		return appErrors.Store(err, "failed to check remaining roles")
	}
	if remaining > 0 {
		s.logger.Info("identity kept for other colleges", zap.String("user_id", userID), zap.Int("roles", remaining))
		return nil
	}
	return s.identity.AdminDeleteIdentity(ctx, userID)
}

// ListUsersByCollege lists admins, staff and students of the caller's college in that order.
func (s *UserService) ListUsersByCollege(ctx context.Context, principal models.Principal, filter models.UserFilter) ([]models.RoleMember, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "role must be one of admin, staff, student")
	}
	collegeID := principal.SessionCollegeID()

	results := make([][]models.RoleMember, len(models.RolePriority))
	g, gctx := errgroup.WithContext(ctx)
	for i, role := range models.RolePriority {
		i, role := i, role
		if filter.Role != nil && *filter.Role != role {
			continue
		}
		g.Go(func() error {
			members, err := s.roleRepo.ListByCollege(gctx, role, collegeID)
			if err != nil {
				return err
			}
			results[i] = members
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, appErrors.Store(err, "failed to list users")
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	merged := make([]models.RoleMember, 0)
	for _, members := range results {
		for _, m := range members {
			if search != "" && !memberMatches(m, search) {
				continue
			}
			merged = append(merged, m)
		}
	}

	page := models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(merged)}
	offset := page.Normalize()
	if offset > len(merged) {
		offset = len(merged)
	}
	end := offset + page.PageSize
	if end > len(merged) {
		end = len(merged)
	}
	return merged[offset:end], &page, nil
}

// AssignUserRole replaces the user's role in the caller's college.
func (s *UserService) AssignUserRole(ctx context.Context, principal models.Principal, userID string, req dto.AssignRoleRequest) (*models.RoleAssignment, error) {
	return s.roles.AssignRole(ctx, userID, models.Role(strings.ToLower(strings.TrimSpace(req.Role))), principal.SessionCollegeID())
}

// ResolveUserRole returns the user's role in the caller's college.
func (s *UserService) ResolveUserRole(ctx context.Context, principal models.Principal, userID string) (*models.RoleMatch, error) {
	return s.roles.ResolveRole(ctx, userID, principal.SessionCollegeID())
}

// GetProfile returns the caller's profile.
func (s *UserService) GetProfile(ctx context.Context, principal models.Principal) (*models.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, principal.SessionUserID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrProfileNotFound, "user profile not found")
		}
		return nil, appErrors.Store(err, "failed to load profile")
	}
	return profile, nil
}

// UpdateProfile patches the caller's profile.
func (s *UserService) UpdateProfile(ctx context.Context, principal models.Principal, req models.UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid profile payload")
	}
	profile, err := s.GetProfile(ctx, principal)
	if err != nil {
		return nil, err
	}
	if req.FullName != nil {
		profile.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Phone != nil {
		profile.Phone = req.Phone
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = req.AvatarURL
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrProfileNotFound, "user profile not found")
		}
		return nil, appErrors.Store(err, "failed to update profile")
	}
	return profile, nil
}

func memberMatches(m models.RoleMember, search string) bool {
	if strings.Contains(strings.ToLower(m.Email), search) {
		return true
	}
	return m.FullName != nil && strings.Contains(strings.ToLower(*m.FullName), search)
}
