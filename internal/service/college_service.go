package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/college-admin-api/internal/dto"
	"github.com/noah-isme/college-admin-api/internal/models"
	"github.com/noah-isme/college-admin-api/pkg/database"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

const (
	collegeListCacheKey = "colleges:list"
	collegeCachePattern = "colleges:*"
)

type collegeRepository interface {
	List(ctx context.Context) ([]models.College, error)
	FindByID(ctx context.Context, id string) (*models.College, error)
	ExistsByNameOrCode(ctx context.Context, name, code string) (bool, error)
	Create(ctx context.Context, college *models.College) error
	Delete(ctx context.Context, id string) error
}

type identityAdmin interface {
	AdminCreateIdentity(ctx context.Context, email, password string, confirmed bool, metadata models.JSONMap) (*models.Identity, error)
	AdminDeleteIdentity(ctx context.Context, id string) error
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
}

type roleAssigner interface {
	AssignRole(ctx context.Context, identityID string, role models.Role, collegeID string) (*models.RoleAssignment, error)
}

// CollegeRegistration is the outcome of registering a college with its first admin.
type CollegeRegistration struct {
	College *models.College        `json:"college"`
	Admin   *models.RoleAssignment `json:"admin"`
}

// CollegeService manages the tenant directory.
type CollegeService struct {
	repo      collegeRepository
	identity  identityAdmin
	roles     roleAssigner
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCollegeService constructs a CollegeService.
func NewCollegeService(repo collegeRepository, identity identityAdmin, roles roleAssigner, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CollegeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CollegeService{repo: repo, identity: identity, roles: roles, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

// List returns all colleges ordered by name.
func (s *CollegeService) List(ctx context.Context) ([]models.College, error) {
	var colleges []models.College
	err := s.cache.Remember(ctx, collegeListCacheKey, s.cacheTTL, &colleges, func(ctx context.Context) error {
		items, err := s.repo.List(ctx)
		if err != nil {
			return appErrors.Store(err, "failed to list colleges")
		}
		colleges = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	if colleges == nil {
		colleges = []models.College{}
	}
	return colleges, nil
}

// Get returns a single college.
func (s *CollegeService) Get(ctx context.Context, id string) (*models.College, error) {
	college, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, appErrors.Store(err, "failed to load college")
	}
	return college, nil
}

// Register creates a college and its first administrator. A failure after the
// college row is written removes it again.
func (s *CollegeService) Register(ctx context.Context, req dto.RegisterCollegeRequest) (*CollegeRegistration, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid college registration payload")
	}

	exists, err := s.repo.ExistsByNameOrCode(ctx, req.Name, req.Code)
	if err != nil {
		return nil, appErrors.Store(err, "failed to check college")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a college with this name or code already exists")
	}

	college := &models.College{
		Name:    req.Name,
		Code:    req.Code,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		Pincode: req.Pincode,
		Phone:   req.Phone,
		Email:   req.Email,
		Website: req.Website,
		LogoURL: req.LogoURL,
	}
	if err := s.repo.Create(ctx, college); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a college with this name or code already exists")
		}
		return nil, appErrors.Store(err, "failed to create college")
	}

	identity, err := s.identity.AdminCreateIdentity(ctx, req.AdminEmail, req.AdminPassword, true, models.JSONMap{"full_name": req.AdminFullName})
	if err != nil {
		s.rollbackCollege(ctx, college.ID)
		return nil, err
	}

	assignment, err := s.roles.AssignRole(ctx, identity.ID, models.RoleAdmin, college.ID)
	if err != nil {
		if delErr := s.identity.AdminDeleteIdentity(ctx, identity.ID); delErr != nil {
			s.logger.Warn("failed to remove identity of failed registration", zap.String("user_id", identity.ID), zap.Error(delErr))
		}
		s.rollbackCollege(ctx, college.ID)
		return nil, err
	}

	s.cache.Invalidate(ctx, collegeCachePattern)
	s.logger.Info("college registered", zap.String("college_id", college.ID), zap.String("code", college.Code))
	return &CollegeRegistration{College: college, Admin: assignment}, nil
}

// AddAdmin grants the admin role in a college, creating the identity when needed.
func (s *CollegeService) AddAdmin(ctx context.Context, collegeID, email, password, fullName string) (*models.RoleAssignment, error) {
	if _, err := s.Get(ctx, collegeID); err != nil {
		return nil, err
	}
	identity, err := s.identity.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, appErrors.ErrNotFound) {
			return nil, err
		}
		identity, err = s.identity.AdminCreateIdentity(ctx, email, password, true, models.JSONMap{"full_name": fullName})
		if err != nil {
			return nil, err
		}
	}
	return s.roles.AssignRole(ctx, identity.ID, models.RoleAdmin, collegeID)
}

func (s *CollegeService) rollbackCollege(ctx context.Context, id string) {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to roll back college registration", zap.String("college_id", id), zap.Error(err))
	}
}
