package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/college-admin-api/internal/models"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

type identityProvider interface {
	Authenticate(ctx context.Context, email, password string, meta models.SessionMeta) (*models.Session, error)
	SignOut(ctx context.Context, sessionID string, accessExpiresAt time.Time) error
	CurrentSession(ctx context.Context, accessToken string) (*models.JWTClaims, error)
	BindTenant(ctx context.Context, session *models.Session, collegeID string, role models.Role) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken string, meta models.SessionMeta) (*models.Session, error)
	AccessTokenTTL() time.Duration
}

type roleMatcher interface {
	MatchEmail(ctx context.Context, email, collegeID string) (*models.RoleAssignment, error)
	ResolveRole(ctx context.Context, identityID, collegeID string) (*models.RoleMatch, error)
}

type profileFinder interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type signInRecorder interface {
	RecordSignIn(outcome string)
}

// AuthConfig tunes the sign-in flow.
type AuthConfig struct {
	SignInPerMinute int
}

// AuthService signs users into a college and manages their session lifecycle.
type AuthService struct {
	identity  identityProvider
	roles     roleMatcher
	colleges  collegeFinder
	profiles  profileFinder
	limiter   rateLimiter
	metrics   signInRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(identity identityProvider, roles roleMatcher, colleges collegeFinder, profiles profileFinder, limiter rateLimiter, metrics signInRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		identity:  identity,
		roles:     roles,
		colleges:  colleges,
		profiles:  profiles,
		limiter:   limiter,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

// SignInAndVerify authenticates the credentials and verifies the identity holds a role in
// the requested college. Sessions that fail verification are signed out before returning.
func (s *AuthService) SignInAndVerify(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}
	if err := s.checkRate(ctx, req); err != nil {
		s.record("rate_limited")
		return nil, err
	}

	college, err := s.colleges.FindByID(ctx, req.CollegeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "college not found")
		}
		return nil, appErrors.Store(err, "failed to load college")
	}

	meta := models.SessionMeta{IP: req.IP, UserAgent: req.UserAgent}
	session, err := s.identity.Authenticate(ctx, req.Email, req.Password, meta)
	if err != nil {
		s.record("invalid_credentials")
		return nil, err
	}

	assignment, err := s.roles.MatchEmail(ctx, req.Email, req.CollegeID)
	if err != nil {
		s.signOut(ctx, session)
		s.record("error")
		return nil, err
	}
	if assignment == nil {
		s.signOut(ctx, session)
		s.record("not_registered")
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Your email is not registered for this college")
	}
	if assignment.UserID != session.Identity.ID {
		s.signOut(ctx, session)
		s.record("identity_mismatch")
		s.logger.Warn("role row identity mismatch",
			zap.String("college_id", req.CollegeID),
			zap.String("role", string(assignment.Role)),
		)
		return nil, appErrors.Clone(appErrors.ErrIdentityMismatch, "User authentication mismatch")
	}

	bound, err := s.identity.BindTenant(ctx, session, req.CollegeID, assignment.Role)
	if err != nil {
		s.signOut(ctx, session)
		s.record("error")
		return nil, err
	}
	s.record("success")

	return &models.LoginResponse{
		AccessToken:  bound.AccessToken,
		RefreshToken: bound.RefreshToken,
		ExpiresIn:    int64(s.identity.AccessTokenTTL().Seconds()),
		Role:         assignment.Role,
		RedirectTo:   assignment.Role.DashboardPath(),
		User:         s.userInfo(ctx, &bound.Identity, assignment.Role),
		College:      college,
		IssuedAt:     bound.IssuedAt,
	}, nil
}

// Refresh exchanges a refresh token for a new token pair bound to the same college.
// The role is resolved again so a changed or removed role takes effect.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid refresh payload")
	}
	session, err := s.identity.Refresh(ctx, req.RefreshToken, models.SessionMeta{IP: req.IP, UserAgent: req.UserAgent})
	if err != nil {
		return nil, err
	}
	if session.CollegeID != "" {
		if session, err = s.rebind(ctx, session); err != nil {
			return nil, err
		}
	}
	return &models.RefreshTokenResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    int64(s.identity.AccessTokenTTL().Seconds()),
		IssuedAt:     session.IssuedAt,
	}, nil
}

// Logout signs the caller's session out.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.identity.SignOut(ctx, claims.SessionID(), expiresAt)
}

// Me returns the caller's identity, college and role.
func (s *AuthService) Me(ctx context.Context, principal models.Principal) (*models.SessionInfo, error) {
	if principal == nil || principal.SessionUserID() == "" {
		return nil, appErrors.ErrUnauthorized
	}
	info := &models.SessionInfo{
		User: models.UserInfo{
			ID:    principal.SessionUserID(),
			Email: principal.SessionEmail(),
			Role:  principal.SessionRole(),
		},
	}
	if profile, err := s.profiles.FindByID(ctx, principal.SessionUserID()); err == nil {
		info.Profile = profile
		info.User.FullName = profile.FullName
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Store(err, "failed to load profile")
	}
	if collegeID := principal.SessionCollegeID(); collegeID != "" {
		college, err := s.colleges.FindByID(ctx, collegeID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Store(err, "failed to load college")
		}
		info.College = college
	}
	return info, nil
}

// ValidateToken verifies an access token for the JWT middleware.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	return s.identity.CurrentSession(ctx, token)
}

func (s *AuthService) rebind(ctx context.Context, session *models.Session) (*models.Session, error) {
	match, err := s.roles.ResolveRole(ctx, session.Identity.ID, session.CollegeID)
	if err != nil {
		s.signOut(ctx, session)
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Your email is not registered for this college")
		}
		return nil, err
	}
	if match.Role == session.Role {
		return session, nil
	}

	bound, err := s.identity.BindTenant(ctx, session, session.CollegeID, match.Role)
	if err != nil {
		s.signOut(ctx, session)
		return nil, err
	}
	s.logger.Info("session role changed on refresh",
		zap.String("user_id", session.Identity.ID),
		zap.String("college_id", session.CollegeID),
		zap.String("from", string(session.Role)),
		zap.String("to", string(match.Role)),
	)
	return bound, nil
}

func (s *AuthService) checkRate(ctx context.Context, req models.LoginRequest) error {
	if s.limiter == nil || s.config.SignInPerMinute <= 0 {
		return nil
	}
	for _, key := range []string{"signin:ip:" + req.IP, "signin:email:" + strings.ToLower(req.Email)} {
		allowed, err := s.limiter.Allow(ctx, key, s.config.SignInPerMinute, time.Minute)
		if err != nil {
			s.logger.Warn("sign-in rate limiter unavailable", zap.Error(err))
			return nil
		}
		if !allowed {
			return appErrors.Clone(appErrors.ErrRateLimited, "too many sign-in attempts, try again shortly")
		}
	}
	return nil
}

func (s *AuthService) signOut(ctx context.Context, session *models.Session) {
	if err := s.identity.SignOut(ctx, session.ID, session.ExpiresAt); err != nil {
		s.logger.Warn("failed to sign out unverified session", zap.String("session_id", session.ID), zap.Error(err))
	}
}

func (s *AuthService) userInfo(ctx context.Context, identity *models.Identity, role models.Role) models.UserInfo {
	info := models.UserInfo{ID: identity.ID, Email: identity.Email, Role: role}
	if profile, err := s.profiles.FindByID(ctx, identity.ID); err == nil && profile.FullName != "" {
		info.FullName = profile.FullName
	} else if name, ok := identity.Metadata["full_name"].(string); ok {
		info.FullName = name
	}
	return info
}

func (s *AuthService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSignIn(outcome)
	}
}
