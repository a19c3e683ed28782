package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/college-admin-api/internal/models"
	"github.com/noah-isme/college-admin-api/pkg/database"
	appErrors "github.com/noah-isme/college-admin-api/pkg/errors"
)

type identityRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	FindByID(ctx context.Context, id string) (*models.Identity, error)
	CreateWithProfile(ctx context.Context, identity *models.Identity, profile *models.Profile) error
	Delete(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	CreateSession(ctx context.Context, session *models.SessionRecord) error
	FindSessionByRefreshToken(ctx context.Context, token string) (*models.SessionRecord, error)
	FindSessionByID(ctx context.Context, id string) (*models.SessionRecord, error)
	BindSession(ctx context.Context, id, collegeID string, role models.Role) error
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) error
	RevokeUserSessions(ctx context.Context, userID string) error
}

type tokenDenylist interface {
	Deny(ctx context.Context, jti string, ttl time.Duration) error
	IsDenied(ctx context.Context, jti string) (bool, error)
}

// IdentityConfig defines token and password policy for the identity provider.
type IdentityConfig struct {
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Issuer             string
	SingleSession      bool
	MinPasswordLength  int
}

// IdentityService is the in-process identity provider: password identities,
// sessions and signed access tokens.
type IdentityService struct {
	repo     identityRepository
	denylist tokenDenylist
	logger   *zap.Logger
	config   IdentityConfig
	now      func() time.Time
}

// NewIdentityService constructs an IdentityService.
func NewIdentityService(repo identityRepository, denylist tokenDenylist, logger *zap.Logger, config IdentityConfig) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = time.Hour
	}
	if config.RefreshTokenExpiry <= 0 {
		config.RefreshTokenExpiry = 7 * 24 * time.Hour
	}
	if config.MinPasswordLength <= 0 {
		config.MinPasswordLength = 8
	}
	return &IdentityService{repo: repo, denylist: denylist, logger: logger, config: config, now: func() time.Time { return time.Now().UTC() }}
}

// AccessTokenTTL reports the lifetime of issued access tokens.
func (s *IdentityService) AccessTokenTTL() time.Duration {
	return s.config.AccessTokenExpiry
}

// Authenticate verifies the password and opens a session that is not yet bound to a college.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string, meta models.SessionMeta) (*models.Session, error) {
	identity, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Store(err, "failed to fetch identity")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if s.config.SingleSession {
		if err := s.repo.RevokeUserSessions(ctx, identity.ID); err != nil {
			s.logger.Warn("failed to revoke previous sessions", zap.String("user_id", identity.ID), zap.Error(err))
		}
	}

	return s.openSession(ctx, identity, "", "", meta)
}

// AdminCreateIdentity creates a password identity and its profile.
func (s *IdentityService) AdminCreateIdentity(ctx context.Context, email, password string, confirmed bool, metadata models.JSONMap) (*models.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, appErrors.Validation(err, "invalid email address")
	}
	if len(password) < s.config.MinPasswordLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("password must be at least %d characters", s.config.MinPasswordLength))
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Store(err, "failed to check existing identity")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	meta := metadata.Clone()
	fullName, _ := meta["full_name"].(string)
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		fullName = emailLocalPart(email)
		meta["full_name"] = fullName
	}

	identity := &models.Identity{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   string(hash),
		EmailConfirmed: confirmed,
		Metadata:       meta,
	}
	profile := &models.Profile{Email: email, FullName: fullName}
	if err := s.repo.CreateWithProfile(ctx, identity, profile); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
		}
		return nil, appErrors.Store(err, "failed to create identity")
	}

	s.logger.Info("identity created", zap.String("user_id", identity.ID))
	return identity, nil
}

// FindByEmail returns the identity registered for email, if any.
func (s *IdentityService) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	identity, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "identity not found")
		}
		return nil, appErrors.Store(err, "failed to fetch identity")
	}
	return identity, nil
}

// FindByID returns the identity with the given id.
func (s *IdentityService) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "identity not found")
		}
		return nil, appErrors.Store(err, "failed to fetch identity")
	}
	return identity, nil
}

// AdminDeleteIdentity removes the identity with its sessions and profile.
func (s *IdentityService) AdminDeleteIdentity(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Store(err, "failed to delete identity")
	}
	s.logger.Info("identity deleted", zap.String("user_id", id))
	return nil
}

// SignOut revokes the session and denylists its access token until expiry.
func (s *IdentityService) SignOut(ctx context.Context, sessionID string, accessExpiresAt time.Time) error {
	if sessionID == "" {
		return nil
	}
	if err := s.repo.RevokeSession(ctx, sessionID, s.now()); err != nil {
		return appErrors.Store(err, "failed to revoke session")
	}
	if s.denylist != nil {
		if err := s.denylist.Deny(ctx, sessionID, time.Until(accessExpiresAt)); err != nil {
			s.logger.Warn("failed to denylist access token", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

// CurrentSession validates an access token and returns its claims.
func (s *IdentityService) CurrentSession(ctx context.Context, accessToken string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	if s.denylist != nil {
		denied, err := s.denylist.IsDenied(ctx, claims.ID)
		if err != nil {
			// fall back to the session row
			s.logger.Warn("token denylist unavailable", zap.Error(err))
			session, findErr := s.repo.FindSessionByID(ctx, claims.ID)
			if findErr != nil || session.Revoked {
				return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session is no longer valid")
			}
		} else if denied {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session has been signed out")
		}
	}
	return claims, nil
}

// BindTenant pins the session to a college and role and re-issues its access token.
func (s *IdentityService) BindTenant(ctx context.Context, session *models.Session, collegeID string, role models.Role) (*models.Session, error) {
	if err := s.repo.BindSession(ctx, session.ID, collegeID, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session is no longer valid")
		}
		return nil, appErrors.Store(err, "failed to bind session")
	}

	bound := *session
	bound.CollegeID = collegeID
	bound.Role = role
	accessToken, expiresAt, err := s.issueAccessToken(&bound.Identity, bound.ID, collegeID, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	bound.AccessToken = accessToken
	bound.ExpiresAt = expiresAt
	bound.IssuedAt = s.now()
	return &bound, nil
}

// Refresh rotates the refresh token and keeps the college and role binding.
func (s *IdentityService) Refresh(ctx context.Context, refreshToken string, meta models.SessionMeta) (*models.Session, error) {
	stored, err := s.repo.FindSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token not found")
		}
		return nil, appErrors.Store(err, "failed to fetch refresh token")
	}
	if stored.Revoked || s.now().After(stored.ExpiresAt) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token is expired or revoked")
	}

	identity, err := s.repo.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "associated user no longer exists")
		}
		return nil, appErrors.Store(err, "failed to load identity")
	}

	if err := s.repo.RevokeSession(ctx, stored.ID, s.now()); err != nil {
		return nil, appErrors.Store(err, "failed to revoke used refresh token")
	}

	var collegeID string
	var role models.Role
	if stored.CollegeID != nil {
		collegeID = *stored.CollegeID
	}
	if stored.Role != nil {
		role = *stored.Role
	}
	return s.openSession(ctx, identity, collegeID, role, meta)
}

// ResetPassword sets a new password and revokes every open session.
func (s *IdentityService) ResetPassword(ctx context.Context, email, password string) error {
	if len(password) < s.config.MinPasswordLength {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("password must be at least %d characters", s.config.MinPasswordLength))
	}
	identity, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, identity.ID, string(hash), s.now()); err != nil {
		return appErrors.Store(err, "failed to update password")
	}
	if err := s.repo.RevokeUserSessions(ctx, identity.ID); err != nil {
		s.logger.Warn("failed to revoke sessions after password reset", zap.Error(err))
	}
	return nil
}

func (s *IdentityService) openSession(ctx context.Context, identity *models.Identity, collegeID string, role models.Role, meta models.SessionMeta) (*models.Session, error) {
	refreshValue, err := generateRefreshTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	now := s.now()
	record := &models.SessionRecord{
		ID:           uuid.NewString(),
		UserID:       identity.ID,
		RefreshToken: refreshValue,
		ExpiresAt:    now.Add(s.config.RefreshTokenExpiry),
		CreatedAt:    now,
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
	}
	if collegeID != "" {
		record.CollegeID = &collegeID
	}
	if role != "" {
		record.Role = &role
	}
	if err := s.repo.CreateSession(ctx, record); err != nil {
		return nil, appErrors.Store(err, "failed to persist session")
	}

	accessToken, expiresAt, err := s.issueAccessToken(identity, record.ID, collegeID, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	return &models.Session{
		ID:           record.ID,
		Identity:     *identity,
		CollegeID:    collegeID,
		Role:         role,
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		ExpiresAt:    expiresAt,
		IssuedAt:     now,
	}, nil
}

func (s *IdentityService) issueAccessToken(identity *models.Identity, sessionID, collegeID string, role models.Role) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.config.AccessTokenExpiry)
	claims := &models.JWTClaims{
		UserID:    identity.ID,
		Email:     identity.Email,
		CollegeID: collegeID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    s.config.Issuer,
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func generateRefreshTokenString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func emailLocalPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
