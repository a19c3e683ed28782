package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/college-admin-api/internal/models"
)

const (
	identityColumns = `id, email, password_hash, email_confirmed, user_metadata, created_at, updated_at`
	sessionColumns  = `id, user_id, refresh_token, college_id, role, expires_at, created_at, revoked, revoked_at, ip_address, user_agent`
)

// IdentityRepository persists identities and their sessions.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository creates a new instance of IdentityRepository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// FindByEmail returns an identity by email address.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM auth_users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var identity models.Identity
	if err := r.db.GetContext(ctx, &identity, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find identity by email: %w", err)
	}
	return &identity, nil
}

// FindByID returns an identity by identifier.
func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM auth_users WHERE id = $1 LIMIT 1`
	var identity models.Identity
	if err := r.db.GetContext(ctx, &identity, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find identity by id: %w", err)
	}
	return &identity, nil
}

// CreateWithProfile inserts the identity and its profile in one transaction.
func (r *IdentityRepository) CreateWithProfile(ctx context.Context, identity *models.Identity, profile *models.Profile) (err error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now
	if identity.Metadata == nil {
		identity.Metadata = models.JSONMap{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create identity: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO auth_users (id, email, password_hash, email_confirmed, user_metadata, created_at, updated_at)
VALUES (:id, :email, :password_hash, :email_confirmed, :user_metadata, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, identity); err != nil {
		return fmt.Errorf("create identity: %w", err)
	}

	profile.ID = identity.ID
	if err = upsertProfile(ctx, tx, profile); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create identity: %w", err)
	}
	return nil
}

// Delete removes the identity together with its sessions and profile.
func (r *IdentityRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete identity: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM auth_sessions WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("delete identity sessions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete identity profile: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM auth_users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete identity: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *IdentityRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE auth_users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// CreateSession persists a refresh-token session.
func (r *IdentityRepository) CreateSession(ctx context.Context, session *models.SessionRecord) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO auth_sessions (id, user_id, refresh_token, college_id, role, expires_at, created_at, revoked, revoked_at, ip_address, user_agent)
VALUES (:id, :user_id, :refresh_token, :college_id, :role, :expires_at, :created_at, :revoked, :revoked_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindSessionByRefreshToken returns a session by refresh token.
func (r *IdentityRepository) FindSessionByRefreshToken(ctx context.Context, token string) (*models.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM auth_sessions WHERE refresh_token = $1 LIMIT 1`
	var session models.SessionRecord
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

// FindSessionByID returns a session by identifier.
func (r *IdentityRepository) FindSessionByID(ctx context.Context, id string) (*models.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM auth_sessions WHERE id = $1 LIMIT 1`
	var session models.SessionRecord
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return &session, nil
}

// BindSession records the tenant and role a session was verified for.
func (r *IdentityRepository) BindSession(ctx context.Context, id, collegeID string, role models.Role) error {
	const query = `UPDATE auth_sessions SET college_id = $2, role = $3 WHERE id = $1 AND revoked = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, collegeID, string(role))
	if err != nil {
		return fmt.Errorf("bind session: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RevokeSession marks a session as revoked.
func (r *IdentityRepository) RevokeSession(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE auth_sessions SET revoked = TRUE, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeUserSessions revokes all active sessions for an identity.
func (r *IdentityRepository) RevokeUserSessions(ctx context.Context, userID string) error {
	const query = `UPDATE auth_sessions SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke user sessions: %w", err)
	}
	return nil
}
