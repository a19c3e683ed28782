package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is an authenticated principal owned by the identity provider.
type Identity struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	EmailConfirmed bool      `db:"email_confirmed" json:"email_confirmed"`
	Metadata       JSONMap   `db:"user_metadata" json:"user_metadata"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SessionMeta describes the client opening a session.
type SessionMeta struct {
	IP        string
	UserAgent string
}

// Session is an issued token pair. Until bound, it carries no tenant or role.
type Session struct {
	ID           string    `json:"-"`
	Identity     Identity  `json:"-"`
	CollegeID    string    `json:"college_id,omitempty"`
	Role         Role      `json:"role,omitempty"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	IssuedAt     time.Time `json:"issued_at"`
}

// LoginRequest holds credentials plus the tenant the user is signing into.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	CollegeID string `json:"college_id" validate:"required,uuid"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens, the resolved role and where to go next.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	Role         Role      `json:"role"`
	RedirectTo   string    `json:"redirect_to"`
	User         UserInfo  `json:"user"`
	College      *College  `json:"college,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new token pair.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the rotated tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// SessionInfo is the current session as seen by dashboards.
type SessionInfo struct {
	User    UserInfo `json:"user"`
	College *College `json:"college,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. The session id is the token ID.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	CollegeID string `json:"college_id,omitempty"`
	Role      Role   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the read-only view of a session that workflows receive.
type Principal interface {
	SessionUserID() string
	SessionEmail() string
	SessionCollegeID() string
	SessionRole() Role
}

func (c *JWTClaims) SessionUserID() string    { return c.UserID }
func (c *JWTClaims) SessionEmail() string     { return c.Email }
func (c *JWTClaims) SessionCollegeID() string { return c.CollegeID }
func (c *JWTClaims) SessionRole() Role        { return c.Role }

// SessionID returns the token ID linking the claims to a stored session.
func (c *JWTClaims) SessionID() string { return c.ID }
