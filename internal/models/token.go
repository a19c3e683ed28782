package models

import "time"

// SessionRecord is a persisted refresh-token session.
type SessionRecord struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	RefreshToken string     `db:"refresh_token" json:"-"`
	CollegeID    *string    `db:"college_id" json:"college_id,omitempty"`
	Role         *Role      `db:"role" json:"role,omitempty"`
	ExpiresAt    time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	Revoked      bool       `db:"revoked" json:"revoked"`
	RevokedAt    *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress    string     `db:"ip_address" json:"ip_address"`
	UserAgent    string     `db:"user_agent" json:"user_agent"`
}
