package models

import (
	"errors"
	"time"
)

// Role is one of the three tenant-scoped roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
	RoleStudent Role = "student"
)

// ErrRoleInUse is returned when removing a role row would orphan records keyed to
// it, such as a student's fee transactions.
var ErrRoleInUse = errors.New("role row is still referenced")

// RolePriority is the lookup order used when resolving an identity's role.
var RolePriority = []Role{RoleAdmin, RoleStaff, RoleStudent}

// Valid reports whether r names a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleStudent:
		return true
	}
	return false
}

// Table returns the role table backing r.
func (r Role) Table() string {
	switch r {
	case RoleAdmin:
		return "admins"
	case RoleStaff:
		return "staff"
	case RoleStudent:
		return "students"
	}
	return ""
}

// DashboardPath is where a signed-in user of this role lands.
func (r Role) DashboardPath() string {
	return "/" + string(r) + "-dashboard"
}

// RoleAssignment is a row in one of the role tables.
type RoleAssignment struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Email     string    `db:"email" json:"email"`
	CollegeID string    `db:"college_id" json:"college_id"`
	Role      Role      `db:"-" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RoleMatch is the outcome of resolving an identity within a tenant.
type RoleMatch struct {
	Role       Role            `json:"role"`
	Assignment *RoleAssignment `json:"assignment"`
	College    *College        `json:"college,omitempty"`
}

// RoleMember is a role row joined with its college, used for user listings.
type RoleMember struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Email       string    `db:"email" json:"email"`
	FullName    *string   `db:"full_name" json:"full_name,omitempty"`
	CollegeID   string    `db:"college_id" json:"college_id"`
	CollegeName string    `db:"college_name" json:"college_name"`
	Role        Role      `db:"-" json:"role"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserFilter captures filtering criteria for listing users of a college.
type UserFilter struct {
	Role     *Role
	Search   string
	Page     int
	PageSize int
}
