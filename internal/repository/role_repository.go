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
	"github.com/noah-isme/college-admin-api/pkg/database"
)

// ErrUnknownRole is returned when a role has no backing table.
var ErrUnknownRole = errors.New("unknown role")

// RoleRepository reads and writes the admins, staff and students tables.
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository constructs a RoleRepository.
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// FindByUserID returns the identity's row in the role table for a college.
func (r *RoleRepository) FindByUserID(ctx context.Context, role models.Role, userID, collegeID string) (*models.RoleAssignment, error) {
	table := role.Table()
	if table == "" {
		return nil, ErrUnknownRole
	}
	query := fmt.Sprintf(`SELECT id, user_id, email, college_id, created_at FROM %s WHERE user_id = $1 AND college_id = $2 LIMIT 1`, table)
	var assignment models.RoleAssignment
	if err := r.db.GetContext(ctx, &assignment, query, userID, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find %s by user: %w", table, err)
	}
	assignment.Role = role
	return &assignment, nil
}

// FindByEmail returns the row in the role table matching email for a college.
func (r *RoleRepository) FindByEmail(ctx context.Context, role models.Role, email, collegeID string) (*models.RoleAssignment, error) {
	table := role.Table()
	if table == "" {
		return nil, ErrUnknownRole
	}
	query := fmt.Sprintf(`SELECT id, user_id, email, college_id, created_at FROM %s WHERE LOWER(email) = LOWER($1) AND college_id = $2 ORDER BY created_at ASC LIMIT 1`, table)
	var assignment models.RoleAssignment
	if err := r.db.GetContext(ctx, &assignment, query, email, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find %s by email: %w", table, err)
	}
	assignment.Role = role
	return &assignment, nil
}

// Insert adds a row to the role table. fullName is ignored for admins.
func (r *RoleRepository) Insert(ctx context.Context, assignment *models.RoleAssignment, fullName *string) error {
	return insertRole(ctx, r.db, assignment, fullName)
}

// Reassign replaces every role the identity holds in the college with role.
// When the target table already holds the identity its row is kept, so the row id
// and anything keyed to it survive. The deletes, the profile lookup and the insert
// share one transaction. A missing profile surfaces as sql.ErrNoRows and leaves
// the old role in place.
func (r *RoleRepository) Reassign(ctx context.Context, userID, collegeID string, role models.Role) (assignment *models.RoleAssignment, err error) {
	if role.Table() == "" {
		return nil, ErrUnknownRole
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reassign role: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := lockRole(ctx, tx, role, userID, collegeID)
	if err != nil {
		return nil, err
	}

	for _, existing := range models.RolePriority {
		if existing == role {
			continue
		}
		query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND college_id = $2`, existing.Table())
		if _, err = tx.ExecContext(ctx, query, userID, collegeID); err != nil {
			if database.IsForeignKeyViolation(err) {
				return nil, models.ErrRoleInUse
			}
			return nil, fmt.Errorf("clear %s role: %w", existing.Table(), err)
		}
	}

	if current != nil {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit reassign role: %w", err)
		}
		return current, nil
	}

	var profile struct {
		Email    string `db:"email"`
		FullName string `db:"full_name"`
	}
	if err = tx.GetContext(ctx, &profile, `SELECT email, full_name FROM profiles WHERE id = $1 LIMIT 1`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find profile for role: %w", err)
	}

	assignment = &models.RoleAssignment{UserID: userID, Email: profile.Email, CollegeID: collegeID, Role: role}
	var fullName *string
	if profile.FullName != "" {
		fullName = &profile.FullName
	}
	if err = insertRole(ctx, tx, assignment, fullName); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reassign role: %w", err)
	}
	return assignment, nil
}

// Delete removes the identity's row from one role table for a college.
// A student row that still owns fee transactions returns models.ErrRoleInUse.
func (r *RoleRepository) Delete(ctx context.Context, role models.Role, userID, collegeID string) (int64, error) {
	table := role.Table()
	if table == "" {
		return 0, ErrUnknownRole
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND college_id = $2`, table)
	res, err := r.db.ExecContext(ctx, query, userID, collegeID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return 0, models.ErrRoleInUse
		}
		return 0, fmt.Errorf("delete %s role: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s role rows: %w", table, err)
	}
	return affected, nil
}

// CountAssignments returns how many role rows the identity still holds in any college.
func (r *RoleRepository) CountAssignments(ctx context.Context, userID string) (int, error) {
	const query = `SELECT
  (SELECT COUNT(*) FROM admins WHERE user_id = $1) +
  (SELECT COUNT(*) FROM staff WHERE user_id = $1) +
  (SELECT COUNT(*) FROM students WHERE user_id = $1)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("count role assignments: %w", err)
	}
	return total, nil
}

// ListByCollege returns the members of one role table joined with their college.
func (r *RoleRepository) ListByCollege(ctx context.Context, role models.Role, collegeID string) ([]models.RoleMember, error) {
	table := role.Table()
	if table == "" {
		return nil, ErrUnknownRole
	}
	query := fmt.Sprintf(`SELECT t.id, t.user_id, t.email, p.full_name, t.college_id, c.name AS college_name, t.created_at
FROM %s t
INNER JOIN colleges c ON c.id = t.college_id
LEFT JOIN profiles p ON p.id = t.user_id
WHERE t.college_id = $1
ORDER BY t.created_at DESC`, table)
	var members []models.RoleMember
	if err := r.db.SelectContext(ctx, &members, query, collegeID); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	for i := range members {
		members[i].Role = role
	}
	return members, nil
}

func lockRole(ctx context.Context, tx *sqlx.Tx, role models.Role, userID, collegeID string) (*models.RoleAssignment, error) {
	query := fmt.Sprintf(`SELECT id, user_id, email, college_id, created_at FROM %s WHERE user_id = $1 AND college_id = $2 FOR UPDATE`, role.Table())
	var assignment models.RoleAssignment
	if err := tx.GetContext(ctx, &assignment, query, userID, collegeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock %s role: %w", role.Table(), err)
	}
	assignment.Role = role
	return &assignment, nil
}

func insertRole(ctx context.Context, exec sqlx.ExtContext, assignment *models.RoleAssignment, fullName *string) error {
	table := assignment.Role.Table()
	if table == "" {
		return ErrUnknownRole
	}
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}

	var err error
	switch assignment.Role {
	case models.RoleAdmin:
		_, err = exec.ExecContext(ctx, `INSERT INTO admins (id, user_id, email, college_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
			assignment.ID, assignment.UserID, assignment.Email, assignment.CollegeID, assignment.CreatedAt)
	default:
		query := fmt.Sprintf(`INSERT INTO %s (id, user_id, email, college_id, full_name, created_at) VALUES ($1, $2, $3, $4, $5, $6)`, table)
		_, err = exec.ExecContext(ctx, query, assignment.ID, assignment.UserID, assignment.Email, assignment.CollegeID, fullName, assignment.CreatedAt)
	}
	if err != nil {
		return fmt.Errorf("insert %s role: %w", table, err)
	}
	return nil
}
