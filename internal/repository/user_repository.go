package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/room-booking-api/internal/models"
)

const userColumns = `id, identity_number, full_name, password_hash, roles, department_id, cohort, created_at, updated_at`

// UserRepository resolves users for login and approver lookups.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "find user by id", `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, id)
}

// FindByIdentityNumber returns a user by student or staff number.
func (r *UserRepository) FindByIdentityNumber(ctx context.Context, number string) (*models.User, error) {
	return r.findOne(ctx, "find user by identity number", `SELECT `+userColumns+` FROM users WHERE identity_number = $1 LIMIT 1`, number)
}

// FindDeptHead returns the head of a department. The oldest account wins when
// several users hold the role.
func (r *UserRepository) FindDeptHead(ctx context.Context, departmentID string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE 'DEPT_HEAD' = ANY(roles) AND department_id = $1 ORDER BY created_at, id LIMIT 1`
	return r.findOne(ctx, "find department head", query, departmentID)
}

// FindLecturerByName matches the full name exactly.
func (r *UserRepository) FindLecturerByName(ctx context.Context, name string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE 'LECTURER' = ANY(roles) AND full_name = $1 ORDER BY created_at, id LIMIT 1`
	return r.findOne(ctx, "find lecturer by name", query, name)
}

// FindClassRep returns the class representative of a department cohort.
func (r *UserRepository) FindClassRep(ctx context.Context, departmentID, cohort string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE 'CLASS_REP' = ANY(roles) AND department_id = $1 AND cohort = $2 ORDER BY created_at, id LIMIT 1`
	return r.findOne(ctx, "find class representative", query, departmentID, cohort)
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}
