package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system. A user may hold
// several of them at once.
type UserRole string

const (
	RoleStudent  UserRole = "STUDENT"
	RoleLecturer UserRole = "LECTURER"
	RoleDeptHead UserRole = "DEPT_HEAD"
	RoleClassRep UserRole = "CLASS_REP"
	RoleAdmin    UserRole = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleDeptHead, RoleClassRep, RoleAdmin:
		return true
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID             string         `db:"id" json:"id"`
	IdentityNumber string         `db:"identity_number" json:"identity_number"`
	FullName       string         `db:"full_name" json:"full_name"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	Roles          pq.StringArray `db:"roles" json:"roles"`
	DepartmentID   *string        `db:"department_id" json:"department_id,omitempty"`
	Cohort         *string        `db:"cohort" json:"cohort,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the user holds role.
func (u *User) HasRole(role UserRole) bool {
	return HasRole(u.RoleSet(), role)
}

// RoleSet returns the user's roles as typed values.
func (u *User) RoleSet() []UserRole {
	roles := make([]UserRole, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, UserRole(r))
	}
	return roles
}

// HasRole is a set-membership check over roles.
func HasRole(roles []UserRole, role UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether roles intersects allowed.
func HasAnyRole(roles []UserRole, allowed ...UserRole) bool {
	for _, role := range allowed {
		if HasRole(roles, role) {
			return true
		}
	}
	return false
}
