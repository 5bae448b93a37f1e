package models

import (
	"encoding/json"
	"time"
)

// Admin roles, from most to least privileged.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleEditor     = "editor"
)

// Access is the set of actions a role may perform on one resource.
type Access struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Delete bool `json:"delete"`
}

// Permissions maps a resource name to the allowed actions.
type Permissions map[string]Access

// Clone returns an independent copy of p.
func (p Permissions) Clone() Permissions {
	if p == nil {
		return nil
	}
	out := make(Permissions, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// AdminUser is a back-office account. PasswordHash never leaves the
// process: it is tagged out of JSON and MarshalJSON goes through Public.
type AdminUser struct {
	ID            int64       `json:"id" db:"id"`
	Email         string      `json:"email" db:"email"`
	Name          string      `json:"name" db:"name"`
	PasswordHash  string      `json:"-" db:"password_hash"`
	Role          string      `json:"role" db:"role"`
	Permissions   Permissions `json:"permissions" db:"permissions"`
	IsActive      bool        `json:"is_active" db:"is_active"`
	LoginAttempts int         `json:"login_attempts" db:"login_attempts"`
	LockUntil     *time.Time  `json:"lock_until" db:"lock_until"`
	LastLogin     *time.Time  `json:"last_login" db:"last_login"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// PublicAdminUser is the external representation of an AdminUser.
type PublicAdminUser struct {
	ID            int64       `json:"id"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	Role          string      `json:"role"`
	Permissions   Permissions `json:"permissions"`
	IsActive      bool        `json:"is_active"`
	LoginAttempts int         `json:"login_attempts"`
	LockUntil     *time.Time  `json:"lock_until"`
	LastLogin     *time.Time  `json:"last_login"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Public strips secrets from u.
func (u AdminUser) Public() PublicAdminUser {
	return PublicAdminUser{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		Permissions:   u.Permissions.Clone(),
		IsActive:      u.IsActive,
		LoginAttempts: u.LoginAttempts,
		LockUntil:     u.LockUntil,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (u AdminUser) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Public())
}
