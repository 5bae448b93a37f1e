package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garnizeh/showcase/pkg/models"
)

const adminUserCols = `id, email, name, password_hash, role, permissions, is_active, login_attempts, lock_until, last_login, created_at, updated_at`

func scanAdminUser(s scanner) (*models.AdminUser, error) {
	var (
		u                    models.AdminUser
		perms                string
		lockUntil, lastLogin sql.NullInt64
		createdAt, updatedAt int64
	)
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &perms, &u.IsActive, &u.LoginAttempts,
		&lockUntil, &lastLogin, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if perms != "" {
		if err := json.Unmarshal([]byte(perms), &u.Permissions); err != nil {
			return nil, fmt.Errorf("decode permissions for user %d: %w", u.ID, err)
		}
	}
	u.LockUntil = fromNullMS(lockUntil)
	u.LastLogin = fromNullMS(lastLogin)
	u.CreatedAt = fromMS(createdAt)
	u.UpdatedAt = fromMS(updatedAt)
	return &u, nil
}

func encodePermissions(p models.Permissions) (string, error) {
	if p == nil {
		return "{}", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode permissions: %w", err)
	}
	return string(b), nil
}

func (r *SQLiteRepo) CreateAdminUser(ctx context.Context, u *models.AdminUser) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("admin user is nil")
	}
	perms, err := encodePermissions(u.Permissions)
	if err != nil {
		return 0, err
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO admin_users (email, name, password_hash, role, permissions, is_active, login_attempts, lock_until, last_login, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		u.Email, u.Name, u.PasswordHash, u.Role, perms, boolInt(u.IsActive), u.LoginAttempts,
		msPtr(u.LockUntil), msPtr(u.LastLogin), ms(u.CreatedAt), ms(u.UpdatedAt))
	if err != nil {
		return 0, mapErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

func (r *SQLiteRepo) GetAdminUser(ctx context.Context, id int64) (*models.AdminUser, error) {
	u, err := scanAdminUser(r.conn.QueryRow(ctx, `SELECT `+adminUserCols+` FROM admin_users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetAdminUserByEmail matches case-insensitively (the column is NOCASE).
func (r *SQLiteRepo) GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	u, err := scanAdminUser(r.conn.QueryRow(ctx, `SELECT `+adminUserCols+` FROM admin_users WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *SQLiteRepo) UpdateAdminUser(ctx context.Context, u *models.AdminUser) error {
	if u == nil {
		return fmt.Errorf("admin user is nil")
	}
	perms, err := encodePermissions(u.Permissions)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, `UPDATE admin_users SET email = ?, name = ?, password_hash = ?, role = ?, permissions = ?, is_active = ?, login_attempts = ?, lock_until = ?, last_login = ?, updated_at = ? WHERE id = ?`,
		u.Email, u.Name, u.PasswordHash, u.Role, perms, boolInt(u.IsActive), u.LoginAttempts,
		msPtr(u.LockUntil), msPtr(u.LastLogin), ms(u.UpdatedAt), u.ID)
	return mapErr(err)
}

func (r *SQLiteRepo) DeleteAdminUser(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM admin_users WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListAdminUsers(ctx context.Context) ([]models.AdminUser, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+adminUserCols+` FROM admin_users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	defer rows.Close()

	out := []models.AdminUser{}
	for rows.Next() {
		u, err := scanAdminUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CountAdminUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM admin_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admin users: %w", err)
	}
	return n, nil
}

// RecordLoginFailure is one UPDATE so concurrent failures each count. The
// SET expressions all read the pre-update row.
func (r *SQLiteRepo) RecordLoginFailure(ctx context.Context, id int64, now time.Time, maxAttempts int, lockFor time.Duration) (*models.AdminUser, error) {
	at := ms(now)
	u, err := scanAdminUser(r.conn.QueryRow(ctx, `UPDATE admin_users SET
		login_attempts = CASE WHEN lock_until IS NOT NULL AND lock_until <= ? THEN 1 ELSE login_attempts + 1 END,
		lock_until = CASE
			WHEN lock_until IS NOT NULL AND lock_until <= ? THEN NULL
			WHEN lock_until IS NOT NULL THEN lock_until
			WHEN login_attempts + 1 >= ? THEN ?
			ELSE NULL
		END,
		updated_at = ?
		WHERE id = ?
		RETURNING `+adminUserCols,
		at, at, maxAttempts, ms(now.Add(lockFor)), at, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record login failure: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepo) RecordLoginSuccess(ctx context.Context, id int64, now time.Time) error {
	_, err := r.conn.Exec(ctx, `UPDATE admin_users SET login_attempts = 0, lock_until = NULL, last_login = ?, updated_at = ? WHERE id = ?`,
		ms(now), ms(now), id)
	return err
}

func (r *SQLiteRepo) ResetLockout(ctx context.Context, id int64, now time.Time) error {
	_, err := r.conn.Exec(ctx, `UPDATE admin_users SET login_attempts = 0, lock_until = NULL, updated_at = ? WHERE id = ?`,
		ms(now), id)
	return err
}

func (r *SQLiteRepo) SetAdminPassword(ctx context.Context, id int64, hash string, now time.Time) error {
	_, err := r.conn.Exec(ctx, `UPDATE admin_users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, ms(now), id)
	return err
}
