package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/showcase/pkg/models"
)

const companyInfoCols = `id, key, value, type, description, is_public, created_at, updated_at`

func scanCompanyInfo(s scanner) (*models.CompanyInfo, error) {
	var (
		c                    models.CompanyInfo
		createdAt, updatedAt int64
	)
	if err := s.Scan(&c.ID, &c.Key, &c.Value, &c.Type, &c.Description, &c.IsPublic, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = fromMS(createdAt)
	c.UpdatedAt = fromMS(updatedAt)
	return &c, nil
}

// UpsertCompanyInfo inserts info or replaces the entry with the same key,
// keeping the original id and created_at.
func (r *SQLiteRepo) UpsertCompanyInfo(ctx context.Context, info *models.CompanyInfo) error {
	if info == nil {
		return fmt.Errorf("company info is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO company_info (key, value, type, description, is_public, created_at, updated_at) VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, type = excluded.type, description = excluded.description, is_public = excluded.is_public, updated_at = excluded.updated_at`,
		info.Key, info.Value, info.Type, info.Description, boolInt(info.IsPublic), ms(info.CreatedAt), ms(info.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert company info %q: %w", info.Key, err)
	}

	stored, err := r.GetCompanyInfo(ctx, info.Key)
	if err != nil {
		return err
	}
	if stored != nil {
		*info = *stored
	}
	return nil
}

func (r *SQLiteRepo) GetCompanyInfo(ctx context.Context, key string) (*models.CompanyInfo, error) {
	c, err := scanCompanyInfo(r.conn.QueryRow(ctx, `SELECT `+companyInfoCols+` FROM company_info WHERE key = ?`, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *SQLiteRepo) ListCompanyInfo(ctx context.Context, publicOnly bool) ([]models.CompanyInfo, error) {
	q := `SELECT ` + companyInfoCols + ` FROM company_info`
	if publicOnly {
		q += ` WHERE is_public = 1`
	}
	rows, err := r.conn.QueryRows(ctx, q+` ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list company info: %w", err)
	}
	defer rows.Close()

	out := []models.CompanyInfo{}
	for rows.Next() {
		c, err := scanCompanyInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) DeleteCompanyInfo(ctx context.Context, key string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM company_info WHERE key = ?`, key)
	return err
}
