package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

const serviceCols = `id, name, slug, short_description, description, icon, features, price_range, is_active, sort_order, seo_title, seo_description, seo_keywords, created_at, updated_at`

func scanService(s scanner) (*models.Service, error) {
	var (
		svc                  models.Service
		features             string
		createdAt, updatedAt int64
	)
	err := s.Scan(&svc.ID, &svc.Name, &svc.Slug, &svc.ShortDescription, &svc.Description, &svc.Icon, &features,
		&svc.PriceRange, &svc.IsActive, &svc.SortOrder, &svc.SEOTitle, &svc.SEODescription, &svc.SEOKeywords,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if svc.Features, err = decodeList("features", features); err != nil {
		return nil, fmt.Errorf("service %d: %w", svc.ID, err)
	}
	svc.CreatedAt = fromMS(createdAt)
	svc.UpdatedAt = fromMS(updatedAt)
	return &svc, nil
}

func (r *SQLiteRepo) CreateService(ctx context.Context, s *models.Service) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("service is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO services (name, slug, short_description, description, icon, features, price_range, is_active, sort_order, seo_title, seo_description, seo_keywords, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.Name, s.Slug, s.ShortDescription, s.Description, s.Icon, encodeList(s.Features), s.PriceRange,
		boolInt(s.IsActive), s.SortOrder, s.SEOTitle, s.SEODescription, s.SEOKeywords, ms(s.CreatedAt), ms(s.UpdatedAt))
	if err != nil {
		return 0, mapErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	s.ID = id
	return id, nil
}

func (r *SQLiteRepo) GetService(ctx context.Context, id int64) (*models.Service, error) {
	s, err := scanService(r.conn.QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *SQLiteRepo) GetServiceBySlug(ctx context.Context, slug string) (*models.Service, error) {
	s, err := scanService(r.conn.QueryRow(ctx, `SELECT `+serviceCols+` FROM services WHERE slug = ?`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *SQLiteRepo) UpdateService(ctx context.Context, s *models.Service) error {
	if s == nil {
		return fmt.Errorf("service is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE services SET name = ?, slug = ?, short_description = ?, description = ?, icon = ?, features = ?, price_range = ?, is_active = ?, sort_order = ?, seo_title = ?, seo_description = ?, seo_keywords = ?, updated_at = ? WHERE id = ?`,
		s.Name, s.Slug, s.ShortDescription, s.Description, s.Icon, encodeList(s.Features), s.PriceRange,
		boolInt(s.IsActive), s.SortOrder, s.SEOTitle, s.SEODescription, s.SEOKeywords, ms(s.UpdatedAt), s.ID)
	return mapErr(err)
}

func (r *SQLiteRepo) DeleteService(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM services WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListServices(ctx context.Context, f repository.ListFilter) ([]models.Service, int64, error) {
	f = f.Normalize()
	f.Category = ""
	w := filter(f, false, "", "is_active", "name", "short_description", "description")

	total, err := r.count(ctx, "services", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+serviceCols+` FROM services`+w.String()+` ORDER BY sort_order ASC, name ASC LIMIT ? OFFSET ?`,
		append(w.args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	out := []models.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}
