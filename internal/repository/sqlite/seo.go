package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

const seoCols = `id, page_path, title, description, keywords, og_title, og_description, og_image, canonical_url, robots, structured_data, created_at, updated_at`

func scanSEO(s scanner) (*models.SEOMetadata, error) {
	var (
		m                    models.SEOMetadata
		structured           sql.NullString
		createdAt, updatedAt int64
	)
	err := s.Scan(&m.ID, &m.PagePath, &m.Title, &m.Description, &m.Keywords, &m.OGTitle, &m.OGDescription,
		&m.OGImage, &m.CanonicalURL, &m.Robots, &structured, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if structured.Valid && structured.String != "" {
		m.StructuredData = json.RawMessage(structured.String)
	}
	m.CreatedAt = fromMS(createdAt)
	m.UpdatedAt = fromMS(updatedAt)
	return &m, nil
}

func rawOrNil(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func (r *SQLiteRepo) CreateSEOMetadata(ctx context.Context, m *models.SEOMetadata) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("seo metadata is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO seo_metadata (page_path, title, description, keywords, og_title, og_description, og_image, canonical_url, robots, structured_data, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.PagePath, m.Title, m.Description, m.Keywords, m.OGTitle, m.OGDescription, m.OGImage, m.CanonicalURL,
		m.Robots, rawOrNil(m.StructuredData), ms(m.CreatedAt), ms(m.UpdatedAt))
	if err != nil {
		return 0, mapErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	m.ID = id
	return id, nil
}

func (r *SQLiteRepo) GetSEOMetadata(ctx context.Context, id int64) (*models.SEOMetadata, error) {
	m, err := scanSEO(r.conn.QueryRow(ctx, `SELECT `+seoCols+` FROM seo_metadata WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *SQLiteRepo) GetSEOMetadataByPath(ctx context.Context, path string) (*models.SEOMetadata, error) {
	m, err := scanSEO(r.conn.QueryRow(ctx, `SELECT `+seoCols+` FROM seo_metadata WHERE page_path = ?`, path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *SQLiteRepo) UpdateSEOMetadata(ctx context.Context, m *models.SEOMetadata) error {
	if m == nil {
		return fmt.Errorf("seo metadata is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE seo_metadata SET page_path = ?, title = ?, description = ?, keywords = ?, og_title = ?, og_description = ?, og_image = ?, canonical_url = ?, robots = ?, structured_data = ?, updated_at = ? WHERE id = ?`,
		m.PagePath, m.Title, m.Description, m.Keywords, m.OGTitle, m.OGDescription, m.OGImage, m.CanonicalURL,
		m.Robots, rawOrNil(m.StructuredData), ms(m.UpdatedAt), m.ID)
	return mapErr(err)
}

func (r *SQLiteRepo) DeleteSEOMetadata(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM seo_metadata WHERE id = ?`, id)
	return err
}

// ListSEOMetadata pages through entries ordered by path. Search matches
// path and title.
func (r *SQLiteRepo) ListSEOMetadata(ctx context.Context, f repository.ListFilter) ([]models.SEOMetadata, int64, error) {
	f = f.Normalize()
	w := filter(repository.ListFilter{Search: f.Search}, false, "", "", "page_path", "title")

	total, err := r.count(ctx, "seo_metadata", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+seoCols+` FROM seo_metadata`+w.String()+` ORDER BY page_path LIMIT ? OFFSET ?`,
		append(w.args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list seo metadata: %w", err)
	}
	defer rows.Close()

	out := []models.SEOMetadata{}
	for rows.Next() {
		m, err := scanSEO(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}
