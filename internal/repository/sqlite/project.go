package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

const projectCols = `id, title, slug, description, short_description, content, category, technologies, client_name, project_url, github_url, featured_image, gallery, status, featured, sort_order, completed_at, seo_title, seo_description, seo_keywords, created_at, updated_at`

func scanProject(s scanner) (*models.Project, error) {
	var (
		p                    models.Project
		techs, gallery       string
		completed            sql.NullInt64
		createdAt, updatedAt int64
	)
	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.ShortDescription, &p.Content, &p.Category, &techs,
		&p.ClientName, &p.ProjectURL, &p.GithubURL, &p.FeaturedImage, &gallery, &p.Status, &p.Featured, &p.SortOrder,
		&completed, &p.SEOTitle, &p.SEODescription, &p.SEOKeywords, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if p.Technologies, err = decodeList("technologies", techs); err != nil {
		return nil, fmt.Errorf("project %d: %w", p.ID, err)
	}
	if p.Gallery, err = decodeList("gallery", gallery); err != nil {
		return nil, fmt.Errorf("project %d: %w", p.ID, err)
	}
	p.CompletedAt = fromNullMS(completed)
	p.CreatedAt = fromMS(createdAt)
	p.UpdatedAt = fromMS(updatedAt)
	return &p, nil
}

func (r *SQLiteRepo) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("project is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO projects (title, slug, description, short_description, content, category, technologies, client_name, project_url, github_url, featured_image, gallery, status, featured, sort_order, completed_at, seo_title, seo_description, seo_keywords, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Title, p.Slug, p.Description, p.ShortDescription, p.Content, p.Category, encodeList(p.Technologies), p.ClientName,
		p.ProjectURL, p.GithubURL, p.FeaturedImage, encodeList(p.Gallery), p.Status, boolInt(p.Featured), p.SortOrder,
		msPtr(p.CompletedAt), p.SEOTitle, p.SEODescription, p.SEOKeywords, ms(p.CreatedAt), ms(p.UpdatedAt))
	if err != nil {
		return 0, mapErr(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

func (r *SQLiteRepo) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(r.conn.QueryRow(ctx, `SELECT `+projectCols+` FROM projects WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepo) GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error) {
	p, err := scanProject(r.conn.QueryRow(ctx, `SELECT `+projectCols+` FROM projects WHERE slug = ?`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepo) UpdateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return fmt.Errorf("project is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE projects SET title = ?, slug = ?, description = ?, short_description = ?, content = ?, category = ?, technologies = ?, client_name = ?, project_url = ?, github_url = ?, featured_image = ?, gallery = ?, status = ?, featured = ?, sort_order = ?, completed_at = ?, seo_title = ?, seo_description = ?, seo_keywords = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Slug, p.Description, p.ShortDescription, p.Content, p.Category, encodeList(p.Technologies), p.ClientName,
		p.ProjectURL, p.GithubURL, p.FeaturedImage, encodeList(p.Gallery), p.Status, boolInt(p.Featured), p.SortOrder,
		msPtr(p.CompletedAt), p.SEOTitle, p.SEODescription, p.SEOKeywords, ms(p.UpdatedAt), p.ID)
	return mapErr(err)
}

func (r *SQLiteRepo) DeleteProject(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListProjects(ctx context.Context, f repository.ListFilter) ([]models.Project, int64, error) {
	f = f.Normalize()
	w := filter(f, true, "featured", "", "title", "description", "short_description")

	total, err := r.count(ctx, "projects", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+projectCols+` FROM projects`+w.String()+` ORDER BY featured DESC, sort_order ASC, created_at DESC LIMIT ? OFFSET ?`,
		append(w.args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}
