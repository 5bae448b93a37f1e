package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

const teamMemberCols = `id, name, slug, position, bio, email, image_url, linkedin_url, twitter_url, github_url, skills, is_active, sort_order, seo_title, seo_description, seo_keywords, created_at, updated_at`

func scanTeamMember(s scanner) (*models.TeamMember, error) {
	var (
		m                    models.TeamMember
		skills               string
		createdAt, updatedAt int64
	)
	err := s.Scan(&m.ID, &m.Name, &m.Slug, &m.Position, &m.Bio, &m.Email, &m.ImageURL, &m.LinkedinURL, &m.TwitterURL,
		&m.GithubURL, &skills, &m.IsActive, &m.SortOrder, &m.SEOTitle, &m.SEODescription, &m.SEOKeywords,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if m.Skills, err = decodeList("skills", skills); err != nil {
		return nil, fmt.Errorf("team member %d: %w", m.ID, err)
	}
	m.CreatedAt = fromMS(createdAt)
	m.UpdatedAt = fromMS(updatedAt)
	return &m, nil
}

func (r *SQLiteRepo) CreateTeamMember(ctx context.Context, m *models.TeamMember) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("team member is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO team_members (name, slug, position, bio, email, image_url, linkedin_url, twitter_url, github_url, skills, is_active, sort_order, seo_title, seo_description, seo_keywords, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		m.Name, m.Slug, m.Position, m.Bio, m.Email, m.ImageURL, m.LinkedinURL, m.TwitterURL, m.GithubURL,
		encodeList(m.Skills), boolInt(m.IsActive), m.SortOrder, m.SEOTitle, m.SEODescription, m.SEOKeywords,
		ms(m.CreatedAt), ms(m.UpdatedAt))
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

func (r *SQLiteRepo) GetTeamMember(ctx context.Context, id int64) (*models.TeamMember, error) {
	m, err := scanTeamMember(r.conn.QueryRow(ctx, `SELECT `+teamMemberCols+` FROM team_members WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *SQLiteRepo) GetTeamMemberBySlug(ctx context.Context, slug string) (*models.TeamMember, error) {
	m, err := scanTeamMember(r.conn.QueryRow(ctx, `SELECT `+teamMemberCols+` FROM team_members WHERE slug = ?`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (r *SQLiteRepo) UpdateTeamMember(ctx context.Context, m *models.TeamMember) error {
	if m == nil {
		return fmt.Errorf("team member is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE team_members SET name = ?, slug = ?, position = ?, bio = ?, email = ?, image_url = ?, linkedin_url = ?, twitter_url = ?, github_url = ?, skills = ?, is_active = ?, sort_order = ?, seo_title = ?, seo_description = ?, seo_keywords = ?, updated_at = ? WHERE id = ?`,
		m.Name, m.Slug, m.Position, m.Bio, m.Email, m.ImageURL, m.LinkedinURL, m.TwitterURL, m.GithubURL,
		encodeList(m.Skills), boolInt(m.IsActive), m.SortOrder, m.SEOTitle, m.SEODescription, m.SEOKeywords,
		ms(m.UpdatedAt), m.ID)
	return mapErr(err)
}

func (r *SQLiteRepo) DeleteTeamMember(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM team_members WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListTeamMembers(ctx context.Context, f repository.ListFilter) ([]models.TeamMember, int64, error) {
	f = f.Normalize()
	f.Category = ""
	w := filter(f, false, "", "is_active", "name", "position", "bio")

	total, err := r.count(ctx, "team_members", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+teamMemberCols+` FROM team_members`+w.String()+` ORDER BY sort_order ASC, name ASC LIMIT ? OFFSET ?`,
		append(w.args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	out := []models.TeamMember{}
	for rows.Next() {
		m, err := scanTeamMember(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}
