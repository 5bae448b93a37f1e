package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

const blogPostCols = `id, title, slug, excerpt, content, author, category, tags, featured_image, status, featured, published_at, word_count, reading_time, views, seo_title, seo_description, seo_keywords, created_at, updated_at`

func scanBlogPost(s scanner) (*models.BlogPost, error) {
	var (
		p                    models.BlogPost
		tags                 string
		published            sql.NullInt64
		createdAt, updatedAt int64
	)
	err := s.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.Author, &p.Category, &tags, &p.FeaturedImage,
		&p.Status, &p.Featured, &published, &p.WordCount, &p.ReadingTime, &p.Views,
		&p.SEOTitle, &p.SEODescription, &p.SEOKeywords, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if p.Tags, err = decodeList("tags", tags); err != nil {
		return nil, fmt.Errorf("blog post %d: %w", p.ID, err)
	}
	p.PublishedAt = fromNullMS(published)
	p.CreatedAt = fromMS(createdAt)
	p.UpdatedAt = fromMS(updatedAt)
	return &p, nil
}

func (r *SQLiteRepo) CreateBlogPost(ctx context.Context, p *models.BlogPost) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("blog post is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO blog_posts (title, slug, excerpt, content, author, category, tags, featured_image, status, featured, published_at, word_count, reading_time, views, seo_title, seo_description, seo_keywords, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Title, p.Slug, p.Excerpt, p.Content, p.Author, p.Category, encodeList(p.Tags), p.FeaturedImage, p.Status,
		boolInt(p.Featured), msPtr(p.PublishedAt), p.WordCount, p.ReadingTime, p.Views,
		p.SEOTitle, p.SEODescription, p.SEOKeywords, ms(p.CreatedAt), ms(p.UpdatedAt))
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

func (r *SQLiteRepo) GetBlogPost(ctx context.Context, id int64) (*models.BlogPost, error) {
	p, err := scanBlogPost(r.conn.QueryRow(ctx, `SELECT `+blogPostCols+` FROM blog_posts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepo) GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	p, err := scanBlogPost(r.conn.QueryRow(ctx, `SELECT `+blogPostCols+` FROM blog_posts WHERE slug = ?`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UpdateBlogPost writes every editable column. The view counter is owned by
// IncrementBlogPostViews and is not overwritten here.
func (r *SQLiteRepo) UpdateBlogPost(ctx context.Context, p *models.BlogPost) error {
	if p == nil {
		return fmt.Errorf("blog post is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE blog_posts SET title = ?, slug = ?, excerpt = ?, content = ?, author = ?, category = ?, tags = ?, featured_image = ?, status = ?, featured = ?, published_at = ?, word_count = ?, reading_time = ?, seo_title = ?, seo_description = ?, seo_keywords = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Slug, p.Excerpt, p.Content, p.Author, p.Category, encodeList(p.Tags), p.FeaturedImage, p.Status,
		boolInt(p.Featured), msPtr(p.PublishedAt), p.WordCount, p.ReadingTime,
		p.SEOTitle, p.SEODescription, p.SEOKeywords, ms(p.UpdatedAt), p.ID)
	return mapErr(err)
}

func (r *SQLiteRepo) DeleteBlogPost(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) IncrementBlogPostViews(ctx context.Context, id int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE blog_posts SET views = views + 1 WHERE id = ?`, id)
	return err
}

func (r *SQLiteRepo) ListBlogPosts(ctx context.Context, f repository.ListFilter) ([]models.BlogPost, int64, error) {
	f = f.Normalize()
	w := filter(f, true, "featured", "", "title", "excerpt", "content", "tags")

	total, err := r.count(ctx, "blog_posts", w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+blogPostCols+` FROM blog_posts`+w.String()+` ORDER BY COALESCE(published_at, created_at) DESC, id DESC LIMIT ? OFFSET ?`,
		append(w.args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close()

	out := []models.BlogPost{}
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}
