package models

import "time"

// Publication states shared by projects and blog posts.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// SEOFields are the search/social description fields carried by every
// content entity. Empty title or description are derived before save.
type SEOFields struct {
	SEOTitle       string `json:"seo_title" db:"seo_title" validate:"max=60"`
	SEODescription string `json:"seo_description" db:"seo_description" validate:"max=160"`
	SEOKeywords    string `json:"seo_keywords,omitempty" db:"seo_keywords" validate:"max=255"`
}

type Project struct {
	ID               int64      `json:"id" db:"id"`
	Title            string     `json:"title" db:"title" validate:"required,max=200"`
	Slug             string     `json:"slug" db:"slug" validate:"required,max=220"`
	Description      string     `json:"description" db:"description" validate:"required"`
	ShortDescription string     `json:"short_description,omitempty" db:"short_description" validate:"max=500"`
	Content          string     `json:"content,omitempty" db:"content"`
	Category         string     `json:"category,omitempty" db:"category" validate:"max=100"`
	Technologies     []string   `json:"technologies" db:"technologies"`
	ClientName       string     `json:"client_name,omitempty" db:"client_name"`
	ProjectURL       string     `json:"project_url,omitempty" db:"project_url" validate:"omitempty,url"`
	GithubURL        string     `json:"github_url,omitempty" db:"github_url" validate:"omitempty,url"`
	FeaturedImage    string     `json:"featured_image,omitempty" db:"featured_image"`
	Gallery          []string   `json:"gallery" db:"gallery"`
	Status           string     `json:"status" db:"status" validate:"oneof=draft published archived"`
	Featured         bool       `json:"featured" db:"featured"`
	SortOrder        int        `json:"sort_order" db:"sort_order"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	SEOFields
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type BlogPost struct {
	ID            int64      `json:"id" db:"id"`
	Title         string     `json:"title" db:"title" validate:"required,max=200"`
	Slug          string     `json:"slug" db:"slug" validate:"required,max=220"`
	Excerpt       string     `json:"excerpt,omitempty" db:"excerpt" validate:"max=500"`
	Content       string     `json:"content" db:"content" validate:"required"`
	Author        string     `json:"author,omitempty" db:"author" validate:"max=100"`
	Category      string     `json:"category,omitempty" db:"category" validate:"max=100"`
	Tags          []string   `json:"tags" db:"tags"`
	FeaturedImage string     `json:"featured_image,omitempty" db:"featured_image"`
	Status        string     `json:"status" db:"status" validate:"oneof=draft published archived"`
	Featured      bool       `json:"featured" db:"featured"`
	PublishedAt   *time.Time `json:"published_at" db:"published_at"`
	WordCount     int        `json:"word_count" db:"word_count"`
	ReadingTime   int        `json:"reading_time" db:"reading_time"`
	Views         int64      `json:"views" db:"views"`
	SEOFields
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Service struct {
	ID               int64    `json:"id" db:"id"`
	Name             string   `json:"name" db:"name" validate:"required,max=100"`
	Slug             string   `json:"slug" db:"slug" validate:"required,max=120"`
	ShortDescription string   `json:"short_description" db:"short_description" validate:"required,max=300"`
	Description      string   `json:"description" db:"description" validate:"required"`
	Icon             string   `json:"icon,omitempty" db:"icon"`
	Features         []string `json:"features" db:"features"`
	PriceRange       string   `json:"price_range,omitempty" db:"price_range" validate:"max=100"`
	IsActive         bool     `json:"is_active" db:"is_active"`
	SortOrder        int      `json:"sort_order" db:"sort_order"`
	SEOFields
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type TeamMember struct {
	ID          int64    `json:"id" db:"id"`
	Name        string   `json:"name" db:"name" validate:"required,max=100"`
	Slug        string   `json:"slug" db:"slug" validate:"required,max=120"`
	Position    string   `json:"position" db:"position" validate:"required,max=100"`
	Bio         string   `json:"bio,omitempty" db:"bio"`
	Email       string   `json:"email,omitempty" db:"email" validate:"omitempty,email"`
	ImageURL    string   `json:"image_url,omitempty" db:"image_url" validate:"omitempty,url"`
	LinkedinURL string   `json:"linkedin_url,omitempty" db:"linkedin_url" validate:"omitempty,url"`
	TwitterURL  string   `json:"twitter_url,omitempty" db:"twitter_url" validate:"omitempty,url"`
	GithubURL   string   `json:"github_url,omitempty" db:"github_url" validate:"omitempty,url"`
	Skills      []string `json:"skills" db:"skills"`
	IsActive    bool     `json:"is_active" db:"is_active"`
	SortOrder   int      `json:"sort_order" db:"sort_order"`
	SEOFields
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
