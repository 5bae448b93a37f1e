// Package content holds the rules applied to site content right before it
// is written: slug and SEO derivation, reading time, publication stamps and
// field validation. Every function here is pure apart from the clock value
// it is handed, so the write path stays testable without a database.
package content

import (
	"strings"
	"time"

	"github.com/garnizeh/showcase/internal/slug"
	"github.com/garnizeh/showcase/pkg/models"
)

// deriveSlug fills an empty slug from source. A slug the caller supplied is
// normalised but otherwise kept, so renaming a title never moves its URL.
func deriveSlug(current, source string) string {
	if current = strings.TrimSpace(current); current != "" {
		return slug.Make(current)
	}
	if source == "" {
		return ""
	}
	return slug.Make(source)
}

// deriveSEO fills empty SEO title/description from the given sources.
func deriveSEO(seo *models.SEOFields, title, description string) {
	seo.SEOTitle = strings.TrimSpace(seo.SEOTitle)
	seo.SEODescription = strings.TrimSpace(seo.SEODescription)
	seo.SEOKeywords = strings.TrimSpace(seo.SEOKeywords)
	if seo.SEOTitle == "" && title != "" {
		seo.SEOTitle = Truncate(title, SEOTitleMax)
	}
	if description = PlainText(description); seo.SEODescription == "" && description != "" {
		seo.SEODescription = Truncate(description, SEODescriptionMax)
	}
}

func stamp(created, updated *time.Time, now time.Time) {
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// PrepareProject derives the slug and SEO fields of p, sanitizes its rich
// content and validates it.
func PrepareProject(p *models.Project, now time.Time) error {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.ShortDescription = strings.TrimSpace(p.ShortDescription)
	p.Category = strings.TrimSpace(p.Category)
	p.Content = SanitizeHTML(p.Content)
	p.Technologies = cleanList(p.Technologies)
	p.Gallery = cleanList(p.Gallery)
	if p.Status == "" {
		p.Status = models.StatusDraft
	}

	p.Slug = deriveSlug(p.Slug, p.Title)
	deriveSEO(&p.SEOFields, p.Title, p.ShortDescription)
	stamp(&p.CreatedAt, &p.UpdatedAt, now)
	return Validate(p)
}

// PrepareBlogPost derives slug, SEO, word count and reading time for post.
// published_at is stamped with now on the first save in published state and
// never moved afterwards.
func PrepareBlogPost(post *models.BlogPost, now time.Time) error {
	post.Title = strings.TrimSpace(post.Title)
	post.Excerpt = strings.TrimSpace(post.Excerpt)
	post.Author = strings.TrimSpace(post.Author)
	post.Category = strings.TrimSpace(post.Category)
	post.Content = SanitizeHTML(post.Content)
	post.Tags = cleanList(post.Tags)
	for i, t := range post.Tags {
		post.Tags[i] = strings.ToLower(t)
	}
	if post.Status == "" {
		post.Status = models.StatusDraft
	}

	post.Slug = deriveSlug(post.Slug, post.Title)
	deriveSEO(&post.SEOFields, post.Title, post.Excerpt)

	post.WordCount = WordCount(post.Content)
	post.ReadingTime = ReadingTime(post.WordCount)

	if post.Status == models.StatusPublished && post.PublishedAt == nil {
		t := now
		post.PublishedAt = &t
	}
	stamp(&post.CreatedAt, &post.UpdatedAt, now)
	return Validate(post)
}

// PrepareService derives the slug and SEO fields of s and validates it.
func PrepareService(s *models.Service, now time.Time) error {
	s.Name = strings.TrimSpace(s.Name)
	s.ShortDescription = strings.TrimSpace(s.ShortDescription)
	s.Description = SanitizeHTML(strings.TrimSpace(s.Description))
	s.Features = cleanList(s.Features)

	s.Slug = deriveSlug(s.Slug, s.Name)
	deriveSEO(&s.SEOFields, s.Name, s.ShortDescription)
	stamp(&s.CreatedAt, &s.UpdatedAt, now)
	return Validate(s)
}

// PrepareTeamMember derives the slug and SEO fields of m and validates it.
func PrepareTeamMember(m *models.TeamMember, now time.Time) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Position = strings.TrimSpace(m.Position)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	m.Bio = SanitizeHTML(strings.TrimSpace(m.Bio))
	m.Skills = cleanList(m.Skills)

	m.Slug = deriveSlug(m.Slug, m.Name)
	deriveSEO(&m.SEOFields, m.Name, m.Bio)
	stamp(&m.CreatedAt, &m.UpdatedAt, now)
	return Validate(m)
}
