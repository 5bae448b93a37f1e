package repository

import (
	"context"
	"errors"
	"time"

	"github.com/garnizeh/showcase/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Lookups return (nil, nil) when the row does not exist.

// ErrConflict is returned when a write violates a unique constraint
// (duplicate slug, email, key or page path).
var ErrConflict = errors.New("unique constraint violated")

// ListFilter narrows list queries. Zero values mean "no constraint".
type ListFilter struct {
	Status   string
	Category string
	Featured *bool
	Active   *bool
	Search   string
	Limit    int
	Offset   int
}

// Normalize clamps paging to sane bounds.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

type ProjectRepo interface {
	CreateProject(ctx context.Context, p *models.Project) (int64, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id int64) error
	ListProjects(ctx context.Context, f ListFilter) ([]models.Project, int64, error)
}

type BlogPostRepo interface {
	CreateBlogPost(ctx context.Context, p *models.BlogPost) (int64, error)
	GetBlogPost(ctx context.Context, id int64) (*models.BlogPost, error)
	GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	UpdateBlogPost(ctx context.Context, p *models.BlogPost) error
	DeleteBlogPost(ctx context.Context, id int64) error
	ListBlogPosts(ctx context.Context, f ListFilter) ([]models.BlogPost, int64, error)
	IncrementBlogPostViews(ctx context.Context, id int64) error
}

type ServiceRepo interface {
	CreateService(ctx context.Context, s *models.Service) (int64, error)
	GetService(ctx context.Context, id int64) (*models.Service, error)
	GetServiceBySlug(ctx context.Context, slug string) (*models.Service, error)
	UpdateService(ctx context.Context, s *models.Service) error
	DeleteService(ctx context.Context, id int64) error
	ListServices(ctx context.Context, f ListFilter) ([]models.Service, int64, error)
}

type TeamMemberRepo interface {
	CreateTeamMember(ctx context.Context, m *models.TeamMember) (int64, error)
	GetTeamMember(ctx context.Context, id int64) (*models.TeamMember, error)
	GetTeamMemberBySlug(ctx context.Context, slug string) (*models.TeamMember, error)
	UpdateTeamMember(ctx context.Context, m *models.TeamMember) error
	DeleteTeamMember(ctx context.Context, id int64) error
	ListTeamMembers(ctx context.Context, f ListFilter) ([]models.TeamMember, int64, error)
}

type AdminUserRepo interface {
	CreateAdminUser(ctx context.Context, u *models.AdminUser) (int64, error)
	GetAdminUser(ctx context.Context, id int64) (*models.AdminUser, error)
	GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	UpdateAdminUser(ctx context.Context, u *models.AdminUser) error
	DeleteAdminUser(ctx context.Context, id int64) error
	ListAdminUsers(ctx context.Context) ([]models.AdminUser, error)
	CountAdminUsers(ctx context.Context) (int64, error)

	// RecordLoginFailure counts one failed login in a single write and
	// returns the stored row. An expired lock restarts the count at 1;
	// reaching maxAttempts sets lock_until to now+lockFor; an active lock is
	// never extended.
	RecordLoginFailure(ctx context.Context, id int64, now time.Time, maxAttempts int, lockFor time.Duration) (*models.AdminUser, error)
	// RecordLoginSuccess clears the counter and lock and stamps last_login.
	RecordLoginSuccess(ctx context.Context, id int64, now time.Time) error
	// ResetLockout clears the counter and lock without stamping last_login.
	ResetLockout(ctx context.Context, id int64, now time.Time) error
	// SetAdminPassword replaces only the password hash.
	SetAdminPassword(ctx context.Context, id int64, hash string, now time.Time) error
}

type ContactRepo interface {
	CreateContact(ctx context.Context, c *models.ContactSubmission) (int64, error)
	GetContact(ctx context.Context, id int64) (*models.ContactSubmission, error)
	UpdateContactWorkflow(ctx context.Context, c *models.ContactSubmission) error
	DeleteContact(ctx context.Context, id int64) error
	ListContacts(ctx context.Context, status, priority string, limit, offset int) ([]models.ContactSubmission, int64, error)
}

type CompanyInfoRepo interface {
	UpsertCompanyInfo(ctx context.Context, info *models.CompanyInfo) error
	GetCompanyInfo(ctx context.Context, key string) (*models.CompanyInfo, error)
	ListCompanyInfo(ctx context.Context, publicOnly bool) ([]models.CompanyInfo, error)
	DeleteCompanyInfo(ctx context.Context, key string) error
}

type SEORepo interface {
	CreateSEOMetadata(ctx context.Context, m *models.SEOMetadata) (int64, error)
	GetSEOMetadata(ctx context.Context, id int64) (*models.SEOMetadata, error)
	GetSEOMetadataByPath(ctx context.Context, path string) (*models.SEOMetadata, error)
	UpdateSEOMetadata(ctx context.Context, m *models.SEOMetadata) error
	DeleteSEOMetadata(ctx context.Context, id int64) error
	ListSEOMetadata(ctx context.Context, f ListFilter) ([]models.SEOMetadata, int64, error)
}

type AnalyticsRepo interface {
	CreateEvent(ctx context.Context, e *models.AnalyticsEvent) error
	Summarize(ctx context.Context, since time.Time, top int) (*models.AnalyticsSummary, error)
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
}
