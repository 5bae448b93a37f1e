package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/internal/content"
	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

// ContentStore is the storage needed by the content handlers.
type ContentStore interface {
	repository.ProjectRepo
	repository.BlogPostRepo
	repository.ServiceRepo
	repository.TeamMemberRepo
}

// ContentHandler serves projects, blog posts, services and team members:
// published/active items publicly, everything through the admin routes.
type ContentHandler struct {
	store    ContentStore
	Projects *resource[models.Project]
	Blog     *resource[models.BlogPost]
	Services *resource[models.Service]
	Team     *resource[models.TeamMember]
}

func NewContentHandler(store ContentStore, now func() time.Time) *ContentHandler {
	return &ContentHandler{
		store: store,
		Projects: &resource[models.Project]{
			name:    auth.ResourceProjects,
			create:  store.CreateProject,
			get:     store.GetProject,
			update:  store.UpdateProject,
			delete:  store.DeleteProject,
			list:    store.ListProjects,
			prepare: content.PrepareProject,
			protect: func(existing, next *models.Project) {
				next.ID = existing.ID
				next.CreatedAt = existing.CreatedAt
			},
			now: now,
		},
		Blog: &resource[models.BlogPost]{
			name:    auth.ResourceBlog,
			create:  store.CreateBlogPost,
			get:     store.GetBlogPost,
			update:  store.UpdateBlogPost,
			delete:  store.DeleteBlogPost,
			list:    store.ListBlogPosts,
			prepare: content.PrepareBlogPost,
			protect: func(existing, next *models.BlogPost) {
				next.ID = existing.ID
				next.CreatedAt = existing.CreatedAt
				next.PublishedAt = existing.PublishedAt
				next.Views = existing.Views
			},
			now: now,
		},
		Services: &resource[models.Service]{
			name:     auth.ResourceServices,
			create:   store.CreateService,
			get:      store.GetService,
			update:   store.UpdateService,
			delete:   store.DeleteService,
			list:     store.ListServices,
			prepare:  content.PrepareService,
			defaults: func(s *models.Service) { s.IsActive = true },
			protect: func(existing, next *models.Service) {
				next.ID = existing.ID
				next.CreatedAt = existing.CreatedAt
			},
			now: now,
		},
		Team: &resource[models.TeamMember]{
			name:     auth.ResourceTeam,
			create:   store.CreateTeamMember,
			get:      store.GetTeamMember,
			update:   store.UpdateTeamMember,
			delete:   store.DeleteTeamMember,
			list:     store.ListTeamMembers,
			prepare:  content.PrepareTeamMember,
			defaults: func(m *models.TeamMember) { m.IsActive = true },
			protect: func(existing, next *models.TeamMember) {
				next.ID = existing.ID
				next.CreatedAt = existing.CreatedAt
			},
			now: now,
		},
	}
}

func (h *ContentHandler) PublicProjects(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f.Status = models.StatusPublished
	items, total, err := h.store.ListProjects(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, page[models.Project]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, http.StatusOK)
}

func (h *ContentHandler) PublicProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProjectBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p == nil || p.Status != models.StatusPublished {
		writeError(w, r, errNotFound)
		return
	}
	writeJSON(w, p, http.StatusOK)
}

func (h *ContentHandler) PublicBlogPosts(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f.Status = models.StatusPublished
	items, total, err := h.store.ListBlogPosts(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, page[models.BlogPost]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, http.StatusOK)
}

// PublicBlogPost returns a published post and counts the view.
func (h *ContentHandler) PublicBlogPost(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetBlogPostBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if p == nil || p.Status != models.StatusPublished {
		writeError(w, r, errNotFound)
		return
	}
	if err := h.store.IncrementBlogPostViews(r.Context(), p.ID); err != nil {
		logger.Warn("increment views", slog.Int64("post_id", p.ID), slog.Any("err", err))
	} else {
		p.Views++
	}
	writeJSON(w, p, http.StatusOK)
}

func (h *ContentHandler) PublicServices(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	active := true
	f.Active = &active
	items, total, err := h.store.ListServices(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, page[models.Service]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, http.StatusOK)
}

func (h *ContentHandler) PublicService(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.GetServiceBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if s == nil || !s.IsActive {
		writeError(w, r, errNotFound)
		return
	}
	writeJSON(w, s, http.StatusOK)
}

func (h *ContentHandler) PublicTeam(w http.ResponseWriter, r *http.Request) {
	f, err := listFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	active := true
	f.Active = &active
	items, total, err := h.store.ListTeamMembers(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, page[models.TeamMember]{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, http.StatusOK)
}
