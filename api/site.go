package api

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/internal/content"
	"github.com/garnizeh/showcase/internal/payload"
	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

// SiteStore is the storage needed by the site-wide handlers.
type SiteStore interface {
	ContentStore
	repository.CompanyInfoRepo
	repository.SEORepo
	repository.AnalyticsRepo
}

// SiteHandler serves company info, SEO metadata, analytics and the sitemap.
type SiteHandler struct {
	store    SiteStore
	payloads *payload.Loader
	siteURL  string
	now      func() time.Time

	SEO *resource[models.SEOMetadata]
}

func NewSiteHandler(store SiteStore, payloads *payload.Loader, siteURL string, now func() time.Time) *SiteHandler {
	if now == nil {
		now = time.Now
	}
	return &SiteHandler{
		store:    store,
		payloads: payloads,
		siteURL:  strings.TrimRight(siteURL, "/"),
		now:      now,
		SEO: &resource[models.SEOMetadata]{
			name:    auth.ResourceSEO,
			create:  store.CreateSEOMetadata,
			get:     store.GetSEOMetadata,
			update:  store.UpdateSEOMetadata,
			delete:  store.DeleteSEOMetadata,
			list:    store.ListSEOMetadata,
			prepare: content.PrepareSEOMetadata,
			protect: func(existing, next *models.SEOMetadata) {
				next.ID = existing.ID
				next.CreatedAt = existing.CreatedAt
			},
			now: now,
		},
	}
}

// PublicCompanyInfo returns the public entries as key -> typed value.
func (h *SiteHandler) PublicCompanyInfo(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListCompanyInfo(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make(map[string]any, len(items))
	for _, info := range items {
		v, err := content.Interpret(info)
		if err != nil {
			logger.Warn("company info value does not match its type",
				slog.String("key", info.Key),
				slog.String("type", info.Type),
				slog.Any("err", err),
			)
			v = info.Value
		}
		out[info.Key] = v
	}
	writeJSON(w, out, http.StatusOK)
}

func (h *SiteHandler) ListCompanyInfo(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListCompanyInfo(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, page[models.CompanyInfo]{Items: items, Total: int64(len(items)), Limit: len(items)}, http.StatusOK)
}

// PutCompanyInfo creates or replaces the entry named by the path key.
func (h *SiteHandler) PutCompanyInfo(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	existing, err := h.store.GetCompanyInfo(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var info models.CompanyInfo
	if existing != nil {
		info = *existing
	}
	if err := decodeJSON(w, r, &info); err != nil {
		writeError(w, r, err)
		return
	}
	info.Key = key
	if existing != nil {
		info.ID = existing.ID
		info.CreatedAt = existing.CreatedAt
	} else {
		info.ID = 0
		info.CreatedAt = time.Time{}
	}
	if err := content.PrepareCompanyInfo(&info, h.now().UTC()); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.UpsertCompanyInfo(r.Context(), &info); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("company info saved", slog.String("key", key), slog.Int64("by", actorID(r)))
	writeJSON(w, info, http.StatusOK)
}

func (h *SiteHandler) DeleteCompanyInfo(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	existing, err := h.store.GetCompanyInfo(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing == nil {
		writeError(w, r, errNotFound)
		return
	}
	if err := h.store.DeleteCompanyInfo(r.Context(), key); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("company info deleted", slog.String("key", key), slog.Int64("by", actorID(r)))
	w.WriteHeader(http.StatusNoContent)
}

// PublicSEO looks up the metadata of ?path=.
func (h *SiteHandler) PublicSEO(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if !strings.HasPrefix(path, "/") {
		ve := &content.ValidationError{}
		ve.Add("path", "must start with /")
		writeError(w, r, ve)
		return
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	m, err := h.store.GetSEOMetadataByPath(r.Context(), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if m == nil {
		writeError(w, r, errNotFound)
		return
	}
	writeJSON(w, m, http.StatusOK)
}

type eventRequest struct {
	EventType string          `json:"event_type"`
	PagePath  string          `json:"page_path"`
	Referrer  string          `json:"referrer"`
	SessionID string          `json:"session_id"`
	Metadata  json.RawMessage `json:"metadata"`
}

type eventReceipt struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
}

// TrackEvent records a client-reported analytics event. A session id is
// generated when the client does not send one.
func (h *SiteHandler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.payloads.Validate(r.Context(), payload.AnalyticsEvent, body); err != nil {
		writeError(w, r, err)
		return
	}
	var req eventRequest
	if err := decodeBytes(body, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e := &models.AnalyticsEvent{
		EventType: req.EventType,
		PagePath:  req.PagePath,
		Referrer:  req.Referrer,
		SessionID: strings.TrimSpace(req.SessionID),
		UserAgent: truncateHeader(r.UserAgent()),
		Metadata:  req.Metadata,
		CreatedAt: h.now().UTC(),
	}
	if e.SessionID == "" {
		e.SessionID = uuid.NewString()
	}
	if err := h.store.CreateEvent(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, eventReceipt{ID: e.ID, SessionID: e.SessionID}, http.StatusAccepted)
}

// AnalyticsSummary aggregates the events of the last ?days= days
// (default 30, at most 365).
func (h *SiteHandler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			ve := &content.ValidationError{}
			ve.Add("days", "must be between 1 and 365")
			writeError(w, r, ve)
			return
		}
		days = n
	}
	since := h.now().UTC().AddDate(0, 0, -days)
	sum, err := h.store.Summarize(r.Context(), since, 10)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, sum, http.StatusOK)
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

var staticPages = []string{"/", "/projects", "/blog", "/services", "/team", "/contact"}

// Sitemap lists the static pages, published projects and posts, and
// active services.
func (h *SiteHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range staticPages {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.siteURL + p})
	}

	published := repository.ListFilter{Status: models.StatusPublished}
	projects, err := collect(ctx, published, h.store.ListProjects)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, p := range projects {
		set.URLs = append(set.URLs, h.entry("/projects/"+p.Slug, p.UpdatedAt))
	}
	posts, err := collect(ctx, published, h.store.ListBlogPosts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, p := range posts {
		set.URLs = append(set.URLs, h.entry("/blog/"+p.Slug, p.UpdatedAt))
	}
	active := true
	services, err := collect(ctx, repository.ListFilter{Active: &active}, h.store.ListServices)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, s := range services {
		set.URLs = append(set.URLs, h.entry("/services/"+s.Slug, s.UpdatedAt))
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		logger.Error("encode sitemap", slog.Any("err", err))
	}
}

func (h *SiteHandler) entry(path string, updated time.Time) sitemapURL {
	return sitemapURL{Loc: h.siteURL + path, LastMod: updated.UTC().Format("2006-01-02")}
}

// collect pages through list until every matching row is read.
func collect[T any](ctx context.Context, f repository.ListFilter, list func(context.Context, repository.ListFilter) ([]T, int64, error)) ([]T, error) {
	f.Limit = 100
	var out []T
	for {
		items, total, err := list(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
		f.Offset += len(items)
		if len(items) == 0 || int64(f.Offset) >= total {
			return out, nil
		}
	}
}
