package api_test

import (
	"encoding/xml"
	"net/http"
	"strings"
	"testing"

	"github.com/garnizeh/showcase/pkg/models"
)

func TestCompanyInfo_PublicTypedValues(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/v1/company-info", "", nil)
	expect(t, w, http.StatusOK)
	info := decode[map[string]any](t, w)
	if info["company_name"] != "Showcase Studio" {
		t.Fatalf("unexpected company_name: %v", info["company_name"])
	}
	if info["founded_year"] != float64(2020) || info["accepting_projects"] != true {
		t.Fatalf("values not typed: %v %v", info["founded_year"], info["accepting_projects"])
	}
	if links, ok := info["social_links"].(map[string]any); !ok || links["github"] == nil {
		t.Fatalf("json value not decoded: %v", info["social_links"])
	}
	if _, ok := info["notification_email"]; ok {
		t.Fatalf("private key exposed publicly")
	}
}

func TestCompanyInfo_AdminPutAndDelete(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPut, "/v1/admin/company-info/team_size", models.RoleAdmin, map[string]any{
		"value": "12", "type": "number", "is_public": true,
	})
	expect(t, w, http.StatusOK)
	created := decode[models.CompanyInfo](t, w)
	if created.Key != "team_size" || created.ID == 0 {
		t.Fatalf("unexpected entry: %+v", created)
	}

	// omitted fields keep their stored values
	w = s.do(http.MethodPut, "/v1/admin/company-info/team_size", models.RoleAdmin, map[string]any{"value": "14"})
	expect(t, w, http.StatusOK)
	updated := decode[models.CompanyInfo](t, w)
	if updated.Type != models.InfoNumber || !updated.IsPublic || updated.ID != created.ID {
		t.Fatalf("update lost fields: %+v", updated)
	}

	w = s.do(http.MethodPut, "/v1/admin/company-info/team_size", models.RoleAdmin, map[string]any{"value": "a dozen"})
	expect(t, w, http.StatusBadRequest)
	if body := decode[errorBody](t, w); body.Fields["value"] == "" {
		t.Fatalf("expected value field error, got %+v", body)
	}

	w = s.do(http.MethodGet, "/v1/company-info", "", nil)
	if got := decode[map[string]any](t, w)["team_size"]; got != float64(14) {
		t.Fatalf("expected team_size 14, got %v", got)
	}

	w = s.do(http.MethodGet, "/v1/admin/company-info", models.RoleAdmin, nil)
	expect(t, w, http.StatusOK)
	if list := decode[listResponse[models.CompanyInfo]](t, w); list.Total != 8 {
		t.Fatalf("expected seeded and new entries, got %d", list.Total)
	}

	expect(t, s.do(http.MethodDelete, "/v1/admin/company-info/team_size", models.RoleAdmin, nil), http.StatusForbidden)
	expect(t, s.do(http.MethodDelete, "/v1/admin/company-info/team_size", models.RoleSuperAdmin, nil), http.StatusNoContent)
	expect(t, s.do(http.MethodDelete, "/v1/admin/company-info/team_size", models.RoleSuperAdmin, nil), http.StatusNotFound)
}

func TestSEO_AdminAndPublicLookup(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/admin/seo", models.RoleEditor, map[string]any{
		"page_path":       "/about/",
		"title":           "About Showcase Studio",
		"description":     "Who we are.",
		"structured_data": map[string]any{"@type": "Organization"},
	})
	expect(t, w, http.StatusCreated)
	m := decode[models.SEOMetadata](t, w)
	if m.PagePath != "/about" {
		t.Fatalf("page path not normalised: %q", m.PagePath)
	}

	w = s.do(http.MethodGet, "/v1/seo?path=/about/", "", nil)
	expect(t, w, http.StatusOK)
	if got := decode[models.SEOMetadata](t, w); got.Title != "About Showcase Studio" {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	expect(t, s.do(http.MethodGet, "/v1/seo?path=/missing", "", nil), http.StatusNotFound)
	expect(t, s.do(http.MethodGet, "/v1/seo?path=about", "", nil), http.StatusBadRequest)

	// curated titles are rejected, not truncated
	w = s.do(http.MethodPut, "/v1/admin/seo/"+itoa(m.ID), models.RoleEditor, map[string]any{"title": strings.Repeat("t", 61)})
	expect(t, w, http.StatusBadRequest)

	expect(t, s.do(http.MethodPost, "/v1/admin/seo", models.RoleEditor, map[string]any{"page_path": "/about", "title": "Dup"}), http.StatusConflict)

	w = s.do(http.MethodGet, "/v1/admin/seo", models.RoleEditor, nil)
	expect(t, w, http.StatusOK)
	if list := decode[listResponse[models.SEOMetadata]](t, w); list.Total != 1 {
		t.Fatalf("expected one entry, got %d", list.Total)
	}
}

func TestSEO_AdminListPages(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/services", "/about", "/contact"} {
		expect(t, s.do(http.MethodPost, "/v1/admin/seo", models.RoleEditor, map[string]any{
			"page_path": path,
			"title":     "Page " + path,
		}), http.StatusCreated)
	}

	w := s.do(http.MethodGet, "/v1/admin/seo?limit=1&offset=1", models.RoleEditor, nil)
	expect(t, w, http.StatusOK)
	list := decode[listResponse[models.SEOMetadata]](t, w)
	if list.Total != 3 || list.Limit != 1 || list.Offset != 1 {
		t.Fatalf("unexpected paging: total=%d limit=%d offset=%d", list.Total, list.Limit, list.Offset)
	}
	if len(list.Items) != 1 || list.Items[0].PagePath != "/contact" {
		t.Fatalf("expected /contact on the second page, got %+v", list.Items)
	}

	w = s.do(http.MethodGet, "/v1/admin/seo?q=serv", models.RoleEditor, nil)
	expect(t, w, http.StatusOK)
	if list := decode[listResponse[models.SEOMetadata]](t, w); list.Total != 1 || list.Items[0].PagePath != "/services" {
		t.Fatalf("search: %+v", list)
	}
}

func TestAnalytics_TrackAndSummarize(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/v1/analytics/events", "", map[string]any{
		"event_type": "page_view",
		"page_path":  "/",
	})
	expect(t, w, http.StatusAccepted)
	first := decode[map[string]string](t, w)
	if first["id"] == "" || first["session_id"] == "" {
		t.Fatalf("expected generated id and session, got %v", first)
	}

	for _, path := range []string{"/blog", "/blog"} {
		expect(t, s.do(http.MethodPost, "/v1/analytics/events", "", map[string]any{
			"event_type": "page_view",
			"page_path":  path,
			"session_id": first["session_id"],
		}), http.StatusAccepted)
	}
	expect(t, s.do(http.MethodPost, "/v1/analytics/events", "", map[string]any{
		"event_type": "cta.click",
		"page_path":  "/services",
		"metadata":   map[string]any{"button": "quote"},
	}), http.StatusAccepted)

	expect(t, s.do(http.MethodPost, "/v1/analytics/events", "", map[string]any{"event_type": "Page View", "page_path": "/"}), http.StatusBadRequest)
	expect(t, s.do(http.MethodPost, "/v1/analytics/events", "", map[string]any{"event_type": "page_view", "page_path": "blog"}), http.StatusBadRequest)

	w = s.do(http.MethodGet, "/v1/admin/analytics/summary?days=7", models.RoleEditor, nil)
	expect(t, w, http.StatusOK)
	sum := decode[models.AnalyticsSummary](t, w)
	if sum.TotalEvents != 4 || sum.UniqueSessions != 2 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if len(sum.TopPages) == 0 || sum.TopPages[0].Label != "/blog" || sum.TopPages[0].Count != 2 {
		t.Fatalf("unexpected top pages: %+v", sum.TopPages)
	}

	expect(t, s.do(http.MethodGet, "/v1/admin/analytics/summary?days=0", models.RoleEditor, nil), http.StatusBadRequest)
	expect(t, s.do(http.MethodGet, "/v1/admin/analytics/summary", "", nil), http.StatusUnauthorized)
}

func TestSitemap(t *testing.T) {
	s := newTestServer(t)

	expect(t, s.do(http.MethodPost, "/v1/admin/projects", models.RoleAdmin, map[string]any{
		"title": "Live Project", "description": "Shipped.", "status": "published",
	}), http.StatusCreated)
	expect(t, s.do(http.MethodPost, "/v1/admin/projects", models.RoleAdmin, map[string]any{
		"title": "Secret Project", "description": "Not yet.",
	}), http.StatusCreated)
	expect(t, s.do(http.MethodPost, "/v1/admin/blog", models.RoleAdmin, map[string]any{
		"title": "Hello", "content": "First post.", "status": "published",
	}), http.StatusCreated)
	expect(t, s.do(http.MethodPost, "/v1/admin/services", models.RoleAdmin, map[string]any{
		"name": "Audits", "short_description": "Reviews.", "description": "Code reviews.",
	}), http.StatusCreated)

	w := s.do(http.MethodGet, "/sitemap.xml", "", nil)
	expect(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "xml") {
		t.Fatalf("unexpected content type %q", ct)
	}

	var set struct {
		URLs []struct {
			Loc     string `xml:"loc"`
			LastMod string `xml:"lastmod"`
		} `xml:"url"`
	}
	if err := xml.Unmarshal(w.Body.Bytes(), &set); err != nil {
		t.Fatalf("invalid sitemap: %v", err)
	}
	locs := make(map[string]bool)
	for _, u := range set.URLs {
		locs[u.Loc] = true
	}
	for _, want := range []string{
		"https://acme.example/",
		"https://acme.example/projects/live-project",
		"https://acme.example/blog/hello",
		"https://acme.example/services/audits",
	} {
		if !locs[want] {
			t.Fatalf("sitemap missing %s: %v", want, locs)
		}
	}
	if locs["https://acme.example/projects/secret-project"] {
		t.Fatalf("draft project listed in sitemap")
	}
}
