package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/internal/config"
	"github.com/garnizeh/showcase/internal/payload"
	"github.com/garnizeh/showcase/pkg/repository"
)

// Store is every repository the HTTP layer uses.
// *sqlite.SQLiteRepo satisfies it.
type Store interface {
	SiteStore
	repository.ContactRepo
	repository.AdminUserRepo
}

// Deps are the collaborators SetupRoutes wires into handlers. Jobs may be
// nil, in which case contact notifications are skipped.
type Deps struct {
	Store    Store
	Auth     *auth.Authenticator
	Payloads *payload.Loader
	Jobs     Enqueuer
	System   *SystemHandler
	Now      func() time.Time
}

func SetupRoutes(cfg *config.Config, version, buildTime string, d Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(ClientIPMiddleware(cfg.TrustedProxies))
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware(cfg.CORSOrigins))
	r.Use(RecoveryMiddleware)

	clock := d.Now
	if clock == nil {
		clock = time.Now
	}
	// Stored timestamps have millisecond precision; responses should
	// match what a later read returns.
	now := func() time.Time { return clock().UTC().Truncate(time.Millisecond) }
	system := d.System
	if system == nil {
		system = &SystemHandler{}
	}

	contentHandler := NewContentHandler(d.Store, now)
	siteHandler := NewSiteHandler(d.Store, d.Payloads, cfg.SiteURL, now)
	contactHandler := NewContactHandler(d.Store, d.Store, d.Payloads, d.Jobs, now)
	authHandler := NewAuthHandler(d.Auth, d.Payloads)
	userHandler := NewUserHandler(d.Store, d.Auth, now)

	// Public writes are limited per client IP. Analytics beacons fire on
	// every page view and get a wider bucket.
	formLimiter := NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	loginLimiter := NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	eventLimiter := NewRateLimiter(cfg.RateLimit.RPS*10, cfg.RateLimit.Burst*10)

	// Preflight requests match no method-restricted route; answer them
	// here so the CORS middleware runs.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Open endpoints
	r.HandleFunc("/version", system.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", system.HealthHandler).Methods("GET")
	r.HandleFunc("/sitemap.xml", siteHandler.Sitemap).Methods("GET")

	r.HandleFunc("/v1/projects", contentHandler.PublicProjects).Methods("GET")
	r.HandleFunc("/v1/projects/{slug}", contentHandler.PublicProject).Methods("GET")
	r.HandleFunc("/v1/blog", contentHandler.PublicBlogPosts).Methods("GET")
	r.HandleFunc("/v1/blog/{slug}", contentHandler.PublicBlogPost).Methods("GET")
	r.HandleFunc("/v1/services", contentHandler.PublicServices).Methods("GET")
	r.HandleFunc("/v1/services/{slug}", contentHandler.PublicService).Methods("GET")
	r.HandleFunc("/v1/team", contentHandler.PublicTeam).Methods("GET")
	r.HandleFunc("/v1/company-info", siteHandler.PublicCompanyInfo).Methods("GET")
	r.HandleFunc("/v1/seo", siteHandler.PublicSEO).Methods("GET")
	r.Handle("/v1/contact", formLimiter.Middleware(http.HandlerFunc(contactHandler.Submit))).Methods("POST")
	r.Handle("/v1/analytics/events", eventLimiter.Middleware(http.HandlerFunc(siteHandler.TrackEvent))).Methods("POST")
	r.Handle("/v1/auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login))).Methods("POST")

	authenticate := AuthMiddleware(d.Auth.Issuer(), d.Store)

	// Session endpoints
	session := r.PathPrefix("/v1/auth").Subrouter()
	session.Use(authenticate)
	session.HandleFunc("/me", authHandler.Me).Methods("GET")
	session.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	session.HandleFunc("/password", authHandler.ChangePassword).Methods("PUT")

	// Back office
	admin := r.PathPrefix("/v1/admin").Subrouter()
	admin.Use(authenticate)

	mountResource(admin, "/projects", contentHandler.Projects)
	mountResource(admin, "/blog", contentHandler.Blog)
	mountResource(admin, "/services", contentHandler.Services)
	mountResource(admin, "/team", contentHandler.Team)
	mountResource(admin, "/seo", siteHandler.SEO)

	admin.HandleFunc("/contacts", requirePermission(auth.ResourceContacts, auth.ActionRead, contactHandler.List)).Methods("GET")
	admin.HandleFunc("/contacts/{id:[0-9]+}", requirePermission(auth.ResourceContacts, auth.ActionRead, contactHandler.Get)).Methods("GET")
	admin.HandleFunc("/contacts/{id:[0-9]+}", requirePermission(auth.ResourceContacts, auth.ActionWrite, contactHandler.UpdateWorkflow)).Methods("PATCH")
	admin.HandleFunc("/contacts/{id:[0-9]+}", requirePermission(auth.ResourceContacts, auth.ActionDelete, contactHandler.Delete)).Methods("DELETE")

	admin.HandleFunc("/company-info", requirePermission(auth.ResourceSettings, auth.ActionRead, siteHandler.ListCompanyInfo)).Methods("GET")
	admin.HandleFunc("/company-info/{key:[A-Za-z0-9_.-]+}", requirePermission(auth.ResourceSettings, auth.ActionWrite, siteHandler.PutCompanyInfo)).Methods("PUT")
	admin.HandleFunc("/company-info/{key:[A-Za-z0-9_.-]+}", requirePermission(auth.ResourceSettings, auth.ActionDelete, siteHandler.DeleteCompanyInfo)).Methods("DELETE")

	admin.HandleFunc("/analytics/summary", requirePermission(auth.ResourceAnalytics, auth.ActionRead, siteHandler.AnalyticsSummary)).Methods("GET")

	admin.HandleFunc("/users", requirePermission(auth.ResourceUsers, auth.ActionRead, userHandler.List)).Methods("GET")
	admin.HandleFunc("/users", requirePermission(auth.ResourceUsers, auth.ActionWrite, userHandler.Create)).Methods("POST")
	admin.HandleFunc("/users/{id:[0-9]+}", requirePermission(auth.ResourceUsers, auth.ActionRead, userHandler.Get)).Methods("GET")
	admin.HandleFunc("/users/{id:[0-9]+}", requirePermission(auth.ResourceUsers, auth.ActionWrite, userHandler.Update)).Methods("PUT")
	admin.HandleFunc("/users/{id:[0-9]+}", requirePermission(auth.ResourceUsers, auth.ActionDelete, userHandler.Delete)).Methods("DELETE")
	admin.HandleFunc("/users/{id:[0-9]+}/unlock", requirePermission(auth.ResourceUsers, auth.ActionWrite, userHandler.Unlock)).Methods("POST")

	return r
}

// mountResource registers list, get, create, update and delete for res
// under path, each behind the matching permission.
func mountResource[T any](r *mux.Router, path string, res *resource[T]) {
	item := path + "/{id:[0-9]+}"
	r.HandleFunc(path, requirePermission(res.name, auth.ActionRead, res.List)).Methods("GET")
	r.HandleFunc(path, requirePermission(res.name, auth.ActionWrite, res.Create)).Methods("POST")
	r.HandleFunc(item, requirePermission(res.name, auth.ActionRead, res.Get)).Methods("GET")
	r.HandleFunc(item, requirePermission(res.name, auth.ActionWrite, res.Update)).Methods("PUT")
	r.HandleFunc(item, requirePermission(res.name, auth.ActionDelete, res.Delete)).Methods("DELETE")
}
