package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

type ctxKey string

const (
	ctxUser     ctxKey = "admin_user"
	ctxClientIP ctxKey = "client_ip"
)

// package-level logger used by middleware and helpers; can be set via SetLogger from caller
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger installs a logger for the api package. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// UserFrom returns the authenticated admin stored by the auth middleware.
func UserFrom(ctx context.Context) (*models.AdminUser, bool) {
	u, ok := ctx.Value(ctxUser).(*models.AdminUser)
	return u, ok && u != nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("latency", time.Since(start)),
			slog.String("remote", r.RemoteAddr),
		)
	})
}

// CORSMiddleware allows the configured origins. "*" allows any origin.
func CORSMiddleware(origins []string) mux.MiddlewareFunc {
	allowAll := len(origins) == 0
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic", slog.Any("err", err), slog.String("path", r.URL.Path))
				writeJSON(w, errorResponse{Error: "internal server error"}, http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware verifies the bearer token and loads the admin it names.
// Deleted or deactivated accounts are rejected even with a valid token.
func AuthMiddleware(issuer *auth.Issuer, users repository.AdminUserRepo) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, errorResponse{Error: "missing authorization header"}, http.StatusUnauthorized)
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			tokenString = strings.TrimSpace(tokenString)
			if !ok || tokenString == "" {
				writeJSON(w, errorResponse{Error: "invalid authorization header"}, http.StatusUnauthorized)
				return
			}

			claims, err := issuer.Parse(tokenString)
			if err != nil {
				writeError(w, r, err)
				return
			}

			u, err := users.GetAdminUser(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if u == nil || !u.IsActive {
				writeError(w, r, auth.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser, u)))
		})
	}
}

// requirePermission guards h with a permission check against the stored
// permissions of the authenticated admin.
func requirePermission(resource, action string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		if !ok {
			writeError(w, r, auth.ErrInvalidToken)
			return
		}
		if !auth.Allowed(u.Permissions, resource, action) {
			logger.Warn("permission denied",
				slog.Int64("user_id", u.ID),
				slog.String("resource", resource),
				slog.String("action", action),
			)
			writeError(w, r, errForbidden)
			return
		}
		h(w, r)
	}
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	clients map[string]*client
	now     func() time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per IP with the given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		ttl:     10 * time.Minute,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow reports whether ip may make another request now.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	if len(l.clients) > 1024 {
		l.evict(now)
	}
	return c.limiter.AllowN(now, 1)
}

func (l *RateLimiter) evict(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) > l.ttl {
			delete(l.clients, ip)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, r, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIPMiddleware resolves the client address once per request and
// stores it for handlers and limiters. X-Forwarded-For and X-Real-IP are
// honoured only when the connecting peer is in trusted (CIDRs or bare IPs).
func ClientIPMiddleware(trusted []string) mux.MiddlewareFunc {
	proxies := ParseProxies(trusted)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, proxies)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxClientIP, ip)))
		})
	}
}

// ParseProxies turns CIDRs and bare addresses into prefixes. Unparseable
// entries are skipped; config validation reports them.
func ParseProxies(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			a = a.Unmap()
			out = append(out, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return out
}

func isTrusted(ip string, proxies []netip.Prefix) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range proxies {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// resolveClientIP walks X-Forwarded-For from the right and returns the
// first hop that is not a trusted proxy.
func resolveClientIP(r *http.Request, proxies []netip.Prefix) string {
	peer := remoteHost(r)
	if !isTrusted(peer, proxies) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if _, err := netip.ParseAddr(hop); err != nil {
				break
			}
			if !isTrusted(hop, proxies) || i == 0 {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		if _, err := netip.ParseAddr(ip); err == nil {
			return ip
		}
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientIP returns the address resolved by ClientIPMiddleware, or the
// connection address when the middleware did not run.
func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(ctxClientIP).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

var (
	errNotFound    = errors.New("not found")
	errForbidden   = errors.New("insufficient permissions")
	errRateLimited = errors.New("too many requests")
)
