package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/showcase/api"
	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository/mock"
)

func TestLoggingMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	})

	handler := api.LoggingMiddleware(next)
	req := httptest.NewRequest(http.MethodGet, "/log", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if string(b) != "ok" {
		t.Fatalf("unexpected body: %q", string(b))
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := api.CORSMiddleware([]string{"*"})(next)

	// OPTIONS should return 204 and not call next
	reqOpt := httptest.NewRequest(http.MethodOptions, "/cors", nil)
	wOpt := httptest.NewRecorder()
	handler.ServeHTTP(wOpt, reqOpt)
	resOpt := wOpt.Result()
	defer resOpt.Body.Close()
	if resOpt.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for OPTIONS, got %d", resOpt.StatusCode)
	}
	if got := resOpt.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS header set, got %q", got)
	}

	// GET should pass through and set headers
	reqGet := httptest.NewRequest(http.MethodGet, "/cors", nil)
	wGet := httptest.NewRecorder()
	handler.ServeHTTP(wGet, reqGet)
	resGet := wGet.Result()
	defer resGet.Body.Close()
	if resGet.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for GET, got %d", resGet.StatusCode)
	}
	if got := resGet.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
		t.Fatalf("expected Allow-Methods to include PATCH, got %q", got)
	}
}

func TestCORSMiddleware_AllowList(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := api.CORSMiddleware([]string{"https://site.example"})(next)

	req := httptest.NewRequest(http.MethodGet, "/cors", nil)
	req.Header.Set("Origin", "https://site.example")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Result().Header.Get("Access-Control-Allow-Origin"); got != "https://site.example" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/cors", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Result().Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin for unknown origin, got %q", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	pan := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := api.RecoveryMiddleware(pan)
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	res := w.Result()
	defer res.Body.Close()
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 from panic recovery, got %d", res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(b), "internal server error") {
		t.Fatalf("unexpected body for recovery: %s", string(b))
	}

	// normal handler should pass through
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler2 := api.RecoveryMiddleware(ok)
	w2 := httptest.NewRecorder()
	handler2.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w2.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for normal path, got %d", w2.Result().StatusCode)
	}
}

func TestAuthMiddleware(t *testing.T) {
	users := mock.NewAdminUsers()
	issuer := auth.NewIssuer("s3cr3t", time.Hour)
	ctx := context.Background()

	active := &models.AdminUser{Email: "a@example.com", Role: models.RoleAdmin, Permissions: auth.For(models.RoleAdmin), IsActive: true}
	if _, err := users.CreateAdminUser(ctx, active); err != nil {
		t.Fatalf("create user: %v", err)
	}
	disabled := &models.AdminUser{Email: "d@example.com", Role: models.RoleEditor, Permissions: auth.For(models.RoleEditor)}
	if _, err := users.CreateAdminUser(ctx, disabled); err != nil {
		t.Fatalf("create user: %v", err)
	}

	var seen *models.AdminUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = api.UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := api.AuthMiddleware(issuer, users)(next)

	sign := func(u *models.AdminUser) string {
		tok, _, err := issuer.Issue(u)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		return tok
	}
	foreign, _, err := auth.NewIssuer("other", time.Hour).Issue(active)
	if err != nil {
		t.Fatalf("issue foreign token: %v", err)
	}

	cases := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "MissingHeader", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "EmptyBearer", authHeader: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", authHeader: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "BadToken", authHeader: "Bearer bad.token.here", wantStatus: http.StatusUnauthorized},
		{name: "ForeignToken", authHeader: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
		{name: "DisabledUser", authHeader: "Bearer " + sign(disabled), wantStatus: http.StatusUnauthorized},
		{name: "UnknownUser", authHeader: "Bearer " + sign(&models.AdminUser{ID: 99, Role: models.RoleAdmin}), wantStatus: http.StatusUnauthorized},
		{name: "Valid", authHeader: "Bearer " + sign(active), wantStatus: http.StatusOK},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/jwt", nil)
			if c.authHeader != "" {
				req.Header.Set("Authorization", c.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Result().StatusCode != c.wantStatus {
				t.Fatalf("%s: want %d got %d", c.name, c.wantStatus, w.Result().StatusCode)
			}
			if c.wantStatus == http.StatusOK && (seen == nil || seen.ID != active.ID) {
				t.Fatalf("expected authenticated user in context, got %+v", seen)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	l := api.NewRateLimiter(0.001, 2)
	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatalf("expected burst of 2 to be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("expected third request to be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatalf("expected other client to have its own bucket")
	}

	// 192.0.2.1 is the httptest peer; trusting it lets the headers through
	handler := api.ClientIPMiddleware([]string{"192.0.2.0/24"})(
		l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })),
	)
	req := httptest.NewRequest(http.MethodPost, "/v1/contact", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 192.0.2.7")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for limited client, got %d", w.Result().StatusCode)
	}
	if w.Result().Header.Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/contact", nil)
	req.Header.Set("X-Real-IP", "10.0.0.3")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for fresh client, got %d", w.Result().StatusCode)
	}
}

func TestRateLimiter_IgnoresSpoofedHeadersFromUntrustedPeers(t *testing.T) {
	l := api.NewRateLimiter(0.001, 1)
	handler := api.ClientIPMiddleware(nil)(
		l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })),
	)

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i+1))
		req.Header.Set("X-Real-IP", "198.51.100."+strconv.Itoa(i+1))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if got := w.Result().StatusCode; got != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestParseProxies(t *testing.T) {
	got := api.ParseProxies([]string{"10.0.0.0/8", " 192.0.2.10 ", "::1", "not-an-ip"})
	want := []string{"10.0.0.0/8", "192.0.2.10/32", "::1/128"}
	if len(got) != len(want) {
		t.Fatalf("expected %d prefixes, got %v", len(want), got)
	}
	for i, p := range got {
		if p.String() != want[i] {
			t.Fatalf("prefix %d: expected %s, got %s", i, want[i], p)
		}
	}
}
