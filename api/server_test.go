package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/showcase/api"
	dbfs "github.com/garnizeh/showcase/db"
	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/internal/config"
	dbpkg "github.com/garnizeh/showcase/internal/db"
	"github.com/garnizeh/showcase/internal/payload"
	"github.com/garnizeh/showcase/internal/repository/sqlite"
	"github.com/garnizeh/showcase/pkg/models"
)

const testPassword = "correct-horse"

type enqueued struct {
	Type    string
	Payload any
}

// fakeQueue records jobs instead of running them.
type fakeQueue struct {
	mu   sync.Mutex
	jobs []enqueued
	err  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return 0, q.err
	}
	q.jobs = append(q.jobs, enqueued{Type: typ, Payload: payload})
	return int64(len(q.jobs)), nil
}

func (q *fakeQueue) all() []enqueued {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]enqueued(nil), q.jobs...)
}

type testServer struct {
	t      *testing.T
	router http.Handler
	repo   *sqlite.SQLiteRepo
	auth   *auth.Authenticator
	queue  *fakeQueue
	users  map[string]*models.AdminUser
	tokens map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	d, err := dbpkg.New(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := dbpkg.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo := sqlite.New(d, nil)
	authenticator := auth.NewAuthenticator(
		repo,
		auth.NewHasher(bcrypt.MinCost),
		auth.LockoutPolicy{MaxAttempts: 3, Duration: time.Minute},
		auth.NewIssuer("test-secret", time.Hour),
		nil,
	)
	payloads, err := payload.NewLoader(dbfs.Schemas)
	if err != nil {
		t.Fatalf("failed to load schemas: %v", err)
	}

	cfg := &config.Config{
		SiteURL:     "https://acme.example/",
		CORSOrigins: []string{"*"},
		RateLimit:   config.RateLimitConfig{RPS: 1000, Burst: 1000},
	}
	queue := &fakeQueue{}
	router := api.SetupRoutes(cfg, "test", "now", api.Deps{
		Store:    repo,
		Auth:     authenticator,
		Payloads: payloads,
		Jobs:     queue,
	})

	s := &testServer{
		t:      t,
		router: router,
		repo:   repo,
		auth:   authenticator,
		queue:  queue,
		users:  make(map[string]*models.AdminUser),
		tokens: make(map[string]string),
	}
	for _, role := range auth.Roles() {
		u, err := authenticator.NewUser(role+"@acme.example", role, role, testPassword)
		if err != nil {
			t.Fatalf("new user %s: %v", role, err)
		}
		if _, err := repo.CreateAdminUser(ctx, u); err != nil {
			t.Fatalf("create user %s: %v", role, err)
		}
		tok, _, err := authenticator.Issuer().Issue(u)
		if err != nil {
			t.Fatalf("issue token %s: %v", role, err)
		}
		s.users[role] = u
		s.tokens[role] = tok
	}
	return s
}

// do sends a request as role ("" for anonymous). A string body is sent
// verbatim; anything else is JSON encoded.
func (s *testServer) do(method, path, role string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "showcase-test")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[role])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// expect fails the test unless w has the given status.
func expect(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

type listResponse[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
