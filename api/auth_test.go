package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/pkg/models"
)

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	email := s.users[models.RoleAdmin].Email

	w := s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "  ADMIN@acme.example ", "password": testPassword})
	expect(t, w, http.StatusOK)
	sess := decode[auth.Session](t, w)
	if sess.Token == "" || sess.User.Email != email {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if body := w.Body.String(); containsAny(body, "password_hash", "$2a$") {
		t.Fatalf("session leaks password hash: %s", body)
	}

	s.tokens["fresh"] = sess.Token
	w = s.do(http.MethodGet, "/v1/auth/me", "fresh", nil)
	expect(t, w, http.StatusOK)
	if me := decode[models.PublicAdminUser](t, w); me.ID != s.users[models.RoleAdmin].ID || me.LastLogin == nil {
		t.Fatalf("unexpected me: %+v", me)
	}

	expect(t, s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": "nobody@acme.example", "password": testPassword}), http.StatusUnauthorized)
	expect(t, s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": email}), http.StatusBadRequest)
	expect(t, s.do(http.MethodPost, "/v1/auth/logout", "fresh", nil), http.StatusOK)
	expect(t, s.do(http.MethodGet, "/v1/auth/me", "", nil), http.StatusUnauthorized)
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	s := newTestServer(t)
	email := s.users[models.RoleEditor].Email
	wrong := map[string]any{"email": email, "password": "wrong-password"}

	for i := 0; i < 3; i++ {
		expect(t, s.do(http.MethodPost, "/v1/auth/login", "", wrong), http.StatusUnauthorized)
	}
	// locked: even the right password is refused
	expect(t, s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": email, "password": testPassword}), http.StatusLocked)

	w := s.do(http.MethodPost, "/v1/admin/users/"+itoa(s.users[models.RoleEditor].ID)+"/unlock", models.RoleSuperAdmin, nil)
	expect(t, w, http.StatusOK)
	if u := decode[models.PublicAdminUser](t, w); u.LoginAttempts != 0 || u.LockUntil != nil {
		t.Fatalf("unlock did not reset lockout: %+v", u)
	}
	expect(t, s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": email, "password": testPassword}), http.StatusOK)
}

func TestLogin_ConcurrentFailuresLockAccount(t *testing.T) {
	s := newTestServer(t)
	u := s.users[models.RoleEditor]
	ctx := context.Background()

	const guesses = 20
	var (
		wg              sync.WaitGroup
		mu              sync.Mutex
		invalid, locked int
	)
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.auth.Login(ctx, u.Email, "wrong-password")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, auth.ErrInvalidCredentials):
				invalid++
			case errors.Is(err, auth.ErrAccountLocked):
				locked++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	threshold := s.auth.Policy().MaxAttempts
	if invalid != threshold || locked != guesses-threshold {
		t.Fatalf("expected %d checked and %d refused, got %d and %d", threshold, guesses-threshold, invalid, locked)
	}
	stored, err := s.repo.GetAdminUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.LoginAttempts != threshold || stored.LockUntil == nil {
		t.Fatalf("account not locked: attempts=%d lock_until=%v", stored.LoginAttempts, stored.LockUntil)
	}
	if stored.PasswordHash != u.PasswordHash {
		t.Fatal("failed logins rewrote the password hash")
	}
	expect(t, s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": u.Email, "password": testPassword}), http.StatusLocked)
}

func TestLogin_DisabledAccount(t *testing.T) {
	s := newTestServer(t)
	u := s.users[models.RoleEditor]
	u.IsActive = false
	if err := s.repo.UpdateAdminUser(context.Background(), u); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// a wrong password does not reveal the account state
	w := s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": u.Email, "password": "wrong-password"})
	expect(t, w, http.StatusUnauthorized)
	if strings.Contains(w.Body.String(), "disabled") {
		t.Fatalf("disabled state leaked without the password: %s", w.Body.String())
	}
	expect(t, s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": u.Email, "password": testPassword}), http.StatusForbidden)
	// existing tokens stop working too
	expect(t, s.do(http.MethodGet, "/v1/auth/me", models.RoleEditor, nil), http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	email := s.users[models.RoleEditor].Email

	expect(t, s.do(http.MethodPut, "/v1/auth/password", models.RoleEditor, map[string]any{
		"current_password": "not-it", "new_password": "brand-new-secret",
	}), http.StatusUnauthorized)

	w := s.do(http.MethodPut, "/v1/auth/password", models.RoleEditor, map[string]any{
		"current_password": testPassword, "new_password": "short",
	})
	expect(t, w, http.StatusBadRequest)
	if body := decode[errorBody](t, w); body.Fields["password"] == "" {
		t.Fatalf("expected password field error, got %+v", body)
	}

	expect(t, s.do(http.MethodPut, "/v1/auth/password", models.RoleEditor, map[string]any{
		"current_password": testPassword, "new_password": "brand-new-secret",
	}), http.StatusOK)

	expect(t, s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": email, "password": testPassword}), http.StatusUnauthorized)
	expect(t, s.do(http.MethodPost, "/v1/auth/login", "", map[string]any{"email": email, "password": "brand-new-secret"}), http.StatusOK)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if len(sub) > 0 && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
