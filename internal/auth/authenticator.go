// Package auth implements admin authentication: bcrypt password hashing,
// failed-login lockout, signed access tokens and the role permission table.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

var (
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked is returned while a lock is active. The password is
	// not checked in that state.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountDisabled is returned for deactivated accounts.
	ErrAccountDisabled = errors.New("account disabled")
)

// Session is the outcome of a successful login.
type Session struct {
	Token     string                 `json:"token"`
	ExpiresAt time.Time              `json:"expires_at"`
	User      models.PublicAdminUser `json:"user"`
}

// Authenticator runs the login state machine against the user store.
type Authenticator struct {
	users  repository.AdminUserRepo
	hasher *Hasher
	policy LockoutPolicy
	issuer *Issuer
	logger *slog.Logger
	now    func() time.Time
	gate   userGate
}

// NewAuthenticator wires the login flow. A nil logger uses slog.Default.
func NewAuthenticator(users repository.AdminUserRepo, hasher *Hasher, policy LockoutPolicy, issuer *Issuer, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		users:  users,
		hasher: hasher,
		policy: policy.normalized(),
		issuer: issuer,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock; tests use it to step through lock windows.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

// Policy returns the lockout policy in force.
func (a *Authenticator) Policy() LockoutPolicy { return a.policy }

// Hasher returns the password hasher.
func (a *Authenticator) Hasher() *Hasher { return a.hasher }

// Issuer returns the token issuer.
func (a *Authenticator) Issuer() *Issuer { return a.issuer }

// Login checks email/password and returns a signed session. Locked accounts
// are refused before the password is looked at. Attempts on the same account
// run one at a time, so every guess sees the lock state left by the previous
// one.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	u, err := a.users.GetAdminUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	release := a.gate.acquire(u.ID)
	defer release()
	if u, err = a.users.GetAdminUser(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	now := a.now()
	if a.policy.IsLocked(u, now) {
		a.logger.Warn("login refused: account locked",
			slog.Int64("user_id", u.ID),
			slog.Time("lock_until", *u.LockUntil),
		)
		return nil, ErrAccountLocked
	}

	ok, err := a.hasher.Compare(u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		stored, err := a.users.RecordLoginFailure(ctx, u.ID, now, a.policy.MaxAttempts, a.policy.Duration)
		if err != nil {
			return nil, fmt.Errorf("record failed attempt: %w", err)
		}
		if stored != nil {
			a.logger.Info("login failed",
				slog.Int64("user_id", stored.ID),
				slog.Int("attempts", stored.LoginAttempts),
				slog.Bool("locked", a.policy.IsLocked(stored, now)),
			)
		}
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := a.users.RecordLoginSuccess(ctx, u.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	a.policy.RecordSuccess(u, now)
	u.UpdatedAt = now

	token, exp, err := a.issuer.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u.Public()}, nil
}

// ChangePassword verifies current and stores a hash of next. Only the hash
// column is written.
func (a *Authenticator) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	release := a.gate.acquire(userID)
	defer release()

	u, err := a.users.GetAdminUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return ErrInvalidCredentials
	}
	ok, err := a.hasher.Compare(u.PasswordHash, current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if err := a.hasher.SetPassword(u, next); err != nil {
		return err
	}
	return a.users.SetAdminPassword(ctx, u.ID, u.PasswordHash, a.now())
}

// Unlock clears the failed-attempt counter and any lock on userID.
func (a *Authenticator) Unlock(ctx context.Context, userID int64) error {
	release := a.gate.acquire(userID)
	defer release()
	return a.users.ResetLockout(ctx, userID, a.now())
}

// NewUser builds an AdminUser for role with a hashed password and a private
// copy of the role's permissions.
func (a *Authenticator) NewUser(email, name, role, password string) (*models.AdminUser, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	now := a.now()
	u := &models.AdminUser{
		Email:       NormalizeEmail(email),
		Name:        strings.TrimSpace(name),
		Role:        role,
		Permissions: For(role),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.hasher.SetPassword(u, password); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureBootstrapAdmin creates a super_admin when no admin exists yet.
// It reports whether a user was created.
func (a *Authenticator) EnsureBootstrapAdmin(ctx context.Context, email, name, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	n, err := a.users.CountAdminUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	u, err := a.NewUser(email, name, models.RoleSuperAdmin, password)
	if err != nil {
		return false, err
	}
	id, err := a.users.CreateAdminUser(ctx, u)
	if err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	a.logger.Info("bootstrap admin created", slog.Int64("user_id", id), slog.String("email", u.Email))
	return true, nil
}

// NormalizeEmail lowercases and trims an email used as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// userGate serializes work per account id. Entries are dropped once no
// caller holds or waits on them.
type userGate struct {
	mu    sync.Mutex
	locks map[int64]*gateEntry
}

type gateEntry struct {
	mu   sync.Mutex
	refs int
}

func (g *userGate) acquire(id int64) func() {
	g.mu.Lock()
	if g.locks == nil {
		g.locks = make(map[int64]*gateEntry)
	}
	e, ok := g.locks[id]
	if !ok {
		e = &gateEntry{}
		g.locks[id] = e
	}
	e.refs++
	g.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		g.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(g.locks, id)
		}
		g.mu.Unlock()
	}
}
