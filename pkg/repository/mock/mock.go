package mock

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/garnizeh/showcase/internal/auth"
	"github.com/garnizeh/showcase/pkg/models"
	"github.com/garnizeh/showcase/pkg/repository"
)

var _ repository.AdminUserRepo = (*AdminUsers)(nil)

// AdminUsers is an in-memory AdminUserRepo for tests. Set the *Err fields
// to force failures.
type AdminUsers struct {
	mu     sync.Mutex
	byID   map[int64]models.AdminUser
	nextID int64

	CreateErr error
	GetErr    error
	UpdateErr error
	Updates   int
}

func NewAdminUsers() *AdminUsers {
	return &AdminUsers{byID: make(map[int64]models.AdminUser)}
}

func (m *AdminUsers) CreateAdminUser(ctx context.Context, u *models.AdminUser) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return 0, repository.ErrConflict
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.byID[u.ID] = clone(*u)
	return u.ID, nil
}

func (m *AdminUsers) GetAdminUser(ctx context.Context, id int64) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	c := clone(u)
	return &c, nil
}

func (m *AdminUsers) GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			c := clone(u)
			return &c, nil
		}
	}
	return nil, nil
}

func (m *AdminUsers) UpdateAdminUser(ctx context.Context, u *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, ok := m.byID[u.ID]; !ok {
		return nil
	}
	m.byID[u.ID] = clone(*u)
	m.Updates++
	return nil
}

func (m *AdminUsers) DeleteAdminUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *AdminUsers) ListAdminUsers(ctx context.Context) ([]models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.AdminUser, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *AdminUsers) CountAdminUsers(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

func (m *AdminUsers) RecordLoginFailure(ctx context.Context, id int64, now time.Time, maxAttempts int, lockFor time.Duration) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	auth.LockoutPolicy{MaxAttempts: maxAttempts, Duration: lockFor}.RecordFailure(&u, now)
	u.UpdatedAt = now
	m.byID[id] = u
	m.Updates++
	c := clone(u)
	return &c, nil
}

func (m *AdminUsers) RecordLoginSuccess(ctx context.Context, id int64, now time.Time) error {
	return m.patch(id, func(u *models.AdminUser) {
		auth.LockoutPolicy{}.RecordSuccess(u, now)
		u.UpdatedAt = now
	})
}

func (m *AdminUsers) ResetLockout(ctx context.Context, id int64, now time.Time) error {
	return m.patch(id, func(u *models.AdminUser) {
		auth.LockoutPolicy{}.Unlock(u)
		u.UpdatedAt = now
	})
}

func (m *AdminUsers) SetAdminPassword(ctx context.Context, id int64, hash string, now time.Time) error {
	return m.patch(id, func(u *models.AdminUser) {
		u.PasswordHash = hash
		u.UpdatedAt = now
	})
}

func (m *AdminUsers) patch(id int64, fn func(*models.AdminUser)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil
	}
	fn(&u)
	m.byID[id] = u
	m.Updates++
	return nil
}

func clone(u models.AdminUser) models.AdminUser {
	u.Permissions = u.Permissions.Clone()
	if u.LockUntil != nil {
		t := *u.LockUntil
		u.LockUntil = &t
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return u
}
