package auth

import (
	"time"

	"github.com/garnizeh/showcase/pkg/models"
)

// Lockout defaults.
const (
	DefaultMaxAttempts  = 5
	DefaultLockDuration = 30 * time.Minute
)

// LockState is the lockout state of an account at a given instant.
type LockState int

const (
	// StateActive: fewer failures than the threshold.
	StateActive LockState = iota
	// StateLocked: threshold reached and lock_until still in the future.
	StateLocked
	// StateExpiredLock: threshold reached but lock_until has passed. The
	// account may log in; the counter is reset by the next attempt.
	StateExpiredLock
)

func (s LockState) String() string {
	switch s {
	case StateLocked:
		return "locked"
	case StateExpiredLock:
		return "expired-lock"
	default:
		return "active"
	}
}

// LockoutPolicy holds the failed-login threshold and the lock window.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultLockoutPolicy locks for 30 minutes after 5 consecutive failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: DefaultMaxAttempts, Duration: DefaultLockDuration}
}

func (p LockoutPolicy) normalized() LockoutPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Duration <= 0 {
		p.Duration = DefaultLockDuration
	}
	return p
}

// State classifies u at now.
func (p LockoutPolicy) State(u *models.AdminUser, now time.Time) LockState {
	if u.LockUntil == nil {
		return StateActive
	}
	if u.LockUntil.After(now) {
		return StateLocked
	}
	return StateExpiredLock
}

// IsLocked reports whether u must be refused without checking credentials.
func (p LockoutPolicy) IsLocked(u *models.AdminUser, now time.Time) bool {
	return p.State(u, now) == StateLocked
}

// RecordFailure counts a failed attempt. An expired lock restarts the
// counter at 1. Reaching the threshold locks the account until now+Duration;
// failures while already locked never extend the lock.
func (p LockoutPolicy) RecordFailure(u *models.AdminUser, now time.Time) {
	p = p.normalized()
	switch p.State(u, now) {
	case StateExpiredLock:
		u.LoginAttempts = 1
		u.LockUntil = nil
		return
	case StateLocked:
		u.LoginAttempts++
		return
	}
	u.LoginAttempts++
	if u.LoginAttempts >= p.MaxAttempts {
		until := now.Add(p.Duration)
		u.LockUntil = &until
	}
}

// RecordSuccess clears the counter and lock and stamps last_login.
func (p LockoutPolicy) RecordSuccess(u *models.AdminUser, now time.Time) {
	u.LoginAttempts = 0
	u.LockUntil = nil
	t := now
	u.LastLogin = &t
}

// Unlock clears the lock without recording a login.
func (p LockoutPolicy) Unlock(u *models.AdminUser) {
	u.LoginAttempts = 0
	u.LockUntil = nil
}
