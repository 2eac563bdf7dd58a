package services

import (
	"strings"
	"sync"
	"time"
)

const (
	maxFailedLogins   = 5
	failedLoginWindow = 15 * time.Minute
	sweepInterval     = time.Minute
)

// loginAttempts counts consecutive failed logins per email.
type loginAttempts struct {
	mu        sync.Mutex
	failures  map[string]attempt
	now       func() time.Time
	lastSweep time.Time
}

type attempt struct {
	count int
	first time.Time
}

func newLoginAttempts() *loginAttempts {
	return &loginAttempts{failures: make(map[string]attempt), now: time.Now}
}

func (l *loginAttempts) blocked(email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.failures[key(email)]
	if !ok {
		return false
	}
	if l.now().Sub(a.first) > failedLoginWindow {
		delete(l.failures, key(email))
		return false
	}
	return a.count >= maxFailedLogins
}

func (l *loginAttempts) fail(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep()

	k := key(email)
	a := l.failures[k]
	if a.count == 0 || l.now().Sub(a.first) > failedLoginWindow {
		a = attempt{first: l.now()}
	}
	a.count++
	l.failures[k] = a
}

// sweep drops entries whose window has passed, at most once per
// sweepInterval. Caller holds mu.
func (l *loginAttempts) sweep() {
	now := l.now()
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for k, a := range l.failures {
		if now.Sub(a.first) > failedLoginWindow {
			delete(l.failures, k)
		}
	}
}

func (l *loginAttempts) reset(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key(email))
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
