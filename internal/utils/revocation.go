package utils

import (
	"sync"
	"time"
)

// RevokedTokens remembers token IDs that were logged out until they would
// have expired anyway.
type RevokedTokens struct {
	mu  sync.Mutex
	ids map[string]time.Time
	now func() time.Time
}

func NewRevokedTokens() *RevokedTokens {
	return &RevokedTokens{ids: make(map[string]time.Time), now: time.Now}
}

func (r *RevokedTokens) Revoke(id string, expiresAt time.Time) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[id] = expiresAt
	r.sweep()
}

func (r *RevokedTokens) IsRevoked(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.ids[id]
	if !ok {
		return false
	}
	if r.now().After(exp) {
		delete(r.ids, id)
		return false
	}
	return true
}

// sweep drops expired entries. Caller holds mu.
func (r *RevokedTokens) sweep() {
	now := r.now()
	for id, exp := range r.ids {
		if now.After(exp) {
			delete(r.ids, id)
		}
	}
}
