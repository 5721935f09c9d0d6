package store

import "sync"

// LockRegistry serializes all turns for the same event. The orchestrator is
// single-threaded per event_id: the lock is held from pre-route through
// persist, and HIL approvals and synthetic continuations acquire it too.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockRegistry creates an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for (tenantID, eventID), creating it on first use.
// The returned func releases it.
func (r *LockRegistry) Lock(tenantID, eventID string) func() {
	key := tenantID + "/" + eventID
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// LockTenant acquires a coarse per-tenant lock used for task-queue writes.
func (r *LockRegistry) LockTenant(tenantID string) func() {
	return r.Lock(tenantID, "")
}
