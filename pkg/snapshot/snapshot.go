// Package snapshot persists point-in-time views of room/offer/Q&A content so
// info-page links stay valid after the workflow moves on. Append-only with
// TTL expiry; concurrent writes are fine because every snapshot gets a
// unique id.
package snapshot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one persisted view.
type Snapshot struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Kind      string    `json:"kind"` // "offer" | "rooms" | "qna"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is the in-memory TTL snapshot store.
type Store struct {
	ttl time.Duration

	mu        sync.RWMutex
	snapshots map[string]*Snapshot
	now       func() time.Time
}

// NewStore creates a store with the given TTL.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:       ttl,
		snapshots: make(map[string]*Snapshot),
		now:       time.Now,
	}
}

// Put stores content and returns the opaque snapshot id.
func (s *Store) Put(tenantID, kind, content string) string {
	now := s.now()
	snap := &Snapshot{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Kind:      kind,
		Content:   content,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.mu.Lock()
	s.snapshots[snap.ID] = snap
	s.mu.Unlock()
	return snap.ID
}

// Get returns a snapshot by id, or false when missing or expired.
func (s *Store) Get(tenantID, id string) (*Snapshot, bool) {
	s.mu.RLock()
	snap, ok := s.snapshots[id]
	s.mu.RUnlock()
	if !ok || snap.TenantID != tenantID || s.now().After(snap.ExpiresAt) {
		return nil, false
	}
	cp := *snap
	return &cp, true
}

// Sweep drops expired snapshots and reports how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, snap := range s.snapshots {
		if now.After(snap.ExpiresAt) {
			delete(s.snapshots, id)
			removed++
		}
	}
	return removed
}
