package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	s := NewStore(time.Hour)
	id := s.Put("t1", "offer", "offer body")
	require.NotEmpty(t, id)

	snap, ok := s.Get("t1", id)
	require.True(t, ok)
	assert.Equal(t, "offer body", snap.Content)
	assert.Equal(t, "offer", snap.Kind)
	assert.Equal(t, "t1", snap.TenantID)
}

func TestGetTenantIsolation(t *testing.T) {
	s := NewStore(time.Hour)
	id := s.Put("t1", "offer", "offer body")

	_, ok := s.Get("t2", id)
	assert.False(t, ok, "snapshots are tenant-scoped")
}

func TestGetMissing(t *testing.T) {
	s := NewStore(time.Hour)
	_, ok := s.Get("t1", "no-such-id")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	s := NewStore(time.Hour)
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	id := s.Put("t1", "rooms", "room list")

	_, ok := s.Get("t1", id)
	require.True(t, ok)

	current = current.Add(2 * time.Hour)
	_, ok = s.Get("t1", id)
	assert.False(t, ok, "expired snapshot reads as missing")
}

func TestSweep(t *testing.T) {
	s := NewStore(time.Hour)
	current := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Put("t1", "offer", "a")
	s.Put("t1", "offer", "b")

	assert.Equal(t, 0, s.Sweep())

	current = current.Add(2 * time.Hour)
	keptID := s.Put("t1", "offer", "c")

	assert.Equal(t, 2, s.Sweep())

	_, ok := s.Get("t1", keptID)
	assert.True(t, ok)
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore(time.Hour)
	id := s.Put("t1", "offer", "original")

	snap, ok := s.Get("t1", id)
	require.True(t, ok)
	snap.Content = "mutated"

	again, ok := s.Get("t1", id)
	require.True(t, ok)
	assert.Equal(t, "original", again.Content)
}
