package hil

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Janitor periodically runs Cleanup for every tenant that has produced a
// task since startup.
type Janitor struct {
	queue    *Queue
	interval time.Duration

	mu      sync.Mutex
	tenants map[string]struct{}

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewJanitor creates a janitor for the queue.
func NewJanitor(queue *Queue, interval time.Duration) *Janitor {
	return &Janitor{
		queue:    queue,
		interval: interval,
		tenants:  make(map[string]struct{}),
		stopCh:   make(chan struct{}),
	}
}

// Observe registers a tenant for periodic cleanup.
func (j *Janitor) Observe(tenantID string) {
	j.mu.Lock()
	j.tenants[tenantID] = struct{}{}
	j.mu.Unlock()
}

// Start begins the cleanup loop.
func (j *Janitor) Start(ctx context.Context) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.sweep(ctx)
			case <-j.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
	j.wg.Wait()
}

func (j *Janitor) sweep(ctx context.Context) {
	j.mu.Lock()
	ids := make([]string, 0, len(j.tenants))
	for id := range j.tenants {
		ids = append(ids, id)
	}
	j.mu.Unlock()

	for _, id := range ids {
		if _, err := j.queue.Cleanup(ctx, id); err != nil {
			slog.Warn("Task cleanup sweep failed", "tenant_id", id, "error", err)
		}
	}
}
