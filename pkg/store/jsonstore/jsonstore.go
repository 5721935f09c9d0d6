// Package jsonstore is the file-backed TenantStore used in development:
// one JSON document per tenant under the data directory.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/models"
	"github.com/venueflow/venueflow/pkg/store"
)

// tenantRecord is the on-disk layout: {events, clients, tasks, config}.
type tenantRecord struct {
	Events   []*models.Event                   `json:"events"`
	Clients  map[string]*models.Client         `json:"clients"`
	Tasks    []*models.Task                    `json:"tasks"`
	Settings *config.TenantSettings            `json:"config,omitempty"`
	Catalog  *catalog.Catalog                  `json:"catalog,omitempty"`
	Prompts  map[string]*config.PromptOverride `json:"prompts,omitempty"`
}

// Store is the JSON-file TenantStore.
type Store struct {
	dir string

	mu      sync.Mutex
	tenants map[string]*tenantRecord
}

var _ store.TenantStore = (*Store)(nil)

// New opens (or creates) the data directory.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &Store{dir: dir, tenants: make(map[string]*tenantRecord)}, nil
}

// Close flushes nothing; writes are synchronous.
func (s *Store) Close() error { return nil }

func (s *Store) path(tenantID string) string {
	// Tenant IDs come from headers; keep the filename safe.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, tenantID)
	return filepath.Join(s.dir, safe+".json")
}

// load returns the in-memory record for a tenant, reading the file on first
// access. Caller must hold s.mu.
func (s *Store) load(tenantID string) (*tenantRecord, error) {
	if rec, ok := s.tenants[tenantID]; ok {
		return rec, nil
	}
	rec := &tenantRecord{
		Clients: make(map[string]*models.Client),
		Prompts: make(map[string]*config.PromptOverride),
	}
	data, err := os.ReadFile(s.path(tenantID))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Fresh tenant.
	case err != nil:
		return nil, fmt.Errorf("failed to read tenant file: %w", err)
	default:
		if err := json.Unmarshal(data, rec); err != nil {
			return nil, fmt.Errorf("failed to parse tenant file: %w", err)
		}
		if rec.Clients == nil {
			rec.Clients = make(map[string]*models.Client)
		}
		if rec.Prompts == nil {
			rec.Prompts = make(map[string]*config.PromptOverride)
		}
	}
	s.tenants[tenantID] = rec
	return rec, nil
}

// persist writes the record back to disk atomically. Caller must hold s.mu.
func (s *Store) persist(tenantID string, rec *tenantRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tenant record: %w", err)
	}
	path := s.path(tenantID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write tenant file: %w", err)
	}
	return os.Rename(tmp, path)
}

func (s *Store) GetClient(_ context.Context, tenantID, email string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	c, ok := rec.Clients[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) PutClient(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(client.TenantID)
	if err != nil {
		return err
	}
	cp := *client
	rec.Clients[strings.ToLower(client.Email)] = &cp
	return s.persist(client.TenantID, rec)
}

func (s *Store) GetEvent(_ context.Context, tenantID, eventID string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	for _, e := range rec.Events {
		if e.EventID == eventID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) PutEvent(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(event.TenantID)
	if err != nil {
		return err
	}
	cp := *event
	for i, e := range rec.Events {
		if e.EventID == event.EventID {
			rec.Events[i] = &cp
			return s.persist(event.TenantID, rec)
		}
	}
	rec.Events = append(rec.Events, &cp)
	return s.persist(event.TenantID, rec)
}

func (s *Store) ListEvents(_ context.Context, tenantID string) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Event, 0, len(rec.Events))
	for _, e := range rec.Events {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) FindEventByThread(_ context.Context, tenantID, threadID string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	var latest *models.Event
	for _, e := range rec.Events {
		if e.ThreadID == threadID {
			if latest == nil || e.UpdatedAt.After(latest.UpdatedAt) {
				latest = e
			}
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *Store) LatestEventForClient(_ context.Context, tenantID, email string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(email)
	var latest *models.Event
	for _, e := range rec.Events {
		if strings.ToLower(e.ClientID) == want {
			if latest == nil || e.UpdatedAt.After(latest.UpdatedAt) {
				latest = e
			}
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *Store) GetTask(_ context.Context, tenantID, taskID string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	for _, t := range rec.Tasks {
		if t.TaskID == taskID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) PutTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(task.TenantID)
	if err != nil {
		return err
	}
	cp := *task
	for i, t := range rec.Tasks {
		if t.TaskID == task.TaskID {
			rec.Tasks[i] = &cp
			return s.persist(task.TenantID, rec)
		}
	}
	rec.Tasks = append(rec.Tasks, &cp)
	return s.persist(task.TenantID, rec)
}

func (s *Store) ListTasks(_ context.Context, tenantID string, status models.TaskStatus) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	var out []*models.Task
	for _, t := range rec.Tasks {
		if status != "" && t.Status != status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindTaskBySignature(_ context.Context, tenantID, signature string) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	for _, t := range rec.Tasks {
		if t.Signature == signature {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) UpdateTaskStatus(_ context.Context, tenantID, taskID string, from, to models.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return err
	}
	for _, t := range rec.Tasks {
		if t.TaskID != taskID {
			continue
		}
		if t.Status != from {
			return store.ErrConcurrentModification
		}
		t.Status = to
		now := time.Now().UTC()
		t.ResolvedAt = &now
		return s.persist(tenantID, rec)
	}
	return store.ErrNotFound
}

func (s *Store) DeleteTasksResolvedBefore(_ context.Context, tenantID string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return 0, err
	}
	kept := rec.Tasks[:0]
	removed := 0
	for _, t := range rec.Tasks {
		resolved := t.Status != models.TaskPending
		if resolved && t.ResolvedAt != nil && t.ResolvedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	rec.Tasks = kept
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persist(tenantID, rec)
}

func (s *Store) GetSettings(_ context.Context, tenantID string) (*config.TenantSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	if rec.Settings == nil {
		return nil, store.ErrNotFound
	}
	cp := *rec.Settings
	return &cp, nil
}

func (s *Store) PutSettings(_ context.Context, tenantID string, settings *config.TenantSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return err
	}
	cp := *settings
	rec.Settings = &cp
	return s.persist(tenantID, rec)
}

func (s *Store) GetCatalog(_ context.Context, tenantID string) (*catalog.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	if rec.Catalog == nil {
		return nil, store.ErrNotFound
	}
	cp := *rec.Catalog
	return &cp, nil
}

func (s *Store) PutCatalog(_ context.Context, tenantID string, cat *catalog.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return err
	}
	cp := *cat
	rec.Catalog = &cp
	return s.persist(tenantID, rec)
}

func (s *Store) GetPrompts(_ context.Context, tenantID string) (map[string]*config.PromptOverride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*config.PromptOverride, len(rec.Prompts))
	for k, v := range rec.Prompts {
		cp := *v
		out[k] = &cp
	}
	return out, nil
}

func (s *Store) PutPrompt(_ context.Context, tenantID string, prompt *config.PromptOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.load(tenantID)
	if err != nil {
		return err
	}
	cp := *prompt
	rec.Prompts[prompt.Key] = &cp
	return s.persist(tenantID, rec)
}
