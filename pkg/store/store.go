// Package store defines the tenant-isolated persistence abstraction and its
// event-scoped locking. Two implementations exist: a JSON file store for
// development and a Postgres store for deployments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/models"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when creating a duplicate entity.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrConcurrentModification is returned when a compare-and-set on task
	// status loses the race.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// TenantStore is the persistence contract. Every entity carries tenant_id;
// implementations must never return another tenant's data.
type TenantStore interface {
	// Clients.
	GetClient(ctx context.Context, tenantID, email string) (*models.Client, error)
	PutClient(ctx context.Context, client *models.Client) error

	// Events.
	GetEvent(ctx context.Context, tenantID, eventID string) (*models.Event, error)
	PutEvent(ctx context.Context, event *models.Event) error
	ListEvents(ctx context.Context, tenantID string) ([]*models.Event, error)
	// FindEventByThread returns the event bound to a conversation thread.
	FindEventByThread(ctx context.Context, tenantID, threadID string) (*models.Event, error)
	// LatestEventForClient returns the most recently updated event for a
	// client email, for the continue-vs-new decision at intake.
	LatestEventForClient(ctx context.Context, tenantID, email string) (*models.Event, error)

	// HIL tasks.
	GetTask(ctx context.Context, tenantID, taskID string) (*models.Task, error)
	PutTask(ctx context.Context, task *models.Task) error
	ListTasks(ctx context.Context, tenantID string, status models.TaskStatus) ([]*models.Task, error)
	FindTaskBySignature(ctx context.Context, tenantID, signature string) (*models.Task, error)
	// UpdateTaskStatus is a compare-and-set: it fails with
	// ErrConcurrentModification when the stored status is not `from`.
	UpdateTaskStatus(ctx context.Context, tenantID, taskID string, from, to models.TaskStatus) error
	DeleteTasksResolvedBefore(ctx context.Context, tenantID string, cutoff time.Time) (int, error)

	// Per-tenant configuration.
	GetSettings(ctx context.Context, tenantID string) (*config.TenantSettings, error)
	PutSettings(ctx context.Context, tenantID string, settings *config.TenantSettings) error
	GetCatalog(ctx context.Context, tenantID string) (*catalog.Catalog, error)
	PutCatalog(ctx context.Context, tenantID string, cat *catalog.Catalog) error
	GetPrompts(ctx context.Context, tenantID string) (map[string]*config.PromptOverride, error)
	PutPrompt(ctx context.Context, tenantID string, prompt *config.PromptOverride) error

	Close() error
}
