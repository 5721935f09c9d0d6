// Package pgstore is the PostgreSQL TenantStore. Entities are stored as
// JSONB documents with the columns needed for lookups promoted alongside.
package pgstore

import (
	"context"
	stdsql "database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver for database/sql

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/models"
	"github.com/venueflow/venueflow/pkg/store"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds database configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN builds the pgx-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LoadConfigFromEnv loads database configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("DB_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxOpen, _ := strconv.Atoi(getEnvOrDefault("DB_MAX_OPEN_CONNS", "10"))
	maxIdle, _ := strconv.Atoi(getEnvOrDefault("DB_MAX_IDLE_CONNS", "5"))

	return Config{
		Host:            getEnvOrDefault("DB_HOST", "localhost"),
		Port:            port,
		User:            getEnvOrDefault("DB_USER", "venueflow"),
		Password:        os.Getenv("DB_PASSWORD"),
		Database:        getEnvOrDefault("DB_NAME", "venueflow"),
		SSLMode:         getEnvOrDefault("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Store is the Postgres TenantStore.
type Store struct {
	db *stdsql.DB
}

var _ store.TenantStore = (*Store)(nil)

// New opens a pooled connection, pings it, and applies migrations.
func New(ctx context.Context, cfg Config) (*Store, error) {
	db, err := stdsql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewFromDB wraps an existing connection (useful for tests) and applies
// migrations.
func NewFromDB(db *stdsql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func runMigrations(db *stdsql.DB) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying connection for health checks.
func (s *Store) DB() *stdsql.DB { return s.db }

func (s *Store) GetClient(ctx context.Context, tenantID, email string) (*models.Client, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM clients WHERE tenant_id = $1 AND email = $2`,
		tenantID, strings.ToLower(email)).Scan(&doc)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query client: %w", err)
	}
	var c models.Client
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("failed to decode client: %w", err)
	}
	return &c, nil
}

func (s *Store) PutClient(ctx context.Context, client *models.Client) error {
	doc, err := json.Marshal(client)
	if err != nil {
		return fmt.Errorf("failed to encode client: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO clients (tenant_id, email, doc, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (tenant_id, email) DO UPDATE SET doc = $3, updated_at = now()`,
		client.TenantID, strings.ToLower(client.Email), doc)
	if err != nil {
		return fmt.Errorf("failed to upsert client: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, tenantID, eventID string) (*models.Event, error) {
	return s.queryEvent(ctx,
		`SELECT doc FROM events WHERE tenant_id = $1 AND event_id = $2`,
		tenantID, eventID)
}

func (s *Store) queryEvent(ctx context.Context, query string, args ...any) (*models.Event, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&doc)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	var e models.Event
	if err := json.Unmarshal(doc, &e); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}
	return &e, nil
}

func (s *Store) PutEvent(ctx context.Context, event *models.Event) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (tenant_id, event_id, thread_id, client_email, status, doc, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (tenant_id, event_id)
		 DO UPDATE SET thread_id = $3, client_email = $4, status = $5, doc = $6, updated_at = now()`,
		event.TenantID, event.EventID, event.ThreadID,
		strings.ToLower(event.ClientID), string(event.Status), doc)
	if err != nil {
		return fmt.Errorf("failed to upsert event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, tenantID string) ([]*models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM events WHERE tenant_id = $1 ORDER BY updated_at`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var out []*models.Event
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		var e models.Event
		if err := json.Unmarshal(doc, &e); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *Store) FindEventByThread(ctx context.Context, tenantID, threadID string) (*models.Event, error) {
	return s.queryEvent(ctx,
		`SELECT doc FROM events WHERE tenant_id = $1 AND thread_id = $2
		 ORDER BY updated_at DESC LIMIT 1`,
		tenantID, threadID)
}

func (s *Store) LatestEventForClient(ctx context.Context, tenantID, email string) (*models.Event, error) {
	return s.queryEvent(ctx,
		`SELECT doc FROM events WHERE tenant_id = $1 AND client_email = $2
		 ORDER BY updated_at DESC LIMIT 1`,
		tenantID, strings.ToLower(email))
}

func (s *Store) GetTask(ctx context.Context, tenantID, taskID string) (*models.Task, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM tasks WHERE tenant_id = $1 AND task_id = $2`,
		tenantID, taskID).Scan(&doc)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	var t models.Task
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	return &t, nil
}

func (s *Store) PutTask(ctx context.Context, task *models.Task) error {
	doc, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}
	var resolved any
	if task.ResolvedAt != nil {
		resolved = *task.ResolvedAt
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (tenant_id, task_id, signature, status, created_at, resolved_at, doc)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (tenant_id, task_id)
		 DO UPDATE SET signature = $3, status = $4, resolved_at = $6, doc = $7`,
		task.TenantID, task.TaskID, task.Signature, string(task.Status),
		task.CreatedAt, resolved, doc)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, tenantID string, status models.TaskStatus) ([]*models.Task, error) {
	query := `SELECT doc FROM tasks WHERE tenant_id = $1 ORDER BY created_at`
	args := []any{tenantID}
	if status != "" {
		query = `SELECT doc FROM tasks WHERE tenant_id = $1 AND status = $2 ORDER BY created_at`
		args = append(args, string(status))
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		var t models.Task
		if err := json.Unmarshal(doc, &t); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *Store) FindTaskBySignature(ctx context.Context, tenantID, signature string) (*models.Task, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM tasks WHERE tenant_id = $1 AND signature = $2`,
		tenantID, signature).Scan(&doc)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task by signature: %w", err)
	}
	var t models.Task
	if err := json.Unmarshal(doc, &t); err != nil {
		return nil, fmt.Errorf("failed to decode task: %w", err)
	}
	return &t, nil
}

func (s *Store) UpdateTaskStatus(ctx context.Context, tenantID, taskID string, from, to models.TaskStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks
		 SET status = $4, resolved_at = now(),
		     doc = jsonb_set(jsonb_set(doc, '{status}', to_jsonb($4::text)), '{resolved_at}', to_jsonb(now()))
		 WHERE tenant_id = $1 AND task_id = $2 AND status = $3`,
		tenantID, taskID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		// Either missing or the compare-and-set lost.
		if _, getErr := s.GetTask(ctx, tenantID, taskID); errors.Is(getErr, store.ErrNotFound) {
			return store.ErrNotFound
		}
		return store.ErrConcurrentModification
	}
	return nil
}

func (s *Store) DeleteTasksResolvedBefore(ctx context.Context, tenantID string, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks
		 WHERE tenant_id = $1 AND status <> 'pending' AND resolved_at < $2`,
		tenantID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete resolved tasks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(n), nil
}

func (s *Store) GetSettings(ctx context.Context, tenantID string) (*config.TenantSettings, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT settings FROM tenant_config WHERE tenant_id = $1`, tenantID).Scan(&doc)
	if errors.Is(err, stdsql.ErrNoRows) || (err == nil && doc == nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	var settings config.TenantSettings
	if err := json.Unmarshal(doc, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

func (s *Store) PutSettings(ctx context.Context, tenantID string, settings *config.TenantSettings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tenant_config (tenant_id, settings) VALUES ($1, $2)
		 ON CONFLICT (tenant_id) DO UPDATE SET settings = $2`,
		tenantID, doc)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

func (s *Store) GetCatalog(ctx context.Context, tenantID string) (*catalog.Catalog, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT catalog FROM tenant_config WHERE tenant_id = $1`, tenantID).Scan(&doc)
	if errors.Is(err, stdsql.ErrNoRows) || (err == nil && doc == nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	var cat catalog.Catalog
	if err := json.Unmarshal(doc, &cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return &cat, nil
}

func (s *Store) PutCatalog(ctx context.Context, tenantID string, cat *catalog.Catalog) error {
	doc, err := json.Marshal(cat)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tenant_config (tenant_id, catalog) VALUES ($1, $2)
		 ON CONFLICT (tenant_id) DO UPDATE SET catalog = $2`,
		tenantID, doc)
	if err != nil {
		return fmt.Errorf("failed to upsert catalog: %w", err)
	}
	return nil
}

func (s *Store) GetPrompts(ctx context.Context, tenantID string) (map[string]*config.PromptOverride, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT prompts FROM tenant_config WHERE tenant_id = $1`, tenantID).Scan(&doc)
	if errors.Is(err, stdsql.ErrNoRows) {
		return map[string]*config.PromptOverride{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query prompts: %w", err)
	}
	out := make(map[string]*config.PromptOverride)
	if doc != nil {
		if err := json.Unmarshal(doc, &out); err != nil {
			return nil, fmt.Errorf("failed to decode prompts: %w", err)
		}
	}
	return out, nil
}

func (s *Store) PutPrompt(ctx context.Context, tenantID string, prompt *config.PromptOverride) error {
	doc, err := json.Marshal(prompt)
	if err != nil {
		return fmt.Errorf("failed to encode prompt: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tenant_config (tenant_id, prompts)
		 VALUES ($1, jsonb_build_object($2::text, $3::jsonb))
		 ON CONFLICT (tenant_id)
		 DO UPDATE SET prompts = tenant_config.prompts || jsonb_build_object($2::text, $3::jsonb)`,
		tenantID, prompt.Key, doc)
	if err != nil {
		return fmt.Errorf("failed to upsert prompt: %w", err)
	}
	return nil
}
