package jsonstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/models"
	"github.com/venueflow/venueflow/pkg/store"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestClientRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.GetClient(ctx, "t1", "anna@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	client := &models.Client{
		TenantID: "t1",
		Email:    "Anna@Example.com",
		Name:     "Anna",
		Status:   models.StatusLead,
	}
	require.NoError(t, s.PutClient(ctx, client))

	got, err := s.GetClient(ctx, "t1", "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name, "email lookup is case-insensitive")

	_, err = s.GetClient(ctx, "t2", "anna@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound, "tenants are isolated")
}

func TestEventRoundTripAndThreadLookup(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	ev := &models.Event{
		EventID:     "ev1",
		TenantID:    "t1",
		ClientID:    "anna@example.com",
		ThreadID:    "th1",
		CurrentStep: models.StepDate,
		Status:      models.StatusLead,
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.PutEvent(ctx, ev))

	got, err := s.GetEvent(ctx, "t1", "ev1")
	require.NoError(t, err)
	assert.Equal(t, models.StepDate, got.CurrentStep)

	// Update in place, not append.
	got.CurrentStep = models.StepRoom
	got.UpdatedAt = time.Now().UTC().Add(time.Minute)
	require.NoError(t, s.PutEvent(ctx, got))

	all, err := s.ListEvents(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	byThread, err := s.FindEventByThread(ctx, "t1", "th1")
	require.NoError(t, err)
	assert.Equal(t, models.StepRoom, byThread.CurrentStep)

	latest, err := s.LatestEventForClient(ctx, "t1", "ANNA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ev1", latest.EventID)

	_, err = s.FindEventByThread(ctx, "t1", "th-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLatestEventPicksMostRecent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"ev1", "ev2", "ev3"} {
		require.NoError(t, s.PutEvent(ctx, &models.Event{
			EventID:   id,
			TenantID:  "t1",
			ClientID:  "anna@example.com",
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	latest, err := s.LatestEventForClient(ctx, "t1", "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ev3", latest.EventID)
}

func TestTaskLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	task := &models.Task{
		TaskID:    "task1",
		TenantID:  "t1",
		EventID:   "ev1",
		ThreadID:  "th1",
		Category:  models.TaskOfferMessage,
		Status:    models.TaskPending,
		DraftBody: "offer text",
		Signature: models.TaskSignature("th1", models.TaskOfferMessage, "offer text"),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.PutTask(ctx, task))

	bySig, err := s.FindTaskBySignature(ctx, "t1", task.Signature)
	require.NoError(t, err)
	assert.Equal(t, "task1", bySig.TaskID)

	pending, err := s.ListTasks(ctx, "t1", models.TaskPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.NoError(t, s.UpdateTaskStatus(ctx, "t1", "task1", models.TaskPending, models.TaskApproved))

	err = s.UpdateTaskStatus(ctx, "t1", "task1", models.TaskPending, models.TaskRejected)
	assert.ErrorIs(t, err, store.ErrConcurrentModification, "compare-and-set loses the second race")

	err = s.UpdateTaskStatus(ctx, "t1", "missing", models.TaskPending, models.TaskApproved)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteTasksResolvedBefore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	old := time.Now().UTC().Add(-100 * time.Hour)
	recent := time.Now().UTC()

	mk := func(id string, status models.TaskStatus, resolvedAt *time.Time) *models.Task {
		return &models.Task{
			TaskID: id, TenantID: "t1", Status: status,
			Signature: id, ResolvedAt: resolvedAt, CreatedAt: old,
		}
	}
	require.NoError(t, s.PutTask(ctx, mk("stale-old", models.TaskApproved, &old)))
	require.NoError(t, s.PutTask(ctx, mk("resolved-recent", models.TaskRejected, &recent)))
	require.NoError(t, s.PutTask(ctx, mk("still-pending", models.TaskPending, nil)))

	removed, err := s.DeleteTasksResolvedBefore(ctx, "t1", time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.GetTask(ctx, "t1", "stale-old")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetTask(ctx, "t1", "still-pending")
	assert.NoError(t, err)
}

func TestConfigRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.GetSettings(ctx, "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	settings := &config.TenantSettings{HILAllReplies: true}
	require.NoError(t, s.PutSettings(ctx, "t1", settings))
	got, err := s.GetSettings(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.HILAllReplies)

	cat := &catalog.Catalog{Rooms: []catalog.Room{{ID: "room-a", Name: "Room Alpha", CapacityMax: 50}}}
	require.NoError(t, s.PutCatalog(ctx, "t1", cat))
	gotCat, err := s.GetCatalog(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Room Alpha", gotCat.Rooms[0].Name)

	require.NoError(t, s.PutPrompt(ctx, "t1", &config.PromptOverride{Key: "offer_intro", Value: "v1"}))
	prompts, err := s.GetPrompts(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "v1", prompts["offer_intro"].Value)
}

func TestPersistenceSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s1.PutEvent(ctx, &models.Event{EventID: "ev1", TenantID: "t1", ChosenDate: "2026-06-25"}))
	require.NoError(t, s1.Close())

	s2, err := New(dir)
	require.NoError(t, err)
	got, err := s2.GetEvent(ctx, "t1", "ev1")
	require.NoError(t, err)
	assert.Equal(t, "2026-06-25", got.ChosenDate)
}

func TestGetReturnsCopies(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.PutEvent(ctx, &models.Event{EventID: "ev1", TenantID: "t1", CurrentStep: models.StepDate}))

	got, err := s.GetEvent(ctx, "t1", "ev1")
	require.NoError(t, err)
	got.CurrentStep = models.StepConfirmation

	again, err := s.GetEvent(ctx, "t1", "ev1")
	require.NoError(t, err)
	assert.Equal(t, models.StepDate, again.CurrentStep)
}
