package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/compose"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/detect"
	"github.com/venueflow/venueflow/pkg/hil"
	"github.com/venueflow/venueflow/pkg/llm"
	"github.com/venueflow/venueflow/pkg/models"
	"github.com/venueflow/venueflow/pkg/snapshot"
	"github.com/venueflow/venueflow/pkg/store"
	"github.com/venueflow/venueflow/pkg/store/jsonstore"
	"github.com/venueflow/venueflow/pkg/workflow"
)

type testEnv struct {
	engine *gin.Engine
	store  store.TenantStore
	queue  *hil.Queue
	snaps  *snapshot.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	locks := store.NewLockRegistry()

	gateway := llm.NewGateway(&config.LLMConfig{
		DefaultProvider: "stub",
		Timeout:         2 * time.Second,
	})
	gateway.Register("stub", llm.NewStubProvider())

	snaps := snapshot.NewStore(time.Hour)
	verbalizer := compose.NewVerbalizer(gateway, snaps,
		&config.SnapshotConfig{TTL: time.Hour, SummaryThreshold: 8000})
	detector := detect.NewDetector(gateway)
	queue := hil.NewQueue(st, locks, 72*time.Hour)

	cfg := &config.Config{
		Defaults: &config.TenantSettings{
			Deposit: config.DepositPolicy{Required: true, Percentage: 20, DeadlineDays: 14},
		},
		Queue:    &config.QueueConfig{TaskRetention: 72 * time.Hour},
		LLM:      &config.LLMConfig{DefaultProvider: "stub"},
		Snapshot: &config.SnapshotConfig{TTL: time.Hour, SummaryThreshold: 8000},
	}

	router := workflow.NewRouter(st, locks, detector, verbalizer, queue,
		workflow.NewStoreCalendar(st, nil), nil, cfg)
	queue.SetContinuer(router)

	require.NoError(t, st.PutCatalog(context.Background(), "t1", &catalog.Catalog{
		Rooms: []catalog.Room{
			{ID: "room-a", Name: "Room Alpha", CapacityMax: 50, UnitPrice: 500},
		},
	}))

	return &testEnv{
		engine: NewServer(router, queue, st, snaps).Engine(),
		store:  st,
		queue:  queue,
		snaps:  snaps,
	}
}

// do performs one request against the engine with the tenant header set.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TenantHeader, "t1")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestTenantHeaderRequired(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks/pending", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), TenantHeader)
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)

	t.Run("booking shortcut round trip", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/messages", gin.H{
			"thread_id":    "th1",
			"client_email": "anna@example.com",
			"body":         "We'd like to book Room Alpha for 40 people on 2030-06-25",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var result workflow.TurnResult
		decode(t, w, &result)
		assert.NotEmpty(t, result.EventID)
		assert.Equal(t, "th1", result.ThreadID)
		assert.Contains(t, result.Response, "Room Alpha is available on 2030-06-25")
		require.NotNil(t, result.Progress)
	})

	t.Run("missing fields are a 400", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/messages", gin.H{
			"client_email": "anna@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed email is a 400", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/messages", gin.H{
			"thread_id":    "th1",
			"client_email": "not-an-email",
			"body":         "hello",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStartConversation(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/v1/conversations", gin.H{
		"client_email": "ben@example.com",
		"email_body":   "Hi, we're planning a seminar for 20 people",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result workflow.TurnResult
	decode(t, w, &result)
	assert.NotEmpty(t, result.ThreadID, "thread id is server-generated")
	assert.Contains(t, result.Response, "Thank you for your inquiry")
}

func TestEventEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/messages", gin.H{
		"thread_id":    "th-ev",
		"client_email": "carla@example.com",
		"body":         "We'd like to book Room Alpha for 40 people on 2030-06-25",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var result workflow.TurnResult
	decode(t, w, &result)
	eventID := result.EventID

	t.Run("get event", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/events/"+eventID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var event models.Event
		decode(t, w, &event)
		assert.Equal(t, "room-a", event.LockedRoomID)
	})

	t.Run("unknown event is a 404", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/events/no-such-event", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("progress", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/events/"+eventID+"/progress", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var p workflow.Progress
		decode(t, w, &p)
		assert.NotEmpty(t, p.Stage)
		assert.NotZero(t, p.Percent)
	})

	t.Run("activity filters detailed entries", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/events/"+eventID+"/activity", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var high struct {
			Activity []models.ActivityEntry `json:"activity"`
			Count    int                    `json:"count"`
		}
		decode(t, w, &high)

		w = env.do(t, http.MethodGet, "/api/v1/events/"+eventID+"/activity?granularity=detailed", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var detailed struct {
			Activity []models.ActivityEntry `json:"activity"`
			Count    int                    `json:"count"`
		}
		decode(t, w, &detailed)
		assert.GreaterOrEqual(t, detailed.Count, high.Count)
	})

	t.Run("cancel requires the literal confirmation", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/cancel", gin.H{
			"confirmation": "yes please",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cancel archives the event", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/events/"+eventID+"/cancel", gin.H{
			"confirmation": "CANCEL",
			"reason":       "client request",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), string(models.StatusCancelled))
	})

	t.Run("deposit pay for an unknown event is a 404", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/deposit/pay", gin.H{
			"event_id": "no-such-event",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTaskEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.PutEvent(ctx, &models.Event{
		EventID:     "ev1",
		TenantID:    "t1",
		ClientID:    "dana@example.com",
		ThreadID:    "th-task",
		CurrentStep: models.StepOffer,
	}))
	task, created, err := env.queue.Enqueue(ctx, "t1", "ev1", "th-task",
		models.TaskManagerRequest, models.Draft{Body: "Please review this request."}, "")
	require.NoError(t, err)
	require.True(t, created)

	t.Run("pending list", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/tasks/pending", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out struct {
			Tasks []*models.Task `json:"tasks"`
			Count int            `json:"count"`
		}
		decode(t, w, &out)
		require.Equal(t, 1, out.Count)
		assert.Equal(t, task.TaskID, out.Tasks[0].TaskID)
	})

	t.Run("approve", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/tasks/"+task.TaskID+"/approve", gin.H{
			"notes": "looks good",
		})
		require.Equal(t, http.StatusOK, w.Code)
		stored, err := env.store.GetTask(ctx, "t1", task.TaskID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskApproved, stored.Status)
	})

	t.Run("reject after approve conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/tasks/"+task.TaskID+"/reject", gin.H{
			"notes": "changed my mind",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("reject requires notes", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/tasks/"+task.TaskID+"/reject", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cleanup", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/tasks/cleanup", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "removed")
	})
}

func TestSnapshotEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id := env.snaps.Put("t1", "offer", "Offer\nDate: 2030-06-25\nTotal: 500.00 EUR")

	t.Run("own snapshot", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/v1/snapshots/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "2030-06-25")
	})

	t.Run("foreign snapshot reads as not found", func(t *testing.T) {
		other := env.snaps.Put("t2", "offer", "not yours")
		w := env.do(t, http.MethodGet, "/api/v1/snapshots/"+other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
