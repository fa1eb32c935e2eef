package todoist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/josephgoksu/TodoChat/models"
	"github.com/josephgoksu/TodoChat/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	op      string
	payload any
	at      time.Time
}

// fakeBackend answers every call with the envelope produced by respond.
type fakeBackend struct {
	mu       sync.Mutex
	calls    []recordedCall
	respond  func(op string, payload any) ([]byte, error)
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	hold     chan struct{} // when set, calls block until it is closed
}

func (f *fakeBackend) Call(_ context.Context, op string, payload any) ([]byte, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		old := f.maxSeen.Load()
		if n <= old || f.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{op: op, payload: payload, at: time.Now()})
	hold := f.hold
	f.mu.Unlock()
	if hold != nil {
		<-hold
	}
	if f.respond == nil {
		return []byte(`{"success":true}`), nil
	}
	return f.respond(op, payload)
}

func (f *fakeBackend) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func envelope(t *testing.T, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"success": true, "data": data})
	require.NoError(t, err)
	return raw
}

func newTestClient(b Backend, opts ...Option) (*Client, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	c := NewClient(b, append([]Option{WithMinInterval(0), WithMetrics(m)}, opts...)...)
	return c, m
}

func TestClient_GetTasksFiltersCaseInsensitive(t *testing.T) {
	backend := &fakeBackend{}
	backend.respond = func(string, any) ([]byte, error) {
		return envelope(t, []models.Task{
			{ID: "1", Content: "Buy Groceries", Priority: 1},
			{ID: "2", Content: "Call mom", Priority: 2},
		}), nil
	}
	c, _ := newTestClient(backend)
	defer c.Close()

	tasks, err := c.SearchTasks(context.Background(), "groceries")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "1", tasks[0].ID)

	all, err := c.GetTasks(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	calls := backend.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, GetTasksRequest{Filter: "groceries"}, calls[0].payload)
}

func TestClient_CreateTask(t *testing.T) {
	backend := &fakeBackend{}
	backend.respond = func(_ string, payload any) ([]byte, error) {
		in := payload.(models.TaskInput)
		return envelope(t, models.Task{ID: "42", Content: in.Content, Priority: *in.Priority}), nil
	}
	c, m := newTestClient(backend)
	defer c.Close()

	task, err := c.CreateTask(context.Background(), models.TaskInput{
		Content:   "Buy groceries",
		DueString: models.StringPtr("tomorrow"),
		Priority:  models.IntPtr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "42", task.ID)

	calls := backend.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, OpCreateTask, calls[0].op)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(OpCreateTask, outcomeSuccess)))
}

func TestClient_CreateTaskValidatesBeforeCalling(t *testing.T) {
	backend := &fakeBackend{}
	c, _ := newTestClient(backend)
	defer c.Close()

	_, err := c.CreateTask(context.Background(), models.TaskInput{Content: "x", Priority: models.IntPtr(5)})
	var ve *types.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Empty(t, backend.recorded())
}

func TestClient_RateLimit(t *testing.T) {
	backend := &fakeBackend{respond: func(string, any) ([]byte, error) {
		return []byte(`{"success":false,"error":"HTTP 429: Too Many Requests"}`), nil
	}}
	c, m := newTestClient(backend)
	defer c.Close()

	_, err := c.GetTasks(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, RateLimitMessage, UserMessage(err))
	assert.Contains(t, UserMessage(err), "Rate limited")
	assert.NotContains(t, UserMessage(err), "429")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(OpGetTasks, outcomeRateLimited)))

	backend.respond = func(string, any) ([]byte, error) {
		return nil, errors.New("HTTP 429: slow down")
	}
	err = c.CompleteTask(context.Background(), "1")
	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestClient_GenericFailureSurfacesRawMessage(t *testing.T) {
	backend := &fakeBackend{respond: func(string, any) ([]byte, error) {
		return []byte(`{"success":false,"error":"Task not found"}`), nil
	}}
	c, _ := newTestClient(backend)
	defer c.Close()

	err := c.UpdateTask(context.Background(), "9", models.TaskUpdate{DueString: models.StringPtr("friday")})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, "Task not found", UserMessage(err))
}

func TestClient_InvalidResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing success", `{"data":[]}`},
		{"not json", `<html>502</html>`},
		{"failure without error", `{"success":false}`},
		{"bad task", `{"success":true,"data":[{"id":"","content":"x","priority":9}]}`},
		{"wrong data type", `{"success":true,"data":{"id":"1"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{respond: func(string, any) ([]byte, error) { return []byte(tt.raw), nil }}
			c, _ := newTestClient(backend)
			defer c.Close()

			_, err := c.GetTasks(context.Background(), "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidResponse), "got %v", err)
			assert.Contains(t, err.Error(), "invalid response format")
		})
	}
}

func TestClient_CreateTaskRequiresData(t *testing.T) {
	c, _ := newTestClient(&fakeBackend{})
	defer c.Close()

	_, err := c.CreateTask(context.Background(), models.TaskInput{Content: "x"})
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestClient_NeverConcurrent(t *testing.T) {
	backend := &fakeBackend{respond: func(string, any) ([]byte, error) {
		time.Sleep(2 * time.Millisecond)
		return []byte(`{"success":true}`), nil
	}}
	c, _ := newTestClient(backend)
	defer c.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.CompleteTask(context.Background(), "1"))
		}()
	}
	wg.Wait()

	assert.Len(t, backend.recorded(), 10)
	assert.Equal(t, int32(1), backend.maxSeen.Load())
}

func TestClient_FIFOOrder(t *testing.T) {
	backend := &fakeBackend{hold: make(chan struct{})}
	c, m := newTestClient(backend)
	defer c.Close()

	var wg sync.WaitGroup
	start := func(id string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.CompleteTask(context.Background(), id)
		}()
	}

	start("first")
	require.Eventually(t, func() bool { return len(backend.recorded()) == 1 }, time.Second, time.Millisecond)

	// Enqueue one at a time so arrival order is known.
	for i, id := range []string{"a", "b", "c", "d"} {
		start(id)
		want := float64(i + 1)
		require.Eventually(t, func() bool { return testutil.ToFloat64(m.QueueDepth) == want }, time.Second, time.Millisecond)
	}
	close(backend.hold)
	wg.Wait()

	var order []string
	for _, call := range backend.recorded() {
		order = append(order, call.payload.(CompleteTaskRequest).TaskID)
	}
	assert.Equal(t, []string{"first", "a", "b", "c", "d"}, order)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueueDepth))
}

func TestClient_MinInterval(t *testing.T) {
	const interval = 40 * time.Millisecond
	backend := &fakeBackend{}
	c, _ := newTestClient(backend, WithMinInterval(interval))
	defer c.Close()

	for range 3 {
		require.NoError(t, c.CompleteTask(context.Background(), "1"))
	}
	calls := backend.recorded()
	require.Len(t, calls, 3)
	for i := 1; i < len(calls); i++ {
		gap := calls[i].at.Sub(calls[i-1].at)
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond, "gap %d was %v", i, gap)
	}
}

func TestClient_CancelledWhileQueuedIsSkipped(t *testing.T) {
	backend := &fakeBackend{hold: make(chan struct{})}
	c, m := newTestClient(backend)
	defer c.Close()

	done := make(chan error, 1)
	go func() { done <- c.CompleteTask(context.Background(), "first") }()
	require.Eventually(t, func() bool { return len(backend.recorded()) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	waiting := make(chan error, 1)
	go func() { waiting <- c.CompleteTask(ctx, "second") }()
	require.Eventually(t, func() bool { return testutil.ToFloat64(m.QueueDepth) == 1 }, time.Second, time.Millisecond)
	cancel()

	close(backend.hold)
	require.NoError(t, <-done)
	assert.ErrorIs(t, <-waiting, context.Canceled)
	assert.Len(t, backend.recorded(), 1)
}

func TestClient_Close(t *testing.T) {
	c, _ := newTestClient(&fakeBackend{})
	require.NoError(t, c.Close())

	err := c.CompleteTask(context.Background(), "1")
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "boom", UserMessage(errors.New("boom")))
	assert.Contains(t, UserMessage(types.NewValidationError(types.FieldError{Field: "content", Message: "is required"})), "content: is required")
	assert.Contains(t, UserMessage(ErrInvalidResponse), "invalid response format")
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("Buy Groceries", "groceries"))
	assert.True(t, ContainsFold("anything", ""))
	assert.False(t, ContainsFold("milk", "bread"))
}

// floorGauge remembers the lowest value the queue gauge ever reached.
type floorGauge struct {
	prometheus.Gauge
	mu       sync.Mutex
	value    float64
	smallest float64
}

func (g *floorGauge) Inc() { g.Add(1) }
func (g *floorGauge) Dec() { g.Add(-1) }

func (g *floorGauge) Add(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value += v
	g.smallest = min(g.smallest, g.value)
}

func TestClient_QueueDepthNeverNegative(t *testing.T) {
	gauge := &floorGauge{Gauge: prometheus.NewGauge(prometheus.GaugeOpts{Name: "queue_depth"})}
	m := NewMetrics(prometheus.NewRegistry())
	m.QueueDepth = gauge
	c := NewClient(&fakeBackend{}, WithMinInterval(0), WithMetrics(m))
	defer c.Close()

	for range 200 {
		require.NoError(t, c.CompleteTask(context.Background(), "1"))
	}

	gauge.mu.Lock()
	defer gauge.mu.Unlock()
	assert.Equal(t, 0.0, gauge.value)
	assert.GreaterOrEqual(t, gauge.smallest, 0.0)
}
