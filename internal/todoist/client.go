// Package todoist is the task-store client. Every call goes through one FIFO
// queue that dispatches a single request at a time, spaced by a minimum
// interval, and every response is validated before it is trusted.
package todoist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/josephgoksu/TodoChat/internal/validation"
	"github.com/josephgoksu/TodoChat/models"
)

// DefaultMinInterval is the default spacing between two dispatched requests.
const DefaultMinInterval = 500 * time.Millisecond

// Client is a queued, rate-limited task-store client. It is safe for concurrent use.
type Client struct {
	backend   Backend
	queue     *requestQueue
	validator *validation.Validator
	metrics   *Metrics
	logger    *slog.Logger
}

type options struct {
	minInterval time.Duration
	buffer      int
	validator   *validation.Validator
	metrics     *Metrics
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithMinInterval sets the minimum time between two dispatched requests.
func WithMinInterval(d time.Duration) Option {
	return func(o *options) { o.minInterval = d }
}

// WithQueueSize sets how many calls may wait before callers block.
func WithQueueSize(n int) Option {
	return func(o *options) { o.buffer = n }
}

// WithValidator shares a validator instance.
func WithValidator(v *validation.Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithMetrics records request metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewClient creates a client and starts its queue worker. Call Close to stop it.
func NewClient(b Backend, opts ...Option) *Client {
	o := options{minInterval: DefaultMinInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.validator == nil {
		o.validator = validation.New()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Client{
		backend:   b,
		queue:     newRequestQueue(o.minInterval, o.buffer, o.metrics),
		validator: o.validator,
		metrics:   o.metrics,
		logger:    o.logger.With("component", "todoist"),
	}
}

// Close stops the queue. Calls still waiting fail with ErrClientClosed.
func (c *Client) Close() error {
	c.queue.close()
	return nil
}

// GetTasks lists open tasks whose content contains filter (case-insensitive).
// An empty filter returns every task.
func (c *Client) GetTasks(ctx context.Context, filter string) ([]models.Task, error) {
	data, err := c.call(ctx, OpGetTasks, GetTasksRequest{Filter: filter})
	if err != nil {
		return nil, err
	}

	var tasks []models.Task
	if data != nil {
		if err := json.Unmarshal(data, &tasks); err != nil {
			c.metrics.Requests.WithLabelValues(OpGetTasks, outcomeInvalid).Inc()
			return nil, fmt.Errorf("%s: %w: %v", OpGetTasks, ErrInvalidResponse, err)
		}
	}
	if err := c.validator.ValidateTasks(tasks); err != nil {
		c.metrics.Requests.WithLabelValues(OpGetTasks, outcomeInvalid).Inc()
		return nil, fmt.Errorf("%s: %w: %v", OpGetTasks, ErrInvalidResponse, err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return FilterByContent(tasks, filter), nil
}

// SearchTasks is GetTasks with a content filter.
func (c *Client) SearchTasks(ctx context.Context, query string) ([]models.Task, error) {
	return c.GetTasks(ctx, query)
}

// CreateTask validates the payload and creates the task.
func (c *Client) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	if err := c.validator.ValidateTaskCreation(in); err != nil {
		return models.Task{}, err
	}

	data, err := c.call(ctx, OpCreateTask, in)
	if err != nil {
		return models.Task{}, err
	}
	if data == nil {
		c.metrics.Requests.WithLabelValues(OpCreateTask, outcomeInvalid).Inc()
		return models.Task{}, fmt.Errorf("%s: %w: missing task data", OpCreateTask, ErrInvalidResponse)
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		c.metrics.Requests.WithLabelValues(OpCreateTask, outcomeInvalid).Inc()
		return models.Task{}, fmt.Errorf("%s: %w: %v", OpCreateTask, ErrInvalidResponse, err)
	}
	if err := c.validator.ValidateTask(task); err != nil {
		c.metrics.Requests.WithLabelValues(OpCreateTask, outcomeInvalid).Inc()
		return models.Task{}, fmt.Errorf("%s: %w: %v", OpCreateTask, ErrInvalidResponse, err)
	}
	c.logger.Info("task created", "id", task.ID)
	return task, nil
}

// UpdateTask changes fields of an existing task.
func (c *Client) UpdateTask(ctx context.Context, id string, upd models.TaskUpdate) error {
	if err := c.validator.ValidateTaskUpdate(id, upd); err != nil {
		return err
	}
	_, err := c.call(ctx, OpUpdateTask, UpdateTaskRequest{TaskID: id, Updates: upd})
	if err == nil {
		c.logger.Info("task updated", "id", id)
	}
	return err
}

// CompleteTask closes a task.
func (c *Client) CompleteTask(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%s: task id is required", OpCompleteTask)
	}
	_, err := c.call(ctx, OpCompleteTask, CompleteTaskRequest{TaskID: id})
	if err == nil {
		c.logger.Info("task completed", "id", id)
	}
	return err
}

// call runs one operation through the queue and returns the envelope data (nil when absent).
func (c *Client) call(ctx context.Context, op string, payload any) (json.RawMessage, error) {
	start := time.Now()
	res := c.queue.do(ctx, func(ctx context.Context) ([]byte, error) {
		return c.backend.Call(ctx, op, payload)
	})
	if res.dispatched {
		c.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}

	if res.err != nil {
		if !res.dispatched {
			c.metrics.Requests.WithLabelValues(op, outcomeSkipped).Inc()
			if errors.Is(res.err, ErrClientClosed) {
				return nil, res.err
			}
			return nil, fmt.Errorf("%s: %w", op, res.err)
		}
		err := classify(op, res.err.Error())
		c.record(op, err)
		c.logger.Warn("task store call failed", "op", op, "error", res.err)
		return nil, err
	}

	env, err := c.validator.ValidateEnvelope(res.data)
	if err != nil {
		c.metrics.Requests.WithLabelValues(op, outcomeInvalid).Inc()
		c.logger.Warn("malformed task store response", "op", op, "error", err)
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidResponse, err)
	}
	if !env.OK() {
		err := classify(op, env.Error)
		c.record(op, err)
		c.logger.Warn("task store reported failure", "op", op, "error", env.Error)
		return nil, err
	}

	c.metrics.Requests.WithLabelValues(op, outcomeSuccess).Inc()
	if !env.HasData() {
		return nil, nil
	}
	return env.Data, nil
}

func (c *Client) record(op string, err error) {
	outcome := outcomeError
	if errors.Is(err, ErrRateLimited) {
		outcome = outcomeRateLimited
	}
	c.metrics.Requests.WithLabelValues(op, outcome).Inc()
}
