// Package session is the application root. It builds every pipeline component
// from configuration, owns the conversation context and persists it after each
// change.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/josephgoksu/TodoChat/internal/assistant"
	"github.com/josephgoksu/TodoChat/internal/config"
	"github.com/josephgoksu/TodoChat/internal/conversation"
	"github.com/josephgoksu/TodoChat/internal/intent"
	"github.com/josephgoksu/TodoChat/internal/llm"
	"github.com/josephgoksu/TodoChat/internal/logger"
	"github.com/josephgoksu/TodoChat/internal/sanitize"
	"github.com/josephgoksu/TodoChat/internal/todoist"
	"github.com/josephgoksu/TodoChat/internal/validation"
	"github.com/josephgoksu/TodoChat/models"
	"github.com/josephgoksu/TodoChat/store"
	"github.com/josephgoksu/TodoChat/types"
	"github.com/prometheus/client_golang/prometheus"
)

// WelcomeMessage seeds a fresh conversation.
const WelcomeMessage = "Hi! I'm your Todoist assistant. Tell me what you need to get done, or ask me to list your tasks."

const persistTimeout = 5 * time.Second

// Config is everything New needs to build a session.
type Config struct {
	App types.AppConfig
	LLM llm.Config
}

// Session is one chat session. Send may be called concurrently; a turn that
// arrives while another is running is dropped by the orchestrator.
type Session struct {
	orch      *assistant.Orchestrator
	tasks     assistant.TaskStore
	kv        store.Store
	key       string
	validator *validation.Validator
	history   int
	logger    *slog.Logger
	closers   []io.Closer

	// mu guards conv. It is never held across a task-store or LLM call.
	mu   sync.Mutex
	conv *conversation.Context
}

type options struct {
	kv       store.Store
	tasks    assistant.TaskStore
	analyzer intent.Analyzer
	logger   *slog.Logger
	registry prometheus.Registerer
}

// Option overrides a component New would otherwise build from config.
type Option func(*options)

// WithStore uses kv for persistence instead of session.store.
func WithStore(kv store.Store) Option {
	return func(o *options) { o.kv = kv }
}

// WithTaskStore uses t instead of a Todoist client.
func WithTaskStore(t assistant.TaskStore) Option {
	return func(o *options) { o.tasks = t }
}

// WithAnalyzer uses a instead of the configured intent analyzer.
func WithAnalyzer(a intent.Analyzer) Option {
	return func(o *options) { o.analyzer = a }
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry registers the task-store client metrics with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// New builds the pipeline and loads the persisted conversation.
func New(ctx context.Context, cfg Config, opts ...Option) (*Session, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	v := validation.New()

	s := &Session{
		key:       cfg.App.Session.Key,
		validator: v,
		history:   cfg.App.Intent.ContextMessages,
		logger:    log.With("component", "session"),
	}
	if s.key == "" {
		s.key = config.DefaultSessionKey
	}

	kv := o.kv
	if kv == nil {
		var err error
		kv, err = store.Open(ctx, store.Options{
			Kind:     cfg.App.Session.Store,
			Dir:      cfg.App.Session.Dir,
			RedisURL: cfg.App.Session.RedisURL,
		})
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
	}
	s.kv = kv
	s.closers = append(s.closers, kv)

	tasks := o.tasks
	if tasks == nil {
		client, err := newTodoistClient(cfg.App.Todoist, v, o.registry, log)
		if err != nil {
			s.Close()
			return nil, err
		}
		tasks = client
		s.closers = append(s.closers, client)
	}
	s.tasks = tasks

	analyzer := o.analyzer
	if analyzer == nil {
		var err error
		analyzer, err = newAnalyzer(ctx, cfg, log)
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	conv := s.load(ctx, cfg.App.Session.MaxMessages)
	machine := conversation.NewMachine(log)
	if conv.Machine != nil {
		machine.Restore(*conv.Machine)
	}
	threshold := cfg.App.Intent.Threshold
	if threshold <= 0 {
		threshold = intent.DefaultThreshold
	}
	s.orch = assistant.New(tasks, analyzer,
		assistant.WithThreshold(threshold),
		assistant.WithMachine(machine),
		assistant.WithSanitizer(sanitize.New(sanitize.WithLogger(log))),
		assistant.WithValidator(v),
		assistant.WithLogger(log),
	)
	s.orch.RestorePending(conv.Pending)
	s.conv = conv
	return s, nil
}

func newTodoistClient(cfg types.TodoistConfig, v *validation.Validator, reg prometheus.Registerer, log *slog.Logger) (*todoist.Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	var backend todoist.Backend
	var err error
	switch cfg.Backend {
	case "proxy":
		backend, err = todoist.NewProxyBackend(cfg.ProxyURL, timeout)
	default:
		backend, err = todoist.NewRESTBackend(cfg.BaseURL, cfg.Token, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("todoist backend: %w", err)
	}

	return todoist.NewClient(backend,
		todoist.WithMinInterval(time.Duration(cfg.MinIntervalMs)*time.Millisecond),
		todoist.WithValidator(v),
		todoist.WithMetrics(todoist.NewMetrics(reg)),
		todoist.WithLogger(log),
	), nil
}

func newAnalyzer(ctx context.Context, cfg Config, log *slog.Logger) (intent.Analyzer, error) {
	if cfg.App.Intent.Mode == "heuristic" {
		return intent.NewHeuristicAnalyzer(), nil
	}

	var completer llm.Completer
	if cfg.App.LLM.Mode == "proxy" {
		proxy, err := llm.NewProxyClient(cfg.App.LLM.ProxyURL, cfg.LLM.Timeout)
		if err != nil {
			return nil, fmt.Errorf("llm proxy: %w", err)
		}
		completer = proxy
	} else {
		chat, err := llm.NewChatModel(ctx, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("create chat model: %w", err)
		}
		completer = llm.NewChatCompleter(chat)
	}

	return intent.NewRecognizer(completer,
		intent.WithLogger(log),
		intent.WithContextMessages(cfg.App.Intent.ContextMessages),
	), nil
}

// load reads the stored conversation. A missing or unreadable value gives a
// fresh context with the welcome message.
func (s *Session) load(ctx context.Context, limit int) *conversation.Context {
	raw, err := s.kv.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to load conversation, starting fresh", "error", err)
		}
		return freshContext(limit)
	}

	var conv conversation.Context
	if err := json.Unmarshal(raw, &conv); err != nil {
		s.logger.Warn("stored conversation is corrupt, starting fresh", "error", err)
		return freshContext(limit)
	}
	if limit > 0 {
		conv.MaxMessages = limit
	}
	if conv.Messages == nil {
		conv.Messages = []models.Message{}
	}
	conv.Trim()
	return &conv
}

func freshContext(limit int) *conversation.Context {
	c := conversation.NewContext(limit)
	c.Append(models.NewMessage(models.RoleAssistant, WelcomeMessage, models.StatusSent))
	return c
}

// Send runs one user turn and returns the assistant's reply. Invalid input is
// answered with the validation errors and never reaches the pipeline.
func (s *Session) Send(ctx context.Context, text string) assistant.Reply {
	input, err := s.validator.ValidateUserInput(text)
	if err != nil {
		return assistant.Reply{Kind: assistant.KindError, Text: err.Error(), Err: err}
	}
	logger.SetLastInput(input, string(s.orch.Machine().State()))

	userMsg := models.NewMessage(models.RoleUser, input, models.StatusSending)
	s.mu.Lock()
	recent := s.conv.Recent(s.history)
	s.conv.Append(userMsg)
	s.mu.Unlock()
	s.persist(ctx)

	reply := s.orch.HandleTurn(ctx, input, recent)

	s.mu.Lock()
	if reply.Ignored {
		s.setStatus(userMsg.ID, models.StatusError)
	} else {
		s.setStatus(userMsg.ID, models.StatusSent)
		s.conv.Append(models.NewMessage(models.RoleAssistant, reply.Text, models.StatusSent))
	}
	s.mu.Unlock()
	s.persist(ctx)
	return reply
}

// setStatus must be called with mu held.
func (s *Session) setStatus(id string, status models.MessageStatus) {
	if err := s.conv.SetStatus(id, status); err != nil {
		s.logger.Debug("message status not updated", "id", id, "error", err)
	}
}

// Tasks lists open tasks, optionally filtered by content.
func (s *Session) Tasks(ctx context.Context, filter string) ([]models.Task, error) {
	return s.tasks.GetTasks(ctx, filter)
}

// History returns a copy of the message window.
func (s *Session) History() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Recent(len(s.conv.Messages))
}

// State returns the current dialogue state.
func (s *Session) State() conversation.State {
	return s.orch.Machine().State()
}

// Reset clears the conversation, pending slots and dialogue state.
func (s *Session) Reset(ctx context.Context) {
	s.orch.Reset()
	s.mu.Lock()
	s.conv = freshContext(s.conv.MaxMessages)
	s.mu.Unlock()
	s.persist(ctx)
}

// persist saves the conversation. Failures are logged and otherwise ignored.
func (s *Session) persist(ctx context.Context) {
	s.mu.Lock()
	snap := s.conv.Clone()
	s.mu.Unlock()

	if p := s.orch.Pending(); !p.IsEmpty() {
		snap.Pending = p
	} else {
		snap.Pending = nil
	}
	m := s.orch.Machine().Snapshot()
	snap.Machine = &m

	raw, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("failed to encode conversation", "error", err)
		return
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.kv.Save(saveCtx, s.key, raw); err != nil {
		s.logger.Warn("failed to persist conversation", "error", err)
	}
}

// Close releases the task-store client and the session store.
func (s *Session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
