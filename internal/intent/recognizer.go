package intent

import (
	"context"
	"log/slog"
	"time"

	"github.com/josephgoksu/TodoChat/internal/llm"
	"github.com/josephgoksu/TodoChat/models"
)

// DefaultContextMessages is how many recent messages are sent along with the input.
const DefaultContextMessages = 6

// Analyzer classifies a message given the recent conversation. Implementations never fail;
// they return Fallback instead.
type Analyzer interface {
	Analyze(ctx context.Context, input string, recent []models.Message) Result
}

// Recognizer classifies messages with an LLM.
type Recognizer struct {
	completer       llm.Completer
	logger          *slog.Logger
	contextMessages int
	now             func() time.Time
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recognizer) { r.logger = l }
}

// WithContextMessages sets how many recent messages are sent as history.
func WithContextMessages(n int) Option {
	return func(r *Recognizer) {
		if n >= 0 {
			r.contextMessages = n
		}
	}
}

// NewRecognizer creates a Recognizer on top of a completion transport.
func NewRecognizer(c llm.Completer, opts ...Option) *Recognizer {
	r := &Recognizer{
		completer:       c,
		logger:          slog.Default(),
		contextMessages: DefaultContextMessages,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "intent")
	return r
}

// Analyze implements Analyzer. Transport errors, malformed output and contract
// violations all yield Fallback.
func (r *Recognizer) Analyze(ctx context.Context, input string, recent []models.Message) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("intent analysis panicked", "panic", p)
			res = Fallback()
		}
	}()

	if len(recent) > r.contextMessages {
		recent = recent[len(recent)-r.contextMessages:]
	}

	raw, err := r.completer.Complete(ctx, llm.Request{
		Message:      input,
		SystemPrompt: BuildSystemPrompt(r.now()),
		History:      llm.TurnsFromMessages(recent),
	})
	if err != nil {
		r.logger.Warn("intent request failed", "error", err)
		return Fallback()
	}

	res, err = Parse(raw)
	if err != nil {
		r.logger.Warn("unparsable intent response", "error", err, "raw", truncate(raw, 200))
		return Fallback()
	}
	r.logger.Debug("intent recognized", "action", res.Action, "confidence", res.Confidence)
	return res
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
