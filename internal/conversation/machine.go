// Package conversation tracks where a chat session is in its dialogue: the
// current state, the recent transitions and the bounded message window.
package conversation

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
)

// State is the dialogue state of a session
type State string

const (
	StateIdle                    State = "idle"
	StateAwaitingConfirmation    State = "awaiting_confirmation"     // Waiting for confirm/cancel or a priority pick
	StateAwaitingClarification   State = "awaiting_clarification"    // Several tasks matched, waiting for a narrower name
	StateProcessingTask          State = "processing_task"           // One task operation in flight
	StateProcessingMultipleTasks State = "processing_multiple_tasks" // Batch creation in flight
)

// Trigger is an event that moves the machine between states
type Trigger string

const (
	TriggerAmbiguity          Trigger = "ambiguity"
	TriggerActionable         Trigger = "actionable"
	TriggerActionableMultiple Trigger = "actionable_multiple"
	TriggerClarify            Trigger = "clarify"
	TriggerConfirm            Trigger = "confirm"
	TriggerCancel             Trigger = "cancel"
	TriggerDone               Trigger = "done"
	TriggerReset              Trigger = "reset"
)

// HistorySize is the number of transitions kept for diagnostics.
const HistorySize = 10

// ErrInvalidTransition is returned when a trigger is not allowed from the current state.
var ErrInvalidTransition = errors.New("invalid state transition")

var transitions = map[State]map[Trigger]State{
	StateIdle: {
		TriggerAmbiguity:          StateAwaitingConfirmation,
		TriggerActionable:         StateProcessingTask,
		TriggerActionableMultiple: StateProcessingMultipleTasks,
		TriggerClarify:            StateAwaitingClarification,
	},
	StateAwaitingConfirmation: {
		TriggerConfirm:            StateProcessingTask,
		TriggerCancel:             StateIdle,
		TriggerAmbiguity:          StateAwaitingConfirmation,
		TriggerActionable:         StateProcessingTask,
		TriggerActionableMultiple: StateProcessingMultipleTasks,
		TriggerClarify:            StateAwaitingClarification,
	},
	StateAwaitingClarification: {
		TriggerAmbiguity:          StateAwaitingConfirmation,
		TriggerActionable:         StateProcessingTask,
		TriggerActionableMultiple: StateProcessingMultipleTasks,
		TriggerClarify:            StateAwaitingClarification,
		TriggerCancel:             StateIdle,
	},
	StateProcessingTask: {
		TriggerDone: StateIdle,
	},
	StateProcessingMultipleTasks: {
		TriggerDone: StateIdle,
	},
}

var (
	confirmations = []string{"yes", "y", "ok", "okay", "sure", "proceed", "create anyway", "do it"}
	cancellations = []string{"no", "n", "cancel", "stop", "abort", "nevermind", "never mind"}

	artifactPattern = regexp.MustCompile(`(?is)^\s*(?:create\s+anyway|proceed|yes\s*,)\s*(.+)$`)
)

// Transition is one recorded state change.
type Transition struct {
	From    State     `json:"from"`
	To      State     `json:"to"`
	Trigger Trigger   `json:"trigger"`
	At      time.Time `json:"at"`
}

// StateContext carries what the machine knows about the current exchange.
type StateContext struct {
	PreviousState State             `json:"previousState"`
	PendingAction string            `json:"pendingAction,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Snapshot is the persisted form of a Machine.
type Snapshot struct {
	State   State        `json:"state"`
	Context StateContext `json:"context"`
}

// InputAnalysis is the classification of one user message.
type InputAnalysis struct {
	Input          string `json:"input"`    // what downstream stages should see
	Original       string `json:"original"` // as typed
	IsConfirmation bool   `json:"isConfirmation"`
	IsCancel       bool   `json:"isCancel"`
	Filtered       bool   `json:"filtered"` // a stale confirmation prefix was stripped
}

// Machine is the dialogue state machine. It is safe for concurrent use.
type Machine struct {
	mu      sync.Mutex
	state   State
	ctx     StateContext
	history []Transition
	now     func() time.Time
	logger  *slog.Logger
}

// NewMachine creates a machine in the idle state.
func NewMachine(logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		state:  StateIdle,
		ctx:    StateContext{PreviousState: StateIdle},
		now:    time.Now,
		logger: logger.With("component", "state_machine"),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Context returns a copy of the state context.
func (m *Machine) Context() StateContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.ctx
	c.Metadata = maps.Clone(m.ctx.Metadata)
	return c
}

// Fire applies a trigger. Disallowed triggers return ErrInvalidTransition and leave the state unchanged.
func (m *Machine) Fire(t Trigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var next State
	if t == TriggerReset {
		next = StateIdle
	} else {
		to, ok := transitions[m.state][t]
		if !ok {
			return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, t, m.state)
		}
		next = to
	}

	m.record(t, next)
	// The pending action tag only describes an open question.
	if next != StateAwaitingConfirmation {
		m.ctx.PendingAction = ""
	}
	if t == TriggerReset {
		m.ctx.Metadata = nil
	}
	return nil
}

// Reset forces the machine back to idle and clears the pending action.
func (m *Machine) Reset() {
	_ = m.Fire(TriggerReset)
}

func (m *Machine) record(t Trigger, next State) {
	tr := Transition{From: m.state, To: next, Trigger: t, At: m.now()}
	m.history = append(m.history, tr)
	if len(m.history) > HistorySize {
		m.history = slices.Delete(m.history, 0, len(m.history)-HistorySize)
	}
	m.ctx.PreviousState = m.state
	m.state = next
	m.logger.Debug("state transition", "from", tr.From, "to", tr.To, "trigger", t)
}

// SetPendingAction tags what the machine is waiting on, e.g. "duplicate" or "priority".
func (m *Machine) SetPendingAction(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx.PendingAction = action
}

// SetMetadata stores a free-form value in the state context.
func (m *Machine) SetMetadata(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx.Metadata == nil {
		m.ctx.Metadata = make(map[string]string)
	}
	m.ctx.Metadata[key] = value
}

// History returns the recorded transitions, oldest first.
func (m *Machine) History() []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history)
}

// Snapshot returns the persisted form of the machine.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{State: m.State(), Context: m.Context()}
}

// Restore loads a snapshot. History is not restored.
func (m *Machine) Restore(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := transitions[s.State]; !ok {
		s.State = StateIdle
	}
	m.state = s.State
	m.ctx = s.Context
	m.ctx.Metadata = maps.Clone(s.Context.Metadata)
	if m.ctx.PreviousState == "" {
		m.ctx.PreviousState = StateIdle
	}
}

// Analyze classifies a message as confirmation, cancellation or fresh input.
// Stale confirmation prefixes ("create anyway X") are stripped only when the
// machine is, or just was, awaiting confirmation.
func (m *Machine) Analyze(input string) InputAnalysis {
	a := InputAnalysis{
		Input:          input,
		Original:       input,
		IsConfirmation: IsConfirmation(input),
		IsCancel:       IsCancel(input),
	}
	if a.IsConfirmation || a.IsCancel {
		return a
	}

	m.mu.Lock()
	awaiting := m.state == StateAwaitingConfirmation || m.ctx.PreviousState == StateAwaitingConfirmation
	m.mu.Unlock()
	if !awaiting {
		return a
	}

	if match := artifactPattern.FindStringSubmatch(input); match != nil {
		if rest := strings.TrimSpace(match[1]); rest != "" {
			a.Input = rest
			a.Filtered = true
			m.logger.Debug("filtered confirmation artifact", "original", input, "forwarded", rest)
		}
	}
	return a
}

// IsConfirmation reports whether the text is exactly one of the confirmation words.
func IsConfirmation(text string) bool {
	return slices.Contains(confirmations, normalize(text))
}

// IsCancel reports whether the text is exactly one of the cancellation words.
func IsCancel(text string) bool {
	return slices.Contains(cancellations, normalize(text))
}

// normalize lowercases, collapses inner whitespace and drops trailing "." or "!".
func normalize(text string) string {
	s := strings.ToLower(strings.Join(strings.Fields(text), " "))
	return strings.TrimRight(s, ".!")
}
