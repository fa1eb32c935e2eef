// Package assistant turns one chat message into a task operation. It holds the
// pending slots that pause creation until the user resolves a duplicate or an
// ambiguous priority, and it lets only one turn run at a time.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/josephgoksu/TodoChat/internal/conversation"
	"github.com/josephgoksu/TodoChat/internal/intent"
	"github.com/josephgoksu/TodoChat/internal/sanitize"
	"github.com/josephgoksu/TodoChat/internal/todoist"
	"github.com/josephgoksu/TodoChat/internal/validation"
	"github.com/josephgoksu/TodoChat/models"
)

// TaskStore is the task-store surface the orchestrator needs. *todoist.Client implements it.
type TaskStore interface {
	GetTasks(ctx context.Context, filter string) ([]models.Task, error)
	SearchTasks(ctx context.Context, query string) ([]models.Task, error)
	CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error)
	UpdateTask(ctx context.Context, id string, upd models.TaskUpdate) error
	CompleteTask(ctx context.Context, id string) error
}

// Orchestrator handles user turns. It is safe for concurrent use, but a turn
// arriving while another is running is dropped.
type Orchestrator struct {
	store     TaskStore
	analyzer  intent.Analyzer
	machine   *conversation.Machine
	sanitizer *sanitize.Sanitizer
	validator *validation.Validator
	threshold float64
	logger    *slog.Logger

	processing atomic.Bool

	mu        sync.Mutex
	duplicate *models.PendingTask
	priority  *models.PendingTask
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithThreshold sets the confidence an intent must exceed to be executed.
func WithThreshold(t float64) Option {
	return func(o *Orchestrator) { o.threshold = t }
}

// WithMachine shares a state machine, e.g. one restored from a snapshot.
func WithMachine(m *conversation.Machine) Option {
	return func(o *Orchestrator) { o.machine = m }
}

// WithSanitizer sets the sanitizer applied to task fields.
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(o *Orchestrator) { o.sanitizer = s }
}

// WithValidator shares a validator instance.
func WithValidator(v *validation.Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an Orchestrator.
func New(store TaskStore, analyzer intent.Analyzer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		analyzer:  analyzer,
		threshold: intent.DefaultThreshold,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.machine == nil {
		o.machine = conversation.NewMachine(o.logger)
	}
	if o.sanitizer == nil {
		o.sanitizer = sanitize.New(sanitize.WithLogger(o.logger))
	}
	if o.validator == nil {
		o.validator = validation.New()
	}
	o.logger = o.logger.With("component", "orchestrator")
	return o
}

// Machine returns the dialogue state machine.
func (o *Orchestrator) Machine() *conversation.Machine { return o.machine }

// Pending returns a copy of both pending slots.
func (o *Orchestrator) Pending() *conversation.PendingState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return &conversation.PendingState{Duplicate: clonePending(o.duplicate), Priority: clonePending(o.priority)}
}

// RestorePending replaces both pending slots, e.g. after loading a session.
func (o *Orchestrator) RestorePending(p *conversation.PendingState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p == nil {
		o.duplicate, o.priority = nil, nil
		return
	}
	o.duplicate = clonePending(p.Duplicate)
	o.priority = clonePending(p.Priority)
}

// Reset clears the pending slots and returns the machine to idle.
func (o *Orchestrator) Reset() {
	o.RestorePending(nil)
	o.machine.Reset()
}

// HandleTurn processes one user message. recent is the conversation before it.
// A call made while another turn is still running returns a Reply with
// Ignored set and has no side effects.
func (o *Orchestrator) HandleTurn(ctx context.Context, input string, recent []models.Message) (reply Reply) {
	if !o.processing.CompareAndSwap(false, true) {
		o.logger.Debug("turn ignored: another turn is in progress")
		return Reply{Ignored: true}
	}
	defer o.processing.Store(false)
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("turn panicked", "panic", r)
			o.machine.Reset()
			reply = Reply{
				Kind: KindError,
				Text: "Something went wrong while handling that message. Please try again.",
				Err:  fmt.Errorf("panic: %v", r),
			}
		}
	}()
	return o.handle(ctx, input, recent)
}

func (o *Orchestrator) handle(ctx context.Context, input string, recent []models.Message) Reply {
	analysis := o.machine.Analyze(input)

	if p := o.takePriority(analysis); p != nil {
		o.fire(conversation.TriggerConfirm)
		return o.createPending(ctx, *p)
	}
	if pending := o.Pending(); pending.Priority != nil {
		if analysis.IsCancel {
			o.clearPending()
			o.fire(conversation.TriggerCancel)
			return Reply{Kind: KindCancelled, Text: fmt.Sprintf("Okay, I won't create %s.", describePending(*pending.Priority))}
		}
		if analysis.IsConfirmation {
			return Reply{Kind: KindConfirmationNeeded, Text: priorityQuestion(*pending.Priority)}
		}
	}

	if pending := o.Pending(); pending.Duplicate != nil {
		switch {
		case analysis.IsConfirmation:
			o.clearPending()
			o.fire(conversation.TriggerConfirm)
			return o.createPending(ctx, *pending.Duplicate)
		case analysis.IsCancel:
			o.clearPending()
			o.fire(conversation.TriggerCancel)
			return Reply{Kind: KindCancelled, Text: fmt.Sprintf("Okay, I won't create %s.", describePending(*pending.Duplicate))}
		}
	}

	if analysis.IsConfirmation || analysis.IsCancel {
		if analysis.IsCancel && o.machine.State() == conversation.StateAwaitingClarification {
			o.fire(conversation.TriggerCancel)
			return Reply{Kind: KindCancelled, Text: "Okay, never mind."}
		}
		return Reply{Kind: KindMessage, Text: "There is nothing waiting for confirmation."}
	}

	res := o.analyzer.Analyze(ctx, analysis.Input, recent)
	o.logger.Debug("intent", "action", res.Action, "confidence", res.Confidence, "reasoning", res.Reasoning)
	if !res.Actionable(o.threshold) {
		return o.conversational(res)
	}

	// A new actionable request supersedes whatever was waiting.
	o.clearPending()

	var reply Reply
	switch res.Action {
	case intent.ActionCreate:
		reply = o.create(ctx, res.Entities, analysis.Input)
	case intent.ActionCreateMultiple:
		reply = o.createMultiple(ctx, res.Entities)
	case intent.ActionUpdate:
		reply = o.update(ctx, res.Entities)
	case intent.ActionComplete:
		reply = o.complete(ctx, res.Entities)
	case intent.ActionList:
		reply = o.list(ctx, res.Entities)
	default:
		return o.conversational(res)
	}
	reply.Intent = &res
	return reply
}

// takePriority consumes the priority slot when the input selects a level.
func (o *Orchestrator) takePriority(a conversation.InputAnalysis) *models.PendingTask {
	level, ok := ParsePrioritySelection(a.Original)
	if !ok {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.priority == nil {
		return nil
	}
	p := *o.priority
	p.Priority = level
	o.priority = nil
	return &p
}

func (o *Orchestrator) conversational(res intent.Result) Reply {
	pending := o.Pending()
	switch {
	case pending.Duplicate != nil:
		return Reply{Kind: KindConfirmationNeeded, Text: fmt.Sprintf(
			"%s still looks like a duplicate. Say \"create anyway\" to add it or \"cancel\" to drop it.",
			describePending(*pending.Duplicate))}
	case pending.Priority != nil:
		return Reply{Kind: KindConfirmationNeeded, Text: priorityQuestion(*pending.Priority)}
	case res.IsFallback():
		return Reply{Kind: KindMessage, Text: "I'm not sure what you'd like me to do.\n\n" + helpText}
	default:
		return Reply{Kind: KindMessage, Text: helpText}
	}
}

func (o *Orchestrator) create(ctx context.Context, e intent.Entities, text string) Reply {
	fields := o.sanitizer.SanitizeForTodoist(sanitize.TaskFields{Content: e.TaskContent, DueString: e.DueDate, Labels: e.Labels})
	pending := models.PendingTask{
		Content:   fields.Content,
		DueString: fields.DueString,
		Priority:  int(e.Priority),
		Labels:    fields.Labels,
	}
	if err := o.validator.ValidateTaskCreation(pending.Input()); err != nil {
		return errorReply(err)
	}

	existing, err := o.store.GetTasks(ctx, "")
	if err != nil {
		return errorReply(err)
	}
	if matches := FindDuplicates(pending.Content, existing); len(matches) > 0 {
		pending.Kind = models.PendingDuplicate
		pending.Matches = matches
		o.setPending(pending)
		o.fire(conversation.TriggerAmbiguity)
		o.machine.SetPendingAction(string(models.PendingDuplicate))
		return Reply{
			Kind:  KindConfirmationNeeded,
			Tasks: matches,
			Text: fmt.Sprintf("%s looks like a task you already have:\n%s\nSay \"create anyway\" to add it or \"cancel\" to drop it.",
				describePending(pending), bulletList(matches)),
		}
	}

	if HasAmbiguousPriority(text) {
		pending.Kind = models.PendingPriority
		o.setPending(pending)
		o.fire(conversation.TriggerAmbiguity)
		o.machine.SetPendingAction(string(models.PendingPriority))
		return Reply{Kind: KindConfirmationNeeded, Text: priorityQuestion(pending)}
	}

	o.fire(conversation.TriggerActionable)
	return o.execCreate(ctx, pending)
}

// createPending creates a task released from a pending slot. The machine is
// already in a processing state.
func (o *Orchestrator) createPending(ctx context.Context, p models.PendingTask) Reply {
	if err := o.validator.ValidateTaskCreation(p.Input()); err != nil {
		o.fire(conversation.TriggerDone)
		return errorReply(err)
	}
	return o.execCreate(ctx, p)
}

func (o *Orchestrator) execCreate(ctx context.Context, p models.PendingTask) Reply {
	defer o.fire(conversation.TriggerDone)

	task, err := o.store.CreateTask(ctx, p.Input())
	if err != nil {
		return errorReply(err)
	}
	return Reply{Kind: KindTaskCreated, Tasks: []models.Task{task}, Created: 1, Text: "Created " + task.String()}
}

func (o *Orchestrator) createMultiple(ctx context.Context, e intent.Entities) Reply {
	seen := make(map[string]bool, len(e.Tasks))
	var items []models.PendingTask
	for _, t := range e.Tasks {
		fields := o.sanitizer.SanitizeForTodoist(sanitize.TaskFields{Content: t.Content, DueString: t.DueDate, Labels: t.Labels})
		if fields.Content == "" || seen[fields.Content] {
			continue
		}
		seen[fields.Content] = true
		items = append(items, models.PendingTask{
			Content:   fields.Content,
			DueString: fields.DueString,
			Priority:  int(t.Priority),
			Labels:    fields.Labels,
		})
	}
	if len(items) == 0 {
		return Reply{Kind: KindMessage, Text: "I couldn't find any tasks to create in that message."}
	}

	count := e.TaskCount
	if count <= 0 || count > len(items) {
		count = len(items)
	}
	if len(items) > count {
		o.logger.Warn("discarding tasks beyond the declared count", "declared", count, "extracted", len(items))
		items = items[:count]
	}

	o.fire(conversation.TriggerActionableMultiple)
	defer o.fire(conversation.TriggerDone)

	var created []models.Task
	var failures []string
	for _, item := range items {
		task, err := o.store.CreateTask(ctx, item.Input())
		if err != nil {
			o.logger.Warn("batch create failed", "content", item.Content, "error", err)
			failures = append(failures, fmt.Sprintf("- %s: %s", item.Content, todoist.UserMessage(err)))
			continue
		}
		created = append(created, task)
	}

	var sb strings.Builder
	if len(failures) == 0 {
		fmt.Fprintf(&sb, "Created %d tasks:", len(created))
	} else {
		fmt.Fprintf(&sb, "Created %d tasks, %d failed.", len(created), len(failures))
	}
	if len(created) > 0 {
		sb.WriteString("\n" + bulletList(created))
	}
	if len(failures) > 0 {
		sb.WriteString("\nFailed:\n" + strings.Join(failures, "\n"))
	}

	kind := KindTasksCreated
	if len(created) == 0 {
		kind = KindError
	}
	return Reply{Kind: kind, Tasks: created, Created: len(created), Failed: len(failures), Text: sb.String()}
}

// resolveTarget finds the single task an update or completion refers to. When
// zero or several tasks match it returns the reply to send instead.
func (o *Orchestrator) resolveTarget(ctx context.Context, target string) (models.Task, *Reply) {
	target = o.sanitizer.Sanitize(target).Sanitized
	if target == "" {
		return models.Task{}, &Reply{Kind: KindMessage, Text: "Which task do you mean?"}
	}
	matches, err := o.store.SearchTasks(ctx, target)
	if err != nil {
		r := errorReply(err)
		return models.Task{}, &r
	}
	switch len(matches) {
	case 0:
		return models.Task{}, &Reply{Kind: KindNotFound, Text: fmt.Sprintf("I couldn't find a task matching %q.", target)}
	case 1:
		return matches[0], nil
	default:
		o.fire(conversation.TriggerClarify)
		o.machine.SetMetadata("target", target)
		return models.Task{}, &Reply{
			Kind:  KindClarificationNeeded,
			Tasks: matches,
			Text:  fmt.Sprintf("Several tasks match %q:\n%s\nWhich one do you mean?", target, bulletList(matches)),
		}
	}
}

func (o *Orchestrator) update(ctx context.Context, e intent.Entities) Reply {
	task, reply := o.resolveTarget(ctx, e.TargetTask)
	if reply != nil {
		return *reply
	}

	var upd models.TaskUpdate
	if due := o.sanitizer.SanitizeForTodoist(sanitize.TaskFields{DueString: e.DueDate}).DueString; due != "" {
		upd.DueString = &due
	}
	upd.Priority = e.Priority.Ptr()
	if upd.IsEmpty() {
		return Reply{Kind: KindMessage, Text: fmt.Sprintf("What should I change about %q?", task.Content)}
	}

	o.fire(conversation.TriggerActionable)
	defer o.fire(conversation.TriggerDone)
	if err := o.store.UpdateTask(ctx, task.ID, upd); err != nil {
		return errorReply(err)
	}

	if upd.DueString != nil {
		task.Due = &models.Due{String: *upd.DueString}
	}
	if upd.Priority != nil {
		task.Priority = *upd.Priority
	}
	return Reply{Kind: KindTaskUpdated, Tasks: []models.Task{task}, Text: "Updated " + task.String()}
}

func (o *Orchestrator) complete(ctx context.Context, e intent.Entities) Reply {
	task, reply := o.resolveTarget(ctx, e.TargetTask)
	if reply != nil {
		return *reply
	}

	o.fire(conversation.TriggerActionable)
	defer o.fire(conversation.TriggerDone)
	if err := o.store.CompleteTask(ctx, task.ID); err != nil {
		return errorReply(err)
	}
	return Reply{Kind: KindTaskCompleted, Tasks: []models.Task{task}, Text: fmt.Sprintf("Completed %q.", task.Content)}
}

func (o *Orchestrator) list(ctx context.Context, e intent.Entities) Reply {
	tasks, err := o.store.GetTasks(ctx, strings.TrimSpace(e.Filter))
	if err != nil {
		return errorReply(err)
	}
	if len(tasks) == 0 {
		if e.Filter != "" {
			return Reply{Kind: KindTaskList, Text: fmt.Sprintf("No open tasks match %q.", e.Filter)}
		}
		return Reply{Kind: KindTaskList, Text: "You have no open tasks."}
	}
	return Reply{Kind: KindTaskList, Tasks: tasks, Text: fmt.Sprintf("You have %d open tasks:\n%s", len(tasks), bulletList(tasks))}
}

// fire applies a trigger; a rejected transition is logged, never fatal.
func (o *Orchestrator) fire(t conversation.Trigger) {
	if err := o.machine.Fire(t); err != nil {
		o.logger.Warn("state transition rejected", "error", err)
	}
}

func (o *Orchestrator) setPending(p models.PendingTask) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch p.Kind {
	case models.PendingDuplicate:
		o.duplicate = &p
	case models.PendingPriority:
		o.priority = &p
	}
}

func (o *Orchestrator) clearPending() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.duplicate, o.priority = nil, nil
}

func priorityQuestion(p models.PendingTask) string {
	return fmt.Sprintf("How urgent is %s? Pick P1 (normal) to P4 (urgent), or say \"proceed\" for P4.", describePending(p))
}

func errorReply(err error) Reply {
	return Reply{Kind: KindError, Text: todoist.UserMessage(err), Err: err}
}

func clonePending(p *models.PendingTask) *models.PendingTask {
	if p == nil {
		return nil
	}
	c := *p
	c.Labels = append([]string(nil), p.Labels...)
	c.Matches = append([]models.Task(nil), p.Matches...)
	return &c
}
