package models

import (
	"fmt"
	"strings"
)

// Todoist priorities. The API counts upward: 4 is the most urgent.
const (
	PriorityNormal = 1
	PriorityMedium = 2
	PriorityHigh   = 3
	PriorityUrgent = 4

	// DefaultPriority is applied when neither the user nor the intent named one.
	DefaultPriority = PriorityNormal
)

// Task is a task owned by the remote task store.
type Task struct {
	ID          string   `json:"id" validate:"required"`
	Content     string   `json:"content" validate:"required"`
	Description string   `json:"description,omitempty"`
	Priority    int      `json:"priority" validate:"min=1,max=4"`
	Due         *Due     `json:"due,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	IsCompleted bool     `json:"is_completed"`
	ProjectID   string   `json:"project_id,omitempty"`
	URL         string   `json:"url,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
}

// Due holds the due specification as returned by the task store.
type Due struct {
	String    string `json:"string,omitempty"`
	Date      string `json:"date,omitempty"`
	Datetime  string `json:"datetime,omitempty"`
	Recurring bool   `json:"is_recurring,omitempty"`
}

// DueText returns the most human-readable due value, or "".
func (t Task) DueText() string {
	if t.Due == nil {
		return ""
	}
	if t.Due.String != "" {
		return t.Due.String
	}
	return t.Due.Date
}

// String renders a one-line summary used in chat replies.
func (t Task) String() string {
	var sb strings.Builder
	sb.WriteString(t.Content)
	if due := t.DueText(); due != "" {
		sb.WriteString(fmt.Sprintf(" (due %s)", due))
	}
	if t.Priority > PriorityNormal {
		sb.WriteString(fmt.Sprintf(" [P%d]", t.Priority))
	}
	if len(t.Labels) > 0 {
		sb.WriteString(" @" + strings.Join(t.Labels, " @"))
	}
	return sb.String()
}

// TaskInput is the create payload sent to the task store.
type TaskInput struct {
	Content   string   `json:"content" validate:"required,max=500,nonblank,notaskprefix"`
	DueString *string  `json:"due_string,omitempty" validate:"omitnil,nonblank"`
	Priority  *int     `json:"priority,omitempty" validate:"omitnil,min=1,max=4"`
	Labels    []string `json:"labels,omitempty" validate:"max=10,dive,min=1,max=50,label"`
}

// TaskUpdate carries the fields to change on an existing task. Nil fields are left untouched.
type TaskUpdate struct {
	Content   *string  `json:"content,omitempty" validate:"omitnil,max=500,nonblank,notaskprefix"`
	DueString *string  `json:"due_string,omitempty" validate:"omitnil,nonblank"`
	Priority  *int     `json:"priority,omitempty" validate:"omitnil,min=1,max=4"`
	Labels    []string `json:"labels,omitempty" validate:"omitempty,max=10,dive,min=1,max=50,label"`
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Content == nil && u.DueString == nil && u.Priority == nil && len(u.Labels) == 0
}

// PendingKind identifies why a task is waiting on the user.
type PendingKind string

const (
	PendingDuplicate PendingKind = "duplicate"
	PendingPriority  PendingKind = "priority"
)

// PendingTask is a task held back until the user resolves an ambiguity.
type PendingTask struct {
	Kind      PendingKind `json:"kind"`
	Content   string      `json:"content"`
	DueString string      `json:"due_string,omitempty"`
	Priority  int         `json:"priority"`
	Labels    []string    `json:"labels,omitempty"`
	// Matches lists the existing tasks that made a duplicate-kind task pending.
	Matches []Task `json:"matches,omitempty"`
}

// Input converts the pending task into a create payload.
func (p PendingTask) Input() TaskInput {
	in := TaskInput{Content: p.Content, Labels: p.Labels}
	if p.DueString != "" {
		due := p.DueString
		in.DueString = &due
	}
	priority := p.Priority
	if priority == 0 {
		priority = DefaultPriority
	}
	in.Priority = &priority
	return in
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
