// Package intent classifies a chat message into a task-management action with
// a confidence score and the entities the action needs.
package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Action is the operation a message asks for
type Action string

const (
	ActionCreate         Action = "create"
	ActionCreateMultiple Action = "create_multiple"
	ActionUpdate         Action = "update"
	ActionComplete       Action = "complete"
	ActionList           Action = "list"
	ActionNone           Action = "none" // conversational, nothing to execute
)

// DefaultThreshold is the confidence a result must exceed to be acted on.
const DefaultThreshold = 0.7

// IsKnown reports whether a is one of the defined actions.
func (a Action) IsKnown() bool {
	switch a {
	case ActionCreate, ActionCreateMultiple, ActionUpdate, ActionComplete, ActionList, ActionNone:
		return true
	}
	return false
}

var tierWords = map[string]int{
	"urgent": 4,
	"high":   3,
	"medium": 2,
	"low":    1,
}

var pnPattern = regexp.MustCompile(`(?i)^p?([1-4])$`)

// PriorityTier maps a priority word to its tier: urgent 4, high 3, medium 2, low 1.
// Anything else returns nil; defaulting is left to the caller.
func PriorityTier(word string) *int {
	if n, ok := tierWords[strings.ToLower(strings.TrimSpace(word))]; ok {
		return &n
	}
	return nil
}

// Priority is an extracted priority tier in [1,4]; zero means none was given.
// It decodes from a tier word ("high"), a level string ("P3", "3") or a number.
type Priority int

// UnmarshalJSON implements json.Unmarshaler. Unrecognized values decode to zero.
func (p *Priority) UnmarshalJSON(data []byte) error {
	*p = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if tier := PriorityTier(s); tier != nil {
			*p = Priority(*tier)
		} else if m := pnPattern.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
			n, _ := strconv.Atoi(m[1])
			*p = Priority(n)
		}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	if n := int(f); float64(n) == f && n >= 1 && n <= 4 {
		*p = Priority(n)
	}
	return nil
}

// Ptr returns the priority as *int, nil when unset.
func (p Priority) Ptr() *int {
	if p < 1 || p > 4 {
		return nil
	}
	n := int(p)
	return &n
}

// TaskEntity is one task of a create_multiple intent.
type TaskEntity struct {
	Content  string   `json:"content"`
	DueDate  string   `json:"dueDate,omitempty"`
	Priority Priority `json:"priority,omitempty"`
	Labels   []string `json:"labels,omitempty"`
}

// Entities are the fields extracted from the message.
type Entities struct {
	TaskContent string       `json:"taskContent,omitempty"`
	DueDate     string       `json:"dueDate,omitempty"`
	Priority    Priority     `json:"priority,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	TargetTask  string       `json:"targetTask,omitempty"` // update/complete: name of the existing task
	Filter      string       `json:"filter,omitempty"`     // list: content filter
	TaskCount   int          `json:"taskCount,omitempty"`  // create_multiple: declared number of tasks
	Tasks       []TaskEntity `json:"tasks,omitempty"`
}

// Result is a classified message.
type Result struct {
	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"`
	Entities   Entities `json:"entities"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// Fallback is returned whenever classification fails.
func Fallback() Result {
	return Result{Action: ActionNone, Confidence: 0.1, Reasoning: "fallback"}
}

// IsFallback reports whether r is the failure result.
func (r Result) IsFallback() bool {
	return r.Action == ActionNone && r.Reasoning == "fallback"
}

// Actionable reports whether the result should be executed rather than answered conversationally.
func (r Result) Actionable(threshold float64) bool {
	return r.Action != ActionNone && r.Confidence > threshold
}
