package conversation

import (
	"errors"
	"slices"

	"github.com/josephgoksu/TodoChat/models"
)

// DefaultMaxMessages is the default size of the message window.
const DefaultMaxMessages = 50

var (
	// ErrMessageImmutable is returned when changing a message whose status already left "sending".
	ErrMessageImmutable = errors.New("message is immutable once sent")
	// ErrMessageNotFound is returned when no message in the window has the given ID.
	ErrMessageNotFound = errors.New("message not found")
)

// PendingState is a snapshot of the orchestrator's pending slots.
type PendingState struct {
	Duplicate *models.PendingTask `json:"duplicate,omitempty"`
	Priority  *models.PendingTask `json:"priority,omitempty"`
}

// IsEmpty reports whether neither slot is set.
func (p *PendingState) IsEmpty() bool {
	return p == nil || (p.Duplicate == nil && p.Priority == nil)
}

// Context is the persisted state of one chat session. It is not safe for
// concurrent use; the owning session serializes access.
type Context struct {
	Messages    []models.Message `json:"messages"`
	LastQuery   string           `json:"lastQuery,omitempty"`
	Pending     *PendingState    `json:"pending,omitempty"`
	Machine     *Snapshot        `json:"machine,omitempty"`
	MaxMessages int              `json:"maxMessages"`
}

// NewContext creates an empty context holding at most limit messages.
func NewContext(limit int) *Context {
	if limit <= 0 {
		limit = DefaultMaxMessages
	}
	return &Context{Messages: []models.Message{}, MaxMessages: limit}
}

// Append adds a message and evicts the oldest ones beyond the cap.
// User messages also become the last query.
func (c *Context) Append(msg models.Message) {
	c.Messages = append(c.Messages, msg)
	if msg.Role == models.RoleUser {
		c.LastQuery = msg.Content
	}
	c.Trim()
}

// Trim evicts the oldest messages until the window fits its cap.
func (c *Context) Trim() {
	if c.MaxMessages <= 0 {
		c.MaxMessages = DefaultMaxMessages
	}
	if over := len(c.Messages) - c.MaxMessages; over > 0 {
		c.Messages = slices.Delete(c.Messages, 0, over)
	}
}

// SetStatus moves a message out of "sending".
func (c *Context) SetStatus(id string, status models.MessageStatus) error {
	for i := range c.Messages {
		if c.Messages[i].ID != id {
			continue
		}
		if c.Messages[i].Status != models.StatusSending {
			return ErrMessageImmutable
		}
		c.Messages[i].Status = status
		return nil
	}
	return ErrMessageNotFound
}

// Recent returns a copy of the last n messages, oldest first.
func (c *Context) Recent(n int) []models.Message {
	if n <= 0 {
		return nil
	}
	start := max(len(c.Messages)-n, 0)
	return slices.Clone(c.Messages[start:])
}

// Clone returns a deep copy of the context.
func (c *Context) Clone() *Context {
	out := *c
	out.Messages = slices.Clone(c.Messages)
	if c.Pending != nil {
		p := *c.Pending
		out.Pending = &p
	}
	if c.Machine != nil {
		m := *c.Machine
		out.Machine = &m
	}
	return &out
}
