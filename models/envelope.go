package models

import "encoding/json"

// Envelope is the response wrapper of every task-store operation.
type Envelope struct {
	Success *bool           `json:"success" validate:"required"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// OK reports whether the envelope signals success.
func (e Envelope) OK() bool {
	return e.Success != nil && *e.Success
}

// HasData reports whether a non-null data payload is present.
func (e Envelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}
