package todoist

import (
	"context"

	"github.com/josephgoksu/TodoChat/models"
)

// Operation names, also used as proxy endpoint paths.
const (
	OpGetTasks     = "getTasks"
	OpCreateTask   = "createTask"
	OpUpdateTask   = "updateTask"
	OpCompleteTask = "completeTask"
)

// Backend performs one task-store operation and returns the raw response
// envelope ({success, data?, error?}). Payloads are the request types below
// or models.TaskInput for OpCreateTask.
type Backend interface {
	Call(ctx context.Context, op string, payload any) ([]byte, error)
}

// GetTasksRequest is the payload of OpGetTasks.
type GetTasksRequest struct {
	Filter string `json:"filter,omitempty"`
}

// UpdateTaskRequest is the payload of OpUpdateTask.
type UpdateTaskRequest struct {
	TaskID  string            `json:"taskId"`
	Updates models.TaskUpdate `json:"updates"`
}

// CompleteTaskRequest is the payload of OpCompleteTask.
type CompleteTaskRequest struct {
	TaskID string `json:"taskId"`
}
