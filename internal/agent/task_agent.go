// Package agent exposes the task operations as a uniform tool surface.
// Callers hand in loosely-typed string parameters, every invocation is
// recorded on an in-request audit log, and no error ever escapes: each
// call returns a structured result the caller can inspect.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "taskforge/internal/errors"
	"taskforge/internal/model"
	"taskforge/internal/repository"
	"taskforge/internal/service"
)

// Result is the uniform outcome of a tool invocation.
type Result struct {
	Success   bool         `json:"success"`
	Task      *model.Task  `json:"task,omitempty"`
	Tasks     []model.Task `json:"tasks,omitempty"`
	Total     *int64       `json:"total,omitempty"`
	DeletedID string       `json:"deleted_id,omitempty"`
	Error     string       `json:"error,omitempty"`

	err error
}

// Err returns the underlying typed error of a failed invocation, for
// callers that need to map the failure to a transport status.
func (r Result) Err() error {
	return r.err
}

// Action is one recorded tool invocation.
type Action struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
	Result Result                 `json:"result"`
}

// UpdateParams carries the string-typed partial update accepted by the
// update tool. Nil fields are not applied.
type UpdateParams struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *string
	DueDate     *string
}

// ListParams carries the string-typed listing options of the list tool.
type ListParams struct {
	Status   string
	Priority string
	SortKey  string
	Order    string
	Limit    int
	Offset   int
}

// TaskAgent is a request-scoped façade over the task service, bound to one
// authenticated owner. It must never be shared across requests: the action
// log belongs to a single request.
type TaskAgent struct {
	tasks   service.TaskService
	ownerID uuid.UUID
	actions []Action
}

// NewTaskAgent creates a façade for one (service, owner) pair.
func NewTaskAgent(tasks service.TaskService, ownerID uuid.UUID) *TaskAgent {
	return &TaskAgent{
		tasks:   tasks,
		ownerID: ownerID,
	}
}

// ActionHistory returns a snapshot of the recorded actions. Callers get a
// copy so history cannot be rewritten after the fact.
func (a *TaskAgent) ActionHistory() []Action {
	history := make([]Action, len(a.actions))
	copy(history, a.actions)
	return history
}

func (a *TaskAgent) record(tool string, params map[string]interface{}, result Result) Result {
	a.actions = append(a.actions, Action{
		Tool:   tool,
		Params: params,
		Result: result,
	})
	return result
}

func ok(result Result) Result {
	result.Success = true
	return result
}

func fail(err error) Result {
	message := err.Error()
	// Only typed errors may surface verbatim; anything else is a
	// storage-level failure whose details must not leak.
	if !apperrors.IsValidation(err) &&
		!errors.Is(err, apperrors.ErrTaskNotFound) &&
		!errors.Is(err, apperrors.ErrUserNotFound) {
		message = "internal error"
	}
	return Result{Success: false, Error: message, err: err}
}

func parseTaskID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError(fmt.Sprintf("invalid task id: %s", raw))
	}
	return id, nil
}

func parsePriority(raw string) (model.Priority, error) {
	priority, valid := model.ParsePriority(raw)
	if !valid {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid priority: %s, must be low, medium, or high", raw))
	}
	return priority, nil
}

// dueDateLayouts are tried in order when coercing a due date string.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDueDate(raw string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError(fmt.Sprintf("invalid due_date format: %s", raw))
}

// CreateTask creates a task from string-typed inputs.
func (a *TaskAgent) CreateTask(ctx context.Context, title string, description *string, priority string, dueDate string) Result {
	params := map[string]interface{}{
		"title":       title,
		"description": description,
		"priority":    priority,
		"due_date":    dueDate,
	}

	in := service.CreateTaskInput{
		Title:       title,
		Description: description,
	}

	if priority != "" {
		parsed, err := parsePriority(priority)
		if err != nil {
			return a.record("create_task", params, fail(err))
		}
		in.Priority = parsed
	}

	if dueDate != "" {
		parsed, err := parseDueDate(dueDate)
		if err != nil {
			return a.record("create_task", params, fail(err))
		}
		in.DueDate = &parsed
	}

	task, err := a.tasks.Create(ctx, a.ownerID, in)
	if err != nil {
		return a.record("create_task", params, fail(err))
	}
	return a.record("create_task", params, ok(Result{Task: task}))
}

// ReadTask fetches a task by its string id.
func (a *TaskAgent) ReadTask(ctx context.Context, taskID string) Result {
	params := map[string]interface{}{"task_id": taskID}

	id, err := parseTaskID(taskID)
	if err != nil {
		return a.record("read_task", params, fail(err))
	}

	task, err := a.tasks.Get(ctx, a.ownerID, id)
	if err != nil {
		return a.record("read_task", params, fail(err))
	}
	return a.record("read_task", params, ok(Result{Task: task}))
}

// UpdateTask applies a partial update from string-typed inputs.
func (a *TaskAgent) UpdateTask(ctx context.Context, taskID string, update UpdateParams) Result {
	params := map[string]interface{}{
		"task_id":     taskID,
		"title":       update.Title,
		"description": update.Description,
		"completed":   update.Completed,
		"priority":    update.Priority,
		"due_date":    update.DueDate,
	}

	id, err := parseTaskID(taskID)
	if err != nil {
		return a.record("update_task", params, fail(err))
	}

	in := service.UpdateTaskInput{
		Title:       update.Title,
		Description: update.Description,
		Completed:   update.Completed,
	}

	if update.Priority != nil {
		parsed, err := parsePriority(*update.Priority)
		if err != nil {
			return a.record("update_task", params, fail(err))
		}
		in.Priority = &parsed
	}

	if update.DueDate != nil {
		parsed, err := parseDueDate(*update.DueDate)
		if err != nil {
			return a.record("update_task", params, fail(err))
		}
		in.DueDate = &parsed
	}

	task, err := a.tasks.Update(ctx, a.ownerID, id, in)
	if err != nil {
		return a.record("update_task", params, fail(err))
	}
	return a.record("update_task", params, ok(Result{Task: task}))
}

// ToggleTask flips a task's completion flag.
func (a *TaskAgent) ToggleTask(ctx context.Context, taskID string) Result {
	params := map[string]interface{}{"task_id": taskID}

	id, err := parseTaskID(taskID)
	if err != nil {
		return a.record("toggle_task", params, fail(err))
	}

	task, err := a.tasks.Toggle(ctx, a.ownerID, id)
	if err != nil {
		return a.record("toggle_task", params, fail(err))
	}
	return a.record("toggle_task", params, ok(Result{Task: task}))
}

// DeleteTask removes a task permanently.
func (a *TaskAgent) DeleteTask(ctx context.Context, taskID string) Result {
	params := map[string]interface{}{"task_id": taskID}

	id, err := parseTaskID(taskID)
	if err != nil {
		return a.record("delete_task", params, fail(err))
	}

	if err := a.tasks.Delete(ctx, a.ownerID, id); err != nil {
		return a.record("delete_task", params, fail(err))
	}
	return a.record("delete_task", params, ok(Result{DeletedID: taskID}))
}

// ListTasks lists the owner's tasks with string-typed filters.
func (a *TaskAgent) ListTasks(ctx context.Context, list ListParams) Result {
	params := map[string]interface{}{
		"status":   list.Status,
		"priority": list.Priority,
		"sort":     list.SortKey,
		"order":    list.Order,
		"limit":    list.Limit,
		"offset":   list.Offset,
	}

	in := service.ListTasksInput{
		Filters: repository.TaskFilters{Status: service.ParseStatusFilter(list.Status)},
		Sort:    service.ParseSort(list.SortKey, list.Order),
		Page:    repository.TaskPage{Limit: list.Limit, Offset: list.Offset},
	}

	if list.Priority != "" {
		parsed, err := parsePriority(list.Priority)
		if err != nil {
			return a.record("list_tasks", params, fail(err))
		}
		in.Filters.Priority = &parsed
	}

	tasks, total, err := a.tasks.List(ctx, a.ownerID, in)
	if err != nil {
		return a.record("list_tasks", params, fail(err))
	}
	return a.record("list_tasks", params, ok(Result{Tasks: tasks, Total: &total}))
}
