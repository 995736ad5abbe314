package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "taskforge/internal/errors"
	"taskforge/internal/model"
	"taskforge/internal/repository"
)

const maxTitleLength = 255

// CreateTaskInput carries the fields for a new task.
type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    model.Priority
	DueDate     *time.Time
}

// UpdateTaskInput carries a partial update. Nil fields are left untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Completed   *bool
	Priority    *model.Priority
	DueDate     *time.Time
}

// ListTasksInput carries listing filters, sort, and pagination.
type ListTasksInput struct {
	Filters repository.TaskFilters
	Sort    repository.TaskSort
	Page    repository.TaskPage
}

// TaskService exposes the ownership-scoped task operations. Every method
// takes the owner ID extracted from the caller's token; a task belonging
// to a different user is indistinguishable from a missing one.
type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in CreateTaskInput) (*model.Task, error)
	Get(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, ownerID, taskID uuid.UUID, in UpdateTaskInput) (*model.Task, error)
	Toggle(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error)
	Delete(ctx context.Context, ownerID, taskID uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, in ListTasksInput) ([]model.Task, int64, error)
}

type taskService struct {
	repo repository.TaskRepository
}

// NewTaskService builds a TaskService on top of the task repository.
func NewTaskService(repo repository.TaskRepository) TaskService {
	return &taskService{repo: repo}
}

// validateTitle trims and bounds the title. The storage column would also
// reject oversized titles, but this is the one layer that can report it
// as a validation error instead of a persistence failure.
func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperrors.NewValidationError("title must not be empty")
	}
	if len(title) > maxTitleLength {
		return "", apperrors.NewValidationError("title must be at most 255 characters")
	}
	return title, nil
}

// stripOffset keeps the wall-clock reading of t and discards its zone
// offset. The column is a zone-less DATETIME and clients send offset-aware
// timestamps; discarding rather than converting matches the historical
// behavior of the service. TODO: decide whether to convert to UTC instead.
func stripOffset(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func (s *taskService) Create(ctx context.Context, ownerID uuid.UUID, in CreateTaskInput) (*model.Task, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	dueDate := in.DueDate
	if dueDate != nil {
		stripped := stripOffset(*dueDate)
		dueDate = &stripped
	}

	task := &model.Task{
		ID:          uuid.New(),
		UserID:      ownerID,
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     dueDate,
	}

	err = s.repo.WithTransaction(ctx, func(repo repository.TaskRepository) error {
		return repo.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (s *taskService) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	return s.repo.FindByID(ctx, ownerID, taskID)
}

// Update applies a partial update: only non-nil fields overwrite stored
// values, and updated_at is refreshed even when no field is supplied.
// The fetch and the save share one transaction so a failed save never
// leaves a partially applied merge visible.
func (s *taskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, in UpdateTaskInput) (*model.Task, error) {
	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		in.Title = &title
	}

	var updated *model.Task
	err := s.repo.WithTransaction(ctx, func(repo repository.TaskRepository) error {
		task, err := repo.FindByID(ctx, ownerID, taskID)
		if err != nil {
			return err
		}

		if in.Title != nil {
			task.Title = *in.Title
		}
		if in.Description != nil {
			task.Description = in.Description
		}
		if in.Completed != nil {
			task.Completed = *in.Completed
		}
		if in.Priority != nil {
			task.Priority = *in.Priority
		}
		if in.DueDate != nil {
			task.DueDate = in.DueDate
		}
		task.UpdatedAt = time.Now()

		if err := repo.Save(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Toggle flips the completion flag. Equivalent to an update with
// completed = !current.
func (s *taskService) Toggle(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	var updated *model.Task
	err := s.repo.WithTransaction(ctx, func(repo repository.TaskRepository) error {
		task, err := repo.FindByID(ctx, ownerID, taskID)
		if err != nil {
			return err
		}

		task.Completed = !task.Completed
		task.UpdatedAt = time.Now()

		if err := repo.Save(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *taskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	return s.repo.WithTransaction(ctx, func(repo repository.TaskRepository) error {
		return repo.Delete(ctx, ownerID, taskID)
	})
}

func (s *taskService) List(ctx context.Context, ownerID uuid.UUID, in ListTasksInput) ([]model.Task, int64, error) {
	return s.repo.List(ctx, ownerID, in.Filters, in.Sort, in.Page)
}

// ParseSort maps the API sort key and order to a repository sort. Unknown
// keys fall back to creation time, matching the listing default.
func ParseSort(sortKey, order string) repository.TaskSort {
	sort := repository.TaskSort{Field: repository.SortCreatedAt, Descending: true}

	switch sortKey {
	case "dueDate", "due_date":
		sort.Field = repository.SortDueDate
	case "priority":
		sort.Field = repository.SortPriority
	case "createdAt", "created_at", "":
		sort.Field = repository.SortCreatedAt
	}

	sort.Descending = order != "asc"
	return sort
}

// ParseStatusFilter maps the API status value. Unknown values mean "all".
func ParseStatusFilter(status string) repository.StatusFilter {
	switch repository.StatusFilter(status) {
	case repository.StatusActive:
		return repository.StatusActive
	case repository.StatusCompleted:
		return repository.StatusCompleted
	}
	return repository.StatusAll
}
