package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "taskforge/internal/errors"
	"taskforge/internal/model"
)

// Pagination bounds. Limits outside the window are clamped, never rejected.
const (
	MaxPageLimit     = 1000
	DefaultPageLimit = 100
)

// StatusFilter selects tasks by completion state.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"
)

// SortField is a whitelisted task sort column.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortDueDate   SortField = "due_date"
	SortPriority  SortField = "priority"
)

// TaskFilters narrows a task listing. The zero value matches all tasks of
// the owner.
type TaskFilters struct {
	Status   StatusFilter
	Priority *model.Priority
}

// TaskSort describes the requested ordering.
type TaskSort struct {
	Field      SortField
	Descending bool
}

// TaskPage is an offset/limit window.
type TaskPage struct {
	Limit  int
	Offset int
}

// Clamp normalizes the window to limit in [1, MaxPageLimit] and offset >= 0.
func (p TaskPage) Clamp() TaskPage {
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// TaskRepository defines ownership-scoped task persistence operations.
// Every operation constrains by the owner ID; a task that exists but
// belongs to someone else is reported exactly like a missing one.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error)
	Save(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, ownerID, taskID uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, filters TaskFilters, sort TaskSort, page TaskPage) ([]model.Task, int64, error)
	WithTransaction(ctx context.Context, fn func(repo TaskRepository) error) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID fetches a task with id and owner combined in a single predicate,
// so "exists but not mine" and "does not exist" are the same query outcome.
func (r *taskRepository) FindByID(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, ownerID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) Save(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, ownerID).
		Delete(&model.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

// List returns one page of the owner's tasks plus the total count of the
// filtered set. Both queries are derived from the same filter scope so the
// count can never drift from the page predicate.
func (r *taskRepository) List(ctx context.Context, ownerID uuid.UUID, filters TaskFilters, sort TaskSort, page TaskPage) ([]model.Task, int64, error) {
	scope := taskFilterScope(ownerID, filters)
	page = page.Clamp()

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Task{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []model.Task
	err := r.db.WithContext(ctx).Model(&model.Task{}).Scopes(scope).
		Order(orderClause(sort)).
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// WithTransaction executes a function within a database transaction.
func (r *taskRepository) WithTransaction(ctx context.Context, fn func(repo TaskRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&taskRepository{db: tx})
	})
}

// taskFilterScope is the single place the list predicate is built. The
// owner constraint is unconditional.
func taskFilterScope(ownerID uuid.UUID, filters TaskFilters) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", ownerID)

		switch filters.Status {
		case StatusActive:
			db = db.Where("completed = ?", false)
		case StatusCompleted:
			db = db.Where("completed = ?", true)
		}

		if filters.Priority != nil {
			db = db.Where("priority = ?", *filters.Priority)
		}

		return db
	}
}

// orderClause builds the ORDER BY expression for a whitelisted sort. Null
// due dates sort last ascending and first descending; priority ranks
// low < medium < high. A trailing id column keeps ties deterministic.
func orderClause(sort TaskSort) string {
	dir := "ASC"
	if sort.Descending {
		dir = "DESC"
	}

	switch sort.Field {
	case SortDueDate:
		return "due_date IS NULL " + dir + ", due_date " + dir + ", id ASC"
	case SortPriority:
		return "FIELD(priority, 'low', 'medium', 'high') " + dir + ", id ASC"
	default:
		return "created_at " + dir + ", id ASC"
	}
}
