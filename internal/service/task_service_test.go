package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "taskforge/internal/errors"
	"taskforge/internal/model"
	"taskforge/internal/repository"
)

// MockTaskRepository is a mock implementation of TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, ownerID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) Save(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	args := m.Called(ctx, ownerID, taskID)
	return args.Error(0)
}

func (m *MockTaskRepository) List(ctx context.Context, ownerID uuid.UUID, filters repository.TaskFilters, sort repository.TaskSort, page repository.TaskPage) ([]model.Task, int64, error) {
	args := m.Called(ctx, ownerID, filters, sort, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Task), args.Get(1).(int64), args.Error(2)
}

// WithTransaction runs the function against the mock itself; transaction
// semantics are the datastore's concern, not the service's.
func (m *MockTaskRepository) WithTransaction(ctx context.Context, fn func(repo repository.TaskRepository) error) error {
	return fn(m)
}

func TestTaskService_Create(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name        string
		input       CreateTaskInput
		wantErr     string
		checkTask   func(*testing.T, *model.Task)
		expectWrite bool
	}{
		{
			name:  "title trimmed and defaults applied",
			input: CreateTaskInput{Title: "  Buy milk  "},
			checkTask: func(t *testing.T, task *model.Task) {
				assert.Equal(t, "Buy milk", task.Title)
				assert.Equal(t, model.PriorityMedium, task.Priority)
				assert.False(t, task.Completed)
				assert.Equal(t, ownerID, task.UserID)
			},
			expectWrite: true,
		},
		{
			name:  "explicit priority kept",
			input: CreateTaskInput{Title: "Buy milk", Priority: model.PriorityHigh},
			checkTask: func(t *testing.T, task *model.Task) {
				assert.Equal(t, model.PriorityHigh, task.Priority)
			},
			expectWrite: true,
		},
		{
			name:    "empty title rejected",
			input:   CreateTaskInput{Title: "   "},
			wantErr: "title must not be empty",
		},
		{
			name:    "oversized title rejected",
			input:   CreateTaskInput{Title: strings.Repeat("x", 256)},
			wantErr: "title must be at most 255 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			if tt.expectWrite {
				mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
			}

			svc := NewTaskService(mockRepo)
			task, err := svc.Create(context.Background(), ownerID, tt.input)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				assert.Equal(t, tt.wantErr, err.Error())
				assert.Nil(t, task)
			} else {
				require.NoError(t, err)
				require.NotNil(t, task)
				tt.checkTask(t, task)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_CreateStripsDueDateOffset(t *testing.T) {
	// An offset-aware due date keeps its wall-clock reading; the offset is
	// discarded, not converted.
	loc := time.FixedZone("UTC+5", 5*60*60)
	due := time.Date(2026, 3, 1, 9, 30, 0, 0, loc)

	mockRepo := new(MockTaskRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	svc := NewTaskService(mockRepo)
	task, err := svc.Create(context.Background(), uuid.New(), CreateTaskInput{
		Title:   "Catch flight",
		DueDate: &due,
	})

	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), *task.DueDate)
}

func TestTaskService_UpdatePartialMerge(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()
	createdAt := time.Now().Add(-time.Hour)
	description := "original description"

	stored := func() *model.Task {
		return &model.Task{
			ID:          taskID,
			UserID:      ownerID,
			Title:       "Original title",
			Description: &description,
			Priority:    model.PriorityLow,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
	}

	t.Run("only supplied fields change", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, ownerID, taskID).Return(stored(), nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

		completed := true
		svc := NewTaskService(mockRepo)
		task, err := svc.Update(context.Background(), ownerID, taskID, UpdateTaskInput{Completed: &completed})

		require.NoError(t, err)
		assert.True(t, task.Completed)
		assert.Equal(t, "Original title", task.Title)
		assert.Equal(t, &description, task.Description)
		assert.Equal(t, model.PriorityLow, task.Priority)
		assert.Equal(t, createdAt, task.CreatedAt)
		assert.True(t, task.UpdatedAt.After(createdAt))
	})

	t.Run("empty update bumps updated_at only", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, ownerID, taskID).Return(stored(), nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

		svc := NewTaskService(mockRepo)
		task, err := svc.Update(context.Background(), ownerID, taskID, UpdateTaskInput{})

		require.NoError(t, err)
		assert.Equal(t, "Original title", task.Title)
		assert.False(t, task.Completed)
		assert.True(t, task.UpdatedAt.After(createdAt))
	})

	t.Run("title trimmed on update", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, ownerID, taskID).Return(stored(), nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

		title := "  New title  "
		svc := NewTaskService(mockRepo)
		task, err := svc.Update(context.Background(), ownerID, taskID, UpdateTaskInput{Title: &title})

		require.NoError(t, err)
		assert.Equal(t, "New title", task.Title)
	})

	t.Run("invalid title rejected before any fetch", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)

		title := "   "
		svc := NewTaskService(mockRepo)
		_, err := svc.Update(context.Background(), ownerID, taskID, UpdateTaskInput{Title: &title})

		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		mockRepo.AssertNotCalled(t, "FindByID")
	})

	t.Run("not owned surfaces as not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, ownerID, taskID).Return(nil, apperrors.ErrTaskNotFound)

		svc := NewTaskService(mockRepo)
		_, err := svc.Update(context.Background(), ownerID, taskID, UpdateTaskInput{})

		assert.ErrorIs(t, err, apperrors.ErrTaskNotFound)
	})
}

func TestTaskService_Toggle(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()
	createdAt := time.Now().Add(-time.Hour)

	mockRepo := new(MockTaskRepository)
	mockRepo.On("FindByID", mock.Anything, ownerID, taskID).Return(&model.Task{
		ID:        taskID,
		UserID:    ownerID,
		Title:     "Buy milk",
		Completed: false,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil)
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	svc := NewTaskService(mockRepo)
	task, err := svc.Toggle(context.Background(), ownerID, taskID)

	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.Equal(t, createdAt, task.CreatedAt)
	assert.True(t, task.UpdatedAt.After(createdAt))
	mockRepo.AssertExpectations(t)
}

func TestTaskService_Delete(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Delete", mock.Anything, ownerID, taskID).Return(nil)

		svc := NewTaskService(mockRepo)
		assert.NoError(t, svc.Delete(context.Background(), ownerID, taskID))
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing or not owned", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Delete", mock.Anything, ownerID, taskID).Return(apperrors.ErrTaskNotFound)

		svc := NewTaskService(mockRepo)
		assert.ErrorIs(t, svc.Delete(context.Background(), ownerID, taskID), apperrors.ErrTaskNotFound)
	})
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		sortKey  string
		order    string
		expected repository.TaskSort
	}{
		{"createdAt", "desc", repository.TaskSort{Field: repository.SortCreatedAt, Descending: true}},
		{"createdAt", "asc", repository.TaskSort{Field: repository.SortCreatedAt, Descending: false}},
		{"dueDate", "asc", repository.TaskSort{Field: repository.SortDueDate, Descending: false}},
		{"due_date", "desc", repository.TaskSort{Field: repository.SortDueDate, Descending: true}},
		{"priority", "asc", repository.TaskSort{Field: repository.SortPriority, Descending: false}},
		{"", "", repository.TaskSort{Field: repository.SortCreatedAt, Descending: true}},
		{"bogus", "asc", repository.TaskSort{Field: repository.SortCreatedAt, Descending: false}},
	}

	for _, tt := range tests {
		t.Run(tt.sortKey+"/"+tt.order, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSort(tt.sortKey, tt.order))
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	assert.Equal(t, repository.StatusActive, ParseStatusFilter("active"))
	assert.Equal(t, repository.StatusCompleted, ParseStatusFilter("completed"))
	assert.Equal(t, repository.StatusAll, ParseStatusFilter("all"))
	assert.Equal(t, repository.StatusAll, ParseStatusFilter(""))
	assert.Equal(t, repository.StatusAll, ParseStatusFilter("bogus"))
}
