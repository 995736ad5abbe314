package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "taskforge/internal/errors"
	"taskforge/internal/model"
	"taskforge/internal/service"
)

// MockTaskService is a mock implementation of service.TaskService.
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, ownerID uuid.UUID, in service.CreateTaskInput) (*model.Task, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, ownerID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, in service.UpdateTaskInput) (*model.Task, error) {
	args := m.Called(ctx, ownerID, taskID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) Toggle(ctx context.Context, ownerID, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, ownerID, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	args := m.Called(ctx, ownerID, taskID)
	return args.Error(0)
}

func (m *MockTaskService) List(ctx context.Context, ownerID uuid.UUID, in service.ListTasksInput) ([]model.Task, int64, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Task), args.Get(1).(int64), args.Error(2)
}

func TestTaskAgent_CreateTask(t *testing.T) {
	ownerID := uuid.New()

	t.Run("success records action", func(t *testing.T) {
		created := &model.Task{ID: uuid.New(), UserID: ownerID, Title: "Buy milk"}

		mockSvc := new(MockTaskService)
		mockSvc.On("Create", mock.Anything, ownerID, mock.AnythingOfType("service.CreateTaskInput")).Return(created, nil)

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.CreateTask(context.Background(), "Buy milk", nil, "high", "")

		assert.True(t, result.Success)
		assert.Equal(t, created, result.Task)
		assert.Empty(t, result.Error)

		history := a.ActionHistory()
		require.Len(t, history, 1)
		assert.Equal(t, "create_task", history[0].Tool)
		assert.Equal(t, "Buy milk", history[0].Params["title"])
		assert.True(t, history[0].Result.Success)
	})

	t.Run("invalid priority never reaches the service", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.CreateTask(context.Background(), "Buy milk", nil, "urgent", "")

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "invalid priority")
		assert.True(t, apperrors.IsValidation(result.Err()))
		mockSvc.AssertNotCalled(t, "Create")

		// The failed call is still on the audit log.
		history := a.ActionHistory()
		require.Len(t, history, 1)
		assert.False(t, history[0].Result.Success)
	})

	t.Run("invalid due date format", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.CreateTask(context.Background(), "Buy milk", nil, "", "next tuesday")

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "invalid due_date format")
		mockSvc.AssertNotCalled(t, "Create")
	})

	t.Run("due date layouts accepted", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("Create", mock.Anything, ownerID, mock.MatchedBy(func(in service.CreateTaskInput) bool {
			return in.DueDate != nil
		})).Return(&model.Task{}, nil).Times(3)

		a := NewTaskAgent(mockSvc, ownerID)
		for _, raw := range []string{"2026-03-01T09:30:00Z", "2026-03-01T09:30:00", "2026-03-01"} {
			result := a.CreateTask(context.Background(), "Buy milk", nil, "", raw)
			assert.True(t, result.Success, raw)
		}
		mockSvc.AssertExpectations(t)
	})
}

func TestTaskAgent_ReadTask(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	t.Run("malformed id", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.ReadTask(context.Background(), "not-a-uuid")

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "invalid task id")
		mockSvc.AssertNotCalled(t, "Get")
	})

	t.Run("missing or not owned", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("Get", mock.Anything, ownerID, taskID).Return(nil, apperrors.ErrTaskNotFound)

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.ReadTask(context.Background(), taskID.String())

		assert.False(t, result.Success)
		assert.Equal(t, "task not found", result.Error)
		assert.ErrorIs(t, result.Err(), apperrors.ErrTaskNotFound)
	})

	t.Run("storage failure message does not leak", func(t *testing.T) {
		mockSvc := new(MockTaskService)
		mockSvc.On("Get", mock.Anything, ownerID, taskID).Return(nil, errors.New("dial tcp 10.0.0.5:3306: connection refused"))

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.ReadTask(context.Background(), taskID.String())

		assert.False(t, result.Success)
		assert.Equal(t, "internal error", result.Error)
	})
}

func TestTaskAgent_UpdateTask(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	t.Run("string fields coerced", func(t *testing.T) {
		priority := "high"
		dueDate := "2026-03-01T09:30:00"
		title := "New title"

		mockSvc := new(MockTaskService)
		mockSvc.On("Update", mock.Anything, ownerID, taskID, mock.MatchedBy(func(in service.UpdateTaskInput) bool {
			return in.Priority != nil && *in.Priority == model.PriorityHigh &&
				in.DueDate != nil && in.DueDate.Equal(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)) &&
				in.Title != nil && *in.Title == "New title"
		})).Return(&model.Task{ID: taskID}, nil)

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.UpdateTask(context.Background(), taskID.String(), UpdateParams{
			Title:    &title,
			Priority: &priority,
			DueDate:  &dueDate,
		})

		assert.True(t, result.Success)
		mockSvc.AssertExpectations(t)
	})

	t.Run("bad priority string", func(t *testing.T) {
		priority := "критично"

		mockSvc := new(MockTaskService)

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.UpdateTask(context.Background(), taskID.String(), UpdateParams{Priority: &priority})

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "invalid priority")
		mockSvc.AssertNotCalled(t, "Update")
	})
}

func TestTaskAgent_DeleteTask(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	mockSvc := new(MockTaskService)
	mockSvc.On("Delete", mock.Anything, ownerID, taskID).Return(nil)

	a := NewTaskAgent(mockSvc, ownerID)
	result := a.DeleteTask(context.Background(), taskID.String())

	assert.True(t, result.Success)
	assert.Equal(t, taskID.String(), result.DeletedID)
	mockSvc.AssertExpectations(t)
}

func TestTaskAgent_ListTasks(t *testing.T) {
	ownerID := uuid.New()

	t.Run("filters coerced and total returned", func(t *testing.T) {
		tasks := []model.Task{{Title: "a"}, {Title: "b"}}

		mockSvc := new(MockTaskService)
		mockSvc.On("List", mock.Anything, ownerID, mock.MatchedBy(func(in service.ListTasksInput) bool {
			return in.Filters.Priority != nil && *in.Filters.Priority == model.PriorityHigh
		})).Return(tasks, int64(7), nil)

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.ListTasks(context.Background(), ListParams{Priority: "high", Status: "completed"})

		assert.True(t, result.Success)
		assert.Equal(t, tasks, result.Tasks)
		require.NotNil(t, result.Total)
		assert.Equal(t, int64(7), *result.Total)
	})

	t.Run("bad priority filter", func(t *testing.T) {
		mockSvc := new(MockTaskService)

		a := NewTaskAgent(mockSvc, ownerID)
		result := a.ListTasks(context.Background(), ListParams{Priority: "severe"})

		assert.False(t, result.Success)
		mockSvc.AssertNotCalled(t, "List")
	})
}

func TestTaskAgent_ActionHistoryIsSnapshot(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	mockSvc := new(MockTaskService)
	mockSvc.On("Get", mock.Anything, ownerID, taskID).Return(&model.Task{ID: taskID}, nil)

	a := NewTaskAgent(mockSvc, ownerID)
	a.ReadTask(context.Background(), taskID.String())

	history := a.ActionHistory()
	require.Len(t, history, 1)

	// Mutating the snapshot must not rewrite the agent's log.
	history[0].Tool = "tampered"
	fresh := a.ActionHistory()
	assert.Equal(t, "read_task", fresh[0].Tool)
}

func TestTaskAgent_EveryCallIsLoggedInOrder(t *testing.T) {
	ownerID := uuid.New()
	taskID := uuid.New()

	mockSvc := new(MockTaskService)
	mockSvc.On("Get", mock.Anything, ownerID, taskID).Return(&model.Task{ID: taskID}, nil)

	a := NewTaskAgent(mockSvc, ownerID)
	a.ReadTask(context.Background(), "garbage")
	a.ReadTask(context.Background(), taskID.String())
	a.DeleteTask(context.Background(), "garbage")

	history := a.ActionHistory()
	require.Len(t, history, 3)
	assert.Equal(t, "read_task", history[0].Tool)
	assert.False(t, history[0].Result.Success)
	assert.Equal(t, "read_task", history[1].Tool)
	assert.True(t, history[1].Result.Success)
	assert.Equal(t, "delete_task", history[2].Tool)
	assert.False(t, history[2].Result.Success)
}
