package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"taskforge/internal/auth"
	apperrors "taskforge/internal/errors"
	"taskforge/internal/model"
	"taskforge/internal/repository"
	"taskforge/internal/service"
)

// TaskHandler handles the direct task CRUD endpoints.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTaskRequest represents a partial task update. Absent fields keep
// their stored values.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Completed   *bool      `json:"completed"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task *model.Task `json:"task"`
}

// TaskListResponse wraps a task page with its filtered total.
type TaskListResponse struct {
	Tasks  []model.Task `json:"tasks"`
	Total  int64        `json:"total"`
	Offset int          `json:"offset"`
	Limit  int          `json:"limit"`
}

func taskIDParam(c echo.Context) (uuid.UUID, *echo.HTTPError) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid task ID",
			Code:  "INVALID_UUID",
		})
	}
	return id, nil
}

// List godoc
// @Summary List tasks of the authenticated user
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter: all, active, completed"
// @Param priority query string false "Filter by priority: low, medium, high"
// @Param sort query string false "Sort by: createdAt, dueDate, priority"
// @Param order query string false "Sort order: asc, desc"
// @Param limit query int false "Page size (max 1000)"
// @Param offset query int false "Page offset"
// @Success 200 {object} TaskListResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	in := service.ListTasksInput{
		Filters: repository.TaskFilters{Status: service.ParseStatusFilter(c.QueryParam("status"))},
		Sort:    service.ParseSort(c.QueryParam("sort"), c.QueryParam("order")),
	}

	if raw := c.QueryParam("priority"); raw != "" {
		priority, valid := model.ParsePriority(raw)
		if !valid {
			return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
				Error: "invalid priority filter",
				Code:  "VALIDATION_ERROR",
			})
		}
		in.Filters.Priority = &priority
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	in.Page = repository.TaskPage{Limit: limit, Offset: offset}.Clamp()

	tasks, total, err := h.taskService.List(c.Request().Context(), userID, in)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, TaskListResponse{
		Tasks:  tasks,
		Total:  total,
		Offset: in.Page.Offset,
		Limit:  in.Page.Limit,
	})
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    model.Priority(req.Priority),
		DueDate:     req.DueDate,
	}

	task, err := h.taskService.Create(c.Request().Context(), userID, in)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, TaskResponse{Task: task})
}

// Get godoc
// @Summary Get a task by ID
// @Description Returns 404 when the task does not exist or belongs to
// @Description another user; the two cases are indistinguishable.
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	taskID, httpErr := taskIDParam(c)
	if httpErr != nil {
		return httpErr
	}

	task, err := h.taskService.Get(c.Request().Context(), userID, taskID)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, TaskResponse{Task: task})
}

// Update godoc
// @Summary Update a task (partial)
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to update"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	taskID, httpErr := taskIDParam(c)
	if httpErr != nil {
		return httpErr
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		DueDate:     req.DueDate,
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		in.Priority = &priority
	}

	task, err := h.taskService.Update(c.Request().Context(), userID, taskID, in)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, TaskResponse{Task: task})
}

// Toggle godoc
// @Summary Toggle task completion
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/toggle [patch]
func (h *TaskHandler) Toggle(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	taskID, httpErr := taskIDParam(c)
	if httpErr != nil {
		return httpErr
	}

	task, err := h.taskService.Toggle(c.Request().Context(), userID, taskID)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, TaskResponse{Task: task})
}

// Delete godoc
// @Summary Delete a task permanently
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	taskID, httpErr := taskIDParam(c)
	if httpErr != nil {
		return httpErr
	}

	if err := h.taskService.Delete(c.Request().Context(), userID, taskID); err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "task deleted successfully",
	})
}
