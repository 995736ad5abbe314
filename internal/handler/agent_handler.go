package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"taskforge/internal/agent"
	"taskforge/internal/auth"
	apperrors "taskforge/internal/errors"
	"taskforge/internal/service"
)

// AgentHandler mirrors the task CRUD surface through the tool façade.
// Responses carry the per-request action history next to the payload.
type AgentHandler struct {
	taskService service.TaskService
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(taskService service.TaskService) *AgentHandler {
	return &AgentHandler{taskService: taskService}
}

// newAgent builds the request-scoped façade, or fails with 401.
func (h *AgentHandler) newAgent(c echo.Context) (*agent.TaskAgent, *echo.HTTPError) {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return nil, echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return agent.NewTaskAgent(h.taskService, userID), nil
}

// respond maps a façade result to an HTTP response, attaching the agent's
// action history in both the success and the failure case.
func respond(c echo.Context, a *agent.TaskAgent, result agent.Result, successStatus int) error {
	if !result.Success {
		httpErr := apperrors.MapErrorToHTTP(result.Err())
		return c.JSON(httpErr.StatusCode, map[string]interface{}{
			"success":       false,
			"error":         result.Error,
			"agent_actions": a.ActionHistory(),
		})
	}

	body := map[string]interface{}{
		"agent_actions": a.ActionHistory(),
	}
	if result.Task != nil {
		body["task"] = result.Task
	}
	if result.Tasks != nil {
		body["tasks"] = result.Tasks
	}
	if result.Total != nil {
		body["total"] = *result.Total
	}
	if result.DeletedID != "" {
		body["success"] = true
		body["deleted_id"] = result.DeletedID
	}

	return c.JSON(successStatus, body)
}

// Create godoc
// @Summary Create a task through the agent façade
// @Tags agent-tasks
// @Produce json
// @Security BearerAuth
// @Param title query string true "Task title"
// @Param description query string false "Task description"
// @Param priority query string false "Priority: low, medium, high"
// @Param due_date query string false "Due date (ISO 8601)"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /agent/tasks [post]
func (h *AgentHandler) Create(c echo.Context) error {
	a, httpErr := h.newAgent(c)
	if httpErr != nil {
		return httpErr
	}

	var description *string
	if raw := c.QueryParam("description"); raw != "" {
		description = &raw
	}

	result := a.CreateTask(
		c.Request().Context(),
		c.QueryParam("title"),
		description,
		c.QueryParam("priority"),
		c.QueryParam("due_date"),
	)
	return respond(c, a, result, http.StatusCreated)
}

// Read godoc
// @Summary Read a task through the agent façade
// @Tags agent-tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} map[string]interface{}
// @Router /agent/tasks/{id} [get]
func (h *AgentHandler) Read(c echo.Context) error {
	a, httpErr := h.newAgent(c)
	if httpErr != nil {
		return httpErr
	}

	result := a.ReadTask(c.Request().Context(), c.Param("id"))
	return respond(c, a, result, http.StatusOK)
}

// Update godoc
// @Summary Update a task through the agent façade
// @Tags agent-tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param title query string false "New title"
// @Param description query string false "New description"
// @Param completed query bool false "New completion flag"
// @Param priority query string false "New priority"
// @Param due_date query string false "New due date (ISO 8601)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} map[string]interface{}
// @Router /agent/tasks/{id} [put]
func (h *AgentHandler) Update(c echo.Context) error {
	a, httpErr := h.newAgent(c)
	if httpErr != nil {
		return httpErr
	}

	var update agent.UpdateParams
	if raw := c.QueryParam("title"); raw != "" {
		update.Title = &raw
	}
	if raw := c.QueryParam("description"); raw != "" {
		update.Description = &raw
	}
	if raw := c.QueryParam("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
				Error: "invalid completed value",
				Code:  "VALIDATION_ERROR",
			})
		}
		update.Completed = &completed
	}
	if raw := c.QueryParam("priority"); raw != "" {
		update.Priority = &raw
	}
	if raw := c.QueryParam("due_date"); raw != "" {
		update.DueDate = &raw
	}

	result := a.UpdateTask(c.Request().Context(), c.Param("id"), update)
	return respond(c, a, result, http.StatusOK)
}

// Toggle godoc
// @Summary Toggle task completion through the agent façade
// @Tags agent-tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} map[string]interface{}
// @Router /agent/tasks/{id}/toggle [patch]
func (h *AgentHandler) Toggle(c echo.Context) error {
	a, httpErr := h.newAgent(c)
	if httpErr != nil {
		return httpErr
	}

	result := a.ToggleTask(c.Request().Context(), c.Param("id"))
	return respond(c, a, result, http.StatusOK)
}

// Delete godoc
// @Summary Delete a task through the agent façade
// @Tags agent-tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} map[string]interface{}
// @Router /agent/tasks/{id} [delete]
func (h *AgentHandler) Delete(c echo.Context) error {
	a, httpErr := h.newAgent(c)
	if httpErr != nil {
		return httpErr
	}

	result := a.DeleteTask(c.Request().Context(), c.Param("id"))
	return respond(c, a, result, http.StatusOK)
}

// List godoc
// @Summary List tasks through the agent façade
// @Tags agent-tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter: all, active, completed"
// @Param priority query string false "Filter by priority"
// @Param sort query string false "Sort by: createdAt, dueDate, priority"
// @Param order query string false "Sort order: asc, desc"
// @Param limit query int false "Page size (max 1000)"
// @Param offset query int false "Page offset"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} errors.ErrorResponse
// @Router /agent/tasks [get]
func (h *AgentHandler) List(c echo.Context) error {
	a, httpErr := h.newAgent(c)
	if httpErr != nil {
		return httpErr
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	result := a.ListTasks(c.Request().Context(), agent.ListParams{
		Status:   c.QueryParam("status"),
		Priority: c.QueryParam("priority"),
		SortKey:  c.QueryParam("sort"),
		Order:    c.QueryParam("order"),
		Limit:    limit,
		Offset:   offset,
	})
	return respond(c, a, result, http.StatusOK)
}
