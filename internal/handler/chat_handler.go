package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"taskforge/internal/agent"
	"taskforge/internal/auth"
	apperrors "taskforge/internal/errors"
	"taskforge/internal/service"
)

// ChatHandler is a small keyword command layer over the task façade.
// Commands operate on the caller's persisted tasks; there is no
// conversation state kept between requests.
type ChatHandler struct {
	taskService service.TaskService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(taskService service.TaskService) *ChatHandler {
	return &ChatHandler{taskService: taskService}
}

// ChatRequest represents a chat message.
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// ChatResponse represents the reply to a chat message.
type ChatResponse struct {
	Message string `json:"message"`
}

// Chat godoc
// @Summary Send a chat command
// @Description Keyword commands: "task add <title>", "task delete <title>",
// @Description "list tasks". Anything else is echoed back.
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChatRequest true "Chat message"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Chat(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a := agent.NewTaskAgent(h.taskService, userID)
	reply := h.dispatch(c, a, strings.TrimSpace(req.Message))

	return c.JSON(http.StatusOK, ChatResponse{Message: reply})
}

func (h *ChatHandler) dispatch(c echo.Context, a *agent.TaskAgent, message string) string {
	ctx := c.Request().Context()
	lower := strings.ToLower(message)

	switch {
	case strings.HasPrefix(lower, "task add"):
		title := strings.TrimSpace(message[len("task add"):])
		if title == "" {
			return "Please provide a task name to add."
		}
		result := a.CreateTask(ctx, title, nil, "", "")
		if !result.Success {
			return "Could not add task: " + result.Error
		}
		return "Task added: " + result.Task.Title

	case strings.HasPrefix(lower, "task delete"):
		title := strings.TrimSpace(message[len("task delete"):])
		if title == "" {
			return "Please provide a task name to delete."
		}
		return h.deleteByTitle(c, a, title)

	case lower == "list tasks":
		result := a.ListTasks(ctx, agent.ListParams{})
		if !result.Success {
			return "Could not list tasks: " + result.Error
		}
		if len(result.Tasks) == 0 {
			return "You have no tasks yet."
		}
		lines := make([]string, 0, len(result.Tasks)+1)
		lines = append(lines, "Your tasks:")
		for _, task := range result.Tasks {
			marker := "[ ]"
			if task.Completed {
				marker = "[x]"
			}
			lines = append(lines, fmt.Sprintf("- %s %s", marker, task.Title))
		}
		return strings.Join(lines, "\n")

	case lower == "hello" || lower == "hi":
		return "Hello! I can manage your todo list. Try: task add Study"

	default:
		return "You said: " + message
	}
}

// deleteByTitle resolves a title to the caller's matching task and deletes
// it through the façade, so the action log covers both steps.
func (h *ChatHandler) deleteByTitle(c echo.Context, a *agent.TaskAgent, title string) string {
	ctx := c.Request().Context()

	result := a.ListTasks(ctx, agent.ListParams{})
	if !result.Success {
		return "Could not look up tasks: " + result.Error
	}

	for _, task := range result.Tasks {
		if strings.EqualFold(task.Title, title) {
			deleted := a.DeleteTask(ctx, task.ID.String())
			if !deleted.Success {
				return "Could not delete task: " + deleted.Error
			}
			return "Task deleted: " + task.Title
		}
	}

	return "Task not found: " + title
}
