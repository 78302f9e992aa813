package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ytakahashi/device-tasks/internal/screen"
	"github.com/ytakahashi/device-tasks/internal/services"
)

// ScreenHandler exposes the task screen over HTTP.
type ScreenHandler struct {
	screen *screen.Screen
}

func NewScreenHandler(s *screen.Screen) *ScreenHandler {
	return &ScreenHandler{screen: s}
}

// Register mounts the screen routes on e.
func (h *ScreenHandler) Register(e *echo.Echo) {
	e.GET("/", h.Render)
	e.GET("/tasks", h.ListTasks)
	e.POST("/tasks", h.AddTask)
	e.DELETE("/tasks/:id", h.DeleteTask)
	e.POST("/sync", h.Sync)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

type addTaskRequest struct {
	Title string `json:"title" form:"title"`
}

// Render returns the screen as plain text.
func (h *ScreenHandler) Render(c echo.Context) error {
	var buf bytes.Buffer
	screen.Render(&buf, h.screen.State())
	return c.String(http.StatusOK, buf.String())
}

func (h *ScreenHandler) ListTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.screen.State())
}

// AddTask creates a task from the request title. The input field is left
// alone so concurrent requests cannot mix titles.
func (h *ScreenHandler) AddTask(c echo.Context) error {
	var req addTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	err := h.screen.Submit(c.Request().Context(), req.Title)
	if errors.Is(err, services.ErrEmptyTitle) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "failed to add task"})
	}
	return c.JSON(http.StatusAccepted, h.screen.State())
}

func (h *ScreenHandler) DeleteTask(c echo.Context) error {
	h.screen.Delete(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusAccepted, h.screen.State())
}

func (h *ScreenHandler) Sync(c echo.Context) error {
	err := h.screen.Sync(c.Request().Context())
	if errors.Is(err, screen.ErrSyncInProgress) {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "sync failed"})
	}
	return c.JSON(http.StatusOK, h.screen.State())
}
