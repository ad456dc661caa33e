package handler

import (
	"context"
	"net/http"
	"time"

	"todo/internal/middleware"
	"todo/internal/model"
	"todo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskService interface {
	List(ctx context.Context, owner *model.User) ([]model.Task, error)
	Get(ctx context.Context, owner *model.User, id uuid.UUID) (*model.Task, error)
	Create(ctx context.Context, owner *model.User, in service.TaskCreate) (*model.Task, error)
	Update(ctx context.Context, owner *model.User, id uuid.UUID, in service.TaskUpdate) (*model.Task, error)
	UpdateStatus(ctx context.Context, owner *model.User, id uuid.UUID, status model.Status) (*model.Task, error)
	Delete(ctx context.Context, owner *model.User, id uuid.UUID) error
}

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type TaskResponse struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Completed   bool           `json:"completed"`
	Priority    model.Priority `json:"priority"`
	Status      model.Status   `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DueDate     *time.Time     `json:"due_date"`
}

type StatusRequest struct {
	Status model.Status `json:"status"`
}

func toTaskResponse(t *model.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		DueDate:     t.DueDate,
	}
}

// requestScope returns the authenticated user and, when withID is set, the
// task id from the path. Unparseable ids are answered like unknown ones.
func requestScope(c *gin.Context, withID bool) (*model.User, uuid.UUID, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, uuid.Nil, false
	}
	if !withID {
		return user, uuid.Nil, true
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return nil, uuid.Nil, false
	}
	return user, id, true
}

// List godoc
// @Summary      List tasks
// @Description  Tasks of the caller ordered by due date (nulls last), priority and newest first.
// @Tags         tasks
// @Produce      json
// @Success      200  {array}   TaskResponse
// @Failure      401  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	user, _, ok := requestScope(c, false)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), user)
	if err != nil {
		renderError(c, err)
		return
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, toTaskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        task  body      service.TaskCreate  true  "Task"
// @Success      201   {object}  TaskResponse
// @Failure      400   {object}  map[string][]string
// @Failure      401   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	user, _, ok := requestScope(c, false)
	if !ok {
		return
	}

	var req service.TaskCreate
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), user, req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTaskResponse(task))
}

// GetByID godoc
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  TaskResponse
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	user, id, ok := requestScope(c, true)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), user, id)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Update godoc
// @Summary      Update a task
// @Description  Partial update; fields missing from the body keep their value. PUT behaves the same.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string              true  "Task ID"
// @Param        task  body      service.TaskCreate  true  "Fields to change"
// @Success      200   {object}  TaskResponse
// @Failure      400   {object}  map[string][]string
// @Failure      404   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	user, id, ok := requestScope(c, true)
	if !ok {
		return
	}

	var req service.TaskUpdate
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), user, id, req)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

// UpdateStatus godoc
// @Summary      Change task status
// @Description  completed follows status: true only for "completed".
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path      string         true  "Task ID"
// @Param        status  body      StatusRequest  true  "New status"
// @Success      200     {object}  TaskResponse
// @Failure      400     {object}  map[string][]string
// @Failure      404     {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	user, id, ok := requestScope(c, true)
	if !ok {
		return
	}

	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.UpdateStatus(c.Request.Context(), user, id, req.Status)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Param        id   path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	user, id, ok := requestScope(c, true)
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), user, id); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
