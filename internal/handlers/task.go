package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/auth"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/dto"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/service"
)

// TaskHandler handles task CRUD and the active-users picker.
type TaskHandler struct {
	taskSvc *service.TaskService
	userSvc *service.UserService
}

func NewTaskHandler(taskSvc *service.TaskService, userSvc *service.UserService) *TaskHandler {
	return &TaskHandler{taskSvc: taskSvc, userSvc: userSvc}
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	ident, _ := auth.IdentityFromContext(c)
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid input data")
		return
	}
	t := domain.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.Status(req.Status),
		Priority:    domain.Priority(req.Priority),
		AssignedTo:  req.AssignedTo.Ptr(),
		DueDate:     req.DueDate.Ptr(),
	}
	id, err := h.taskSvc.Create(c.Request.Context(), ident, t)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidAssignee):
			fail(c, http.StatusBadRequest, "assigned user does not exist or is inactive")
		default:
			failInternal(c, err)
		}
		return
	}
	ok(c, http.StatusCreated, gin.H{"message": "task created successfully", "taskId": id})
}

// List godoc
// @Summary      List visible tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status       query  string  false  "Filter by status"
// @Param        priority     query  string  false  "Filter by priority"
// @Param        assigned_to  query  int     false  "Filter by assignee id"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	ident, _ := auth.IdentityFromContext(c)
	filters, valid := parseFilters(c)
	if !valid {
		return
	}
	tasks, err := h.taskSvc.List(c.Request.Context(), ident, filters)
	if err != nil {
		failInternal(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"tasks": dto.TasksToResponses(tasks), "count": len(tasks)})
}

// Get godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	ident, _ := auth.IdentityFromContext(c)
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	t, err := h.taskSvc.Get(c.Request.Context(), ident, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			fail(c, http.StatusNotFound, "task not found")
		case errors.Is(err, service.ErrForbidden):
			fail(c, http.StatusForbidden, "you do not have permission to view this task")
		default:
			failInternal(c, err)
		}
		return
	}
	ok(c, http.StatusOK, gin.H{"task": dto.TaskToResponse(t)})
}

// Update godoc
// @Summary      Partially update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int  true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Fields to change"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      403   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]interface{}
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	ident, _ := auth.IdentityFromContext(c)
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid input data")
		return
	}
	t, err := h.taskSvc.Update(c.Request.Context(), ident, id, req.Patch())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyUpdate):
			fail(c, http.StatusBadRequest, "no fields provided to update")
		case errors.Is(err, service.ErrValidation):
			fail(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidAssignee):
			fail(c, http.StatusBadRequest, "assigned user does not exist or is inactive")
		case errors.Is(err, service.ErrNotFound):
			fail(c, http.StatusNotFound, "task not found")
		case errors.Is(err, service.ErrForbidden):
			fail(c, http.StatusForbidden, "you do not have permission to edit this task")
		default:
			failInternal(c, err)
		}
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "task updated successfully", "task": dto.TaskToResponse(t)})
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Task ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	ident, _ := auth.IdentityFromContext(c)
	id, valid := parseID(c, "id")
	if !valid {
		return
	}
	if err := h.taskSvc.Delete(c.Request.Context(), ident, id); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			fail(c, http.StatusNotFound, "task not found")
		case errors.Is(err, service.ErrForbidden):
			fail(c, http.StatusForbidden, "you do not have permission to delete this task")
		default:
			failInternal(c, err)
		}
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "task deleted successfully"})
}

// ActiveUsers godoc
// @Summary      List active users for assignment
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /tasks/users/active [get]
func (h *TaskHandler) ActiveUsers(c *gin.Context) {
	users, err := h.userSvc.ActiveUsers(c.Request.Context())
	if err != nil {
		failInternal(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"users": dto.UsersToResponses(users)})
}

func parseFilters(c *gin.Context) (service.TaskFilters, bool) {
	var f service.TaskFilters
	if raw := c.Query("status"); raw != "" {
		s := domain.Status(raw)
		if !s.Valid() {
			fail(c, http.StatusBadRequest, "invalid status filter")
			return f, false
		}
		f.Status = &s
	}
	if raw := c.Query("priority"); raw != "" {
		p := domain.Priority(raw)
		if !p.Valid() {
			fail(c, http.StatusBadRequest, "invalid priority filter")
			return f, false
		}
		f.Priority = &p
	}
	if raw := c.Query("assigned_to"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			fail(c, http.StatusBadRequest, "invalid assigned_to filter")
			return f, false
		}
		f.AssignedTo = &id
	}
	return f, true
}
