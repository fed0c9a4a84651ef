package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"Tasklist/internal/domain"
	"Tasklist/internal/dto"
	"Tasklist/internal/tasks"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

const (
	eventBuffer       = 32
	keepAliveInterval = 15 * time.Second
)

type TaskHandler struct {
	mgr       *tasks.Manager
	keepAlive time.Duration
}

func NewTaskHandler(mgr *tasks.Manager) *TaskHandler {
	return &TaskHandler{mgr: mgr, keepAlive: keepAliveInterval}
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prio, err := dto.ParsePriority(req.Priority)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, err := h.mgr.AddTask(req.Label, req.Category, prio)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTaskResponse(t))
}

// List godoc
// @Summary      List tasks matching the current filters
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  dto.ListTasksResponse
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ListTasksResponse{
		Items:   dto.NewTaskResponses(h.mgr.VisibleTasks()),
		Filters: dto.NewFiltersResponse(h.mgr.Filters()),
	})
}

// All godoc
// @Summary      List every live task, ignoring filters
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  dto.ListTasksResponse
// @Router       /tasks/all [get]
func (h *TaskHandler) All(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ListTasksResponse{
		Items:   dto.NewTaskResponses(h.mgr.Tasks()),
		Filters: dto.NewFiltersResponse(domain.Filter{}),
	})
}

// GetByID godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, found := h.mgr.Task(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskResponse(t))
}

// Update godoc
// @Summary      Edit label, category or priority
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	patch, err := req.Patch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, found, err := h.mgr.EditTask(id, patch)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskResponse(t))
}

// Toggle godoc
// @Summary      Flip the completion flag
// @Tags         tasks
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id}/toggle [post]
func (h *TaskHandler) Toggle(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, found := h.mgr.ToggleTask(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskResponse(t))
}

// Delete godoc
// @Summary      Delete a task; it can be restored until undo_deadline
// @Tags         tasks
// @Produce      json
// @Param        id   path      int  true  "Task ID"
// @Success      200  {object}  dto.PendingResponse
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, deadline, found := h.mgr.DeleteTask(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, dto.PendingResponse{Task: dto.NewTaskResponse(t), UndoDeadline: deadline})
}

// Undo godoc
// @Summary      Restore the most recently deleted task
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  dto.TaskResponse
// @Failure      409  {object}  map[string]string
// @Router       /tasks/undo [post]
func (h *TaskHandler) Undo(c *gin.Context) {
	t, ok := h.mgr.UndoDelete()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "nothing to undo"})
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskResponse(t))
}

// Pending godoc
// @Summary      Show the task awaiting undo
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  dto.PendingResponse
// @Success      204
// @Router       /tasks/pending [get]
func (h *TaskHandler) Pending(c *gin.Context) {
	t, deadline, ok := h.mgr.Pending()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, dto.PendingResponse{Task: dto.NewTaskResponse(t), UndoDeadline: deadline})
}

// Stats godoc
// @Summary      Counts of live tasks
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  tasks.Stats
// @Router       /tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.mgr.Stats())
}

// GetFilters godoc
// @Summary      Current filter criteria
// @Tags         filters
// @Produce      json
// @Success      200  {object}  dto.FiltersResponse
// @Router       /filters [get]
func (h *TaskHandler) GetFilters(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewFiltersResponse(h.mgr.Filters()))
}

// SetFilters godoc
// @Summary      Replace filter criteria
// @Tags         filters
// @Accept       json
// @Produce      json
// @Param        body  body      dto.FiltersRequest  true  "Filters"
// @Success      200   {object}  dto.FiltersResponse
// @Failure      400   {object}  map[string]string
// @Router       /filters [put]
func (h *TaskHandler) SetFilters(c *gin.Context) {
	var req dto.FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f, err := req.Filter()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mgr.SetFilters(f)
	c.JSON(http.StatusOK, dto.NewFiltersResponse(h.mgr.Filters()))
}

// ResetFilters godoc
// @Summary      Show every task again
// @Tags         filters
// @Produce      json
// @Success      200  {object}  dto.FiltersResponse
// @Router       /filters [delete]
func (h *TaskHandler) ResetFilters(c *gin.Context) {
	h.mgr.ResetFilters()
	c.JSON(http.StatusOK, dto.NewFiltersResponse(h.mgr.Filters()))
}

// Categories godoc
// @Summary      Categories offered by default
// @Tags         tasks
// @Produce      json
// @Success      200  {object}  map[string][]string
// @Router       /categories [get]
func (h *TaskHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": domain.DefaultCategories()})
}

// Events godoc
// @Summary      Server-sent stream of task changes
// @Description  Each frame carries the event type, its sequence number as id and the event as JSON.
// @Description  Idle streams receive a comment line periodically.
// @Tags         tasks
// @Produce      text/event-stream
// @Router       /events [get]
func (h *TaskHandler) Events(c *gin.Context) {
	ch := make(chan tasks.Event, eventBuffer)
	cancel := h.mgr.Subscribe(func(ev tasks.Event) {
		select {
		case ch <- ev:
		default:
			// slow client, drop
		}
	})
	defer cancel()

	// The server write timeout is meant for ordinary responses, not streams.
	rc := http.NewResponseController(c.Writer)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-ch:
			c.Render(-1, sse.Event{
				Id:    strconv.FormatUint(ev.Seq, 10),
				Event: string(ev.Type),
				Data:  ev,
			})
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		}
	})
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, tasks.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
