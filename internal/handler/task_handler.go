package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mnemo-app/mnemo-api/internal/models"
	"github.com/mnemo-app/mnemo-api/internal/service"
	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
	"github.com/mnemo-app/mnemo-api/pkg/response"
)

type taskService interface {
	Update(ctx context.Context, taskID int64, req service.UpdateTaskRequest) (*models.RevisionTask, error)
	BatchUpdate(ctx context.Context, req service.BatchUpdateTasksRequest) ([]models.RevisionTask, error)
	Next(ctx context.Context, planID *int64, rawMode string) (*models.RevisionTask, error)
	Adjust(ctx context.Context, taskID int64, req service.AdjustTaskRequest) (*models.RevisionTask, error)
	ListPlanTasks(ctx context.Context, planID int64, rawStatus string, date *time.Time) ([]models.TaskWithNote, error)
	ListDaily(ctx context.Context, date time.Time, rawStatus string) ([]models.TaskWithNote, error)
	AddNoteToPlan(ctx context.Context, noteID, planID int64, startDate *time.Time, priority *int) (*models.RevisionTask, error)
	AddNoteToPlans(ctx context.Context, noteID int64, req service.AddNoteToPlansRequest) (*service.AddNoteResult, error)
}

// TaskHandler exposes task lifecycle endpoints.
type TaskHandler struct {
	service taskService
}

// NewTaskHandler builds a new handler.
func NewTaskHandler(service taskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Update godoc
// @Summary Update a single revision task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param taskId path int true "Task ID"
// @Param payload body service.UpdateTaskRequest true "Task update payload"
// @Success 200 {object} response.Envelope
// @Router /revisions/tasks/{taskId} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := idParam(c, "taskId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}
	task, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// BatchUpdate godoc
// @Summary Update several tasks in one transaction
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body service.BatchUpdateTasksRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /revisions/tasks/batch [post]
func (h *TaskHandler) BatchUpdate(c *gin.Context) {
	var req service.BatchUpdateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	tasks, err := h.service.BatchUpdate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// Next godoc
// @Summary Get the next due pending task
// @Tags Tasks
// @Produce json
// @Param planId query int false "Plan ID filter"
// @Param mode query string false "Revision mode"
// @Success 200 {object} response.Envelope
// @Success 204 "No due task"
// @Router /revisions/tasks/next [get]
func (h *TaskHandler) Next(c *gin.Context) {
	planID, err := idQuery(c, "planId")
	if err != nil {
		response.Error(c, err)
		return
	}
	task, err := h.service.Next(c.Request.Context(), planID, c.Query("mode"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if task == nil {
		response.NoContent(c)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// Adjust godoc
// @Summary Reschedule a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param taskId path int true "Task ID"
// @Param payload body service.AdjustTaskRequest true "Adjust payload"
// @Success 200 {object} response.Envelope
// @Router /revisions/tasks/{taskId}/adjust [post]
func (h *TaskHandler) Adjust(c *gin.Context) {
	id, err := idParam(c, "taskId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AdjustTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid adjust payload"))
		return
	}
	task, err := h.service.Adjust(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task, nil)
}

// ListPlanTasks godoc
// @Summary List a plan's tasks with note summaries
// @Tags Tasks
// @Produce json
// @Param planId path int true "Plan ID"
// @Param status query string false "Task status filter"
// @Param date query string false "Scheduled date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /revisions/plans/{planId}/tasks [get]
func (h *TaskHandler) ListPlanTasks(c *gin.Context) {
	id, err := idParam(c, "planId")
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	tasks, err := h.service.ListPlanTasks(c.Request.Context(), id, c.Query("status"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// ListDaily godoc
// @Summary List tasks scheduled on a day
// @Tags Tasks
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD), defaults to today"
// @Param status query string false "Task status filter"
// @Success 200 {object} response.Envelope
// @Router /revisions/daily-tasks [get]
func (h *TaskHandler) ListDaily(c *gin.Context) {
	date, err := dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	day := time.Now().UTC()
	if date != nil {
		day = *date
	}
	tasks, err := h.service.ListDaily(c.Request.Context(), day, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// addNoteToPlanRequest carries the optional overrides for single-plan enrollment.
type addNoteToPlanRequest struct {
	StartDate *time.Time `json:"start_date"`
	Priority  *int       `json:"priority"`
}

// AddNoteToPlan godoc
// @Summary Enroll a note into one plan
// @Tags Tasks
// @Accept json
// @Produce json
// @Param noteId path int true "Note ID"
// @Param planId path int true "Plan ID"
// @Success 201 {object} response.Envelope
// @Router /revisions/notes/{noteId}/plans/{planId} [post]
func (h *TaskHandler) AddNoteToPlan(c *gin.Context) {
	noteID, err := idParam(c, "noteId")
	if err != nil {
		response.Error(c, err)
		return
	}
	planID, err := idParam(c, "planId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req addNoteToPlanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	task, err := h.service.AddNoteToPlan(c.Request.Context(), noteID, planID, req.StartDate, req.Priority)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// AddNoteToPlans godoc
// @Summary Enroll a note into several plans
// @Tags Tasks
// @Accept json
// @Produce json
// @Param noteId path int true "Note ID"
// @Param payload body service.AddNoteToPlansRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /revisions/notes/{noteId}/plans [post]
func (h *TaskHandler) AddNoteToPlans(c *gin.Context) {
	noteID, err := idParam(c, "noteId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AddNoteToPlansRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.AddNoteToPlans(c.Request.Context(), noteID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
