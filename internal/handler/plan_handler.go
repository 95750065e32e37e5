package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mnemo-app/mnemo-api/internal/models"
	"github.com/mnemo-app/mnemo-api/internal/service"
	appErrors "github.com/mnemo-app/mnemo-api/pkg/errors"
	"github.com/mnemo-app/mnemo-api/pkg/response"
)

type planService interface {
	Create(ctx context.Context, req service.CreatePlanRequest) (*models.RevisionPlan, error)
	Get(ctx context.Context, id int64) (*models.RevisionPlan, error)
	List(ctx context.Context, rawStatus string) ([]models.RevisionPlan, error)
	CheckHandbook(ctx context.Context, handbookID int64) (*models.HandbookPlans, error)
}

// PlanHandler exposes revision plan endpoints.
type PlanHandler struct {
	service planService
}

// NewPlanHandler builds a new handler.
func NewPlanHandler(service planService) *PlanHandler {
	return &PlanHandler{service: service}
}

// Create godoc
// @Summary Create a revision plan and generate its tasks
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body service.CreatePlanRequest true "Plan payload"
// @Success 201 {object} response.Envelope
// @Router /revisions/plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	var req service.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid plan payload"))
		return
	}
	plan, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// List godoc
// @Summary List revision plans
// @Tags Plans
// @Produce json
// @Param status query string false "Plan status filter"
// @Success 200 {object} response.Envelope
// @Router /revisions/plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.service.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// Get godoc
// @Summary Get one revision plan
// @Tags Plans
// @Produce json
// @Param planId path int true "Plan ID"
// @Success 200 {object} response.Envelope
// @Router /revisions/plans/{planId} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	id, err := idParam(c, "planId")
	if err != nil {
		response.Error(c, err)
		return
	}
	plan, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// CheckHandbook godoc
// @Summary Check which active plans cover a handbook
// @Tags Plans
// @Produce json
// @Param handbookId path int true "Handbook ID"
// @Success 200 {object} response.Envelope
// @Router /revisions/handbooks/{handbookId}/plans [get]
func (h *PlanHandler) CheckHandbook(c *gin.Context) {
	id, err := idParam(c, "handbookId")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.CheckHandbook(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
