package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/utils"
	"homecare-app-server/internal/workflow"
)

// ScheduleService is the caregiver-schedule workflow.
type ScheduleService interface {
	Create(ctx context.Context, p access.Principal, in workflow.NewSchedule) (*models.CaregiverSchedule, error)
	Get(ctx context.Context, p access.Principal, id string) (*models.CaregiverSchedule, error)
	List(ctx context.Context, p access.Principal, status string) ([]models.CaregiverSchedule, error)
	Update(ctx context.Context, p access.Principal, id string, in workflow.ScheduleUpdate) (*models.CaregiverSchedule, error)
	Delete(ctx context.Context, p access.Principal, id string) error
}

// ScheduleHandler serves /caregiver-schedules.
type ScheduleHandler struct {
	Svc ScheduleService
	Log *zap.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(svc ScheduleService, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{Svc: svc, Log: loggerOrNop(log)}
}

// CreateSchedule handles POST /caregiver-schedules.
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workflow.NewSchedule
	if !utils.BindAndValidate(c, &req) {
		return
	}
	cs, err := h.Svc.Create(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Created(c, "Schedule created successfully", cs)
}

// GetSchedules handles GET /caregiver-schedules?status=.
func (h *ScheduleHandler) GetSchedules(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	list, err := h.Svc.List(c.Request.Context(), p, c.Query("status"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Schedules fetched successfully", list)
}

// GetSchedule handles GET /caregiver-schedules/:id.
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	cs, err := h.Svc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Schedule fetched successfully", cs)
}

// UpdateSchedule handles PATCH /caregiver-schedules/:id.
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workflow.ScheduleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	cs, err := h.Svc.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Schedule updated successfully", cs)
}

// DeleteSchedule handles DELETE /caregiver-schedules/:id.
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Schedule deleted successfully", nil)
}
