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

// ServiceRequestService is the service-request workflow.
type ServiceRequestService interface {
	Create(ctx context.Context, p access.Principal, in workflow.NewServiceRequest) (*models.ServiceRequest, error)
	Get(ctx context.Context, p access.Principal, id string) (*models.ServiceRequest, error)
	List(ctx context.Context, p access.Principal, status string) ([]models.ServiceRequest, error)
	Update(ctx context.Context, p access.Principal, id string, in workflow.ServiceRequestUpdate) (*models.ServiceRequest, error)
	Delete(ctx context.Context, p access.Principal, id string) error
}

// ServiceRequestHandler serves /service-requests.
type ServiceRequestHandler struct {
	Svc ServiceRequestService
	Log *zap.Logger
}

// NewServiceRequestHandler creates a new ServiceRequestHandler.
func NewServiceRequestHandler(svc ServiceRequestService, log *zap.Logger) *ServiceRequestHandler {
	return &ServiceRequestHandler{Svc: svc, Log: loggerOrNop(log)}
}

// CreateServiceRequest handles POST /service-requests.
func (h *ServiceRequestHandler) CreateServiceRequest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workflow.NewServiceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	sr, err := h.Svc.Create(c.Request.Context(), p, req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Created(c, "Service request created successfully", sr)
}

// GetServiceRequests handles GET /service-requests?status=.
func (h *ServiceRequestHandler) GetServiceRequests(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	list, err := h.Svc.List(c.Request.Context(), p, c.Query("status"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Service requests fetched successfully", list)
}

// GetServiceRequest handles GET /service-requests/:id.
func (h *ServiceRequestHandler) GetServiceRequest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sr, err := h.Svc.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Service request fetched successfully", sr)
}

// UpdateServiceRequest handles PATCH /service-requests/:id.
func (h *ServiceRequestHandler) UpdateServiceRequest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req workflow.ServiceRequestUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	sr, err := h.Svc.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Service request updated successfully", sr)
}

// DeleteServiceRequest handles DELETE /service-requests/:id.
func (h *ServiceRequestHandler) DeleteServiceRequest(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Service request deleted successfully", nil)
}
