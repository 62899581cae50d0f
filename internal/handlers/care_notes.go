package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/utils"
	"homecare-app-server/internal/workflow"
)

// CareNoteStore is the patient and assignment lookup behind care-note access.
type CareNoteStore interface {
	GetPatient(ctx context.Context, id string) (*models.Patient, error)
	HasActiveCaregiverAssignment(ctx context.Context, caregiverID, patientID string) (bool, error)
	HasActiveReviewerAssignment(ctx context.Context, reviewerID, patientID string) (bool, error)
}

// CareNotes reads and writes a patient's notes.
type CareNotes interface {
	ForPatient(ctx context.Context, patientID string) ([]models.CareNote, error)
	Write(ctx context.Context, n *models.CareNote) error
}

// CareNoteHandler serves /patients/:id/care-notes.
type CareNoteHandler struct {
	Store CareNoteStore
	Notes CareNotes
	Log   *zap.Logger
}

// NewCareNoteHandler creates a new CareNoteHandler.
func NewCareNoteHandler(st CareNoteStore, notes CareNotes, log *zap.Logger) *CareNoteHandler {
	return &CareNoteHandler{Store: st, Notes: notes, Log: loggerOrNop(log)}
}

// CreateCareNoteRequest is the body of a manually written note.
type CreateCareNoteRequest struct {
	Category string     `json:"category"`
	Title    string     `json:"title" binding:"required"`
	Content  string     `json:"content" binding:"required"`
	NoteDate *time.Time `json:"noteDate"`
}

// canRead: the patient, an assigned caregiver or reviewer, or an admin.
func (h *CareNoteHandler) canRead(ctx context.Context, p access.Principal, patient *models.Patient) (bool, error) {
	switch p.Role {
	case models.RoleAdmin, models.RoleSuperAdmin:
		return true, nil
	case models.RolePatient:
		return patient.UserID == p.ID, nil
	case models.RoleCaregiver:
		return h.Store.HasActiveCaregiverAssignment(ctx, p.ID, patient.ID)
	case models.RoleReviewer:
		return h.Store.HasActiveReviewerAssignment(ctx, p.ID, patient.ID)
	}
	return false, nil
}

func (h *CareNoteHandler) loadPatient(c *gin.Context) (*models.Patient, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.BadRequest(c, "Invalid patient ID format")
		return nil, false
	}
	patient, err := h.Store.GetPatient(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.Log, fmt.Errorf("patient: %w", err))
		return nil, false
	}
	return patient, true
}

// GetCareNotes handles GET /patients/:id/care-notes.
func (h *CareNoteHandler) GetCareNotes(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	patient, ok := h.loadPatient(c)
	if !ok {
		return
	}
	allowed, err := h.canRead(c.Request.Context(), p, patient)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if !allowed {
		utils.Forbidden(c, "You are not authorized to view these care notes")
		return
	}
	notes, err := h.Notes.ForPatient(c.Request.Context(), patient.ID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Care notes fetched successfully", notes)
}

// CreateCareNote handles POST /patients/:id/care-notes. Assigned caregivers and
// reviewers and admins may write notes; patients may not.
func (h *CareNoteHandler) CreateCareNote(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CreateCareNoteRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	patient, ok := h.loadPatient(c)
	if !ok {
		return
	}
	if p.Role == models.RolePatient {
		respondError(c, h.Log, workflow.ErrForbidden)
		return
	}
	allowed, err := h.canRead(c.Request.Context(), p, patient)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if !allowed {
		respondError(c, h.Log, workflow.ErrForbidden)
		return
	}

	note := &models.CareNote{
		PatientID: patient.ID,
		AuthorID:  p.ID,
		Category:  req.Category,
		Title:     req.Title,
		Content:   req.Content,
	}
	if req.NoteDate != nil {
		note.NoteDate = *req.NoteDate
	}
	if err := h.Notes.Write(c.Request.Context(), note); err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Created(c, "Care note created successfully", note)
}
