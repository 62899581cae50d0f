package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homecare-app-server/internal/models"
	"homecare-app-server/internal/settings"
	"homecare-app-server/internal/store"
	"homecare-app-server/internal/utils"
)

// AdminStore is the persistence behind the /admin patient, assignment and
// settings endpoints.
type AdminStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetPatient(ctx context.Context, id string) (*models.Patient, error)
	ListPatients(ctx context.Context) ([]models.Patient, error)
	CreatePatientWithUser(ctx context.Context, u *models.User, p *models.Patient) error
	AssignCaregiver(ctx context.Context, patientID, caregiverID string) (*models.CaregiverAssignment, error)
	AssignReviewer(ctx context.Context, patientID, reviewerID string) (*models.ReviewerAssignment, error)
	ListSettings(ctx context.Context) ([]models.AdminSetting, error)
	UpsertSetting(ctx context.Context, row *models.AdminSetting) error
}

// AdminHandler serves the admin portal.
type AdminHandler struct {
	Store AdminStore
	Log   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(st AdminStore, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Store: st, Log: loggerOrNop(log)}
}

// CreatePatientRequest provisions a patient account and profile, optionally
// with its first caregiver and reviewer.
type CreatePatientRequest struct {
	FirstName        string     `json:"firstName" binding:"required"`
	LastName         string     `json:"lastName" binding:"required"`
	Email            string     `json:"email" binding:"required,email"`
	Password         string     `json:"password" binding:"required,min=8"`
	PhoneNumber      string     `json:"phoneNumber"`
	DateOfBirth      *time.Time `json:"dateOfBirth"`
	Address          string     `json:"address"`
	EmergencyContact string     `json:"emergencyContact"`
	CareNeeds        string     `json:"careNeeds"`
	CaregiverID      string     `json:"caregiverId"`
	ReviewerID       string     `json:"reviewerId"`
}

// CreatePatient handles POST /admin/patients.
func (h *AdminHandler) CreatePatient(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CreatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := h.Store.GetUserByEmail(ctx, email); err == nil {
		utils.BadRequest(c, "User with this email already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		respondError(c, h.Log, err)
		return
	}
	if req.CaregiverID != "" && !h.hasRole(c, req.CaregiverID, models.RoleCaregiver) {
		return
	}
	if req.ReviewerID != "" && !h.hasRole(c, req.ReviewerID, models.RoleReviewer) {
		return
	}

	user := &models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       email,
		PhoneNumber: req.PhoneNumber,
		Role:        models.RolePatient,
		IsActive:    true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		respondError(c, h.Log, err)
		return
	}
	patient := &models.Patient{
		DateOfBirth:      req.DateOfBirth,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		CareNeeds:        req.CareNeeds,
	}
	if err := h.Store.CreatePatientWithUser(ctx, user, patient); err != nil {
		respondError(c, h.Log, err)
		return
	}
	if req.CaregiverID != "" {
		if _, err := h.Store.AssignCaregiver(ctx, patient.ID, req.CaregiverID); err != nil {
			respondError(c, h.Log, err)
			return
		}
	}
	if req.ReviewerID != "" {
		if _, err := h.Store.AssignReviewer(ctx, patient.ID, req.ReviewerID); err != nil {
			respondError(c, h.Log, err)
			return
		}
	}

	h.Log.Info("patient provisioned",
		zap.String("patient_id", patient.ID),
		zap.String("caregiver_id", req.CaregiverID),
		zap.String("reviewer_id", req.ReviewerID),
		zap.String("by", p.ID),
	)
	utils.Created(c, "Patient created successfully", patient)
}

// hasRole writes a 400 unless userID exists with the given role.
func (h *AdminHandler) hasRole(c *gin.Context, userID string, role models.Role) bool {
	u, err := h.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.BadRequest(c, "No "+string(role)+" with id "+userID)
			return false
		}
		respondError(c, h.Log, err)
		return false
	}
	if u.Role != role || !u.IsActive {
		utils.BadRequest(c, "User "+userID+" is not an active "+string(role))
		return false
	}
	return true
}

// GetPatients lists every patient profile with its user.
func (h *AdminHandler) GetPatients(c *gin.Context) {
	patients, err := h.Store.ListPatients(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Patients fetched successfully", patients)
}

// AssignmentRequest links a staff user to a patient.
type AssignmentRequest struct {
	PatientID string `json:"patientId" binding:"required,uuid"`
	UserID    string `json:"userId" binding:"required,uuid"`
}

// AssignCaregiver replaces the patient's active caregiver.
func (h *AdminHandler) AssignCaregiver(c *gin.Context) {
	req, ok := h.bindAssignment(c, models.RoleCaregiver)
	if !ok {
		return
	}
	a, err := h.Store.AssignCaregiver(c.Request.Context(), req.PatientID, req.UserID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	h.Log.Info("caregiver assigned", zap.String("patient_id", req.PatientID), zap.String("caregiver_id", req.UserID))
	utils.Created(c, "Caregiver assigned successfully", a)
}

// AssignReviewer replaces the patient's active reviewer.
func (h *AdminHandler) AssignReviewer(c *gin.Context) {
	req, ok := h.bindAssignment(c, models.RoleReviewer)
	if !ok {
		return
	}
	a, err := h.Store.AssignReviewer(c.Request.Context(), req.PatientID, req.UserID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	h.Log.Info("reviewer assigned", zap.String("patient_id", req.PatientID), zap.String("reviewer_id", req.UserID))
	utils.Created(c, "Reviewer assigned successfully", a)
}

func (h *AdminHandler) bindAssignment(c *gin.Context, role models.Role) (AssignmentRequest, bool) {
	var req AssignmentRequest
	if !utils.BindAndValidate(c, &req) {
		return req, false
	}
	if _, err := h.Store.GetPatient(c.Request.Context(), req.PatientID); err != nil {
		respondError(c, h.Log, err)
		return req, false
	}
	if !h.hasRole(c, req.UserID, role) {
		return req, false
	}
	return req, true
}

// SettingView is one known setting with its effective value.
type SettingView struct {
	Key         settings.Key `json:"key"`
	Value       string       `json:"value"`
	Default     string       `json:"default"`
	Description string       `json:"description"`
	UpdatedByID string       `json:"updatedById,omitempty"`
	UpdatedAt   *time.Time   `json:"updatedAt,omitempty"`
}

// GetSettings lists every known setting. Missing rows show their default.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	rows, err := h.Store.ListSettings(c.Request.Context())
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	stored := make(map[string]models.AdminSetting, len(rows))
	for _, r := range rows {
		stored[r.Key] = r
	}

	out := make([]SettingView, 0, len(settings.Keys))
	for _, d := range settings.Keys {
		v := SettingView{Key: d.Key, Value: d.Default, Default: d.Default, Description: d.Description}
		if r, ok := stored[string(d.Key)]; ok {
			updated := r.UpdatedAt
			v.Value = r.Value
			v.UpdatedByID = r.UpdatedByID
			v.UpdatedAt = &updated
		}
		out = append(out, v)
	}
	utils.Success(c, "Settings fetched successfully", out)
}

// UpdateSettingRequest carries the new value. Toggles accept "true" or "false".
type UpdateSettingRequest struct {
	Value string `json:"value" binding:"required,oneof=true false"`
}

// UpdateSetting handles PUT /admin/settings/:key.
func (h *AdminHandler) UpdateSetting(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	key, err := settings.ParseKey(c.Param("key"))
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}
	var req UpdateSettingRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	row := &models.AdminSetting{
		Key:         string(key),
		Value:       req.Value,
		Description: settings.Describe(key),
		UpdatedByID: p.ID,
	}
	if err := h.Store.UpsertSetting(c.Request.Context(), row); err != nil {
		respondError(c, h.Log, err)
		return
	}
	h.Log.Info("setting updated", zap.String("key", string(key)), zap.String("value", req.Value), zap.String("by", p.ID))
	utils.Success(c, "Setting updated successfully", row)
}
