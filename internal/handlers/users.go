package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homecare-app-server/internal/models"
	"homecare-app-server/internal/store"
	"homecare-app-server/internal/utils"
)

// UserStore is the persistence behind /admin/users.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, role models.Role) ([]models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	SaveUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

// UserHandler handles admin user management.
type UserHandler struct {
	Store UserStore
	Log   *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(st UserStore, log *zap.Logger) *UserHandler {
	return &UserHandler{Store: st, Log: loggerOrNop(log)}
}

// CreateUserRequest represents the request body for creating a user by an admin.
// Patients are provisioned through /admin/patients so they get a profile.
type CreateUserRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Role        string `json:"role" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

// CreateUser handles creating a staff user.
func (h *UserHandler) CreateUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if role == models.RolePatient {
		utils.BadRequest(c, "Patients must be created through /admin/patients")
		return
	}
	if role == models.RoleSuperAdmin && p.Role != models.RoleSuperAdmin {
		utils.Forbidden(c, "Only a super admin can create super admins")
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

	user := &models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       email,
		Role:        role,
		PhoneNumber: req.PhoneNumber,
		IsActive:    true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		respondError(c, h.Log, err)
		return
	}
	if err := h.Store.CreateUser(ctx, user); err != nil {
		respondError(c, h.Log, err)
		return
	}

	h.Log.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(role)), zap.String("by", p.ID))
	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers lists users, optionally filtered by ?role=.
func (h *UserHandler) GetUsers(c *gin.Context) {
	var role models.Role
	if raw := c.Query("role"); raw != "" {
		r, err := models.ParseRole(raw)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		role = r
	}

	users, err := h.Store.ListUsers(c.Request.Context(), role)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	sanitized := make([]models.UserSanitized, len(users))
	for i := range users {
		sanitized[i] = users[i].Sanitize()
	}
	utils.Success(c, "Users fetched successfully", sanitized)
}

// GetUserByID handles fetching a single user by ID.
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.Store.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUserRequest represents the request body for updating a user by an admin.
type UpdateUserRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phoneNumber"`
	IsActive    *bool  `json:"isActive"`
}

// UpdateUser handles updating a user by ID. Password changes are not taken here.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := h.Store.GetUser(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if user.Role == models.RoleSuperAdmin && p.Role != models.RoleSuperAdmin {
		utils.Forbidden(c, "Only a super admin can modify super admins")
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
		existing, err := h.Store.GetUserByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != user.ID:
			utils.BadRequest(c, "New email is already in use")
			return
		case err != nil && !errors.Is(err, store.ErrNotFound):
			respondError(c, h.Log, err)
			return
		}
		user.Email = email
	}
	if req.Role != "" {
		role, err := models.ParseRole(req.Role)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		if role == models.RoleSuperAdmin && p.Role != models.RoleSuperAdmin {
			utils.Forbidden(c, "Only a super admin can grant super admin")
			return
		}
		user.Role = role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.Store.SaveUser(ctx, user); err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user by ID. Admins cannot delete themselves.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if id == p.ID {
		utils.BadRequest(c, "You cannot delete your own account")
		return
	}
	if err := h.Store.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, h.Log, err)
		return
	}
	h.Log.Info("user deleted", zap.String("user_id", id), zap.String("by", p.ID))
	utils.Success(c, "User deleted successfully", nil)
}
