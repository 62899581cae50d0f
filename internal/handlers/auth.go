package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homecare-app-server/internal/config"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/store"
	"homecare-app-server/internal/utils"
)

const refreshCookie = "refresh_token"

// AuthStore is the persistence behind /auth.
type AuthStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error
	CreatePatientWithUser(ctx context.Context, u *models.User, p *models.Patient) error
	CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error
	FindActiveRefreshToken(ctx context.Context, token, userID string, now time.Time) (*models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id string) error
}

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	Store AuthStore
	Cfg   *config.Config
	Log   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st AuthStore, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Store: st, Cfg: cfg, Log: loggerOrNop(log)}
}

// RegisterRequest is a patient's self-registration.
type RegisterRequest struct {
	FirstName        string     `json:"firstName" binding:"required"`
	LastName         string     `json:"lastName" binding:"required"`
	Email            string     `json:"email" binding:"required,email"`
	Password         string     `json:"password" binding:"required,min=8"`
	PhoneNumber      string     `json:"phoneNumber"`
	DateOfBirth      *time.Time `json:"dateOfBirth"`
	Address          string     `json:"address"`
	EmergencyContact string     `json:"emergencyContact"`
	CareNeeds        string     `json:"careNeeds"`
}

// RegisterResponse is returned after registration.
type RegisterResponse struct {
	User      models.UserSanitized `json:"user"`
	PatientID string               `json:"patientId"`
}

// Register creates a patient user and the patient profile together.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
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

	h.Log.Info("patient registered", zap.String("user_id", user.ID), zap.String("patient_id", patient.ID))
	utils.Created(c, "User registered successfully", RegisterResponse{User: user.Sanitize(), PatientID: patient.ID})
}

// LoginRequest represents the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the response body for successful login.
type LoginResponse struct {
	utils.TokenPair
	User models.UserSanitized `json:"user"`
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.Store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Unauthorized(c, "Invalid email or password")
			return
		}
		respondError(c, h.Log, err)
		return
	}
	if !user.CheckPassword(req.Password) {
		utils.Unauthorized(c, "Invalid email or password")
		return
	}
	if !user.IsActive {
		utils.Forbidden(c, "Account is disabled")
		return
	}

	pair, ok := h.issue(c, user)
	if !ok {
		return
	}
	utils.Success(c, "Login successful", LoginResponse{TokenPair: *pair, User: user.Sanitize()})
}

// issue signs a token pair, stores the refresh token and sets the cookie.
func (h *AuthHandler) issue(c *gin.Context, user *models.User) (*utils.TokenPair, bool) {
	pair, err := utils.GenerateTokens(user, h.Cfg)
	if err != nil {
		respondError(c, h.Log, err)
		return nil, false
	}
	rt := &models.RefreshToken{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: time.Now().Add(time.Duration(h.Cfg.JWTRefreshExpirationHours) * time.Hour),
	}
	if err := h.Store.CreateRefreshToken(c.Request.Context(), rt); err != nil {
		respondError(c, h.Log, err)
		return nil, false
	}
	c.SetCookie(refreshCookie, pair.RefreshToken, h.Cfg.JWTRefreshExpirationHours*60*60, "/", "", !h.Cfg.IsDevelopment(), true)
	return pair, true
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken rotates a refresh token. The cookie wins over the body.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	raw, err := c.Cookie(refreshCookie)
	if err != nil || raw == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		raw = req.RefreshToken
	}

	claims, err := utils.ValidateToken(raw, h.Cfg.JWTRefreshSecret)
	if err != nil {
		utils.Unauthorized(c, "Invalid refresh token")
		return
	}
	ctx := c.Request.Context()
	stored, err := h.Store.FindActiveRefreshToken(ctx, raw, claims.UserID, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Unauthorized(c, "Refresh token not found, expired, or revoked")
			return
		}
		respondError(c, h.Log, err)
		return
	}
	user, err := h.Store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Unauthorized(c, "User no longer exists")
			return
		}
		respondError(c, h.Log, err)
		return
	}
	if err := h.Store.RevokeRefreshToken(ctx, stored.ID); err != nil {
		respondError(c, h.Log, err)
		return
	}

	pair, ok := h.issue(c, user)
	if !ok {
		return
	}
	utils.Success(c, "Access token refreshed successfully", pair)
}

// LogoutRequest represents the request body for user logout.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout revokes the refresh token. Unknown tokens still log out.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw, err := c.Cookie(refreshCookie)
	if err != nil || raw == "" {
		var req LogoutRequest
		_ = c.ShouldBindJSON(&req)
		raw = req.RefreshToken
	}
	if raw == "" {
		utils.BadRequest(c, "Refresh token is required")
		return
	}

	stored, err := h.Store.FindActiveRefreshToken(c.Request.Context(), raw, "", time.Now())
	switch {
	case err == nil:
		if err := h.Store.RevokeRefreshToken(c.Request.Context(), stored.ID); err != nil {
			respondError(c, h.Log, err)
			return
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		respondError(c, h.Log, err)
		return
	}

	c.SetCookie(refreshCookie, "", -1, "/", "", !h.Cfg.IsDevelopment(), true)
	utils.Success(c, "Logout successful", nil)
}

// GetProfile returns the signed-in user.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	user, err := h.Store.GetUser(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// UpdateProfileRequest represents the request body for updating user profile.
type UpdateProfileRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

// UpdateProfile changes the signed-in user's name and phone number.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	user, err := h.Store.GetUser(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.Log, err)
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
	if err := h.Store.SaveUser(c.Request.Context(), user); err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Profile updated successfully", user.Sanitize())
}
