package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homecare-app-server/internal/cache"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/utils"
)

const (
	applicationsCacheKey = "applications:"
	reviewsCacheKey      = "reviews:approved"
)

// cached serves key from c when present and fills it from load otherwise.
// Cache failures are logged and fall through to load.
func cached[T any](ctx context.Context, c cache.Cache, log *zap.Logger, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var v T
	hit, err := cache.GetJSON(ctx, c, key, &v)
	if err != nil {
		log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if hit {
		return v, nil
	}
	v, err = load(ctx)
	if err != nil {
		return v, err
	}
	if err := cache.SetJSON(ctx, c, key, v, ttl); err != nil {
		log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return v, nil
}

func invalidate(ctx context.Context, c cache.Cache, log *zap.Logger, keys ...string) {
	if err := c.Invalidate(ctx, keys...); err != nil {
		log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// ApplicationStore persists caregiver job applications.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, a *models.CaregiverApplication) error
	GetApplication(ctx context.Context, id string) (*models.CaregiverApplication, error)
	ListApplications(ctx context.Context, status models.ApplicationStatus) ([]models.CaregiverApplication, error)
	SaveApplication(ctx context.Context, a *models.CaregiverApplication) error
}

// ApplicationHandler serves the public application form and its admin review.
type ApplicationHandler struct {
	Store ApplicationStore
	Cache cache.Cache
	TTL   time.Duration
	Log   *zap.Logger
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(st ApplicationStore, c cache.Cache, ttl time.Duration, log *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{Store: st, Cache: c, TTL: ttl, Log: loggerOrNop(log)}
}

// ApplicationRequest is the public application form.
type ApplicationRequest struct {
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	PhoneNumber     string `json:"phoneNumber" binding:"required"`
	YearsExperience int    `json:"yearsExperience" binding:"gte=0"`
	Certifications  string `json:"certifications"`
	CoverLetter     string `json:"coverLetter"`
}

// CreateApplication handles POST /applications.
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req ApplicationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	app := &models.CaregiverApplication{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		PhoneNumber:     req.PhoneNumber,
		YearsExperience: req.YearsExperience,
		Certifications:  req.Certifications,
		CoverLetter:     req.CoverLetter,
		Status:          models.ApplicationSubmitted,
	}
	ctx := c.Request.Context()
	if err := h.Store.CreateApplication(ctx, app); err != nil {
		respondError(c, h.Log, err)
		return
	}
	invalidate(ctx, h.Cache, h.Log, h.keys()...)
	utils.Created(c, "Application submitted successfully", app)
}

// GetApplications lists applications for admins, optionally by ?status=.
func (h *ApplicationHandler) GetApplications(c *gin.Context) {
	status := models.ApplicationStatus(strings.ToUpper(c.Query("status")))
	if status != "" && !status.Valid() {
		utils.BadRequest(c, "Unknown application status: "+string(status))
		return
	}
	apps, err := cached(c.Request.Context(), h.Cache, h.Log, applicationsCacheKey+string(status), h.TTL,
		func(ctx context.Context) ([]models.CaregiverApplication, error) {
			return h.Store.ListApplications(ctx, status)
		})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Applications fetched successfully", apps)
}

// UpdateApplicationRequest moves an application through review.
type UpdateApplicationRequest struct {
	Status     string  `json:"status" binding:"required"`
	AdminNotes *string `json:"adminNotes"`
}

// UpdateApplication handles PATCH /admin/applications/:id.
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req UpdateApplicationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	status := models.ApplicationStatus(strings.ToUpper(req.Status))
	if !status.Valid() {
		utils.BadRequest(c, "Unknown application status: "+req.Status)
		return
	}

	ctx := c.Request.Context()
	app, err := h.Store.GetApplication(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	app.Status = status
	if req.AdminNotes != nil {
		app.AdminNotes = *req.AdminNotes
	}
	reviewer := p.ID
	app.ReviewedByID = &reviewer
	if err := h.Store.SaveApplication(ctx, app); err != nil {
		respondError(c, h.Log, err)
		return
	}
	invalidate(ctx, h.Cache, h.Log, h.keys()...)
	utils.Success(c, "Application updated successfully", app)
}

// keys lists every cached list variant.
func (h *ApplicationHandler) keys() []string {
	keys := []string{applicationsCacheKey}
	for _, s := range []models.ApplicationStatus{
		models.ApplicationSubmitted, models.ApplicationReviewing, models.ApplicationInterviewed,
		models.ApplicationAccepted, models.ApplicationRejected, models.ApplicationWithdrawn,
	} {
		keys = append(keys, applicationsCacheKey+string(s))
	}
	return keys
}

// ReviewStore persists testimonials.
type ReviewStore interface {
	CreateReview(ctx context.Context, r *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	ListReviews(ctx context.Context, approvedOnly bool) ([]models.Review, error)
	SaveReview(ctx context.Context, r *models.Review) error
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// ReviewHandler serves testimonials.
type ReviewHandler struct {
	Store ReviewStore
	Cache cache.Cache
	TTL   time.Duration
	Log   *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(st ReviewStore, c cache.Cache, ttl time.Duration, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{Store: st, Cache: c, TTL: ttl, Log: loggerOrNop(log)}
}

// GetReviews returns approved reviews.
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	reviews, err := cached(c.Request.Context(), h.Cache, h.Log, reviewsCacheKey, h.TTL,
		func(ctx context.Context) ([]models.Review, error) {
			return h.Store.ListReviews(ctx, true)
		})
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Reviews fetched successfully", reviews)
}

// ReviewRequest is a patient's testimonial.
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required,max=2000"`
}

// CreateReview handles POST /reviews. New reviews wait for approval.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()
	user, err := h.Store.GetUser(ctx, p.ID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	r := &models.Review{
		AuthorID:   p.ID,
		AuthorName: user.FullName(),
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := h.Store.CreateReview(ctx, r); err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Created(c, "Review submitted for approval", r)
}

// ModerateReviewRequest approves or hides a review.
type ModerateReviewRequest struct {
	IsApproved *bool `json:"isApproved" binding:"required"`
}

// ModerateReview handles PATCH /admin/reviews/:id.
func (h *ReviewHandler) ModerateReview(c *gin.Context) {
	var req ModerateReviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()
	r, err := h.Store.GetReview(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	r.IsApproved = *req.IsApproved
	if err := h.Store.SaveReview(ctx, r); err != nil {
		respondError(c, h.Log, err)
		return
	}
	invalidate(ctx, h.Cache, h.Log, reviewsCacheKey)
	utils.Success(c, "Review updated successfully", r)
}
