package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homecare-app-server/internal/cache"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/pricing"
	"homecare-app-server/internal/utils"
)

const pricingCacheKey = "pricing:tree"

// PricingStore reads the offering tree.
type PricingStore interface {
	ListOfferings(ctx context.Context) ([]models.ServiceOffering, error)
	GetPlan(ctx context.Context, id string) (*models.ServicePlan, error)
}

// PricingHandler serves the public pricing page and quotes.
type PricingHandler struct {
	Store PricingStore
	Cache cache.Cache
	TTL   time.Duration
	Log   *zap.Logger
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(st PricingStore, c cache.Cache, ttl time.Duration, log *zap.Logger) *PricingHandler {
	return &PricingHandler{Store: st, Cache: c, TTL: ttl, Log: loggerOrNop(log)}
}

// GetPricing returns the active offering tree.
func (h *PricingHandler) GetPricing(c *gin.Context) {
	tree, err := cached(c.Request.Context(), h.Cache, h.Log, pricingCacheKey, h.TTL, h.Store.ListOfferings)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Pricing fetched successfully", tree)
}

// QuoteRequest selects a plan and its optional add-ons.
type QuoteRequest struct {
	PlanID   string   `json:"planId" binding:"required"`
	AddOnIDs []string `json:"addOnIds"`
}

// Quote handles POST /pricing/quote.
func (h *PricingHandler) Quote(c *gin.Context) {
	var req QuoteRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	plan, err := h.Store.GetPlan(c.Request.Context(), req.PlanID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	q, err := pricing.Calculate(plan, req.AddOnIDs)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Quote calculated successfully", q)
}
