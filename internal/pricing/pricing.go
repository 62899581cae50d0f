// Package pricing computes quotes from the service offering tree.
package pricing

import (
	"errors"
	"fmt"

	"homecare-app-server/internal/models"
)

var (
	ErrUnknownAddOn  = errors.New("add-on does not belong to this plan")
	ErrInactivePlan  = errors.New("plan is not available")
	ErrInvalidAmount = errors.New("negative price in plan")
)

// Line is one priced item of a quote.
type Line struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Recurring bool   `json:"recurring"`
	Required  bool   `json:"required"`
}

// Quote is the price of a plan with a set of add-ons. Amounts are in cents.
type Quote struct {
	PlanID         string               `json:"planId"`
	PlanName       string               `json:"planName"`
	BillingPeriod  models.BillingPeriod `json:"billingPeriod"`
	Lines          []Line               `json:"lines"`
	OneTimeTotal   int64                `json:"oneTimeTotal"`
	RecurringTotal int64                `json:"recurringTotal"`
}

// Calculate prices plan with the selected add-ons. Required add-ons are always
// included whether selected or not; duplicates in selected are ignored.
func Calculate(plan *models.ServicePlan, selected []string) (*Quote, error) {
	if !plan.IsActive {
		return nil, ErrInactivePlan
	}
	if plan.BasePrice < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, plan.Name)
	}

	byID := make(map[string]models.PlanAddOn, len(plan.AddOns))
	for _, a := range plan.AddOns {
		byID[a.ID] = a
	}
	chosen := make(map[string]bool, len(selected))
	for _, id := range selected {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAddOn, id)
		}
		chosen[id] = true
	}

	recurringBase := plan.BillingPeriod.Recurring()
	q := &Quote{
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		BillingPeriod: plan.BillingPeriod,
		Lines: []Line{{
			ID:        plan.ID,
			Name:      plan.Name,
			Price:     plan.BasePrice,
			Recurring: recurringBase,
			Required:  true,
		}},
	}
	if recurringBase {
		q.RecurringTotal += plan.BasePrice
	} else {
		q.OneTimeTotal += plan.BasePrice
	}

	// walk plan.AddOns to keep the plan's ordering in the quote
	for _, a := range plan.AddOns {
		if !a.IsRequired && !chosen[a.ID] {
			continue
		}
		if a.Price < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, a.Name)
		}
		q.Lines = append(q.Lines, Line{
			ID:        a.ID,
			Name:      a.Name,
			Price:     a.Price,
			Recurring: a.IsRecurring,
			Required:  a.IsRequired,
		})
		if a.IsRecurring {
			q.RecurringTotal += a.Price
		} else {
			q.OneTimeTotal += a.Price
		}
	}
	return q, nil
}
