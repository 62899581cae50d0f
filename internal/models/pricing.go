package models

// BillingPeriod says how often a plan's base price is charged.
type BillingPeriod string

const (
	BillingOneTime BillingPeriod = "ONE_TIME"
	BillingWeekly  BillingPeriod = "WEEKLY"
	BillingMonthly BillingPeriod = "MONTHLY"
)

// Recurring reports whether the base price repeats.
func (b BillingPeriod) Recurring() bool {
	switch b {
	case BillingWeekly, BillingMonthly:
		return true
	case BillingOneTime:
		return false
	}
	return false
}

// ServiceOffering is the root of the pricing tree (e.g. "Elder care").
type ServiceOffering struct {
	BaseModel
	Name        string `gorm:"size:120;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	SortOrder   int    `json:"sortOrder"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`

	Plans []ServicePlan `gorm:"foreignKey:OfferingID" json:"plans"`
}

// ServicePlan is a purchasable package under an offering. Prices are in cents.
type ServicePlan struct {
	BaseModel
	OfferingID    string        `gorm:"size:36;index;not null" json:"offeringId"`
	Name          string        `gorm:"size:120;not null" json:"name"`
	BasePrice     int64         `json:"basePrice"`
	BillingPeriod BillingPeriod `gorm:"size:20;default:'MONTHLY'" json:"billingPeriod"`
	SortOrder     int           `json:"sortOrder"`
	IsActive      bool          `gorm:"default:true" json:"isActive"`

	Features []PlanFeature `gorm:"foreignKey:PlanID" json:"features"`
	AddOns   []PlanAddOn   `gorm:"foreignKey:PlanID" json:"addOns"`
}

// PlanFeature is an included line item shown on the plan card.
type PlanFeature struct {
	BaseModel
	PlanID    string `gorm:"size:36;index;not null" json:"planId"`
	Label     string `gorm:"size:255;not null" json:"label"`
	SortOrder int    `json:"sortOrder"`
}

// PlanAddOn is an extra that may be optional, required, and/or recurring.
type PlanAddOn struct {
	BaseModel
	PlanID      string `gorm:"size:36;index;not null" json:"planId"`
	Name        string `gorm:"size:120;not null" json:"name"`
	Price       int64  `json:"price"`
	IsRequired  bool   `gorm:"default:false" json:"isRequired"`
	IsOptional  bool   `gorm:"default:true" json:"isOptional"`
	IsRecurring bool   `gorm:"default:false" json:"isRecurring"`
}
