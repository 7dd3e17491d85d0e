package models

import "time"

// ChangeType is the closed set of deltas the detector can emit.
type ChangeType string

const (
	ServiceAdded         ChangeType = "service_added"
	ServiceRemoved       ChangeType = "service_removed"
	PriceChanged         ChangeType = "price_changed"
	LocationAdded        ChangeType = "location_added"
	LocationRemoved      ChangeType = "location_removed"
	PromotionNew         ChangeType = "promotion_new"
	PromotionExpired     ChangeType = "promotion_expired"
	BusinessModelChange  ChangeType = "business_model_change"
	WebsiteContentChange ChangeType = "website_content_change"
)

// Label returns a human-readable name for the change type.
func (t ChangeType) Label() string {
	switch t {
	case ServiceAdded:
		return "New Service"
	case ServiceRemoved:
		return "Service Removed"
	case PriceChanged:
		return "Price Change"
	case LocationAdded:
		return "New Location"
	case LocationRemoved:
		return "Location Removed"
	case PromotionNew:
		return "New Promotion"
	case PromotionExpired:
		return "Promotion Expired"
	case BusinessModelChange:
		return "Business Model Change"
	case WebsiteContentChange:
		return "Website Content Change"
	default:
		return string(t)
	}
}

// Category groups changes for reporting.
type Category string

const (
	CategoryServices      Category = "services"
	CategoryPricing       Category = "pricing"
	CategoryLocations     Category = "locations"
	CategoryPromotions    Category = "promotions"
	CategoryBusinessModel Category = "business_model"
)

// Categories lists all categories in the fixed report order.
func Categories() []Category {
	return []Category{
		CategoryServices,
		CategoryPricing,
		CategoryLocations,
		CategoryPromotions,
		CategoryBusinessModel,
	}
}

// Severity is a coarse urgency tag attached to a change.
type Severity string

const (
	SeverityInfo   Severity = "info"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Change is one detected delta between two snapshots of the same entity.
type Change struct {
	EntityID    string     `json:"entity_id"`
	Type        ChangeType `json:"change_type"`
	Category    Category   `json:"category"`
	Description string     `json:"description"`
	OldValue    string     `json:"old_value,omitempty"`
	NewValue    string     `json:"new_value,omitempty"`
	DetectedAt  time.Time  `json:"detected_at"`
	Severity    Severity   `json:"severity"`
}
