// Package detector compares two snapshots of the same entity and emits the
// meaningful deltas between them, category by category.
package detector

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fixo-intel/competitor-watch/internal/models"
)

const hashPreviewLen = 16

// Detector diffs two snapshots and classifies the changes.
type Detector struct {
	log *slog.Logger
	now func() time.Time
}

// NewDetector creates a new Detector instance.
func NewDetector(log *slog.Logger) *Detector {
	return &Detector{log: log, now: time.Now}
}

// Detect produces the ordered change list between old and new snapshots of
// the same entity. Category order is fixed: services, pricing, locations,
// promotions, business narrative, raw pages. Returns
// models.ErrEntityMismatch when the snapshots belong to different entities.
func (d *Detector) Detect(old, new *models.Snapshot) ([]models.Change, error) {
	if old.EntityID != new.EntityID {
		return nil, fmt.Errorf("detector: comparing %q against %q: %w",
			old.EntityID, new.EntityID, models.ErrEntityMismatch)
	}

	detectedAt := d.now().UTC()

	changes := []models.Change{}
	changes = append(changes, d.serviceChanges(old, new, detectedAt)...)
	changes = append(changes, d.pricingChanges(old, new, detectedAt)...)
	changes = append(changes, d.locationChanges(old, new, detectedAt)...)
	changes = append(changes, d.promotionChanges(old, new, detectedAt)...)
	changes = append(changes, d.businessChanges(old, new, detectedAt)...)
	changes = append(changes, d.pageChanges(old, new, detectedAt)...)

	d.log.Info("Change detection complete", "entity", new.EntityID, "changes", len(changes))

	return changes, nil
}

func (d *Detector) serviceChanges(old, new *models.Snapshot, at time.Time) []models.Change {
	added, removed := setDiff(old.Services, new.Services)

	var changes []models.Change
	for _, service := range added {
		changes = append(changes, models.Change{
			EntityID:    new.EntityID,
			Type:        models.ServiceAdded,
			Category:    models.CategoryServices,
			Description: "New service detected: " + service,
			NewValue:    service,
			DetectedAt:  at,
			Severity:    models.SeverityHigh,
		})
	}
	for _, service := range removed {
		changes = append(changes, models.Change{
			EntityID:    new.EntityID,
			Type:        models.ServiceRemoved,
			Category:    models.CategoryServices,
			Description: "Service removed: " + service,
			OldValue:    service,
			DetectedAt:  at,
			Severity:    models.SeverityHigh,
		})
	}
	return changes
}

func (d *Detector) pricingChanges(old, new *models.Snapshot, at time.Time) []models.Change {
	var changes []models.Change
	for _, key := range unionKeys(old.Pricing, new.Pricing) {
		oldPrice, hadOld := old.Pricing[key]
		newPrice, hasNew := new.Pricing[key]

		change := models.Change{
			EntityID:   new.EntityID,
			Type:       models.PriceChanged,
			Category:   models.CategoryPricing,
			DetectedAt: at,
		}

		switch {
		case !hadOld && hasNew:
			change.Description = "New price recorded for: " + key
			change.NewValue = newPrice
			change.Severity = models.SeverityMedium
		case hadOld && !hasNew:
			change.Description = "Price removed for: " + key
			change.OldValue = oldPrice
			change.Severity = models.SeverityMedium
		case oldPrice != newPrice:
			change.Description = fmt.Sprintf("Price changed for %s: %s -> %s", key, oldPrice, newPrice)
			change.OldValue = oldPrice
			change.NewValue = newPrice
			change.Severity = models.SeverityHigh
		default:
			continue
		}

		changes = append(changes, change)
	}
	return changes
}

func (d *Detector) locationChanges(old, new *models.Snapshot, at time.Time) []models.Change {
	added, removed := setDiff(old.Locations, new.Locations)

	var changes []models.Change
	for _, location := range added {
		changes = append(changes, models.Change{
			EntityID:    new.EntityID,
			Type:        models.LocationAdded,
			Category:    models.CategoryLocations,
			Description: "New location: " + location,
			NewValue:    location,
			DetectedAt:  at,
			Severity:    models.SeverityHigh,
		})
	}
	for _, location := range removed {
		changes = append(changes, models.Change{
			EntityID:    new.EntityID,
			Type:        models.LocationRemoved,
			Category:    models.CategoryLocations,
			Description: "Location removed: " + location,
			OldValue:    location,
			DetectedAt:  at,
			Severity:    models.SeverityMedium,
		})
	}
	return changes
}

func (d *Detector) promotionChanges(old, new *models.Snapshot, at time.Time) []models.Change {
	added, removed := setDiff(old.Promotions, new.Promotions)

	var changes []models.Change
	for _, promo := range added {
		changes = append(changes, models.Change{
			EntityID:    new.EntityID,
			Type:        models.PromotionNew,
			Category:    models.CategoryPromotions,
			Description: "New promotion: " + promo,
			NewValue:    promo,
			DetectedAt:  at,
			Severity:    models.SeverityMedium,
		})
	}
	for _, promo := range removed {
		changes = append(changes, models.Change{
			EntityID:    new.EntityID,
			Type:        models.PromotionExpired,
			Category:    models.CategoryPromotions,
			Description: "Promotion expired or removed: " + promo,
			OldValue:    promo,
			DetectedAt:  at,
			Severity:    models.SeverityInfo,
		})
	}
	return changes
}

// businessChanges compares the "about" narrative hashes. A hash missing on
// either side means the page was not observed, which is never a change.
func (d *Detector) businessChanges(old, new *models.Snapshot, at time.Time) []models.Change {
	oldHash := old.AboutTextHash()
	newHash := new.AboutTextHash()

	if oldHash == "" || newHash == "" || oldHash == newHash {
		return nil
	}

	return []models.Change{{
		EntityID:    new.EntityID,
		Type:        models.BusinessModelChange,
		Category:    models.CategoryBusinessModel,
		Description: "'About' page content changed - possible business model shift",
		OldValue:    old.AboutTextPreview(),
		NewValue:    new.AboutTextPreview(),
		DetectedAt:  at,
		Severity:    models.SeverityMedium,
	}}
}

// pageChanges compares raw page hashes for every page observed on both
// sides. Catches changes that no structured field picked up.
func (d *Detector) pageChanges(old, new *models.Snapshot, at time.Time) []models.Change {
	var changes []models.Change
	for _, page := range unionKeys(old.RawPageHashes, new.RawPageHashes) {
		oldHash := old.RawPageHashes[page]
		newHash := new.RawPageHashes[page]

		if oldHash == "" || newHash == "" || oldHash == newHash {
			continue
		}

		changes = append(changes, models.Change{
			EntityID:    new.EntityID,
			Type:        models.WebsiteContentChange,
			Category:    models.CategoryBusinessModel,
			Description: fmt.Sprintf("Content of page %q changed", page),
			OldValue:    "hash: " + truncate(oldHash, hashPreviewLen),
			NewValue:    "hash: " + truncate(newHash, hashPreviewLen),
			DetectedAt:  at,
			Severity:    models.SeverityInfo,
		})
	}
	return changes
}

// setDiff returns the symmetric difference of two string sets, each side
// sorted so the output is deterministic.
func setDiff(oldItems, newItems []string) (added, removed []string) {
	oldSet := make(map[string]struct{}, len(oldItems))
	for _, item := range oldItems {
		oldSet[item] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newItems))
	for _, item := range newItems {
		newSet[item] = struct{}{}
	}

	for item := range newSet {
		if _, ok := oldSet[item]; !ok {
			added = append(added, item)
		}
	}
	for item := range oldSet {
		if _, ok := newSet[item]; !ok {
			removed = append(removed, item)
		}
	}

	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// unionKeys returns the sorted union of both mappings' keys.
func unionKeys(a, b map[string]string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for key := range a {
		seen[key] = struct{}{}
	}
	for key := range b {
		seen[key] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
