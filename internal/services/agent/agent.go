// Package agent coordinates the scan pipeline: extraction, snapshot
// persistence, change detection and report generation per monitored entity.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fixo-intel/competitor-watch/internal/detector"
	"github.com/fixo-intel/competitor-watch/internal/models"
	"github.com/fixo-intel/competitor-watch/internal/report"
	"github.com/fixo-intel/competitor-watch/internal/repository"
	"github.com/fixo-intel/competitor-watch/internal/scraper"
)

// Notifier pushes a finished scan's report to subscribers. Delivery happens
// after the whole batch completes, never per change.
type Notifier interface {
	Broadcast(ctx context.Context, text string) error
}

// Agent runs independent per-entity pipelines and assembles the results.
type Agent struct {
	log      *slog.Logger
	registry *scraper.Registry
	repo     repository.SnapshotRepository
	detector *detector.Detector
	reporter *report.Generator

	mu        sync.RWMutex
	entityIDs []string
}

// NewAgent creates the scan coordinator for the given entity set.
func NewAgent(
	log *slog.Logger,
	registry *scraper.Registry,
	repo repository.SnapshotRepository,
	det *detector.Detector,
	reporter *report.Generator,
	entityIDs []string,
) *Agent {
	return &Agent{
		log:       log,
		registry:  registry,
		repo:      repo,
		detector:  det,
		reporter:  reporter,
		entityIDs: entityIDs,
	}
}

// SetEntities replaces the monitored entity set. Used when the
// configuration is reloaded between scheduled runs.
func (a *Agent) SetEntities(entityIDs []string) {
	a.mu.Lock()
	a.entityIDs = entityIDs
	a.mu.Unlock()
}

// EntityIDs returns the currently monitored entity ids.
func (a *Agent) EntityIDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.entityIDs...)
}

// RunScan scans the given entities (all configured ones when empty)
// concurrently, renders the report in the requested format and persists the
// report files. A failed entity never aborts the batch: it is recorded on
// the result with zero changes and its error message, and the remaining
// entities proceed.
func (a *Agent) RunScan(ctx context.Context, entityIDs []string, format report.Format) (*report.Data, string, error) {
	const opn = "agent.RunScan"
	log := a.log.With("op", opn)

	if len(entityIDs) == 0 {
		entityIDs = a.EntityIDs()
	}

	data := report.NewData()
	log.InfoContext(ctx, "Scan started", "run_id", data.RunID, "entities", entityIDs)

	var (
		wGroup sync.WaitGroup
		mu     sync.Mutex
	)

	for _, entityID := range entityIDs {
		wGroup.Add(1)
		go func(entityID string) {
			defer wGroup.Done()

			changes, snapshot, err := a.scanEntity(ctx, entityID)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.ErrorContext(ctx, "Entity scan failed", "entity", entityID, "error", err)
				data.Changes[entityID] = []models.Change{}
				data.Failures[entityID] = err.Error()
				return
			}

			data.Changes[entityID] = changes
			data.Snapshots[entityID] = snapshot
		}(entityID)
	}
	wGroup.Wait()

	rendered, err := a.reporter.Render(data, format)
	if err != nil {
		return data, "", fmt.Errorf("%s: %w", opn, err)
	}

	if _, err := a.reporter.SaveReports(data); err != nil {
		log.WarnContext(ctx, "Failed to persist report files", "error", err)
	}

	log.InfoContext(ctx, "Scan finished",
		"run_id", data.RunID,
		"changes", data.TotalChanges(),
		"failed_entities", len(data.Failures),
	)

	return data, rendered, nil
}

// scanEntity runs one entity's pipeline: latest snapshot lookup, scrape,
// save, diff against the prior snapshot. Stages are strictly sequential.
func (a *Agent) scanEntity(ctx context.Context, entityID string) ([]models.Change, *models.Snapshot, error) {
	const opn = "agent.scanEntity"
	log := a.log.With("op", opn, "entity", entityID)

	scr, ok := a.registry.Get(entityID)
	if !ok {
		return nil, nil, fmt.Errorf("%s: no scraper registered for entity %q", opn, entityID)
	}

	prior, err := a.repo.LatestSnapshot(ctx, entityID)
	if err != nil {
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			return nil, nil, fmt.Errorf("%s: failed to load latest snapshot: %w", opn, err)
		}
		prior = nil
	}

	snapshot, err := scr.Scrape(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: extraction failed: %w", opn, err)
	}

	if _, err = a.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opn, err)
	}

	if prior == nil {
		// First scan: nothing to compare against, zero changes by design.
		log.InfoContext(ctx, "First snapshot for entity, no prior data to compare")
		return []models.Change{}, snapshot, nil
	}

	changes, err := a.detector.Detect(prior, snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", opn, err)
	}

	log.InfoContext(ctx, "Entity scan complete", "changes", len(changes))

	return changes, snapshot, nil
}

// Status is the operator-facing view of one entity's latest snapshot.
type Status struct {
	EntityID        string            `json:"entity_id"`
	LastScan        time.Time         `json:"last_scan"`
	ServicesCount   int               `json:"services_count"`
	Services        []string          `json:"services,omitempty"`
	LocationsCount  int               `json:"locations_count"`
	Locations       []string          `json:"locations,omitempty"`
	PricingCount    int               `json:"pricing_count"`
	Pricing         map[string]string `json:"pricing,omitempty"`
	PromotionsCount int               `json:"promotions_count"`
	Promotions      []string          `json:"promotions,omitempty"`
	BusinessInfo    map[string]string `json:"business_info,omitempty"`
}

// EntityStatus reports the latest stored state of one entity. Returns
// repository.ErrSnapshotNotFound when the entity has never been scanned.
func (a *Agent) EntityStatus(ctx context.Context, entityID string) (*Status, error) {
	const opn = "agent.EntityStatus"

	snapshot, err := a.repo.LatestSnapshot(ctx, entityID)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return &Status{
		EntityID:        entityID,
		LastScan:        snapshot.CapturedAt,
		ServicesCount:   len(snapshot.Services),
		Services:        snapshot.Services,
		LocationsCount:  len(snapshot.Locations),
		Locations:       snapshot.Locations,
		PricingCount:    len(snapshot.Pricing),
		Pricing:         snapshot.Pricing,
		PromotionsCount: len(snapshot.Promotions),
		Promotions:      snapshot.Promotions,
		BusinessInfo:    snapshot.BusinessInfo,
	}, nil
}

// AllStatus reports the latest stored state of every monitored entity.
// Entities that were never scanned map to nil.
func (a *Agent) AllStatus(ctx context.Context) (map[string]*Status, error) {
	statuses := make(map[string]*Status)
	for _, entityID := range a.EntityIDs() {
		status, err := a.EntityStatus(ctx, entityID)
		if err != nil {
			if errors.Is(err, repository.ErrSnapshotNotFound) {
				statuses[entityID] = nil
				continue
			}
			return nil, err
		}
		statuses[entityID] = status
	}
	return statuses, nil
}

// RunInterval scans immediately and then on every tick until the context is
// canceled. When a notifier is attached, each finished scan's report is
// broadcast to subscribers.
func (a *Agent) RunInterval(ctx context.Context, interval time.Duration, format report.Format, notifier Notifier) error {
	const opn = "agent.RunInterval"
	log := a.log.With("op", opn)

	log.InfoContext(ctx, "Scheduled mode started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, rendered, err := a.RunScan(ctx, nil, format)
		if err != nil {
			log.ErrorContext(ctx, "Scheduled scan failed", "error", err)
		} else if notifier != nil {
			if err := notifier.Broadcast(ctx, rendered); err != nil {
				log.WarnContext(ctx, "Failed to broadcast report", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "Scheduled mode stopped")
			return nil
		case <-ticker.C:
		}
	}
}
