// Package scraper turns a monitored entity's live pages into a snapshot.
// Each entity has exactly one active extraction strategy behind the Scraper
// capability; site specifics live in configuration (page URLs and CSS
// selectors), not in per-site code.
package scraper

import (
	"context"
	"log/slog"

	"github.com/fixo-intel/competitor-watch/internal/config"
	"github.com/fixo-intel/competitor-watch/internal/models"
)

// Scraper produces a snapshot of one entity's current public state.
// Implementations tolerate partial failure: pages that cannot be fetched
// are omitted from the snapshot, and a fully failed extraction still
// returns an empty snapshot rather than an error.
type Scraper interface {
	Scrape(ctx context.Context) (*models.Snapshot, error)
}

// Registry maps entity ids to their extraction strategy.
type Registry struct {
	scrapers map[string]Scraper
}

// NewRegistry builds a registry with a site scraper per configured entity.
func NewRegistry(log *slog.Logger, cfg *config.Config) *Registry {
	scrapers := make(map[string]Scraper, len(cfg.Entities))
	for _, entity := range cfg.Entities {
		scrapers[entity.ID] = NewSiteScraper(log, entity, cfg.Scraping)
	}
	return &Registry{scrapers: scrapers}
}

// Register installs (or replaces) the scraper for an entity id.
func (r *Registry) Register(entityID string, s Scraper) {
	if r.scrapers == nil {
		r.scrapers = make(map[string]Scraper)
	}
	r.scrapers[entityID] = s
}

// Get returns the scraper registered for the entity id.
func (r *Registry) Get(entityID string) (Scraper, bool) {
	s, ok := r.scrapers[entityID]
	return s, ok
}
