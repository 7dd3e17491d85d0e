// Package report renders scan results for humans and machines.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fixo-intel/competitor-watch/internal/models"
)

// Format selects a report layout.
type Format string

const (
	FormatTerminal Format = "terminal"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

const valuePreviewLen = 80

// Data is everything a renderer consumes: the changes and current snapshot
// per entity, plus the entities whose pipeline failed. Failed entities are
// always listed in the output, never silently dropped.
type Data struct {
	RunID       string
	GeneratedAt time.Time
	Changes     map[string][]models.Change
	Snapshots   map[string]*models.Snapshot
	Failures    map[string]string
}

// NewData stamps a fresh run id and generation time.
func NewData() *Data {
	return &Data{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Changes:     make(map[string][]models.Change),
		Snapshots:   make(map[string]*models.Snapshot),
		Failures:    make(map[string]string),
	}
}

// TotalChanges counts detected changes across all entities.
func (d *Data) TotalChanges() int {
	total := 0
	for _, changes := range d.Changes {
		total += len(changes)
	}
	return total
}

func (d *Data) entityIDs() []string {
	ids := make([]string, 0, len(d.Changes))
	for id := range d.Changes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func severityCounts(changes []models.Change) (high, medium, info int) {
	for _, change := range changes {
		switch change.Severity {
		case models.SeverityHigh:
			high++
		case models.SeverityMedium:
			medium++
		case models.SeverityInfo:
			info++
		}
	}
	return high, medium, info
}

// categoryLabel maps every category of the closed set to its display name.
// The switch is exhaustive so adding a category without a label is caught
// in review; unknown values fall through as raw strings rather than being
// dropped.
func categoryLabel(category models.Category) string {
	switch category {
	case models.CategoryServices:
		return "Services"
	case models.CategoryPricing:
		return "Pricing"
	case models.CategoryLocations:
		return "Locations"
	case models.CategoryPromotions:
		return "Promotions"
	case models.CategoryBusinessModel:
		return "Business Model"
	default:
		return string(category)
	}
}

// byCategory groups changes preserving the fixed category order.
func byCategory(changes []models.Change) ([]models.Category, map[models.Category][]models.Change) {
	grouped := make(map[models.Category][]models.Change)
	for _, change := range changes {
		grouped[change.Category] = append(grouped[change.Category], change)
	}

	var order []models.Category
	for _, category := range models.Categories() {
		if len(grouped[category]) > 0 {
			order = append(order, category)
		}
	}
	return order, grouped
}

// Generator renders and persists scan reports.
type Generator struct {
	log        *slog.Logger
	reportsDir string
}

// NewGenerator creates a report generator writing files under reportsDir.
func NewGenerator(log *slog.Logger, reportsDir string) *Generator {
	return &Generator{log: log, reportsDir: reportsDir}
}

// Render produces the report in the requested format.
func (g *Generator) Render(data *Data, format Format) (string, error) {
	switch format {
	case FormatTerminal:
		return g.Terminal(data), nil
	case FormatMarkdown:
		return g.Markdown(data), nil
	case FormatJSON:
		return g.JSON(data)
	default:
		return "", fmt.Errorf("report: unknown format %q", format)
	}
}

// SaveReports persists markdown and JSON reports and returns the file paths.
func (g *Generator) SaveReports(data *Data) ([]string, error) {
	const opn = "report.SaveReports"

	if err := os.MkdirAll(g.reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: failed to create reports dir: %w", opn, err)
	}

	stamp := data.GeneratedAt.Format("20060102_150405")
	shortID := data.RunID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	var saved []string

	mdPath := filepath.Join(g.reportsDir, fmt.Sprintf("report_%s_%s.md", stamp, shortID))
	if err := os.WriteFile(mdPath, []byte(g.Markdown(data)), 0o644); err != nil {
		return nil, fmt.Errorf("%s: failed to write markdown report: %w", opn, err)
	}
	saved = append(saved, mdPath)

	jsonReport, err := g.JSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	jsonPath := filepath.Join(g.reportsDir, fmt.Sprintf("report_%s_%s.json", stamp, shortID))
	if err := os.WriteFile(jsonPath, []byte(jsonReport), 0o644); err != nil {
		return nil, fmt.Errorf("%s: failed to write json report: %w", opn, err)
	}
	saved = append(saved, jsonPath)

	g.log.Info("Reports saved", "run_id", data.RunID, "files", saved)

	return saved, nil
}
