package report

import (
	"fmt"
	"strings"

	"github.com/fixo-intel/competitor-watch/internal/models"
)

var severityMarkers = map[models.Severity]string{
	models.SeverityHigh:   "**HIGH**",
	models.SeverityMedium: "MEDIUM",
	models.SeverityInfo:   "info",
}

// Markdown renders a structured-markup report.
func (g *Generator) Markdown(data *Data) string {
	var b strings.Builder

	fmt.Fprintln(&b, "# Competitor Watch - Intelligence Report")
	fmt.Fprintf(&b, "\n**Date:** %s\n", data.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "\n**Run:** `%s`\n", data.RunID)

	total := data.TotalChanges()
	fmt.Fprintf(&b, "\n**Total changes detected:** %d\n", total)

	if len(data.Failures) > 0 {
		fmt.Fprintln(&b, "\n## Failed entities")
		fmt.Fprintln(&b)
		for _, id := range sortedFailureIDs(data.Failures) {
			fmt.Fprintf(&b, "- **%s**: %s\n", id, data.Failures[id])
		}
	}

	if total == 0 {
		fmt.Fprintln(&b, "\nNo changes detected since the last scan.")
		return b.String()
	}

	fmt.Fprintln(&b, "\n## Summary")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "| Entity | Changes | High | Medium | Info |")
	fmt.Fprintln(&b, "|--------|---------|------|--------|------|")
	for _, id := range data.entityIDs() {
		changes := data.Changes[id]
		if len(changes) == 0 {
			continue
		}
		high, medium, info := severityCounts(changes)
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d |\n",
			strings.ToUpper(id), len(changes), high, medium, info)
	}

	for _, id := range data.entityIDs() {
		changes := data.Changes[id]
		if len(changes) == 0 {
			continue
		}

		fmt.Fprintf(&b, "\n## %s\n", strings.ToUpper(id))

		if snapshot := data.Snapshots[id]; snapshot != nil {
			fmt.Fprintln(&b)
			fmt.Fprintf(&b, "- **Current services:** %d\n", len(snapshot.Services))
			fmt.Fprintf(&b, "- **Locations:** %d\n", len(snapshot.Locations))
			fmt.Fprintf(&b, "- **Recorded prices:** %d\n", len(snapshot.Pricing))
			fmt.Fprintf(&b, "- **Active promotions:** %d\n", len(snapshot.Promotions))
		}

		order, grouped := byCategory(changes)
		for _, category := range order {
			fmt.Fprintf(&b, "\n### %s\n\n", categoryLabel(category))
			for _, change := range grouped[category] {
				marker := severityMarkers[change.Severity]
				fmt.Fprintf(&b, "- [%s] %s\n", marker, change.Description)
				if change.OldValue != "" && change.NewValue != "" {
					fmt.Fprintf(&b, "  - Before: `%s`\n", truncateValue(change.OldValue))
					fmt.Fprintf(&b, "  - Now: `%s`\n", truncateValue(change.NewValue))
				}
			}
		}
	}

	return b.String()
}
