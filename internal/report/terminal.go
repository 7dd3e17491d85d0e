package report

import (
	"fmt"
	"strings"

	"github.com/fixo-intel/competitor-watch/internal/models"
)

const ruleWidth = 70

var severityIcons = map[models.Severity]string{
	models.SeverityHigh:   "[!!!]",
	models.SeverityMedium: "[!!]",
	models.SeverityInfo:   "[i]",
}

// Terminal renders a fixed-width report for console output.
func (g *Generator) Terminal(data *Data) string {
	var b strings.Builder

	rule := strings.Repeat("=", ruleWidth)
	thin := strings.Repeat("-", ruleWidth)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "  Competitor Watch - Intelligence Report")
	fmt.Fprintf(&b, "  Generated: %s  (run %s)\n", data.GeneratedAt.Format("2006-01-02 15:04"), data.RunID)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)

	total := data.TotalChanges()
	fmt.Fprintf(&b, "  Total changes detected: %d\n\n", total)

	if len(data.Failures) > 0 {
		fmt.Fprintln(&b, thin)
		fmt.Fprintln(&b, "  FAILED ENTITIES")
		fmt.Fprintln(&b, thin)
		for _, id := range sortedFailureIDs(data.Failures) {
			fmt.Fprintf(&b, "  %-15s | %s\n", id, data.Failures[id])
		}
		fmt.Fprintln(&b)
	}

	if total == 0 {
		fmt.Fprintln(&b, "  No changes detected since the last scan.")
		fmt.Fprintln(&b, rule)
		return b.String()
	}

	fmt.Fprintln(&b, thin)
	fmt.Fprintln(&b, "  SUMMARY BY ENTITY")
	fmt.Fprintln(&b, thin)
	for _, id := range data.entityIDs() {
		changes := data.Changes[id]
		if len(changes) == 0 {
			continue
		}
		high, medium, info := severityCounts(changes)
		fmt.Fprintf(&b, "  %-15s | %3d changes  (%d high, %d medium, %d info)\n",
			strings.ToUpper(id), len(changes), high, medium, info)
	}
	fmt.Fprintln(&b)

	for _, id := range data.entityIDs() {
		changes := data.Changes[id]
		if len(changes) == 0 {
			continue
		}

		fmt.Fprintln(&b, thin)
		fmt.Fprintf(&b, "  %s\n", strings.ToUpper(id))
		fmt.Fprintln(&b, thin)

		if snapshot := data.Snapshots[id]; snapshot != nil {
			fmt.Fprintf(&b, "  Current services: %d\n", len(snapshot.Services))
			fmt.Fprintf(&b, "  Locations: %d\n", len(snapshot.Locations))
			fmt.Fprintf(&b, "  Recorded prices: %d\n", len(snapshot.Pricing))
			fmt.Fprintf(&b, "  Active promotions: %d\n\n", len(snapshot.Promotions))
		}

		order, grouped := byCategory(changes)
		for _, category := range order {
			fmt.Fprintf(&b, "  [%s]\n", categoryLabel(category))
			for _, change := range grouped[category] {
				icon := severityIcons[change.Severity]
				if icon == "" {
					icon = "[i]"
				}
				fmt.Fprintf(&b, "    %s %s\n", icon, change.Description)
				if change.OldValue != "" && change.NewValue != "" {
					fmt.Fprintf(&b, "        Before: %s\n", truncateValue(change.OldValue))
					fmt.Fprintf(&b, "        Now:    %s\n", truncateValue(change.NewValue))
				}
			}
			fmt.Fprintln(&b)
		}
	}

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "  End of report")
	fmt.Fprintln(&b, rule)

	return b.String()
}

func truncateValue(s string) string {
	runes := []rune(s)
	if len(runes) <= valuePreviewLen {
		return s
	}
	return string(runes[:valuePreviewLen])
}
