package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fixo-intel/competitor-watch/internal/models"
)

type jsonReport struct {
	RunID        string                `json:"run_id"`
	GeneratedAt  time.Time             `json:"generated_at"`
	TotalChanges int                   `json:"total_changes"`
	Entities     map[string]jsonEntity `json:"entities"`
}

type jsonEntity struct {
	ChangesCount    int              `json:"changes_count"`
	Changes         []models.Change  `json:"changes"`
	CurrentSnapshot *models.Snapshot `json:"current_snapshot,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// JSON renders a machine-readable report.
func (g *Generator) JSON(data *Data) (string, error) {
	rpt := jsonReport{
		RunID:        data.RunID,
		GeneratedAt:  data.GeneratedAt,
		TotalChanges: data.TotalChanges(),
		Entities:     make(map[string]jsonEntity, len(data.Changes)),
	}

	for id, changes := range data.Changes {
		if changes == nil {
			changes = []models.Change{}
		}
		rpt.Entities[id] = jsonEntity{
			ChangesCount:    len(changes),
			Changes:         changes,
			CurrentSnapshot: data.Snapshots[id],
			Error:           data.Failures[id],
		}
	}
	// Failed entities with no change record still appear in the output.
	for id, msg := range data.Failures {
		if _, ok := rpt.Entities[id]; !ok {
			rpt.Entities[id] = jsonEntity{Changes: []models.Change{}, Error: msg}
		}
	}

	out, err := json.MarshalIndent(rpt, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: failed to marshal json report: %w", err)
	}

	return string(out), nil
}

func sortedFailureIDs(failures map[string]string) []string {
	ids := make([]string, 0, len(failures))
	for id := range failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
