package alerting

import (
	"sort"
	"time"

	"github.com/platformbuilds/alert-engine/internal/models"
)

// Statistics is the read-side rollup served by GetStatistics. All counts
// are computed on demand from the store; nothing here mutates state.
type Statistics struct {
	ActiveTotal        int                     `json:"active_total"`
	Active             map[models.Priority]int `json:"active"`
	Last24H            map[models.Priority]int `json:"last_24h"`
	Last7D             map[models.Priority]int `json:"last_7d"`
	ByAction           map[string]int          `json:"by_action"`
	Channels           []string                `json:"channels"`
	QueueLength        int                     `json:"queue_length"`
	Processing         bool                    `json:"processing"`
	PendingEscalations int                     `json:"pending_escalations"`
}

// GetStatistics assembles alert counts by priority for the active set and
// the trailing 24-hour and 7-day creation windows, lifecycle action
// counts, available channels and the queue state.
func (e *Engine) GetStatistics() *Statistics {
	now := e.now()
	cut24h := now.Add(-24 * time.Hour)
	cut7d := now.Add(-7 * 24 * time.Hour)

	stats := &Statistics{
		ActiveTotal:        e.store.ActiveCount(),
		Active:             e.store.ActiveByPriority(),
		Last24H:            make(map[models.Priority]int),
		Last7D:             make(map[models.Priority]int),
		ByAction:           make(map[string]int),
		Channels:           e.Channels(),
		QueueLength:        e.queue.Len(),
		Processing:         e.processing.Load(),
		PendingEscalations: e.scheduler.Pending(),
	}

	e.store.VisitHistory(func(entry *models.HistoryEntry) {
		stats.ByAction[entry.Action]++
		if entry.Action != models.ActionCreated {
			return
		}
		if entry.Time.After(cut24h) {
			stats.Last24H[entry.Alert.Priority]++
		}
		if entry.Time.After(cut7d) {
			stats.Last7D[entry.Alert.Priority]++
		}
	})

	return stats
}

// Channels lists the registered channel adapter names in stable order.
func (e *Engine) Channels() []string {
	names := make([]string, 0, len(e.notifiers))
	for name := range e.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
