package alerting

import "time"

// runMaintenance sweeps expired history entries and stale rate-limit keys.
// Scheduled by Start on the configured cron spec.
func (e *Engine) runMaintenance() {
	now := e.now()
	cutoff := now.Add(-time.Duration(e.cfg.History.RetentionHours) * time.Hour)

	pruned := e.store.PruneHistory(cutoff)
	dropped := e.limiter.Vacuum(now)
	if pruned > 0 || dropped > 0 {
		e.logger.Info("Maintenance sweep completed",
			"history_pruned", pruned, "ratelimit_keys_dropped", dropped)
	}
}
