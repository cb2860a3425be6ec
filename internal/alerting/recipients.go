package alerting

import (
	"context"
	"fmt"

	"github.com/platformbuilds/alert-engine/internal/models"
)

// resolveRecipients computes the users to notify: every role whose rule
// covers the alert's priority contributes its directory users, filtered
// through quiet hours and each user's own preferences, deduplicated by
// user id.
//
// A directory failure for one role degrades to a warning so the other
// roles still get notified. If every matching role lookup fails the alert
// counts as unprocessed and the queue retries it.
func (e *Engine) resolveRecipients(ctx context.Context, alert *models.Alert, policy *Policy) ([]*models.User, error) {
	hour := e.now().Hour()

	var (
		recipients []*models.User
		matched    int
		failed     int
	)
	seen := make(map[string]bool)

	for _, role := range policy.Roles() {
		rule := policy.Rules[role]
		if !rule.Covers(alert.Priority) {
			continue
		}
		matched++

		users, err := e.directory.GetUsersByRole(ctx, role)
		if err != nil {
			failed++
			e.logger.Warn("Directory lookup failed", "role", role, "error", err)
			continue
		}

		for _, user := range users {
			if seen[user.ID] {
				continue
			}
			if !shouldNotifyUser(user, alert, rule, hour) {
				continue
			}
			seen[user.ID] = true
			recipients = append(recipients, user)
		}
	}

	if matched > 0 && failed == matched {
		return nil, fmt.Errorf("directory unavailable: all %d role lookups failed", matched)
	}
	return recipients, nil
}

// shouldNotifyUser applies the rule's quiet hours and the user's personal
// preferences. Quiet hours never suppress critical alerts.
func shouldNotifyUser(user *models.User, alert *models.Alert, rule *NotificationRule, hour int) bool {
	if alert.Priority != models.PriorityCritical && rule.InQuietHours(hour) {
		return false
	}
	return user.Wants(alert.Priority)
}
