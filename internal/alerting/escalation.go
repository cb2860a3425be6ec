package alerting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/platformbuilds/alert-engine/internal/metrics"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/internal/tracing"
)

// ShouldEscalate reports whether the alert is eligible for escalation:
// escalation globally enabled, the template or caller marked it escalate,
// priority above info, and nobody has acknowledged or resolved it yet.
func (e *Engine) ShouldEscalate(alert *models.Alert) bool {
	if !e.cfg.Escalation.Enabled || !alert.Metadata.Escalate {
		return false
	}
	if alert.Priority == models.PriorityInfo {
		return false
	}
	return !alert.Acknowledged && !alert.Resolved
}

// ScheduleEscalation arms the one-shot escalation timer for the alert. The
// delay comes from the chain step at the alert's next level, falling back
// to the first step's delay and then the configured default when the level
// runs past the chain. The timer callback re-checks alert state, so an
// acknowledge or resolve in the meantime turns the firing into a no-op.
func (e *Engine) ScheduleEscalation(alert *models.Alert) {
	delay := e.escalationDelay(alert.EscalationLevel)
	id := alert.ID
	e.scheduler.Schedule(id, delay, func() {
		e.fireEscalation(id)
	})
	e.logger.Debug("Escalation scheduled", "alert_id", id, "level", alert.EscalationLevel, "delay", delay)
}

func (e *Engine) escalationDelay(currentLevel int) time.Duration {
	policy := e.currentPolicy()
	if step, ok := policy.StepForLevel(currentLevel + 1); ok {
		return step.Delay
	}
	if step, ok := policy.StepForLevel(1); ok {
		return step.Delay
	}
	return time.Duration(e.cfg.Escalation.DefaultDelay) * time.Millisecond
}

// fireEscalation runs when an escalation timer fires. The state re-check
// here is the sole cancellation mechanism: there is no timer-cancel call
// on acknowledge or resolve.
func (e *Engine) fireEscalation(id string) {
	alert, ok := e.store.Get(id)
	if !ok {
		return
	}
	if !e.ShouldEscalate(alert) {
		e.logger.Debug("Escalation no-op, alert handled", "alert_id", id)
		return
	}
	e.escalateAlert(id)
}

// escalateAlert advances the alert one escalation level. While the new
// level is still within the chain it raises a follow-up alert of type
// escalation through the normal creation path, and while the level after
// that is within the chain it schedules the next check. Walking off the
// end of the chain stops escalation silently.
func (e *Engine) escalateAlert(id string) {
	escalated, ok := e.store.Escalate(id)
	if !ok {
		return
	}

	spanCtx, span := tracing.GetGlobalTracer().StartEscalationSpan(context.Background(), id, escalated.EscalationLevel)
	defer span.End()

	metrics.EscalationsTotal.WithLabelValues(strconv.Itoa(escalated.EscalationLevel)).Inc()
	e.bus.Publish(Event{Name: EventAlertEscalated, Time: e.now(), Alert: escalated})
	e.logger.Info("Alert escalated", "alert_id", id, "level", escalated.EscalationLevel)

	policy := e.currentPolicy()
	step, ok := policy.StepForLevel(escalated.EscalationLevel)
	if !ok {
		return
	}

	req := &models.CreateAlertRequest{
		Type:     models.TypeEscalation,
		Priority: models.PriorityHigh,
		Title:    fmt.Sprintf("Escalation: %s", escalated.Title),
		Message: fmt.Sprintf("Alert %q has not been acknowledged after %d escalation(s). Notifying %s.",
			escalated.Title, escalated.EscalationLevel, step.Role),
		Data: map[string]interface{}{
			"original_alert_id": escalated.ID,
			"original_type":     escalated.Type,
			"escalation_level":  escalated.EscalationLevel,
			"role":              step.Role,
		},
		Source:    "escalation-manager",
		CreatedBy: "alert-engine",
		RefID:     escalated.ID,
	}
	if _, err := e.CreateAlert(spanCtx, req); err != nil {
		e.logger.Error("Failed to create escalation alert", "alert_id", id, "error", err)
	}

	if _, ok := policy.StepForLevel(escalated.EscalationLevel + 1); ok {
		e.ScheduleEscalation(escalated)
	}
}
