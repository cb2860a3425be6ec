package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/platformbuilds/alert-engine/internal/metrics"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/internal/tracing"
)

// runQueue ticks at the configured interval and drains whatever is ready.
// The loop survives every per-alert failure; only shutdown or context
// cancellation stops it.
func (e *Engine) runQueue(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(time.Duration(e.cfg.QueueInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.drainQueue(ctx)
		}
	}
}

// drainQueue is the cooperative single-flight drain: a tick arriving while
// a drain is in progress is dropped, not stacked. Ready alerts are
// processed strictly in priority order until none remain.
func (e *Engine) drainQueue(ctx context.Context) {
	if !e.processing.CompareAndSwap(false, true) {
		return
	}
	defer e.processing.Store(false)

	for {
		batch := e.queue.DrainReady(e.now())
		if len(batch) == 0 {
			break
		}
		for _, item := range batch {
			e.processAlert(ctx, item)
		}
	}
	metrics.QueueDepth.Set(float64(e.queue.Len()))
}

// processAlert runs one alert through recipient resolution and channel
// dispatch. Failures are contained to this alert: it is requeued with a
// growing backoff until its attempt limit, then dropped with a final log
// line.
func (e *Engine) processAlert(ctx context.Context, item queueItem) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Alert processing panicked", "alert_id", item.id, "panic", r)
			e.retryOrDrop(item, fmt.Errorf("panic: %v", r))
		}
	}()

	if _, ok := e.store.Get(item.id); !ok {
		// Resolved while queued; nothing to deliver.
		return
	}

	started := e.now()
	alert, ok := e.store.Mutate(item.id, func(a *models.Alert) {
		a.Attempts++
		at := started
		a.LastAttemptAt = &at
	})
	if !ok {
		return
	}

	tracer := tracing.GetGlobalTracer()
	spanCtx, span := tracer.StartProcessSpan(ctx, alert.ID, alert.Type, string(alert.Priority))
	defer span.End()

	policy := e.currentPolicy()
	recipients, err := e.resolveRecipients(spanCtx, alert, policy)
	if err != nil {
		tracer.RecordError(span, err)
		e.retryOrDrop(item, err)
		return
	}

	outcome := e.dispatch(spanCtx, alert, recipients)
	tracer.RecordDispatchMetrics(span, e.now().Sub(started), len(outcome.Recipients), len(outcome.Channels), len(outcome.Failed()))

	processed, ok := e.store.Mutate(item.id, func(a *models.Alert) {
		a.Status = models.StatusProcessed
		a.NextRetryAt = nil
		a.Recipients = append([]string(nil), outcome.Recipients...)
		a.Channels = append([]string(nil), outcome.Channels...)
	})
	if !ok {
		return
	}

	metrics.AlertsProcessedTotal.WithLabelValues("processed").Inc()
	metrics.ProcessingDuration.WithLabelValues(string(processed.Priority)).Observe(e.now().Sub(started).Seconds())

	e.bus.Publish(Event{Name: EventAlertProcessed, Time: e.now(), Alert: processed, Outcome: outcome})

	if failed := outcome.Failed(); len(failed) > 0 {
		e.logger.Warn("Delivery failed on some channels", "alert_id", item.id, "channels", failed)
	}

	if e.ShouldEscalate(processed) {
		e.ScheduleEscalation(processed)
	}
}

// retryOrDrop requeues a failed alert with an attempts-proportional
// backoff, or marks it failed once the attempt limit is reached.
func (e *Engine) retryOrDrop(item queueItem, cause error) {
	alert, ok := e.store.Get(item.id)
	if !ok {
		return
	}

	if alert.Attempts < alert.MaxAttempts {
		backoff := time.Duration(alert.Attempts) * time.Duration(e.cfg.RetryBackoff) * time.Millisecond
		readyAt := e.now().Add(backoff)

		e.store.Mutate(item.id, func(a *models.Alert) {
			at := readyAt
			a.NextRetryAt = &at
		})
		item.readyAt = readyAt
		e.queue.Enqueue(item)

		metrics.AlertsProcessedTotal.WithLabelValues("retried").Inc()
		e.logger.Warn("Alert processing failed, queued for retry",
			"alert_id", item.id, "attempt", alert.Attempts, "backoff", backoff, "error", cause)
		return
	}

	e.store.Mutate(item.id, func(a *models.Alert) {
		a.Status = models.StatusFailed
		a.NextRetryAt = nil
	})
	metrics.AlertsProcessedTotal.WithLabelValues("dropped").Inc()
	e.logger.Error("Alert processing failed permanently",
		"alert_id", item.id, "attempts", alert.Attempts, "error", cause)
}
