package alerting

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/platformbuilds/alert-engine/internal/channels"
	"github.com/platformbuilds/alert-engine/internal/metrics"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/internal/tracing"
)

// determineChannels resolves the channel set for one delivery: the alert's
// declared channels unioned with every recipient's preferred channels,
// falling back to the priority default table when both are empty. The
// result is sorted so fan-out order is deterministic.
func determineChannels(alert *models.Alert, recipients []*models.User) []string {
	set := make(map[string]bool)
	for _, ch := range alert.Channels {
		set[ch] = true
	}
	for _, user := range recipients {
		for _, ch := range user.NotificationChannels {
			set[ch] = true
		}
	}
	if len(set) == 0 {
		for _, ch := range defaultChannelsFor(alert.Priority) {
			set[ch] = true
		}
	}

	names := make([]string, 0, len(set))
	for ch := range set {
		names = append(names, ch)
	}
	sort.Strings(names)
	return names
}

// defaultChannelsFor is the fallback table used when neither the alert nor
// any recipient declares a channel.
func defaultChannelsFor(p models.Priority) []string {
	switch p {
	case models.PriorityCritical:
		return []string{
			string(channels.KindEmail),
			string(channels.KindSMS),
			string(channels.KindRealtime),
			string(channels.KindChat),
		}
	case models.PriorityHigh:
		return []string{
			string(channels.KindEmail),
			string(channels.KindRealtime),
			string(channels.KindChat),
		}
	case models.PriorityMedium:
		return []string{
			string(channels.KindRealtime),
			string(channels.KindChat),
		}
	default:
		return []string{string(channels.KindRealtime)}
	}
}

// dispatch fans the alert out to every resolved channel concurrently and
// collects per-channel results. A failing or panicking channel is recorded
// in its own result and never blocks the others.
func (e *Engine) dispatch(ctx context.Context, alert *models.Alert, recipients []*models.User) *models.ProcessingOutcome {
	chNames := determineChannels(alert, recipients)

	outcome := &models.ProcessingOutcome{
		AlertID:  alert.ID,
		Channels: chNames,
		Results:  make(map[string]*models.DeliveryResult, len(chNames)),
	}
	for _, user := range recipients {
		outcome.Recipients = append(outcome.Recipients, user.ID)
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, name := range chNames {
		notifier, ok := e.notifiers[name]
		if !ok {
			outcome.Results[name] = &models.DeliveryResult{Error: "no adapter registered"}
			continue
		}

		wg.Add(1)
		go func(name string, notifier channels.Notifier) {
			defer wg.Done()

			result := e.deliver(ctx, name, notifier, alert, recipients)
			metrics.NotificationsSent.WithLabelValues(name, strconv.FormatBool(result.Success)).Inc()

			mu.Lock()
			outcome.Results[name] = result
			mu.Unlock()
		}(name, notifier)
	}
	wg.Wait()

	return outcome
}

// deliver runs one channel send under the per-channel timeout and pacing
// limiter, converting errors and panics into a failed result.
func (e *Engine) deliver(ctx context.Context, name string, notifier channels.Notifier, alert *models.Alert, recipients []*models.User) (result *models.DeliveryResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Channel delivery panicked", "channel", name, "alert_id", alert.ID, "panic", r)
			result = &models.DeliveryResult{Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	spanCtx, span := tracing.GetGlobalTracer().StartChannelSpan(ctx, name, len(recipients))
	defer span.End()

	sendCtx, cancel := context.WithTimeout(spanCtx, e.dispatchTimeout)
	defer cancel()

	if pacer := e.pacers[name]; pacer != nil {
		if err := pacer.Wait(sendCtx); err != nil {
			return &models.DeliveryResult{Error: "pacing: " + err.Error()}
		}
	}

	res, err := notifier.Send(sendCtx, alert, recipients)
	if err != nil {
		e.logger.Error("Channel delivery failed", "channel", name, "alert_id", alert.ID, "error", err)
		if res == nil {
			res = &models.DeliveryResult{}
		}
		res.Success = false
		if res.Error == "" {
			res.Error = err.Error()
		}
		return res
	}
	if res == nil {
		res = &models.DeliveryResult{Success: true, RecipientCount: len(recipients)}
	}
	return res
}
