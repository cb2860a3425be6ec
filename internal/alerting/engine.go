// ================================
// Alert & Notification Routing Engine
// ================================
// Accepts alerts, decides who must be told over which channels, retries
// failed deliveries and escalates when nobody acknowledges in time.

package alerting

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/platformbuilds/alert-engine/internal/channels"
	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/directory"
	"github.com/platformbuilds/alert-engine/internal/metrics"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// Engine is the alert routing core. It owns the active alert store, the
// delivery queue, the escalation timers and the event bus; collaborators
// (user directory, channel adapters, policy) are injected.
type Engine struct {
	cfg    config.AlertingConfig
	logger logger.Logger

	store     *Store
	limiter   *RateLimiter
	queue     *alertQueue
	bus       *Bus
	scheduler *scheduler
	directory directory.UserDirectory
	notifiers map[string]channels.Notifier
	pacers    map[string]*rate.Limiter

	dispatchTimeout time.Duration

	policyMu sync.RWMutex
	policy   *Policy

	maintenance *cron.Cron

	processing atomic.Bool
	stopOnce   sync.Once
	stopCh     chan struct{}
	wg         sync.WaitGroup

	now func() time.Time // swappable for tests
}

// NewEngine wires the engine from its collaborators. Notifiers register
// under their kind; a nil policy applies the built-in defaults.
func NewEngine(cfg config.AlertingConfig, policy *Policy, dir directory.UserDirectory, notifiers []channels.Notifier, log logger.Logger) *Engine {
	if policy == nil {
		policy = DefaultPolicy()
	}

	byKind := make(map[string]channels.Notifier, len(notifiers))
	for _, n := range notifiers {
		byKind[string(n.Kind())] = n
	}

	return &Engine{
		cfg:             cfg,
		logger:          log,
		store:           NewStore(cfg.History.MaxEntries),
		limiter:         NewRateLimiter(cfg.RateLimit),
		queue:           newAlertQueue(),
		bus:             NewBus(log),
		scheduler:       newScheduler(),
		directory:       dir,
		notifiers:       byKind,
		pacers:          make(map[string]*rate.Limiter),
		dispatchTimeout: time.Duration(cfg.DispatchTimeout) * time.Millisecond,
		policy:          policy,
		maintenance:     cron.New(),
		stopCh:          make(chan struct{}),
		now:             time.Now,
	}
}

// SetChannelPacing applies a shared outbound rate limit to every
// registered channel adapter. Zero rps disables pacing.
func (e *Engine) SetChannelPacing(rps float64, burst int) {
	if rps <= 0 {
		return
	}
	if burst < 1 {
		burst = 1
	}
	for name := range e.notifiers {
		e.pacers[name] = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Start launches the queue processor and the maintenance schedule.
func (e *Engine) Start(ctx context.Context) error {
	if spec := e.cfg.History.MaintenanceSpec; spec != "" {
		if _, err := e.maintenance.AddFunc(spec, e.runMaintenance); err != nil {
			return fmt.Errorf("invalid maintenance schedule %q: %w", spec, err)
		}
		e.maintenance.Start()
	}

	e.wg.Add(1)
	go e.runQueue(ctx)

	e.logger.Info("Alert engine started",
		"queue_interval_ms", e.cfg.QueueInterval,
		"channels", e.Channels(),
		"escalation_enabled", e.cfg.Escalation.Enabled)
	return nil
}

// Shutdown stops the queue loop, cancels pending escalation timers, halts
// maintenance and closes every adapter that supports closing. Safe to call
// more than once.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
		e.wg.Wait()
		e.scheduler.Stop()

		stopCtx := e.maintenance.Stop()
		<-stopCtx.Done()

		for name, notifier := range e.notifiers {
			closer, ok := notifier.(channels.Closer)
			if !ok {
				continue
			}
			if err := closer.Close(); err != nil {
				e.logger.Warn("Channel close failed", "channel", name, "error", err)
			}
		}
		e.logger.Info("Alert engine stopped")
	})
}

func (e *Engine) stopping() bool {
	select {
	case <-e.stopCh:
		return true
	default:
		return false
	}
}

// CreateAlert validates, templates, rate-limits and stores a new alert,
// then queues it for delivery. A rate-limited alert is declined with
// reason rate_limited in the result, not with an error.
func (e *Engine) CreateAlert(ctx context.Context, req *models.CreateAlertRequest) (*models.CreateAlertResult, error) {
	if e.stopping() {
		return nil, ErrEngineStopped
	}
	if req == nil || req.Type == "" {
		return nil, fmt.Errorf("alert type is required")
	}

	priority := req.Priority
	if priority == "" {
		priority = models.Priority(e.cfg.DefaultPriority)
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("invalid priority %q", req.Priority)
	}

	now := e.now()
	alert := &models.Alert{
		ID:          uuid.New().String(),
		Type:        req.Type,
		Priority:    priority,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		Source:      req.Source,
		Tags:        append([]string(nil), req.Tags...),
		CreatedAt:   now,
		Status:      models.StatusPending,
		MaxAttempts: e.cfg.MaxAttempts,
		Channels:    append([]string(nil), req.Channels...),
		Metadata: models.AlertMetadata{
			CreatedBy:     req.CreatedBy,
			CorrelationID: req.CorrelationID,
			Environment:   req.Environment,
			RefID:         req.RefID,
		},
	}

	policy := e.currentPolicy()
	if name := templateNameFor(req, policy); name != "" {
		applyTemplate(alert, policy.Templates[name])
		alert.Metadata.Template = name
	} else if req.Template != "" {
		e.logger.Warn("Unknown template requested", "template", req.Template, "type", req.Type)
	}
	if req.Escalate != nil {
		alert.Metadata.Escalate = *req.Escalate
	}

	if !e.limiter.Allow(alert.Type, alert.Priority, now) {
		metrics.AlertsSuppressedTotal.WithLabelValues("rate_limited").Inc()
		e.logger.Warn("Alert rate limited", "type", alert.Type, "priority", alert.Priority)
		return &models.CreateAlertResult{Suppressed: true, Reason: "rate_limited"}, nil
	}

	e.store.Insert(alert)
	e.queue.Enqueue(queueItem{id: alert.ID, priority: alert.Priority, enqueuedAt: now, readyAt: now})
	metrics.AlertsCreatedTotal.WithLabelValues(alert.Type, string(alert.Priority)).Inc()
	metrics.QueueDepth.Set(float64(e.queue.Len()))

	created := alert.Clone()
	e.bus.Publish(Event{Name: EventAlertCreated, Time: now, Alert: created})
	e.logger.Info("Alert created", "alert_id", alert.ID, "type", alert.Type, "priority", alert.Priority)

	return &models.CreateAlertResult{Alert: created}, nil
}

// templateNameFor picks the template to apply: an explicit request wins,
// otherwise an alert whose type matches a template name uses that.
func templateNameFor(req *models.CreateAlertRequest, policy *Policy) string {
	if req.Template != "" {
		if _, ok := policy.Templates[req.Template]; ok {
			return req.Template
		}
		return ""
	}
	if _, ok := policy.Templates[req.Type]; ok {
		return req.Type
	}
	return ""
}

// AcknowledgeAlert marks an active alert as seen. The alert stays active
// until resolved, but a pending escalation finds it acknowledged at fire
// time and stands down.
func (e *Engine) AcknowledgeAlert(id, user, comment string) (*models.Alert, error) {
	alert, err := e.store.Acknowledge(id, user, comment)
	if err != nil {
		return nil, err
	}

	e.bus.Publish(Event{Name: EventAlertAcknowledged, Time: e.now(), Alert: alert})
	e.logger.Info("Alert acknowledged", "alert_id", id, "user", user)
	return alert, nil
}

// ResolveAlert closes an alert out. It leaves the active set permanently;
// only history keeps its record.
func (e *Engine) ResolveAlert(id, user, resolution string) (*models.Alert, error) {
	alert, err := e.store.Resolve(id, user, resolution)
	if err != nil {
		return nil, err
	}

	e.bus.Publish(Event{Name: EventAlertResolved, Time: e.now(), Alert: alert})
	e.logger.Info("Alert resolved", "alert_id", id, "user", user)
	return alert, nil
}

// GetAlert returns a copy of an active alert.
func (e *Engine) GetAlert(id string) (*models.Alert, bool) {
	return e.store.Get(id)
}

// ActiveAlerts returns copies of all active alerts.
func (e *Engine) ActiveAlerts() []*models.Alert {
	return e.store.ActiveAlerts()
}

// History returns up to limit lifecycle entries, newest first.
func (e *Engine) History(limit int) []models.HistoryEntry {
	return e.store.History(limit)
}

// Events exposes the engine's event bus for external subscribers such as
// the websocket hub or audit archivers.
func (e *Engine) Events() *Bus {
	return e.bus
}

// ReloadPolicy swaps the routing policy snapshot; in-flight operations
// keep the snapshot they started with. Used by the policy file watcher.
func (e *Engine) ReloadPolicy(policy *Policy) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	e.policyMu.Lock()
	e.policy = policy
	e.policyMu.Unlock()

	e.logger.Info("Routing policy reloaded",
		"templates", len(policy.Templates),
		"roles", len(policy.Rules),
		"chain_steps", len(policy.Chain))
}

func (e *Engine) currentPolicy() *Policy {
	e.policyMu.RLock()
	defer e.policyMu.RUnlock()
	return e.policy
}
