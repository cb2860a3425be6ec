package alerting

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/alert-engine/internal/channels"
	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// fakeNotifier records every alert it is asked to deliver. It can be told
// to fail or panic to exercise the dispatcher's isolation paths.
type fakeNotifier struct {
	kind    channels.Kind
	mu      sync.Mutex
	sent    []*models.Alert
	fail    bool
	panicOn bool
	closed  bool
}

func (f *fakeNotifier) Kind() channels.Kind { return f.kind }

func (f *fakeNotifier) Send(ctx context.Context, alert *models.Alert, recipients []*models.User) (*models.DeliveryResult, error) {
	if f.panicOn {
		panic("adapter exploded")
	}
	f.mu.Lock()
	f.sent = append(f.sent, alert)
	f.mu.Unlock()
	if f.fail {
		return nil, assert.AnError
	}
	return &models.DeliveryResult{Success: true, RecipientCount: len(recipients)}, nil
}

func (f *fakeNotifier) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeNotifier) sentTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.sent))
	for _, a := range f.sent {
		types = append(types, a.Type)
	}
	return types
}

// fakeDirectory serves canned users per role. Roles listed in errRoles
// fail their lookup; a non-nil err fails every lookup.
type fakeDirectory struct {
	users    map[string][]*models.User
	err      error
	errRoles map[string]bool
}

func (d *fakeDirectory) GetUsersByRole(ctx context.Context, role string) ([]*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	if d.errRoles[role] {
		return nil, assert.AnError
	}
	return d.users[role], nil
}

func defaultTestDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string][]*models.User{
		"admin":     {{ID: "admin-1", Name: "Ada", Email: "ada@example.com", Phone: "+15550100", Roles: []string{"admin"}}},
		"operator":  {{ID: "operator-1", Name: "Omar", Email: "omar@example.com", Roles: []string{"operator"}}},
		"developer": {{ID: "developer-1", Name: "Dev", Email: "dev@example.com", Roles: []string{"developer"}}},
	}}
}

// eventRecorder captures bus events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(evt Event) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		names = append(names, evt.Name)
	}
	return names
}

func (r *eventRecorder) last(name string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i], true
		}
	}
	return Event{}, false
}

// testClock drives the engine's notion of time without sleeping.
type testClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.at = c.at.Add(d)
	c.mu.Unlock()
}

// installClock pins engine and store time to a controllable clock. The
// start hour sits outside every default quiet-hours window.
func installClock(e *Engine, at time.Time) *testClock {
	clk := &testClock{at: at}
	e.now = clk.Now
	e.store.now = clk.Now
	return clk
}

var testEpoch = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func testConfig() config.AlertingConfig {
	return config.AlertingConfig{
		DefaultPriority: "medium",
		QueueInterval:   10,
		MaxAttempts:     3,
		RetryBackoff:    60000,
		DispatchTimeout: 1000,
		RateLimit:       config.RateLimitConfig{Enabled: true, Window: 300000, MaxAlerts: 10},
		Escalation:      config.EscalationConfig{Enabled: true, DefaultDelay: 300000},
		History:         config.HistoryConfig{MaxEntries: 1000, RetentionHours: 168},
	}
}

func newTestEngine(t *testing.T, cfg config.AlertingConfig, policy *Policy, dir *fakeDirectory, notifiers ...channels.Notifier) *Engine {
	t.Helper()
	if dir == nil {
		dir = defaultTestDirectory()
	}
	e := NewEngine(cfg, policy, dir, notifiers, logger.New("error"))
	installClock(e, testEpoch)
	t.Cleanup(e.scheduler.Stop)
	return e
}

func boolPtr(b bool) *bool { return &b }

func TestCreateAlertAppliesTemplateByType(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)

	result, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{
		Type:     "system_down",
		Priority: models.PriorityLow, // template priority wins
		Data:     map[string]interface{}{"system": "payments", "lastCheck": "12:04"},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Alert)
	assert.False(t, result.Suppressed)

	alert := result.Alert
	assert.Equal(t, models.PriorityCritical, alert.Priority)
	assert.Equal(t, "System Down: payments", alert.Title)
	assert.Equal(t, "The system payments is not responding. Last check: 12:04", alert.Message)
	assert.Equal(t, []string{"email", "sms", "realtime", "chat"}, alert.Channels)
	assert.True(t, alert.Metadata.Escalate)
	assert.Equal(t, "system_down", alert.Metadata.Template)
	assert.Equal(t, models.StatusPending, alert.Status)
	assert.Equal(t, 3, alert.MaxAttempts)

	subject, body := alert.ContentFor("sms")
	assert.Equal(t, "System Down: payments", subject)
	assert.Equal(t, "SYSTEM DOWN: payments", body)

	stored, ok := e.GetAlert(alert.ID)
	require.True(t, ok)
	assert.Equal(t, alert.ID, stored.ID)
	assert.Equal(t, 1, e.queue.Len())
}

func TestCreateAlertExplicitTemplateName(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)

	result, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{
		Type:     "checkout_failures",
		Template: "high_error_rate",
		Data: map[string]interface{}{
			"service": "checkout", "errorRate": 7.3, "threshold": 5,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Alert)

	assert.Equal(t, "High Error Rate: checkout", result.Alert.Title)
	assert.Equal(t, "Error rate 7.3% exceeds the threshold 5% for checkout", result.Alert.Message)
	assert.Equal(t, models.PriorityHigh, result.Alert.Priority)
	assert.Equal(t, "high_error_rate", result.Alert.Metadata.Template)
	assert.Equal(t, "checkout_failures", result.Alert.Type)
}

func TestCreateAlertUnknownTemplateNameIgnored(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)

	result, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{
		Type:     "custom_event",
		Template: "no_such_template",
		Title:    "as written",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Alert)
	assert.Empty(t, result.Alert.Metadata.Template)
	assert.Equal(t, "as written", result.Alert.Title)
}

func TestCreateAlertDefaultsPriority(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)

	result, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{
		Type:    "custom_event",
		Title:   "Disk almost full",
		Message: "92% used",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Alert)
	assert.Equal(t, models.PriorityMedium, result.Alert.Priority)
	assert.Equal(t, "Disk almost full", result.Alert.Title)
	assert.False(t, result.Alert.Metadata.Escalate)
}

func TestCreateAlertRejectsInvalidInput(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)

	_, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{Type: "x", Priority: "urgent"})
	assert.Error(t, err)

	_, err = e.CreateAlert(context.Background(), &models.CreateAlertRequest{})
	assert.Error(t, err)

	_, err = e.CreateAlert(context.Background(), nil)
	assert.Error(t, err)

	assert.Equal(t, 0, e.store.ActiveCount())
}

func TestCreateAlertEscalateOverride(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)

	// Template says escalate; the caller opts out.
	result, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{
		Type:     "system_down",
		Data:     map[string]interface{}{"system": "db"},
		Escalate: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, result.Alert.Metadata.Escalate)

	// No template; the caller opts in.
	result, err = e.CreateAlert(context.Background(), &models.CreateAlertRequest{
		Type:     "custom_event",
		Escalate: boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, result.Alert.Metadata.Escalate)
}

func TestCreateAlertRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxAlerts = 3
	e := newTestEngine(t, cfg, nil, nil)

	for i := 0; i < 3; i++ {
		result, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{Type: "noisy", Priority: models.PriorityHigh})
		require.NoError(t, err)
		require.NotNil(t, result.Alert)
	}

	result, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{Type: "noisy", Priority: models.PriorityHigh})
	require.NoError(t, err, "a declined create is a result, not an error")
	assert.True(t, result.Suppressed)
	assert.Equal(t, "rate_limited", result.Reason)
	assert.Nil(t, result.Alert)

	// Same type at another priority draws from a separate budget.
	result, err = e.CreateAlert(context.Background(), &models.CreateAlertRequest{Type: "noisy", Priority: models.PriorityLow})
	require.NoError(t, err)
	assert.False(t, result.Suppressed)

	assert.Equal(t, 4, e.store.ActiveCount())
}

func TestAcknowledgeAlertKeepsAlertActive(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)
	rec := &eventRecorder{}
	e.Events().SubscribeAll(rec.record)

	created, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{Type: "custom_event"})
	require.NoError(t, err)

	acked, err := e.AcknowledgeAlert(created.Alert.ID, "jo", "on it")
	require.NoError(t, err)
	assert.True(t, acked.Acknowledged)
	assert.Equal(t, "jo", acked.AcknowledgedBy)
	assert.Equal(t, "on it", acked.AckComment)
	require.NotNil(t, acked.AcknowledgedAt)

	// Acknowledged alerts stay in the active set until resolved.
	_, ok := e.GetAlert(created.Alert.ID)
	assert.True(t, ok)
	assert.Len(t, e.ActiveAlerts(), 1)

	assert.Contains(t, rec.names(), EventAlertAcknowledged)

	_, err = e.AcknowledgeAlert("missing", "jo", "")
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestResolveAlertIsTerminal(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)
	rec := &eventRecorder{}
	e.Events().SubscribeAll(rec.record)

	created, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{Type: "custom_event"})
	require.NoError(t, err)

	resolved, err := e.ResolveAlert(created.Alert.ID, "jo", "restarted the pod")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "restarted the pod", resolved.Resolution)

	_, ok := e.GetAlert(created.Alert.ID)
	assert.False(t, ok)

	_, err = e.ResolveAlert(created.Alert.ID, "jo", "again")
	assert.ErrorIs(t, err, ErrAlertNotFound)

	assert.Contains(t, rec.names(), EventAlertResolved)

	history := e.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, models.ActionResolved, history[0].Action)
	assert.Equal(t, models.ActionCreated, history[1].Action)
}

func TestShutdownStopsIntakeAndClosesAdapters(t *testing.T) {
	realtime := &fakeNotifier{kind: channels.KindRealtime}
	e := newTestEngine(t, testConfig(), nil, nil, realtime)

	e.Shutdown()

	_, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{Type: "custom_event"})
	assert.ErrorIs(t, err, ErrEngineStopped)
	assert.True(t, realtime.closed)

	// Safe to call again.
	e.Shutdown()
}

func TestReloadPolicySwapsSnapshot(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)

	e.ReloadPolicy(&Policy{
		Templates: map[string]*Template{
			"disk_full": {Subject: "Disk full on {host}", Priority: models.PriorityHigh},
		},
		Rules: map[string]*NotificationRule{"admin": {}},
	})

	result, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{
		Type: "disk_full",
		Data: map[string]interface{}{"host": "db-7"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Disk full on db-7", result.Alert.Title)

	// system_down is gone from the reloaded policy.
	result, err = e.CreateAlert(context.Background(), &models.CreateAlertRequest{Type: "system_down", Title: "raw"})
	require.NoError(t, err)
	assert.Equal(t, "raw", result.Alert.Title)
	assert.Equal(t, models.PriorityMedium, result.Alert.Priority)

	// A nil reload restores the built-in defaults.
	e.ReloadPolicy(nil)
	result, err = e.CreateAlert(context.Background(), &models.CreateAlertRequest{
		Type: "system_down",
		Data: map[string]interface{}{"system": "cache"},
	})
	require.NoError(t, err)
	assert.Equal(t, "System Down: cache", result.Alert.Title)
}

func TestCreateAlertEmitsCreatedEvent(t *testing.T) {
	e := newTestEngine(t, testConfig(), nil, nil)
	rec := &eventRecorder{}
	e.Events().Subscribe(EventAlertCreated, rec.record)

	result, err := e.CreateAlert(context.Background(), &models.CreateAlertRequest{Type: "custom_event"})
	require.NoError(t, err)

	evt, ok := rec.last(EventAlertCreated)
	require.True(t, ok)
	require.NotNil(t, evt.Alert)
	assert.Equal(t, result.Alert.ID, evt.Alert.ID)
	assert.Equal(t, testEpoch, evt.Time)
}
