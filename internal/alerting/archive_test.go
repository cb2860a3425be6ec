package alerting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// fakeValkey hands every archived entry to a channel so the test can wait
// for the archiver's background write.
type fakeValkey struct {
	archived chan *models.HistoryEntry
	err      error
}

func newFakeValkey() *fakeValkey {
	return &fakeValkey{archived: make(chan *models.HistoryEntry, 16)}
}

func (f *fakeValkey) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (f *fakeValkey) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (f *fakeValkey) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeValkey) ArchiveHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	if f.err != nil {
		return f.err
	}
	f.archived <- entry
	return nil
}

func (f *fakeValkey) GetArchivedHistory(ctx context.Context, alertID string) ([]*models.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeValkey) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return true, nil
}
func (f *fakeValkey) ReleaseLock(ctx context.Context, key string) error { return nil }
func (f *fakeValkey) HealthCheck(ctx context.Context) error             { return nil }

func waitForEntry(t *testing.T, ch chan *models.HistoryEntry) *models.HistoryEntry {
	t.Helper()
	select {
	case entry := <-ch:
		return entry
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for archive write")
		return nil
	}
}

func TestHistoryArchiverMirrorsLifecycle(t *testing.T) {
	valkey := newFakeValkey()
	bus := NewBus(logger.New("error"))
	NewHistoryArchiver(valkey, logger.New("error")).Attach(bus)

	alert := testAlert("a1", models.PriorityHigh)
	bus.Publish(Event{Name: EventAlertCreated, Time: testEpoch, Alert: alert})

	entry := waitForEntry(t, valkey.archived)
	assert.Equal(t, models.ActionCreated, entry.Action)
	assert.Equal(t, "a1", entry.Alert.ID)
	assert.Equal(t, testEpoch, entry.Time)
	assert.NotEmpty(t, entry.ID)

	bus.Publish(Event{Name: EventAlertAcknowledged, Time: testEpoch, Alert: alert})
	assert.Equal(t, models.ActionAcknowledged, waitForEntry(t, valkey.archived).Action)

	bus.Publish(Event{Name: EventAlertResolved, Time: testEpoch, Alert: alert})
	assert.Equal(t, models.ActionResolved, waitForEntry(t, valkey.archived).Action)

	bus.Publish(Event{Name: EventAlertEscalated, Time: testEpoch, Alert: alert})
	assert.Equal(t, models.ActionEscalated, waitForEntry(t, valkey.archived).Action)
}

func TestHistoryArchiverSkipsProcessedAndNilAlerts(t *testing.T) {
	valkey := newFakeValkey()
	bus := NewBus(logger.New("error"))
	NewHistoryArchiver(valkey, logger.New("error")).Attach(bus)

	// Delivery bookkeeping is not a lifecycle transition.
	bus.Publish(Event{Name: EventAlertProcessed, Time: testEpoch, Alert: testAlert("a1", models.PriorityLow)})
	bus.Publish(Event{Name: EventAlertCreated, Time: testEpoch})

	select {
	case entry := <-valkey.archived:
		t.Fatalf("unexpected archive write: %+v", entry)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHistoryArchiverSurvivesCacheErrors(t *testing.T) {
	valkey := newFakeValkey()
	valkey.err = assert.AnError
	bus := NewBus(logger.New("error"))
	NewHistoryArchiver(valkey, logger.New("error")).Attach(bus)

	require.NotPanics(t, func() {
		bus.Publish(Event{Name: EventAlertCreated, Time: testEpoch, Alert: testAlert("a1", models.PriorityLow)})
	})
}
