package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/alert-engine/internal/alerting"
	"github.com/platformbuilds/alert-engine/internal/config"
	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

func newTestIndex(t *testing.T, maxResults int) *AlertIndex {
	t.Helper()
	idx, err := NewAlertIndex(config.SearchConfig{Enabled: true, MaxResults: maxResults}, logger.New("error"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func indexTestAlert(id, alertType, title string, priority models.Priority) *models.Alert {
	return &models.Alert{
		ID:        id,
		Type:      alertType,
		Priority:  priority,
		Title:     title,
		Message:   title + " details",
		Source:    "monitor",
		Status:    models.StatusPending,
		CreatedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
	}
}

func TestAlertIndexSearchByText(t *testing.T) {
	idx := newTestIndex(t, 10)

	require.NoError(t, idx.Index(indexTestAlert("a1", "system_down", "payments gateway unreachable", models.PriorityCritical)))
	require.NoError(t, idx.Index(indexTestAlert("a2", "high_error_rate", "checkout error spike", models.PriorityHigh)))
	require.NoError(t, idx.Index(indexTestAlert("a3", "disk_space", "disk filling on db host", models.PriorityMedium)))

	hits, total, err := idx.Search(context.Background(), "payments", 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, hits, 1)
	assert.Equal(t, "a1", hits[0]["_id"])
	assert.Equal(t, "system_down", hits[0]["type"])
	assert.Equal(t, "critical", hits[0]["priority"])
	assert.NotZero(t, hits[0]["_score"])
}

func TestAlertIndexFieldQuery(t *testing.T) {
	idx := newTestIndex(t, 10)

	require.NoError(t, idx.Index(indexTestAlert("a1", "system_down", "payments down", models.PriorityCritical)))
	require.NoError(t, idx.Index(indexTestAlert("a2", "high_error_rate", "checkout errors", models.PriorityHigh)))

	hits, total, err := idx.Search(context.Background(), "priority:critical", 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, hits, 1)
	assert.Equal(t, "a1", hits[0]["_id"])
}

func TestAlertIndexUpsertKeepsOneDocument(t *testing.T) {
	idx := newTestIndex(t, 10)

	alert := indexTestAlert("a1", "system_down", "payments down", models.PriorityCritical)
	require.NoError(t, idx.Index(alert))

	alert.Status = models.StatusProcessed
	alert.Resolved = true
	require.NoError(t, idx.Index(alert))

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, _, err := idx.Search(context.Background(), "status:processed", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a1", hits[0]["_id"])
}

func TestAlertIndexLimitCapsResults(t *testing.T) {
	idx := newTestIndex(t, 3)

	for _, id := range []string{"a1", "a2", "a3", "a4", "a5"} {
		require.NoError(t, idx.Index(indexTestAlert(id, "custom_event", "shared latency regression", models.PriorityLow)))
	}

	hits, total, err := idx.Search(context.Background(), "latency", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), total)
	assert.Len(t, hits, 2)

	// limits beyond max_results clamp down to it
	hits, _, err = idx.Search(context.Background(), "latency", 100)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestAlertIndexAttachIndexesBusEvents(t *testing.T) {
	idx := newTestIndex(t, 10)

	bus := alerting.NewBus(logger.New("error"))
	idx.Attach(bus)

	bus.Publish(alerting.Event{
		Name:  alerting.EventAlertCreated,
		Time:  time.Now(),
		Alert: indexTestAlert("a1", "system_down", "payments down", models.PriorityCritical),
	})
	bus.Publish(alerting.Event{Name: alerting.EventAlertProcessed, Time: time.Now()}) // nil alert ignored

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
