package alerting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/cache"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// HistoryArchiver copies lifecycle transitions into Valkey so alert
// history survives restarts. It archives the four lifecycle events;
// alertProcessed is delivery bookkeeping, not a transition, and is
// skipped. Archiving is best-effort and runs off the publishing
// goroutine so a slow cache never stalls alert operations.
type HistoryArchiver struct {
	cache   cache.ValkeyCluster
	logger  logger.Logger
	timeout time.Duration
}

func NewHistoryArchiver(valkey cache.ValkeyCluster, log logger.Logger) *HistoryArchiver {
	return &HistoryArchiver{
		cache:   valkey,
		logger:  log,
		timeout: 5 * time.Second,
	}
}

// Attach subscribes the archiver to the engine's event bus.
func (h *HistoryArchiver) Attach(bus *Bus) {
	bus.Subscribe(EventAlertCreated, h.archive(models.ActionCreated))
	bus.Subscribe(EventAlertAcknowledged, h.archive(models.ActionAcknowledged))
	bus.Subscribe(EventAlertResolved, h.archive(models.ActionResolved))
	bus.Subscribe(EventAlertEscalated, h.archive(models.ActionEscalated))
}

func (h *HistoryArchiver) archive(action string) Handler {
	return func(evt Event) {
		if evt.Alert == nil {
			return
		}
		entry := &models.HistoryEntry{
			ID:     uuid.New().String(),
			Action: action,
			Alert:  *evt.Alert.Clone(),
			Time:   evt.Time,
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
			defer cancel()

			if err := h.cache.ArchiveHistoryEntry(ctx, entry); err != nil {
				h.logger.Warn("History archive failed",
					"alert_id", entry.Alert.ID, "action", action, "error", err)
			}
		}()
	}
}
