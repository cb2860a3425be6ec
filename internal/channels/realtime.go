package channels

import (
	"context"

	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// Broadcaster pushes an alert to connected realtime clients and reports
// how many received it. The websocket hub satisfies this.
type Broadcaster interface {
	BroadcastAlert(alert *models.Alert) int
}

// RealtimeNotifier fans alerts out to websocket subscribers. Delivery is
// best effort; clients with full buffers are dropped by the hub.
type RealtimeNotifier struct {
	hub    Broadcaster
	logger logger.Logger
}

func NewRealtimeNotifier(hub Broadcaster, logger logger.Logger) *RealtimeNotifier {
	return &RealtimeNotifier{hub: hub, logger: logger}
}

func (n *RealtimeNotifier) Kind() Kind { return KindRealtime }

func (n *RealtimeNotifier) Send(ctx context.Context, alert *models.Alert, recipients []*models.User) (*models.DeliveryResult, error) {
	reached := n.hub.BroadcastAlert(alert)

	n.logger.Debug("Realtime notification broadcast", "alertId", alert.ID, "clients", reached)
	return &models.DeliveryResult{Success: true, RecipientCount: reached}, nil
}
