// Package channels implements the delivery adapters behind the engine's
// notification fan-out. Each adapter owns one transport and reports a
// per-attempt DeliveryResult; failures never propagate across adapters.
package channels

import (
	"context"

	"github.com/platformbuilds/alert-engine/internal/models"
)

// Kind identifies a delivery channel.
type Kind string

const (
	KindEmail    Kind = "email"
	KindSMS      Kind = "sms"
	KindChat     Kind = "chat"
	KindPush     Kind = "push"
	KindRealtime Kind = "realtime"
)

// Kinds lists every known channel kind.
func Kinds() []Kind {
	return []Kind{KindEmail, KindSMS, KindChat, KindPush, KindRealtime}
}

// Valid reports whether k names a known channel.
func (k Kind) Valid() bool {
	switch k {
	case KindEmail, KindSMS, KindChat, KindPush, KindRealtime:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Notifier is the capability every delivery adapter provides. Send blocks
// until delivery completes or ctx expires; the returned result carries the
// recipient count actually reached.
type Notifier interface {
	Kind() Kind
	Send(ctx context.Context, alert *models.Alert, recipients []*models.User) (*models.DeliveryResult, error)
}

// Closer is implemented by adapters holding live connections.
type Closer interface {
	Close() error
}
