// Package directory resolves notification recipients. The engine only
// asks one question: who currently holds a role.
package directory

import (
	"context"

	"github.com/platformbuilds/alert-engine/internal/models"
)

// UserDirectory answers role membership lookups. Implementations must be
// safe for concurrent use and should return copies the caller may mutate.
type UserDirectory interface {
	GetUsersByRole(ctx context.Context, role string) ([]*models.User, error)
}
