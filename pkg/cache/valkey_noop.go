package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// noopValkeyCache provides an in-memory, process-local fallback that satisfies
// ValkeyCluster when the external cache is unavailable. It is best-effort and
// intended for development and degraded operation; archives are not shared
// across replicas and are lost on restart.
type noopValkeyCache struct {
	m      map[string][]byte
	lists  map[string][][]byte
	mu     sync.RWMutex
	logger logger.Logger
}

func NewNoopValkeyCache(log logger.Logger) ValkeyCluster {
	log.Warn("Valkey cache unavailable; using in-memory fallback (noop)")
	return &noopValkeyCache{
		m:      make(map[string][]byte),
		lists:  make(map[string][][]byte),
		logger: log,
	}
}

func (n *noopValkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	b, ok := n.m[key]
	if !ok {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return b, nil
}

func (n *noopValkeyCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		jb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b = jb
	}
	n.mu.Lock()
	n.m[key] = b
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) Delete(ctx context.Context, key string) error {
	n.mu.Lock()
	delete(n.m, key)
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) ArchiveHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("alert_history:%s", entry.Alert.ID)
	n.mu.Lock()
	n.lists[key] = append(n.lists[key], data)
	n.mu.Unlock()
	return nil
}

func (n *noopValkeyCache) GetArchivedHistory(ctx context.Context, alertID string) ([]*models.HistoryEntry, error) {
	key := fmt.Sprintf("alert_history:%s", alertID)
	n.mu.RLock()
	defer n.mu.RUnlock()

	items := n.lists[key]
	entries := make([]*models.HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry models.HistoryEntry
		if json.Unmarshal(item, &entry) == nil {
			entries = append(entries, &entry)
		}
	}
	return entries, nil
}

func (n *noopValkeyCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	// In noop mode, always acquire the lock (no contention)
	return true, nil
}

func (n *noopValkeyCache) ReleaseLock(ctx context.Context, key string) error {
	// In noop mode, nothing to release
	return nil
}

// HealthCheck returns an error to indicate no external Valkey connectivity.
func (n *noopValkeyCache) HealthCheck(ctx context.Context) error {
	return fmt.Errorf("valkey noop cache in use (external cache not connected)")
}
