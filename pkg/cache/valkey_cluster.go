package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/internal/monitoring"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

// ValkeyCluster is the durable side-store for the otherwise in-memory
// engine: archived alert history, shared locks for multi-replica
// maintenance, and general caching.
type ValkeyCluster interface {
	// General caching
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Alert history archive, per original alert id
	ArchiveHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error
	GetArchivedHistory(ctx context.Context, alertID string) ([]*models.HistoryEntry, error)

	// Distributed locks
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error

	HealthCheck(ctx context.Context) error
}

type valkeyClusterImpl struct {
	client *redis.ClusterClient
	logger logger.Logger
	ttl    time.Duration
}

func NewValkeyCluster(nodes []string, defaultTTL time.Duration) (ValkeyCluster, error) {
	client := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs:        nodes,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey cluster: %w", err)
	}

	return &valkeyClusterImpl{
		client: client,
		logger: logger.New("info"),
		ttl:    defaultTTL,
	}, nil
}

func (v *valkeyClusterImpl) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := v.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		monitoring.RecordCacheOperation("get", "miss")
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if err != nil {
		monitoring.RecordCacheOperation("get", "error")
		return nil, err
	}
	monitoring.RecordCacheOperation("get", "hit")
	return b, nil
}

func (v *valkeyClusterImpl) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	var data []byte
	switch x := value.(type) {
	case []byte:
		data = x
	case string:
		data = []byte(x)
	default:
		j, err := json.Marshal(x)
		if err != nil {
			monitoring.RecordCacheOperation("set", "error")
			return fmt.Errorf("marshal value for key %s: %w", key, err)
		}
		data = j
	}
	if ttl <= 0 {
		ttl = v.ttl
	}
	if err := v.client.Set(ctx, key, data, ttl).Err(); err != nil {
		monitoring.RecordCacheOperation("set", "error")
		return err
	}
	monitoring.RecordCacheOperation("set", "success")
	return nil
}

func (v *valkeyClusterImpl) Delete(ctx context.Context, key string) error {
	if err := v.client.Del(ctx, key).Err(); err != nil {
		monitoring.RecordCacheOperation("delete", "error")
		return err
	}
	monitoring.RecordCacheOperation("delete", "success")
	return nil
}

// ArchiveHistoryEntry appends the entry to the per-alert archive list and
// refreshes the list's TTL so archives age out with the cache default.
func (v *valkeyClusterImpl) ArchiveHistoryEntry(ctx context.Context, entry *models.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		monitoring.RecordCacheOperation("archive_history", "error")
		return fmt.Errorf("marshal history entry %s: %w", entry.ID, err)
	}

	key := fmt.Sprintf("alert_history:%s", entry.Alert.ID)
	if err := v.client.RPush(ctx, key, data).Err(); err != nil {
		monitoring.RecordCacheOperation("archive_history", "error")
		return err
	}
	_ = v.client.Expire(ctx, key, v.ttl).Err()

	monitoring.RecordCacheOperation("archive_history", "success")
	return nil
}

func (v *valkeyClusterImpl) GetArchivedHistory(ctx context.Context, alertID string) ([]*models.HistoryEntry, error) {
	key := fmt.Sprintf("alert_history:%s", alertID)
	raw, err := v.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		monitoring.RecordCacheOperation("get_history", "error")
		return nil, err
	}

	entries := make([]*models.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			v.logger.Warn("Skipping corrupt archived history entry", "alert_id", alertID, "error", err)
			continue
		}
		entries = append(entries, &entry)
	}

	monitoring.RecordCacheOperation("get_history", "hit")
	return entries, nil
}

func (v *valkeyClusterImpl) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	lockKey := fmt.Sprintf("lock:%s", key)

	// SET NX with TTL gives the lock atomically
	set, err := v.client.SetNX(ctx, lockKey, "locked", ttl).Result()
	if err != nil {
		monitoring.RecordCacheOperation("acquire_lock", "error")
		return false, err
	}
	if set {
		monitoring.RecordCacheOperation("acquire_lock", "success")
	} else {
		monitoring.RecordCacheOperation("acquire_lock", "conflict")
	}
	return set, nil
}

func (v *valkeyClusterImpl) ReleaseLock(ctx context.Context, key string) error {
	lockKey := fmt.Sprintf("lock:%s", key)

	if err := v.client.Del(ctx, lockKey).Err(); err != nil {
		monitoring.RecordCacheOperation("release_lock", "error")
		return err
	}
	monitoring.RecordCacheOperation("release_lock", "success")
	return nil
}

// HealthCheck pings the Valkey cluster.
func (v *valkeyClusterImpl) HealthCheck(ctx context.Context) error {
	if ctx == nil {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ctx = c
	}
	return v.client.Ping(ctx).Err()
}
