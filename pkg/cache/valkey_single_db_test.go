//go:build db

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/platformbuilds/alert-engine/internal/models"
)

// Live single-node Valkey/Redis test; runs only when VALKEY_ADDR is set.
func TestValkeySingle_DB(t *testing.T) {
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		t.Skip("VALKEY_ADDR not set; skipping DB test")
	}
	ttl := 2 * time.Second
	cch, err := NewValkeySingle(addr, 0, os.Getenv("VALKEY_PASSWORD"), ttl)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	ctx := context.Background()
	if err := cch.Set(ctx, "alert_engine_test:k", "v", ttl); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := cch.Get(ctx, "alert_engine_test:k")
	if err != nil || string(b) != "v" {
		t.Fatalf("get: %v %q", err, string(b))
	}

	entry := &models.HistoryEntry{
		ID:     "db-h1",
		Action: models.ActionCreated,
		Alert:  models.Alert{ID: "db-alert-1", Type: "system_down"},
		Time:   time.Now(),
	}
	if err := cch.ArchiveHistoryEntry(ctx, entry); err != nil {
		t.Fatalf("archive: %v", err)
	}
	got, err := cch.GetArchivedHistory(ctx, "db-alert-1")
	if err != nil || len(got) == 0 {
		t.Fatalf("archived history: %v %d", err, len(got))
	}
}
