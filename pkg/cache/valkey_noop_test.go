package cache

import (
	"context"
	"testing"
	"time"

	"github.com/platformbuilds/alert-engine/internal/models"
	"github.com/platformbuilds/alert-engine/pkg/logger"
)

func TestNoopValkey_BasicOps(t *testing.T) {
	log := logger.New("error")
	cch := NewNoopValkeyCache(log)
	ctx := context.Background()

	if err := cch.Set(ctx, "k1", "v1", time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, err := cch.Get(ctx, "k1")
	if err != nil || string(b) != "v1" {
		t.Fatalf("get: %v %q", err, string(b))
	}
	if err := cch.Delete(ctx, "k1"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := cch.Get(ctx, "k1"); err == nil {
		t.Fatalf("expected miss after delete")
	}

	// structs are stored as JSON
	if err := cch.Set(ctx, "k2", map[string]int{"a": 1}, time.Second); err != nil {
		t.Fatalf("set struct: %v", err)
	}
	b, err = cch.Get(ctx, "k2")
	if err != nil || string(b) != `{"a":1}` {
		t.Fatalf("get struct: %v %q", err, string(b))
	}
}

func TestNoopValkey_HistoryArchive(t *testing.T) {
	cch := NewNoopValkeyCache(logger.New("error"))
	ctx := context.Background()

	entry := &models.HistoryEntry{
		ID:     "h1",
		Action: models.ActionCreated,
		Alert:  models.Alert{ID: "alert-1", Type: "system_down", Priority: models.PriorityCritical},
		Time:   time.Now(),
	}
	if err := cch.ArchiveHistoryEntry(ctx, entry); err != nil {
		t.Fatalf("archive: %v", err)
	}
	entry2 := &models.HistoryEntry{
		ID:     "h2",
		Action: models.ActionResolved,
		Alert:  models.Alert{ID: "alert-1", Type: "system_down"},
		Time:   time.Now(),
	}
	if err := cch.ArchiveHistoryEntry(ctx, entry2); err != nil {
		t.Fatalf("archive second: %v", err)
	}

	got, err := cch.GetArchivedHistory(ctx, "alert-1")
	if err != nil {
		t.Fatalf("get archived: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 archived entries, got %d", len(got))
	}
	if got[0].Action != models.ActionCreated || got[1].Action != models.ActionResolved {
		t.Fatalf("archive order lost: %s, %s", got[0].Action, got[1].Action)
	}

	// unknown alerts have empty history, not an error
	got, err = cch.GetArchivedHistory(ctx, "nope")
	if err != nil || len(got) != 0 {
		t.Fatalf("unknown alert: %v %d", err, len(got))
	}
}

func TestNoopValkey_LocksAndHealth(t *testing.T) {
	cch := NewNoopValkeyCache(logger.New("error"))
	ctx := context.Background()

	ok, err := cch.AcquireLock(ctx, "maintenance", time.Second)
	if err != nil || !ok {
		t.Fatalf("acquire: %v %v", ok, err)
	}
	if err := cch.ReleaseLock(ctx, "maintenance"); err != nil {
		t.Fatalf("release: %v", err)
	}

	// health always reports the missing external cache
	if err := cch.HealthCheck(ctx); err == nil {
		t.Fatalf("expected health error for noop cache")
	}
}
