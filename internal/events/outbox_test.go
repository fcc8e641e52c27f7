package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var outboxTestDBSeq atomic.Int64

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:outboxtest%d?mode=memory&cache=shared", outboxTestDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS billing_events (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,
	).Error; err != nil {
		t.Fatalf("create billing_events: %v", err)
	}
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_billing_events_dedupe
			ON billing_events (account_id, dedupe_key)`,
	).Error; err != nil {
		t.Fatalf("create dedupe index: %v", err)
	}
	return db
}

func newTestOutbox(t *testing.T, db *gorm.DB) *Outbox {
	t.Helper()

	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewOutbox(OutboxParams{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.SystemClock{},
	})
}

func TestPublishCollapsesDuplicateDedupeKeys(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)
	ctx := context.Background()
	accountID := snowflake.ID(3001)

	outbox.Publish(ctx, accountID, EventSubscriptionUpgraded, map[string]any{"plan": "Team"}, "upgrade:sub_1:price_1")
	outbox.Publish(ctx, accountID, EventSubscriptionUpgraded, map[string]any{"plan": "Team"}, "upgrade:sub_1:price_1")

	events, err := outbox.Pending(ctx, accountID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event after duplicate publish, got %d", len(events))
	}
	if events[0].EventType != EventSubscriptionUpgraded {
		t.Fatalf("unexpected event type %q", events[0].EventType)
	}
}

func TestPublishWithoutDedupeKeyAppends(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)
	ctx := context.Background()
	accountID := snowflake.ID(3002)

	outbox.Publish(ctx, accountID, EventSubscriptionSynced, nil, "")
	outbox.Publish(ctx, accountID, EventSubscriptionSynced, nil, "")

	events, err := outbox.Pending(ctx, accountID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected two events without dedupe keys, got %d", len(events))
	}
}
