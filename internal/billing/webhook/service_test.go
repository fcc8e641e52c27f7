package webhook

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "whsec_test_secret"

type recordingSyncer struct {
	customers []string
	err       error
}

func (r *recordingSyncer) SyncStatusByCustomer(_ context.Context, customerID string) error {
	if r.err != nil {
		return r.err
	}
	r.customers = append(r.customers, customerID)
	return nil
}

func TestIngestRoutesSubscriptionUpdate(t *testing.T) {
	syncer := &recordingSyncer{}
	svc := newTestWebhookService(t, syncer)

	payload := eventPayload("evt_1", "customer.subscription.updated", "cus_123")
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	if err := svc.Ingest(context.Background(), signed.Payload, signed.Header); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(syncer.customers) != 1 || syncer.customers[0] != "cus_123" {
		t.Errorf("synced customers = %v", syncer.customers)
	}
}

func TestIngestRejectsBadSignature(t *testing.T) {
	syncer := &recordingSyncer{}
	svc := newTestWebhookService(t, syncer)

	payload := eventPayload("evt_2", "customer.subscription.updated", "cus_123")
	err := svc.Ingest(context.Background(), payload, "t=1,v1=deadbeef")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
	if len(syncer.customers) != 0 {
		t.Error("sync ran despite bad signature")
	}
}

func TestIngestDeduplicatesRedelivery(t *testing.T) {
	syncer := &recordingSyncer{}
	svc := newTestWebhookService(t, syncer)

	payload := eventPayload("evt_3", "invoice.paid", "cus_456")
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	if err := svc.Ingest(context.Background(), signed.Payload, signed.Header); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.Ingest(context.Background(), signed.Payload, signed.Header); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(syncer.customers) != 1 {
		t.Errorf("event processed %d times", len(syncer.customers))
	}
}

func TestIngestRetriesAfterFailedProcessing(t *testing.T) {
	syncer := &recordingSyncer{err: errors.New("ledger offline")}
	svc := newTestWebhookService(t, syncer)

	payload := eventPayload("evt_4", "customer.subscription.deleted", "cus_789")
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	if err := svc.Ingest(context.Background(), signed.Payload, signed.Header); err == nil {
		t.Fatal("expected processing failure")
	}

	syncer.err = nil
	if err := svc.Ingest(context.Background(), signed.Payload, signed.Header); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(syncer.customers) != 1 || syncer.customers[0] != "cus_789" {
		t.Errorf("synced customers = %v", syncer.customers)
	}
}

func TestIngestStoresUnhandledEventTypes(t *testing.T) {
	syncer := &recordingSyncer{}
	svc := newTestWebhookService(t, syncer)

	payload := eventPayload("evt_5", "customer.updated", "cus_000")
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	if err := svc.Ingest(context.Background(), signed.Payload, signed.Header); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(syncer.customers) != 0 {
		t.Error("unhandled event type triggered a sync")
	}

	var count int64
	if err := svc.db.Model(&EventRecord{}).Where("provider_event_id = ?", "evt_5").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("stored rows = %d", count)
	}
}

var webhookTestDBSeq atomic.Int64

func newTestWebhookService(t *testing.T, syncer Syncer) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:webhooktest%d?mode=memory&cache=shared", webhookTestDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS provider_events (
			id INTEGER PRIMARY KEY,
			provider TEXT NOT NULL,
			provider_event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			account_id BIGINT,
			payload TEXT NOT NULL DEFAULT '{}',
			received_at DATETIME NOT NULL,
			processed_at DATETIME
		)`,
	).Error; err != nil {
		t.Fatalf("create provider_events: %v", err)
	}
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_provider_events_event
			ON provider_events (provider, provider_event_id)`,
	).Error; err != nil {
		t.Fatalf("create index: %v", err)
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return &Service{
		db:     db,
		log:    zap.NewNop(),
		genID:  node,
		clock:  clock.SystemClock{},
		secret: testSecret,
		syncer: syncer,
	}
}

func eventPayload(eventID, eventType, customerID string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":%q,"data":{"object":{"id":"obj_1","customer":%q}}}`,
		eventID, eventType, customerID,
	))
}
