package events

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxParams struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

// Outbox appends billing events. Writes are best-effort from the caller's
// point of view; a failure is logged and never fails the operation that
// produced the event.
type Outbox struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewOutbox(p OutboxParams) *Outbox {
	return &Outbox{
		db:    p.DB,
		log:   p.Log.Named("events.outbox"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

// Publish appends one event. An empty dedupeKey disables deduplication;
// otherwise a duplicate (account, key) pair is silently dropped.
func (o *Outbox) Publish(ctx context.Context, accountID snowflake.ID, eventType string, payload map[string]any, dedupeKey string) {
	event := BillingEvent{
		ID:        o.genID.Generate(),
		AccountID: accountID,
		EventType: eventType,
		Payload:   datatypes.JSONMap(payload),
		CreatedAt: o.clock.Now(),
	}
	if event.Payload == nil {
		event.Payload = datatypes.JSONMap{}
	}
	if dedupeKey != "" {
		event.DedupeKey = &dedupeKey
	}

	err := o.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "dedupe_key"}},
			DoNothing: true,
		}).
		Create(&event).Error
	if err != nil {
		o.log.Warn("outbox publish failed",
			zap.String("event_type", eventType),
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
	}
}

// Pending returns unpublished events for an account, oldest first.
func (o *Outbox) Pending(ctx context.Context, accountID snowflake.ID) ([]BillingEvent, error) {
	var out []BillingEvent
	err := o.db.WithContext(ctx).
		Where("account_id = ? AND published = ?", accountID, false).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

var Module = fx.Module("events",
	fx.Provide(NewOutbox),
)
