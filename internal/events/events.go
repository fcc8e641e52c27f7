// Package events records billing lifecycle events in a transactional
// outbox table for downstream consumers.
package events

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event types emitted by the subscription engine.
const (
	EventSubscriptionUpgraded    = "subscription.upgraded"
	EventSubscriptionCanceled    = "subscription.canceled"
	EventSubscriptionReactivated = "subscription.reactivated"
	EventSubscriptionSynced      = "subscription.synced"
)

// BillingEvent is one outbox row. The (account_id, dedupe_key) pair is
// unique so replayed writes collapse into a single event.
type BillingEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	AccountID snowflake.ID      `gorm:"not null;uniqueIndex:ux_billing_events_dedupe" json:"account_id"`
	EventType string            `gorm:"type:text;not null" json:"event_type"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb" json:"payload"`
	DedupeKey *string           `gorm:"type:text;uniqueIndex:ux_billing_events_dedupe" json:"dedupe_key,omitempty"`
	Published bool              `gorm:"not null;default:false" json:"published"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (BillingEvent) TableName() string { return "billing_events" }
