package webhook

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventRecord is one received provider event. The (provider, event id)
// pair is unique so redelivered webhooks collapse into a single row.
type EventRecord struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	Provider        string            `gorm:"type:text;not null;uniqueIndex:ux_provider_events_event" json:"provider"`
	ProviderEventID string            `gorm:"type:text;not null;uniqueIndex:ux_provider_events_event" json:"provider_event_id"`
	EventType       string            `gorm:"type:text;not null" json:"event_type"`
	AccountID       *snowflake.ID     `json:"account_id,omitempty"`
	Payload         datatypes.JSONMap `gorm:"type:jsonb" json:"payload"`
	ReceivedAt      time.Time         `gorm:"not null" json:"received_at"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "provider_events" }
