package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// NewEntry describes one action to record. Actor identity, IP and user
// agent are taken from the request context by the service.
type NewEntry struct {
	AccountID  snowflake.ID
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

// Service records audit entries. Recording is best-effort; a failed write
// is logged and never fails the calling operation.
type Service interface {
	Record(ctx context.Context, entry NewEntry)
}
