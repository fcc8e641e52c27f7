package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Repository persists ledger rows. Latest is the only authoritative read;
// older rows per account are history.
type Repository interface {
	// Latest returns the most recently created row for an account, or
	// ErrSubscriptionNotFound.
	Latest(ctx context.Context, accountID snowflake.ID) (*Record, error)

	// LatestByCustomer resolves the newest row linked to a provider
	// customer id, used by webhook-driven syncs.
	LatestByCustomer(ctx context.Context, customerID string) (*Record, error)

	Insert(ctx context.Context, record *Record) error

	// Update overwrites the row identified by record.ID. It never touches
	// other rows, so history rows stay immutable.
	Update(ctx context.Context, record *Record) error
}
