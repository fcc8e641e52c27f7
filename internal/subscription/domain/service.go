package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
)

var (
	// ErrNeedsCheckout means the account has no provider customer or no
	// usable payment method; the caller must run a payment-collecting
	// checkout flow before changing plans.
	ErrNeedsCheckout = errors.New("needs_checkout")

	// ErrAlreadyExpired means a reactivation arrived after the
	// termination date; only a fresh plan change can help now.
	ErrAlreadyExpired = errors.New("subscription_already_expired")

	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrScheduleNotFound     = errors.New("schedule_not_found")

	// ErrFreePlan guards lifecycle calls that make no sense without a
	// paid provider subscription.
	ErrFreePlan = errors.New("free_plan_has_no_subscription")

	ErrInvalidPrice = errors.New("invalid_price")
)

// UpgradeRequest asks for an immediate plan change to a new price.
type UpgradeRequest struct {
	AccountID snowflake.ID
	PriceID   string
}

// UpgradeResult reports the reconciled outcome of a plan change.
type UpgradeResult struct {
	SubscriptionID string `json:"id"`
	PlanName       string `json:"plan_name"`
	Seats          int    `json:"seats"`
	Status         string `json:"status"`
	IsNew          bool   `json:"is_new"`
}

// CancelRequest schedules a cancellation for the end of the billing
// period. Reason and feedback feed product analytics only.
type CancelRequest struct {
	AccountID      snowflake.ID
	SubscriptionID string
	Reason         string
	Feedback       string
}

// ReactivateRequest clears a pending cancellation before it takes effect.
type ReactivateRequest struct {
	AccountID      snowflake.ID
	SubscriptionID string
}

// SyncResult reports the ledger state after a sync.
type SyncResult struct {
	PlanName string `json:"plan_name"`
	Status   string `json:"status"`
}

// Service is the subscription reconciliation engine. All writes for one
// account are serialized internally; callers may invoke operations
// concurrently without corrupting the ledger row.
type Service interface {
	// Upgrade applies an immediate plan change, creating a fresh provider
	// subscription when none is active. Canceled provider subscriptions
	// are never resurrected.
	Upgrade(ctx context.Context, req UpgradeRequest) (*UpgradeResult, error)

	Cancel(ctx context.Context, req CancelRequest) error
	Reactivate(ctx context.Context, req ReactivateRequest) error
	CancelScheduledChange(ctx context.Context, accountID snowflake.ID, scheduleID string) error

	// SyncAfterCheckout re-derives the ledger row right after a checkout
	// redirect completes.
	SyncAfterCheckout(ctx context.Context, accountID snowflake.ID) error

	// SyncStatus re-derives the ledger row from the provider's current
	// state, resetting to Free when the provider has no subscriptions.
	SyncStatus(ctx context.Context, accountID snowflake.ID) (*SyncResult, error)

	// SyncStatusByCustomer is SyncStatus keyed by provider customer id,
	// used by the webhook ingester.
	SyncStatusByCustomer(ctx context.Context, customerID string) error

	// SyncBillingInfo pushes the account's billing contact fields to the
	// provider. It never touches plan or seat fields.
	SyncBillingInfo(ctx context.Context, accountID snowflake.ID) error

	Current(ctx context.Context, accountID snowflake.ID) (*Record, error)
	Invoices(ctx context.Context, accountID snowflake.ID) ([]billingdomain.Invoice, error)
}
