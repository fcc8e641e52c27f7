package domain

import "context"

// Provider is the billing provider client consumed by the reconciliation
// engine. Every call crosses the network and is fallible; failures from
// mutating calls surface as *ProviderError.
type Provider interface {
	// EnsureCustomer creates the provider customer for an account if none
	// exists yet and returns its id. Contact and tax fields are always
	// written from the profile.
	EnsureCustomer(ctx context.Context, profile CustomerProfile) (string, error)

	// SyncCustomerBillingInfo idempotently re-applies the contact fields.
	// Callers treat failures as non-fatal.
	SyncCustomerBillingInfo(ctx context.Context, customerID string, profile CustomerProfile) error

	ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethod, error)
	HasDefaultPaymentMethod(ctx context.Context, customerID string) (bool, error)
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error

	ListSubscriptions(ctx context.Context, customerID string, status SubscriptionStatus) ([]SubscriptionSnapshot, error)

	// CreateSubscription starts a fresh subscription at the given price.
	// Canceled provider subscriptions are terminal and never reactivated;
	// a new object is always created instead.
	CreateSubscription(ctx context.Context, customerID, priceID string) (*SubscriptionSnapshot, error)

	// UpdateSubscriptionItem switches the sole line item to a new price,
	// invoicing the proration immediately.
	UpdateSubscriptionItem(ctx context.Context, subscriptionID, itemID, priceID string) (*SubscriptionSnapshot, error)

	// SetCancelAtPeriodEnd flips the end-of-period cancellation flag.
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*SubscriptionSnapshot, error)

	// ReleaseSchedule removes a pending scheduled plan change.
	ReleaseSchedule(ctx context.Context, scheduleID string) error

	ListInvoices(ctx context.Context, customerID string, limit int) ([]Invoice, error)
}
