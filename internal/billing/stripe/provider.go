// Package stripe implements the billing provider client on the Stripe API.
package stripe

import (
	"context"
	"strings"

	billingdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/paymentmethod"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/subscriptionschedule"
	"go.uber.org/zap"
)

// Provider talks to Stripe. Plan changes are invoiced immediately with
// proration; canceled subscription objects are terminal and never reused.
type Provider struct {
	log *zap.Logger
}

// NewProvider configures the global Stripe key and returns the client.
func NewProvider(apiKey string, log *zap.Logger) *Provider {
	stripe.Key = apiKey
	return &Provider{log: log.Named("billing.stripe")}
}

func (p *Provider) EnsureCustomer(_ context.Context, profile billingdomain.CustomerProfile) (string, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))

	// Reuse an existing customer for the same account before creating one;
	// a retried signup must not mint duplicate customer objects.
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)
	iter := customer.List(listParams)
	for iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", providerErr("list customers", err)
	}

	params := customerParams(profile)
	created, err := customer.New(params)
	if err != nil {
		return "", providerErr("create customer", err)
	}
	return created.ID, nil
}

func (p *Provider) SyncCustomerBillingInfo(_ context.Context, customerID string, profile billingdomain.CustomerProfile) error {
	if customerID == "" {
		return billingdomain.ErrInvalidCustomer
	}
	if _, err := customer.Update(customerID, customerParams(profile)); err != nil {
		return providerErr("update customer", err)
	}
	return nil
}

func (p *Provider) ListPaymentMethods(_ context.Context, customerID string) ([]billingdomain.PaymentMethod, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String("card"),
	}
	var methods []billingdomain.PaymentMethod
	iter := paymentmethod.List(params)
	for iter.Next() {
		methods = append(methods, paymentMethodFromStripe(iter.PaymentMethod()))
	}
	if err := iter.Err(); err != nil {
		return nil, providerErr("list payment methods", err)
	}
	return methods, nil
}

func (p *Provider) HasDefaultPaymentMethod(_ context.Context, customerID string) (bool, error) {
	cust, err := customer.Get(customerID, nil)
	if err != nil {
		return false, providerErr("get customer", err)
	}
	return cust.InvoiceSettings != nil && cust.InvoiceSettings.DefaultPaymentMethod != nil, nil
}

func (p *Provider) SetDefaultPaymentMethod(_ context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	if _, err := customer.Update(customerID, params); err != nil {
		return providerErr("set default payment method", err)
	}
	return nil
}

func (p *Provider) ListSubscriptions(_ context.Context, customerID string, status billingdomain.SubscriptionStatus) ([]billingdomain.SubscriptionSnapshot, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(status)),
	}
	var snapshots []billingdomain.SubscriptionSnapshot
	iter := subscription.List(params)
	for iter.Next() {
		snapshots = append(snapshots, *snapshotFromStripe(iter.Subscription()))
	}
	if err := iter.Err(); err != nil {
		return nil, providerErr("list subscriptions", err)
	}
	return snapshots, nil
}

func (p *Provider) CreateSubscription(_ context.Context, customerID, priceID string) (*billingdomain.SubscriptionSnapshot, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	sub, err := subscription.New(params)
	if err != nil {
		return nil, providerErr("create subscription", err)
	}
	return snapshotFromStripe(sub), nil
}

func (p *Provider) UpdateSubscriptionItem(_ context.Context, subscriptionID, itemID, priceID string) (*billingdomain.SubscriptionSnapshot, error) {
	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(priceID),
			},
		},
		// Invoice the proration immediately so the plan change charges now
		// instead of riding on the next renewal invoice.
		ProrationBehavior: stripe.String("always_invoice"),
	}
	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, providerErr("update subscription item", err)
	}
	return snapshotFromStripe(sub), nil
}

func (p *Provider) SetCancelAtPeriodEnd(_ context.Context, subscriptionID string, cancel bool) (*billingdomain.SubscriptionSnapshot, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, providerErr("set cancel at period end", err)
	}
	return snapshotFromStripe(sub), nil
}

func (p *Provider) ReleaseSchedule(_ context.Context, scheduleID string) error {
	if _, err := subscriptionschedule.Release(scheduleID, &stripe.SubscriptionScheduleReleaseParams{}); err != nil {
		return providerErr("release schedule", err)
	}
	return nil
}

func (p *Provider) ListInvoices(_ context.Context, customerID string, limit int) ([]billingdomain.Invoice, error) {
	params := &stripe.InvoiceListParams{Customer: stripe.String(customerID)}
	if limit > 0 {
		params.Limit = stripe.Int64(int64(limit))
	}
	var invoices []billingdomain.Invoice
	iter := invoice.List(params)
	for iter.Next() {
		invoices = append(invoices, invoiceFromStripe(iter.Invoice()))
	}
	if err := iter.Err(); err != nil {
		return nil, providerErr("list invoices", err)
	}
	return invoices, nil
}

func customerParams(profile billingdomain.CustomerProfile) *stripe.CustomerParams {
	params := &stripe.CustomerParams{
		Email: stripe.String(strings.ToLower(strings.TrimSpace(profile.Email))),
		Name:  stripe.String(strings.TrimSpace(profile.Name)),
	}
	if profile.AddressLine1 != "" {
		params.Address = &stripe.AddressParams{
			Line1:      stripe.String(profile.AddressLine1),
			City:       stripe.String(profile.City),
			PostalCode: stripe.String(profile.PostalCode),
			Country:    stripe.String(profile.Country),
		}
	}

	params.AddMetadata("account_id", profile.AccountID)
	params.AddMetadata("billing_type", profile.BillingType)
	// Stripe has no first-class tax-id field on the customer object for our
	// flow, so tax identifiers travel as metadata for invoice display.
	if profile.TaxID != "" {
		params.AddMetadata("tax_id", profile.TaxID)
	}
	if profile.VATID != "" {
		params.AddMetadata("vat_id", profile.VATID)
	}
	return params
}
