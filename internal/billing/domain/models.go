package domain

import "time"

// SubscriptionStatus mirrors the provider's subscription states we act on.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusTrialing SubscriptionStatus = "trialing"
)

// SubscriptionItem is one priced line on a provider subscription.
type SubscriptionItem struct {
	ID         string
	PriceID    string
	UnitAmount int64 // minor currency units
	Quantity   int64
}

// SubscriptionSnapshot is the provider's view of a subscription at one
// point in time. It is never persisted verbatim; the reconciliation
// engine translates it into ledger fields.
type SubscriptionSnapshot struct {
	ID                 string
	Status             SubscriptionStatus
	Items              []SubscriptionItem
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	CancelAt           *time.Time
	ScheduleID         string
}

// PrimaryItem returns the sole line item of a single-plan subscription.
func (s *SubscriptionSnapshot) PrimaryItem() (SubscriptionItem, bool) {
	if s == nil || len(s.Items) == 0 {
		return SubscriptionItem{}, false
	}
	return s.Items[0], true
}

// PaymentMethod is a stored payment instrument.
type PaymentMethod struct {
	ID       string
	Brand    string
	Last4    string
	ExpMonth int64
	ExpYear  int64
}

// Invoice feeds the invoice-history display only; it takes no part in
// reconciliation decisions.
type Invoice struct {
	ID               string    `json:"id"`
	Number           string    `json:"number"`
	Status           string    `json:"status"`
	AmountDue        int64     `json:"amount_due"`
	AmountPaid       int64     `json:"amount_paid"`
	Currency         string    `json:"currency"`
	HostedInvoiceURL string    `json:"hosted_invoice_url,omitempty"`
	InvoicePDF       string    `json:"invoice_pdf,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// CustomerProfile carries the billing contact data pushed to the provider
// whenever a customer is created or synced.
type CustomerProfile struct {
	AccountID    string
	Name         string
	Email        string
	BillingType  string
	AddressLine1 string
	City         string
	PostalCode   string
	Country      string
	TaxID        string
	VATID        string
}
