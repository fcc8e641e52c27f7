package stripe

import (
	"errors"
	"time"

	billingdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
	stripe "github.com/stripe/stripe-go/v82"
)

// snapshotFromStripe converts a Stripe subscription into the provider
// snapshot. The billing period lives on the subscription items, so the
// first item's period is taken as the subscription period.
func snapshotFromStripe(sub *stripe.Subscription) *billingdomain.SubscriptionSnapshot {
	if sub == nil {
		return nil
	}
	snap := &billingdomain.SubscriptionSnapshot{
		ID:                sub.ID,
		Status:            billingdomain.SubscriptionStatus(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.CancelAt > 0 {
		at := time.Unix(sub.CancelAt, 0).UTC()
		snap.CancelAt = &at
	}
	if sub.Schedule != nil {
		snap.ScheduleID = sub.Schedule.ID
	}
	if sub.Items == nil {
		return snap
	}
	for i, item := range sub.Items.Data {
		if item == nil {
			continue
		}
		if i == 0 {
			snap.CurrentPeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
			snap.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		}
		di := billingdomain.SubscriptionItem{
			ID:       item.ID,
			Quantity: item.Quantity,
		}
		if item.Price != nil {
			di.PriceID = item.Price.ID
			di.UnitAmount = item.Price.UnitAmount
		}
		snap.Items = append(snap.Items, di)
	}
	return snap
}

func paymentMethodFromStripe(pm *stripe.PaymentMethod) billingdomain.PaymentMethod {
	method := billingdomain.PaymentMethod{ID: pm.ID}
	if pm.Card != nil {
		method.Brand = string(pm.Card.Brand)
		method.Last4 = pm.Card.Last4
		method.ExpMonth = pm.Card.ExpMonth
		method.ExpYear = pm.Card.ExpYear
	}
	return method
}

func invoiceFromStripe(inv *stripe.Invoice) billingdomain.Invoice {
	return billingdomain.Invoice{
		ID:               inv.ID,
		Number:           inv.Number,
		Status:           string(inv.Status),
		AmountDue:        inv.AmountDue,
		AmountPaid:       inv.AmountPaid,
		Currency:         string(inv.Currency),
		HostedInvoiceURL: inv.HostedInvoiceURL,
		InvoicePDF:       inv.InvoicePDF,
		CreatedAt:        time.Unix(inv.Created, 0).UTC(),
	}
}

// providerErr wraps a Stripe failure, preserving Stripe's own message when
// one is available.
func providerErr(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return billingdomain.NewProviderError(op, serr.Msg, err)
	}
	return billingdomain.NewProviderError(op, "", err)
}
