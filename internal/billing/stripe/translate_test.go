package stripe

import (
	"errors"
	"testing"
	"time"

	billingdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
	stripe "github.com/stripe/stripe-go/v82"
)

func TestSnapshotFromStripe(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	sub := &stripe.Subscription{
		ID:                "sub_123",
		Status:            stripe.SubscriptionStatusActive,
		CancelAtPeriodEnd: true,
		CancelAt:          end.Unix(),
		Schedule:          &stripe.SubscriptionSchedule{ID: "sched_1"},
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{
					ID:                 "si_1",
					Quantity:           1,
					CurrentPeriodStart: start.Unix(),
					CurrentPeriodEnd:   end.Unix(),
					Price:              &stripe.Price{ID: "price_team_monthly", UnitAmount: 4900},
				},
			},
		},
	}

	snap := snapshotFromStripe(sub)
	if snap.ID != "sub_123" {
		t.Fatalf("id = %q", snap.ID)
	}
	if snap.Status != billingdomain.StatusActive {
		t.Errorf("status = %q", snap.Status)
	}
	if !snap.CancelAtPeriodEnd {
		t.Error("cancel_at_period_end not carried over")
	}
	if snap.CancelAt == nil || !snap.CancelAt.Equal(end) {
		t.Errorf("cancel_at = %v, want %v", snap.CancelAt, end)
	}
	if snap.ScheduleID != "sched_1" {
		t.Errorf("schedule id = %q", snap.ScheduleID)
	}
	if !snap.CurrentPeriodStart.Equal(start) || !snap.CurrentPeriodEnd.Equal(end) {
		t.Errorf("period = %v..%v, want %v..%v", snap.CurrentPeriodStart, snap.CurrentPeriodEnd, start, end)
	}

	item, ok := snap.PrimaryItem()
	if !ok {
		t.Fatal("no primary item")
	}
	if item.PriceID != "price_team_monthly" || item.UnitAmount != 4900 {
		t.Errorf("item = %+v", item)
	}
}

func TestSnapshotFromStripeNoItems(t *testing.T) {
	snap := snapshotFromStripe(&stripe.Subscription{ID: "sub_empty", Status: stripe.SubscriptionStatusCanceled})
	if snap.ID != "sub_empty" || snap.Status != billingdomain.StatusCanceled {
		t.Fatalf("snapshot = %+v", snap)
	}
	if _, ok := snap.PrimaryItem(); ok {
		t.Error("expected no primary item")
	}
	if snap.CancelAt != nil {
		t.Error("expected nil cancel_at")
	}
}

func TestProviderErrPreservesStripeMessage(t *testing.T) {
	serr := &stripe.Error{Msg: "No such customer: cus_missing"}
	err := providerErr("get customer", serr)

	perr, ok := billingdomain.AsProviderError(err)
	if !ok {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.Op != "get customer" {
		t.Errorf("op = %q", perr.Op)
	}
	if perr.Message != "No such customer: cus_missing" {
		t.Errorf("message = %q", perr.Message)
	}
	if !errors.As(err, &serr) {
		t.Error("stripe error not wrapped")
	}
}

func TestProviderErrPlainError(t *testing.T) {
	err := providerErr("list invoices", errors.New("connection reset"))
	perr, ok := billingdomain.AsProviderError(err)
	if !ok {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.Message != "" {
		t.Errorf("message = %q, want empty", perr.Message)
	}
}
