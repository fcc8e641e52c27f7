// Package billingtest provides an in-memory billing provider for tests.
package billingtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
)

// FakeProvider implements domain.Provider against in-memory state. Tests
// seed customers and subscriptions directly and can inject an error for
// any single operation by name.
type FakeProvider struct {
	mu sync.Mutex

	customers       map[string]domain.CustomerProfile
	defaultPayment  map[string]string
	paymentMethods  map[string][]domain.PaymentMethod
	subscriptions   map[string][]*domain.SubscriptionSnapshot
	invoices        map[string][]domain.Invoice
	releasedScheds  []string
	failures        map[string]error
	nextCustomerSeq int
	nextSubSeq      int

	// Calls records every operation name in order, for asserting that a
	// failed request performed no further provider mutations.
	Calls []string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		customers:      map[string]domain.CustomerProfile{},
		defaultPayment: map[string]string{},
		paymentMethods: map[string][]domain.PaymentMethod{},
		subscriptions:  map[string][]*domain.SubscriptionSnapshot{},
		invoices:       map[string][]domain.Invoice{},
		failures:       map[string]error{},
	}
}

// FailNext makes the named operation return err on its next call.
func (f *FakeProvider) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

func (f *FakeProvider) failure(op string) error {
	if err, ok := f.failures[op]; ok {
		delete(f.failures, op)
		return err
	}
	return nil
}

// SeedCustomer registers a customer id without going through EnsureCustomer.
func (f *FakeProvider) SeedCustomer(customerID string, profile domain.CustomerProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[customerID] = profile
}

// SeedPaymentMethod attaches a card to a customer.
func (f *FakeProvider) SeedPaymentMethod(customerID string, pm domain.PaymentMethod, makeDefault bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paymentMethods[customerID] = append(f.paymentMethods[customerID], pm)
	if makeDefault {
		f.defaultPayment[customerID] = pm.ID
	}
}

// SeedSubscription attaches a provider subscription to a customer.
func (f *FakeProvider) SeedSubscription(customerID string, snap domain.SubscriptionSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := snap
	f.subscriptions[customerID] = append(f.subscriptions[customerID], &copied)
}

// SeedInvoices sets the invoice history for a customer.
func (f *FakeProvider) SeedInvoices(customerID string, invoices []domain.Invoice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices[customerID] = invoices
}

// Subscription returns the stored snapshot by id for assertions.
func (f *FakeProvider) Subscription(subscriptionID string) (domain.SubscriptionSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, subs := range f.subscriptions {
		for _, s := range subs {
			if s.ID == subscriptionID {
				return *s, true
			}
		}
	}
	return domain.SubscriptionSnapshot{}, false
}

// ReleasedSchedules lists schedule ids released so far.
func (f *FakeProvider) ReleasedSchedules() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.releasedScheds...)
}

// DefaultPaymentMethod returns the default payment method id for a customer.
func (f *FakeProvider) DefaultPaymentMethod(customerID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.defaultPayment[customerID]
}

func (f *FakeProvider) record(op string) {
	f.Calls = append(f.Calls, op)
}

func (f *FakeProvider) EnsureCustomer(_ context.Context, profile domain.CustomerProfile) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("EnsureCustomer")
	if err := f.failure("EnsureCustomer"); err != nil {
		return "", err
	}
	for id, existing := range f.customers {
		if existing.Email == profile.Email {
			return id, nil
		}
	}
	f.nextCustomerSeq++
	id := fmt.Sprintf("cus_fake_%d", f.nextCustomerSeq)
	f.customers[id] = profile
	return id, nil
}

func (f *FakeProvider) SyncCustomerBillingInfo(_ context.Context, customerID string, profile domain.CustomerProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SyncCustomerBillingInfo")
	if err := f.failure("SyncCustomerBillingInfo"); err != nil {
		return err
	}
	if _, ok := f.customers[customerID]; !ok {
		return domain.ErrCustomerNotFound
	}
	f.customers[customerID] = profile
	return nil
}

func (f *FakeProvider) ListPaymentMethods(_ context.Context, customerID string) ([]domain.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListPaymentMethods")
	if err := f.failure("ListPaymentMethods"); err != nil {
		return nil, err
	}
	return append([]domain.PaymentMethod(nil), f.paymentMethods[customerID]...), nil
}

func (f *FakeProvider) HasDefaultPaymentMethod(_ context.Context, customerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("HasDefaultPaymentMethod")
	if err := f.failure("HasDefaultPaymentMethod"); err != nil {
		return false, err
	}
	return f.defaultPayment[customerID] != "", nil
}

func (f *FakeProvider) SetDefaultPaymentMethod(_ context.Context, customerID, paymentMethodID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetDefaultPaymentMethod")
	if err := f.failure("SetDefaultPaymentMethod"); err != nil {
		return err
	}
	f.defaultPayment[customerID] = paymentMethodID
	return nil
}

func (f *FakeProvider) ListSubscriptions(_ context.Context, customerID string, status domain.SubscriptionStatus) ([]domain.SubscriptionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListSubscriptions")
	if err := f.failure("ListSubscriptions"); err != nil {
		return nil, err
	}
	var out []domain.SubscriptionSnapshot
	for _, s := range f.subscriptions[customerID] {
		if s.Status == status {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *FakeProvider) CreateSubscription(_ context.Context, customerID, priceID string) (*domain.SubscriptionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSubscription")
	if err := f.failure("CreateSubscription"); err != nil {
		return nil, err
	}
	f.nextSubSeq++
	now := time.Now().UTC()
	snap := &domain.SubscriptionSnapshot{
		ID:     fmt.Sprintf("sub_fake_%d", f.nextSubSeq),
		Status: domain.StatusActive,
		Items: []domain.SubscriptionItem{
			{
				ID:         fmt.Sprintf("si_fake_%d", f.nextSubSeq),
				PriceID:    priceID,
				UnitAmount: f.unitAmountFor(priceID),
				Quantity:   1,
			},
		},
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}
	f.subscriptions[customerID] = append(f.subscriptions[customerID], snap)
	out := *snap
	return &out, nil
}

func (f *FakeProvider) UpdateSubscriptionItem(_ context.Context, subscriptionID, itemID, priceID string) (*domain.SubscriptionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateSubscriptionItem")
	if err := f.failure("UpdateSubscriptionItem"); err != nil {
		return nil, err
	}
	snap := f.findLocked(subscriptionID)
	if snap == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	for i := range snap.Items {
		if snap.Items[i].ID == itemID {
			snap.Items[i].PriceID = priceID
			snap.Items[i].UnitAmount = f.unitAmountFor(priceID)
		}
	}
	out := *snap
	return &out, nil
}

func (f *FakeProvider) SetCancelAtPeriodEnd(_ context.Context, subscriptionID string, cancel bool) (*domain.SubscriptionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetCancelAtPeriodEnd")
	if err := f.failure("SetCancelAtPeriodEnd"); err != nil {
		return nil, err
	}
	snap := f.findLocked(subscriptionID)
	if snap == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	snap.CancelAtPeriodEnd = cancel
	if cancel {
		at := snap.CurrentPeriodEnd
		snap.CancelAt = &at
	} else {
		snap.CancelAt = nil
	}
	out := *snap
	return &out, nil
}

func (f *FakeProvider) ReleaseSchedule(_ context.Context, scheduleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReleaseSchedule")
	if err := f.failure("ReleaseSchedule"); err != nil {
		return err
	}
	for _, subs := range f.subscriptions {
		for _, s := range subs {
			if s.ScheduleID == scheduleID {
				s.ScheduleID = ""
			}
		}
	}
	f.releasedScheds = append(f.releasedScheds, scheduleID)
	return nil
}

func (f *FakeProvider) ListInvoices(_ context.Context, customerID string, limit int) ([]domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListInvoices")
	if err := f.failure("ListInvoices"); err != nil {
		return nil, err
	}
	invoices := f.invoices[customerID]
	if limit > 0 && len(invoices) > limit {
		invoices = invoices[:limit]
	}
	return append([]domain.Invoice(nil), invoices...), nil
}

func (f *FakeProvider) findLocked(subscriptionID string) *domain.SubscriptionSnapshot {
	for _, subs := range f.subscriptions {
		for _, s := range subs {
			if s.ID == subscriptionID {
				return s
			}
		}
	}
	return nil
}

// unitAmountFor maps the fixture price ids onto realistic amounts.
func (f *FakeProvider) unitAmountFor(priceID string) int64 {
	switch priceID {
	case "price_solo_monthly":
		return 900
	case "price_solo_yearly":
		return 9000
	case "price_team_monthly":
		return 4900
	case "price_team_yearly":
		return 49000
	default:
		return 0
	}
}

var _ domain.Provider = (*FakeProvider)(nil)
