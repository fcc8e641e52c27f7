package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/catalog"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/events"
	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	"go.uber.org/zap"
)

const (
	invoiceListLimit = 24
	invoiceCacheTTL  = 2 * time.Minute
)

// SyncAfterCheckout re-derives the ledger row right after a checkout
// redirect completes, when the provider holds a subscription the ledger
// has never seen.
func (s *Service) SyncAfterCheckout(ctx context.Context, accountID snowflake.ID) error {
	_, err := s.SyncStatus(ctx, accountID)
	return err
}

// SyncStatus rebuilds the ledger row from the provider's current state.
// Safe to call when nothing drifted; resets to Free when the provider has
// no subscriptions at all.
func (s *Service) SyncStatus(ctx context.Context, accountID snowflake.ID) (*subdomain.SyncResult, error) {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	record, err := s.repo.Latest(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := s.syncLocked(ctx, record); err != nil {
		return nil, err
	}
	return &subdomain.SyncResult{
		PlanName: record.PlanName,
		Status:   record.SubscriptionStatus,
	}, nil
}

// SyncStatusByCustomer resolves the ledger row owning a provider customer
// id and re-derives it. Unknown customers are ignored; the webhook stream
// delivers events for customers this service never created.
func (s *Service) SyncStatusByCustomer(ctx context.Context, customerID string) error {
	record, err := s.repo.LatestByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, subdomain.ErrSubscriptionNotFound) {
			s.log.Debug("sync requested for unknown provider customer",
				zap.String("provider_customer_id", customerID),
			)
			return nil
		}
		return err
	}

	unlock := s.locks.Lock(record.AccountID)
	defer unlock()

	// Re-read under the lock; another writer may have replaced the row.
	record, err = s.repo.Latest(ctx, record.AccountID)
	if err != nil {
		return err
	}
	return s.syncLocked(ctx, record)
}

// syncLocked re-derives every provider-owned ledger field. The caller
// must hold the account lock.
func (s *Service) syncLocked(ctx context.Context, record *subdomain.Record) error {
	customerID := record.CustomerID()
	if customerID == "" {
		// Nothing to reconcile against; the row is already the Free tier.
		return nil
	}

	active, err := s.provider.ListSubscriptions(ctx, customerID, billingdomain.StatusActive)
	if err != nil {
		return err
	}

	if len(active) == 0 {
		s.resetToFree(record)
	} else {
		snapshot := active[0]
		planName := catalog.PlanFree
		if item, ok := snapshot.PrimaryItem(); ok {
			planName = catalog.PlanForPrice(item.PriceID)
		}
		s.applySnapshot(record, &snapshot, planName)
	}

	if err := s.repo.Update(ctx, record); err != nil {
		return err
	}

	s.outbox.Publish(ctx, record.AccountID, events.EventSubscriptionSynced, map[string]any{
		"plan_name": record.PlanName,
		"status":    record.SubscriptionStatus,
	}, "")
	return nil
}

// resetToFree strips all provider subscription linkage while keeping the
// customer id, so a later upgrade does not need a new checkout.
func (s *Service) resetToFree(record *subdomain.Record) {
	record.PlanName = catalog.PlanFree
	record.Seats = catalog.DefaultSeats
	record.AnalysisAmount = catalog.DefaultQuota
	record.PricePerSeat = 0
	record.TotalPrice = 0
	record.SubscriptionStatus = string(billingdomain.StatusActive)
	record.ProviderSubscriptionID = nil
	record.CurrentPeriodStart = nil
	record.CurrentPeriodEnd = nil
	record.CancelAtPeriodEnd = false
	record.SubscriptionEndsAt = nil
	record.ScheduledPlanChange = nil
	record.ScheduledChangeDate = nil
	record.ScheduleID = nil
	record.UpdatedAt = s.clock.Now()
}

// SyncBillingInfo pushes the account's billing contact fields to the
// provider, creating the customer first when none exists. Plan and seat
// fields are never touched.
func (s *Service) SyncBillingInfo(ctx context.Context, accountID snowflake.ID) error {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	record, err := s.repo.Latest(ctx, accountID)
	if err != nil {
		return err
	}

	customerID := record.CustomerID()
	if customerID == "" {
		customerID, err = s.provider.EnsureCustomer(ctx, profileFor(account))
		if err != nil {
			return err
		}
		record.ProviderCustomerID = &customerID
		record.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, record); err != nil {
			s.log.Error("ledger write failed after customer creation",
				zap.String("account_id", accountID.String()),
				zap.Error(err),
			)
		}
		return nil
	}

	return s.provider.SyncCustomerBillingInfo(ctx, customerID, profileFor(account))
}

// Current returns the authoritative ledger row for an account.
func (s *Service) Current(ctx context.Context, accountID snowflake.ID) (*subdomain.Record, error) {
	return s.repo.Latest(ctx, accountID)
}

// Invoices lists the provider invoice history for display, cached briefly
// per customer to keep repeated dashboard loads off the provider API.
func (s *Service) Invoices(ctx context.Context, accountID snowflake.ID) ([]billingdomain.Invoice, error) {
	record, err := s.repo.Latest(ctx, accountID)
	if err != nil {
		return nil, err
	}
	customerID := record.CustomerID()
	if customerID == "" {
		return nil, nil
	}

	if cached, ok := s.invoices.Get(customerID); ok {
		return cached, nil
	}
	invoices, err := s.provider.ListInvoices(ctx, customerID, invoiceListLimit)
	if err != nil {
		return nil, err
	}
	s.invoices.Set(customerID, invoices, invoiceCacheTTL)
	return invoices, nil
}
