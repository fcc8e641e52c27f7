package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/account/domain"
	auditdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/audit/domain"
	billingdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/cache"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/catalog"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/events"
	obscontext "github.com/christianseyboth/bolt-hackathon-sub000/internal/observability/context"
	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo     subdomain.Repository
	Accounts accountdomain.Service
	Provider billingdomain.Provider
	Audit    auditdomain.Service
	Outbox   *events.Outbox
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Invoices cache.Cache[string, []billingdomain.Invoice]
}

type Service struct {
	repo     subdomain.Repository
	accounts accountdomain.Service
	provider billingdomain.Provider
	audit    auditdomain.Service
	outbox   *events.Outbox
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	locks    *accountLocks
	invoices cache.Cache[string, []billingdomain.Invoice]
}

func NewService(p Params) subdomain.Service {
	return &Service{
		repo:     p.Repo,
		accounts: p.Accounts,
		provider: p.Provider,
		audit:    p.Audit,
		outbox:   p.Outbox,
		log:      p.Log.Named("subscription.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		locks:    newAccountLocks(),
		invoices: p.Invoices,
	}
}

// Upgrade reconciles a plan change against the provider and writes the
// resulting entitlements into the ledger. Provider mutations are fatal on
// failure; the trailing ledger write is not, the next sync repairs it.
func (s *Service) Upgrade(ctx context.Context, req subdomain.UpgradeRequest) (*subdomain.UpgradeResult, error) {
	if strings.TrimSpace(req.PriceID) == "" {
		return nil, subdomain.ErrInvalidPrice
	}

	unlock := s.locks.Lock(req.AccountID)
	defer unlock()

	account, err := s.resolveAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Latest(ctx, req.AccountID)
	if errors.Is(err, subdomain.ErrSubscriptionNotFound) {
		record, err = s.bootstrapFreeRecord(ctx, account)
	}
	if err != nil {
		return nil, err
	}

	customerID := record.CustomerID()
	if customerID == "" {
		return nil, subdomain.ErrNeedsCheckout
	}

	// Billing contact display is best-effort and must never block a plan
	// change.
	if err := s.provider.SyncCustomerBillingInfo(ctx, customerID, profileFor(account)); err != nil {
		s.log.Warn("billing info sync failed",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}

	if err := s.ensureDefaultPaymentMethod(ctx, customerID); err != nil {
		return nil, err
	}

	snapshot, isNew, err := s.applyPlanChange(ctx, customerID, req.PriceID)
	if err != nil {
		return nil, err
	}

	planName := catalog.PlanForPrice(req.PriceID)
	s.applySnapshot(record, snapshot, planName)
	if err := s.repo.Update(ctx, record); err != nil {
		// The provider already holds the new state; the ledger self-heals
		// on the next sync, so the caller still sees success.
		s.log.Error("ledger write failed after provider mutation",
			zap.String("account_id", account.ID.String()),
			zap.String("provider_subscription_id", snapshot.ID),
			zap.Error(err),
		)
	}

	s.audit.Record(ctx, auditdomain.NewEntry{
		AccountID:  account.ID,
		Action:     "subscription.upgrade",
		TargetType: "subscription",
		TargetID:   snapshot.ID,
		Metadata: map[string]any{
			"price_id":  req.PriceID,
			"plan_name": planName,
			"is_new":    isNew,
		},
	})
	s.outbox.Publish(ctx, account.ID, events.EventSubscriptionUpgraded, map[string]any{
		"provider_subscription_id": snapshot.ID,
		"plan_name":                planName,
		"price_id":                 req.PriceID,
		"is_new":                   isNew,
	}, "upgrade:"+snapshot.ID+":"+req.PriceID)

	return &subdomain.UpgradeResult{
		SubscriptionID: snapshot.ID,
		PlanName:       planName,
		Seats:          catalog.SeatsForPlan(planName),
		Status:         string(snapshot.Status),
		IsNew:          isNew,
	}, nil
}

// resolveAccount loads the account, auto-provisioning one on first login
// when the authenticated caller asks for their own id.
func (s *Service) resolveAccount(ctx context.Context, accountID snowflake.ID) (*accountdomain.Account, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, accountdomain.ErrAccountNotFound) {
		return nil, err
	}

	actorType, actorID := obscontext.ActorFromContext(ctx)
	if actorType != auditdomain.ActorUser || actorID != accountID.String() {
		return nil, accountdomain.ErrAccountNotFound
	}
	return s.accounts.Ensure(ctx, accountID, obscontext.ActorEmailFromContext(ctx))
}

// bootstrapFreeRecord creates the initial Free ledger row together with a
// provider customer so a later checkout can attach payment methods.
func (s *Service) bootstrapFreeRecord(ctx context.Context, account *accountdomain.Account) (*subdomain.Record, error) {
	customerID, err := s.provider.EnsureCustomer(ctx, profileFor(account))
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := &subdomain.Record{
		ID:                 s.genID.Generate(),
		AccountID:          account.ID,
		PlanName:           catalog.PlanFree,
		Seats:              catalog.DefaultSeats,
		AnalysisAmount:     catalog.DefaultQuota,
		SubscriptionStatus: string(billingdomain.StatusActive),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if customerID != "" {
		record.ProviderCustomerID = &customerID
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, err
	}

	s.log.Info("bootstrapped free ledger row",
		zap.String("account_id", account.ID.String()),
		zap.String("provider_customer_id", customerID),
	)
	return record, nil
}

// ensureDefaultPaymentMethod verifies a chargeable payment method exists,
// promoting the first stored one to default when none is marked.
func (s *Service) ensureDefaultPaymentMethod(ctx context.Context, customerID string) error {
	hasDefault, err := s.provider.HasDefaultPaymentMethod(ctx, customerID)
	if err != nil {
		return err
	}
	methods, err := s.provider.ListPaymentMethods(ctx, customerID)
	if err != nil {
		return err
	}
	if len(methods) == 0 {
		return subdomain.ErrNeedsCheckout
	}
	if hasDefault {
		return nil
	}
	if err := s.provider.SetDefaultPaymentMethod(ctx, customerID, methods[0].ID); err != nil {
		s.log.Warn("failed to promote default payment method",
			zap.String("provider_customer_id", customerID),
			zap.Error(err),
		)
		return subdomain.ErrNeedsCheckout
	}
	return nil
}

// applyPlanChange mutates the provider: an active subscription is updated
// in place; otherwise a fresh one is created. A canceled subscription is
// terminal and never resurrected, even when it is the only one left.
func (s *Service) applyPlanChange(ctx context.Context, customerID, priceID string) (*billingdomain.SubscriptionSnapshot, bool, error) {
	active, err := s.provider.ListSubscriptions(ctx, customerID, billingdomain.StatusActive)
	if err != nil {
		return nil, false, err
	}

	if len(active) > 0 {
		// Active always wins over any canceled leftovers.
		current := active[0]
		item, ok := current.PrimaryItem()
		if !ok {
			return nil, false, billingdomain.NewProviderError("update subscription item", "subscription has no line items", nil)
		}
		snapshot, err := s.provider.UpdateSubscriptionItem(ctx, current.ID, item.ID, priceID)
		if err != nil {
			return nil, false, err
		}
		return snapshot, false, nil
	}

	snapshot, err := s.provider.CreateSubscription(ctx, customerID, priceID)
	if err != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

// applySnapshot translates a provider snapshot into ledger fields. Prices
// come from the line item's minor currency units.
func (s *Service) applySnapshot(record *subdomain.Record, snapshot *billingdomain.SubscriptionSnapshot, planName string) {
	record.PlanName = planName
	record.Seats = catalog.SeatsForPlan(planName)
	record.AnalysisAmount = catalog.QuotaForPlan(planName)
	record.SubscriptionStatus = string(snapshot.Status)
	record.CancelAtPeriodEnd = snapshot.CancelAtPeriodEnd
	record.SubscriptionEndsAt = snapshot.CancelAt

	if item, ok := snapshot.PrimaryItem(); ok {
		record.PricePerSeat = float64(item.UnitAmount) / 100
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		record.TotalPrice = float64(item.UnitAmount*quantity) / 100
	}

	subscriptionID := snapshot.ID
	record.ProviderSubscriptionID = &subscriptionID
	if !snapshot.CurrentPeriodStart.IsZero() {
		start := snapshot.CurrentPeriodStart
		record.CurrentPeriodStart = &start
	}
	if !snapshot.CurrentPeriodEnd.IsZero() {
		end := snapshot.CurrentPeriodEnd
		record.CurrentPeriodEnd = &end
	}
	if snapshot.ScheduleID != "" {
		scheduleID := snapshot.ScheduleID
		record.ScheduleID = &scheduleID
	} else {
		record.ScheduleID = nil
		record.ScheduledPlanChange = nil
		record.ScheduledChangeDate = nil
	}
	record.UpdatedAt = s.clock.Now()
}

// profileFor maps account billing fields onto the provider contact
// profile. Business accounts surface company and tax details.
func profileFor(account *accountdomain.Account) billingdomain.CustomerProfile {
	profile := billingdomain.CustomerProfile{
		AccountID:   account.ID.String(),
		Name:        account.ContactName(),
		Email:       account.ContactEmail(),
		BillingType: string(account.BillingType),
	}
	if account.BillingType == accountdomain.BillingTypeBusiness {
		profile.AddressLine1 = deref(account.AddressLine1)
		profile.City = deref(account.City)
		profile.PostalCode = deref(account.PostalCode)
		profile.Country = deref(account.Country)
		profile.TaxID = deref(account.TaxID)
		profile.VATID = deref(account.VATID)
	}
	return profile
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
