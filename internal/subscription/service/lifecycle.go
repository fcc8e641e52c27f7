package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/audit/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/events"
	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	"go.uber.org/zap"
)

// Cancel schedules the subscription to end at the close of the current
// billing period. Reason and feedback are recorded for analytics only.
func (s *Service) Cancel(ctx context.Context, req subdomain.CancelRequest) error {
	unlock := s.locks.Lock(req.AccountID)
	defer unlock()

	record, err := s.repo.Latest(ctx, req.AccountID)
	if err != nil {
		return err
	}
	subscriptionID, err := resolveSubscriptionID(record, req.SubscriptionID)
	if err != nil {
		return err
	}

	snapshot, err := s.provider.SetCancelAtPeriodEnd(ctx, subscriptionID, true)
	if err != nil {
		return err
	}

	record.CancelAtPeriodEnd = true
	if snapshot.CancelAt != nil {
		record.SubscriptionEndsAt = snapshot.CancelAt
	} else if !snapshot.CurrentPeriodEnd.IsZero() {
		end := snapshot.CurrentPeriodEnd
		record.SubscriptionEndsAt = &end
	}
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, record); err != nil {
		s.log.Error("ledger write failed after cancel",
			zap.String("account_id", req.AccountID.String()),
			zap.Error(err),
		)
	}

	s.audit.Record(ctx, auditdomain.NewEntry{
		AccountID:  req.AccountID,
		Action:     "subscription.cancel",
		TargetType: "subscription",
		TargetID:   subscriptionID,
		Metadata: map[string]any{
			"reason":   req.Reason,
			"feedback": req.Feedback,
		},
	})
	s.outbox.Publish(ctx, req.AccountID, events.EventSubscriptionCanceled, map[string]any{
		"provider_subscription_id": subscriptionID,
		"reason":                   req.Reason,
	}, "cancel:"+subscriptionID)
	return nil
}

// Reactivate clears a pending cancellation. It is only legal before the
// termination date; afterwards the caller must start a new plan change.
func (s *Service) Reactivate(ctx context.Context, req subdomain.ReactivateRequest) error {
	unlock := s.locks.Lock(req.AccountID)
	defer unlock()

	record, err := s.repo.Latest(ctx, req.AccountID)
	if err != nil {
		return err
	}
	subscriptionID, err := resolveSubscriptionID(record, req.SubscriptionID)
	if err != nil {
		return err
	}
	if subdomain.PhaseOf(record, s.clock.Now()) == subdomain.PhaseExpired {
		return subdomain.ErrAlreadyExpired
	}

	if _, err := s.provider.SetCancelAtPeriodEnd(ctx, subscriptionID, false); err != nil {
		return err
	}

	record.CancelAtPeriodEnd = false
	record.SubscriptionEndsAt = nil
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, record); err != nil {
		s.log.Error("ledger write failed after reactivate",
			zap.String("account_id", req.AccountID.String()),
			zap.Error(err),
		)
	}

	s.audit.Record(ctx, auditdomain.NewEntry{
		AccountID:  req.AccountID,
		Action:     "subscription.reactivate",
		TargetType: "subscription",
		TargetID:   subscriptionID,
	})
	s.outbox.Publish(ctx, req.AccountID, events.EventSubscriptionReactivated, map[string]any{
		"provider_subscription_id": subscriptionID,
	}, "reactivate:"+subscriptionID)
	return nil
}

// CancelScheduledChange releases a pending future plan change.
func (s *Service) CancelScheduledChange(ctx context.Context, accountID snowflake.ID, scheduleID string) error {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	record, err := s.repo.Latest(ctx, accountID)
	if err != nil {
		return err
	}
	if record.ScheduleID == nil || *record.ScheduleID == "" {
		return subdomain.ErrScheduleNotFound
	}
	if scheduleID != "" && scheduleID != *record.ScheduleID {
		return subdomain.ErrScheduleNotFound
	}
	scheduleID = *record.ScheduleID

	if err := s.provider.ReleaseSchedule(ctx, scheduleID); err != nil {
		return err
	}

	record.ScheduleID = nil
	record.ScheduledPlanChange = nil
	record.ScheduledChangeDate = nil
	record.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, record); err != nil {
		s.log.Error("ledger write failed after schedule release",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
	}

	s.audit.Record(ctx, auditdomain.NewEntry{
		AccountID:  accountID,
		Action:     "subscription.cancel_scheduled_change",
		TargetType: "schedule",
		TargetID:   scheduleID,
	})
	return nil
}

// resolveSubscriptionID checks the requested subscription id against the
// ledger. Free-plan rows carry no provider subscription and cannot be
// cancelled or reactivated.
func resolveSubscriptionID(record *subdomain.Record, requested string) (string, error) {
	current := record.SubscriptionID()
	if current == "" {
		return "", subdomain.ErrFreePlan
	}
	if requested != "" && requested != current {
		return "", subdomain.ErrSubscriptionNotFound
	}
	return current, nil
}
