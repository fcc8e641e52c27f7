// Package webhook ingests asynchronous billing provider events and turns
// them into ledger syncs.
package webhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/clock"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/config"
	stripe "github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const providerName = "stripe"

var ErrInvalidSignature = errors.New("invalid_webhook_signature")

// Syncer re-derives the ledger row for a provider customer.
type Syncer interface {
	SyncStatusByCustomer(ctx context.Context, customerID string) error
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
	Syncer Syncer
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	secret string
	syncer Syncer
}

func NewService(p Params) *Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("billing.webhook"),
		genID:  p.GenID,
		clock:  p.Clock,
		secret: p.Config.Stripe.WebhookSecret,
		syncer: p.Syncer,
	}
}

// Ingest verifies and processes one webhook delivery. Redeliveries of an
// already stored event are acknowledged without reprocessing.
func (s *Service) Ingest(ctx context.Context, payload []byte, signature string) error {
	event, err := stripewebhook.ConstructEventWithOptions(payload, signature, s.secret, stripewebhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.log.Warn("webhook signature verification failed", zap.Error(err))
		return ErrInvalidSignature
	}

	fresh, err := s.insertEvent(ctx, event)
	if err != nil {
		return err
	}
	if !fresh {
		processed, err := s.alreadyProcessed(ctx, event.ID)
		if err != nil {
			return err
		}
		if processed {
			s.log.Debug("duplicate webhook delivery ignored", zap.String("event_id", event.ID))
			return nil
		}
		// A previous delivery stored the event but failed mid-processing;
		// fall through and retry it.
	}

	if err := s.process(ctx, event); err != nil {
		// processed_at stays unset so the provider's redelivery retries.
		return err
	}
	return s.markProcessed(ctx, event.ID)
}

func (s *Service) process(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted",
		"invoice.paid",
		"invoice.payment_failed",
		"checkout.session.completed":
		customerID := customerFromEvent(event)
		if customerID == "" {
			s.log.Warn("webhook event without customer id",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
			)
			return nil
		}
		return s.syncer.SyncStatusByCustomer(ctx, customerID)
	default:
		// Unhandled event types are stored and acknowledged.
		return nil
	}
}

// insertEvent stores the event row, reporting false on a duplicate.
func (s *Service) insertEvent(ctx context.Context, event stripe.Event) (bool, error) {
	var payload map[string]any
	if len(event.Data.Raw) > 0 {
		if err := json.Unmarshal(event.Data.Raw, &payload); err != nil {
			payload = map[string]any{}
		}
	}

	record := EventRecord{
		ID:              s.genID.Generate(),
		Provider:        providerName,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		Payload:         payload,
		ReceivedAt:      s.clock.Now(),
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(&record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Service) alreadyProcessed(ctx context.Context, eventID string) (bool, error) {
	var record EventRecord
	err := s.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", providerName, eventID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return record.ProcessedAt != nil, nil
}

func (s *Service) markProcessed(ctx context.Context, eventID string) error {
	now := s.clock.Now()
	return s.db.WithContext(ctx).
		Model(&EventRecord{}).
		Where("provider = ? AND provider_event_id = ?", providerName, eventID).
		Update("processed_at", now).Error
}

// customerFromEvent pulls the customer id out of the event object. Every
// routed event type carries a top-level "customer" field.
func customerFromEvent(event stripe.Event) string {
	var object struct {
		Customer string `json:"customer"`
	}
	if err := json.Unmarshal(event.Data.Raw, &object); err != nil {
		return ""
	}
	return object.Customer
}
