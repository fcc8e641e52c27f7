package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Record is one subscription ledger row. Rows are append-tolerant history;
// the latest row per account (by created_at) is the authoritative
// entitlement snapshot, older rows are never deleted.
type Record struct {
	ID                     snowflake.ID  `gorm:"primaryKey" json:"id"`
	AccountID              snowflake.ID  `gorm:"not null;index:ix_subscriptions_account_created" json:"account_id"`
	PlanName               string        `gorm:"type:text;not null;default:'Free'" json:"plan_name"`
	Seats                  int           `gorm:"not null;default:1" json:"seats"`
	PricePerSeat           float64       `gorm:"not null;default:0" json:"price_per_seat"`
	TotalPrice             float64       `gorm:"not null;default:0" json:"total_price"`
	AnalysisAmount         int           `gorm:"not null;default:100" json:"analysis_amount"`
	AnalysisUsed           int           `gorm:"not null;default:0" json:"analysis_used"`
	SubscriptionStatus     string        `gorm:"type:text;not null;default:'active'" json:"subscription_status"`
	ProviderCustomerID     *string       `gorm:"type:text;index:ix_subscriptions_provider_customer" json:"provider_customer_id,omitempty"`
	ProviderSubscriptionID *string       `gorm:"type:text" json:"provider_subscription_id,omitempty"`
	CurrentPeriodStart     *time.Time    `json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time    `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool          `gorm:"not null;default:false" json:"cancel_at_period_end"`
	SubscriptionEndsAt     *time.Time    `json:"subscription_ends_at,omitempty"`
	ScheduledPlanChange    *string       `gorm:"type:text" json:"scheduled_plan_change,omitempty"`
	ScheduledChangeDate    *time.Time    `json:"scheduled_change_date,omitempty"`
	ScheduleID             *string       `gorm:"type:text" json:"schedule_id,omitempty"`
	CreatedAt              time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "subscriptions" }

// CustomerID returns the provider customer id or "".
func (r *Record) CustomerID() string {
	if r == nil || r.ProviderCustomerID == nil {
		return ""
	}
	return *r.ProviderCustomerID
}

// SubscriptionID returns the provider subscription id or "".
func (r *Record) SubscriptionID() string {
	if r == nil || r.ProviderSubscriptionID == nil {
		return ""
	}
	return *r.ProviderSubscriptionID
}

// TerminationDate is the moment a pending cancellation takes effect. It
// prefers the explicit end date and falls back to the period end.
func (r *Record) TerminationDate() *time.Time {
	if r == nil {
		return nil
	}
	if r.SubscriptionEndsAt != nil {
		return r.SubscriptionEndsAt
	}
	return r.CurrentPeriodEnd
}
