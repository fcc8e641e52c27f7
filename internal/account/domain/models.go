package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// BillingType selects which contact fields feed the provider's invoice
// display.
type BillingType string

const (
	BillingTypeIndividual BillingType = "individual"
	BillingTypeBusiness   BillingType = "business"
)

// Account is the tenant identity owning a subscription ledger row. The
// billing contact fields are display-only; they never affect entitlements.
type Account struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"type:text;not null;uniqueIndex:ux_accounts_email" json:"email"`
	FullName     string       `gorm:"type:text;not null;default:''" json:"full_name"`
	BillingEmail string       `gorm:"type:text;not null;default:''" json:"billing_email"`
	BillingType  BillingType  `gorm:"type:text;not null;default:'individual'" json:"billing_type"`
	CompanyName  *string      `gorm:"type:text" json:"company_name,omitempty"`
	AddressLine1 *string      `gorm:"type:text" json:"address_line1,omitempty"`
	City         *string      `gorm:"type:text" json:"city,omitempty"`
	PostalCode   *string      `gorm:"type:text" json:"postal_code,omitempty"`
	Country      *string      `gorm:"type:text" json:"country,omitempty"`
	TaxID        *string      `gorm:"type:text" json:"tax_id,omitempty"`
	VATID        *string      `gorm:"type:text" json:"vat_id,omitempty"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// ContactEmail returns the billing email, falling back to the login email.
func (a *Account) ContactEmail() string {
	if a.BillingEmail != "" {
		return a.BillingEmail
	}
	return a.Email
}

// ContactName returns the name the provider should show on invoices.
func (a *Account) ContactName() string {
	if a.BillingType == BillingTypeBusiness && a.CompanyName != nil && *a.CompanyName != "" {
		return *a.CompanyName
	}
	return a.FullName
}
