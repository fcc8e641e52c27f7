package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// UpdateBillingInfoRequest carries a profile edit to the billing contact
// fields. Nil pointers leave the stored value unchanged.
type UpdateBillingInfoRequest struct {
	AccountID    snowflake.ID
	BillingEmail *string
	BillingType  *BillingType
	CompanyName  *string
	AddressLine1 *string
	City         *string
	PostalCode   *string
	Country      *string
	TaxID        *string
	VATID        *string
}

type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*Account, error)
	// Ensure returns the account, creating a bare row on first login when
	// the id belongs to the authenticated caller.
	Ensure(ctx context.Context, id snowflake.ID, email string) (*Account, error)
	UpdateBillingInfo(ctx context.Context, req UpdateBillingInfoRequest) (*Account, error)
}

var (
	ErrAccountNotFound    = errors.New("account_not_found")
	ErrInvalidAccount     = errors.New("invalid_account")
	ErrInvalidBillingType = errors.New("invalid_billing_type")
)
