package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCustomerNotFound     = errors.New("customer_not_found")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrScheduleNotFound     = errors.New("schedule_not_found")
	ErrInvalidCustomer      = errors.New("invalid_customer")
)

// ProviderError wraps a failure reported by the billing provider during a
// fatal step. The provider's own message is preserved for diagnostics.
type ProviderError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("billing provider %s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("billing provider %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("billing provider %s failed", e.Op)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a ProviderError preserving the upstream message.
func NewProviderError(op, message string, err error) *ProviderError {
	return &ProviderError{Op: op, Message: message, Err: err}
}

// AsProviderError unwraps err into a *ProviderError if one is present.
func AsProviderError(err error) (*ProviderError, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
