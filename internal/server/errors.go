package server

import (
	"errors"
	"net/http"

	accountdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/account/domain"
	billingdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/domain"
	"github.com/christianseyboth/bolt-hackathon-sub000/internal/billing/webhook"
	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrRateLimited  = errors.New("rate_limited")
)

type validationError struct {
	Field   string
	Code    string
	Message string
}

func (e *validationError) Error() string { return e.Message }

func newValidationError(field, code, message string) error {
	return &validationError{Field: field, Code: code, Message: message}
}

func invalidRequestError() error {
	return newValidationError("body", "invalid", "invalid request body")
}

// AbortWithError maps domain errors onto the HTTP error contract. The 402
// needs-checkout shape carries a flag so clients redirect to a payment
// collection flow instead of retrying.
func AbortWithError(c *gin.Context, err error) {
	var verr *validationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": verr.Message,
			"field": verr.Field,
			"code":  verr.Code,
		})
		return
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, ErrRateLimited):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	case errors.Is(err, subdomain.ErrNeedsCheckout):
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
			"error":         "no usable payment method on file",
			"needsCheckout": true,
		})
	case errors.Is(err, subdomain.ErrAlreadyExpired):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "subscription already expired"})
	case errors.Is(err, subdomain.ErrFreePlan):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "free plan has no provider subscription"})
	case errors.Is(err, subdomain.ErrInvalidPrice):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid price id"})
	case errors.Is(err, subdomain.ErrSubscriptionNotFound),
		errors.Is(err, subdomain.ErrScheduleNotFound),
		errors.Is(err, accountdomain.ErrAccountNotFound),
		errors.Is(err, ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, accountdomain.ErrInvalidAccount),
		errors.Is(err, accountdomain.ErrInvalidBillingType):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, webhook.ErrInvalidSignature):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
	default:
		if perr, ok := billingdomain.AsProviderError(err); ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "billing provider request failed",
				"details": perr.Message,
			})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
