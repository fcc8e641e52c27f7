package server

import (
	obscontext "github.com/christianseyboth/bolt-hackathon-sub000/internal/observability/context"
	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes mounts the billing surface. Mutating endpoints are
// rate limited per authenticated account.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")

	// Signature-authenticated, no session.
	api.POST("/webhooks/stripe", s.StripeWebhook)

	authed := api.Group("", s.SessionRequired())
	authed.GET("/billing/subscription", s.GetSubscription)
	authed.GET("/billing/invoices", s.ListInvoices)

	mutating := authed.Group("", s.rateLimited())
	mutating.PUT("/billing/info", s.UpdateBillingInfo)
	mutating.POST("/upgrade-subscription", s.UpgradeSubscription)
	mutating.POST("/cancel-subscription", s.CancelSubscription)
	mutating.POST("/reactivate-subscription", s.ReactivateSubscription)
	mutating.POST("/cancel-scheduled-change", s.CancelScheduledChange)
	mutating.POST("/sync-subscription-status", s.SyncSubscriptionStatus)
	mutating.POST("/sync-after-checkout", s.SyncAfterCheckout)
	mutating.POST("/sync-billing-info", s.SyncBillingInfo)
}

func (s *Server) rateLimited() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := obscontext.AccountIDFromGin(c)
		if caller == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !s.limiter.Allow(caller) {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
