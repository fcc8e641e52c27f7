package server

import (
	"net/http"
	"strings"

	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

type upgradeSubscriptionRequest struct {
	AccountID  string `json:"accountId"`
	NewPriceID string `json:"newPriceId"`
}

// @Summary      Upgrade Subscription
// @Description  Apply an immediate plan change for an account
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        request body upgradeSubscriptionRequest true "Upgrade Request"
// @Success      200  {object}  map[string]any
// @Failure      402  {object}  map[string]any
// @Router       /upgrade-subscription [post]
func (s *Server) UpgradeSubscription(c *gin.Context) {
	var req upgradeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	accountID, err := s.authorizeAccount(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if strings.TrimSpace(req.NewPriceID) == "" {
		AbortWithError(c, newValidationError("newPriceId", "required", "newPriceId is required"))
		return
	}

	result, err := s.subscriptionSvc.Upgrade(c.Request.Context(), subdomain.UpgradeRequest{
		AccountID: accountID,
		PriceID:   strings.TrimSpace(req.NewPriceID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"subscription": gin.H{
			"id":       result.SubscriptionID,
			"planName": result.PlanName,
			"seats":    result.Seats,
			"status":   result.Status,
			"isNew":    result.IsNew,
		},
	})
}

type cancelSubscriptionRequest struct {
	AccountID         string `json:"accountId"`
	SubscriptionID    string `json:"subscriptionId"`
	CancelAtPeriodEnd bool   `json:"cancelAtPeriodEnd"`
	Reason            string `json:"reason"`
	Feedback          string `json:"feedback"`
}

// @Summary      Cancel Subscription
// @Description  Schedule a cancellation for the end of the billing period
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        request body cancelSubscriptionRequest true "Cancel Request"
// @Success      200  {object}  map[string]any
// @Router       /cancel-subscription [post]
func (s *Server) CancelSubscription(c *gin.Context) {
	var req cancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	accountID, err := s.authorizeAccount(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !req.CancelAtPeriodEnd {
		// Immediate cancellation is not offered; the period is always
		// served out.
		AbortWithError(c, newValidationError("cancelAtPeriodEnd", "invalid", "only end-of-period cancellation is supported"))
		return
	}

	if err := s.subscriptionSvc.Cancel(c.Request.Context(), subdomain.CancelRequest{
		AccountID:      accountID,
		SubscriptionID: strings.TrimSpace(req.SubscriptionID),
		Reason:         strings.TrimSpace(req.Reason),
		Feedback:       strings.TrimSpace(req.Feedback),
	}); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type reactivateSubscriptionRequest struct {
	AccountID      string `json:"accountId"`
	SubscriptionID string `json:"subscriptionId"`
}

// @Summary      Reactivate Subscription
// @Description  Clear a pending cancellation before it takes effect
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        request body reactivateSubscriptionRequest true "Reactivate Request"
// @Success      200  {object}  map[string]any
// @Router       /reactivate-subscription [post]
func (s *Server) ReactivateSubscription(c *gin.Context) {
	var req reactivateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	accountID, err := s.authorizeAccount(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.subscriptionSvc.Reactivate(c.Request.Context(), subdomain.ReactivateRequest{
		AccountID:      accountID,
		SubscriptionID: strings.TrimSpace(req.SubscriptionID),
	}); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type cancelScheduledChangeRequest struct {
	AccountID  string `json:"accountId"`
	ScheduleID string `json:"scheduleId"`
}

// @Summary      Cancel Scheduled Change
// @Description  Release a pending future plan change
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        request body cancelScheduledChangeRequest true "Cancel Scheduled Change Request"
// @Success      200  {object}  map[string]any
// @Router       /cancel-scheduled-change [post]
func (s *Server) CancelScheduledChange(c *gin.Context) {
	var req cancelScheduledChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	accountID, err := s.authorizeAccount(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.subscriptionSvc.CancelScheduledChange(c.Request.Context(), accountID, strings.TrimSpace(req.ScheduleID)); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type accountRequest struct {
	AccountID string `json:"accountId"`
}

// @Summary      Sync Subscription Status
// @Description  Rebuild the ledger row from the provider's current state
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        request body accountRequest true "Sync Request"
// @Success      200  {object}  map[string]any
// @Router       /sync-subscription-status [post]
func (s *Server) SyncSubscriptionStatus(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	accountID, err := s.authorizeAccount(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.subscriptionSvc.SyncStatus(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"planName": result.PlanName,
		"status":   result.Status,
	})
}

// @Summary      Sync After Checkout
// @Description  Adopt the provider subscription created by a checkout flow
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        request body accountRequest true "Sync Request"
// @Success      200  {object}  map[string]any
// @Router       /sync-after-checkout [post]
func (s *Server) SyncAfterCheckout(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	accountID, err := s.authorizeAccount(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.subscriptionSvc.SyncAfterCheckout(c.Request.Context(), accountID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary      Sync Billing Info
// @Description  Push billing contact fields to the provider
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        request body accountRequest true "Sync Request"
// @Success      200  {object}  map[string]any
// @Router       /sync-billing-info [post]
func (s *Server) SyncBillingInfo(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	accountID, err := s.authorizeAccount(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.subscriptionSvc.SyncBillingInfo(c.Request.Context(), accountID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
