package server

import (
	"net/http"

	subdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

// @Summary      List Invoices
// @Description  Invoice history for the authenticated account
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        accountId  query  string  true  "Account ID"
// @Success      200  {object}  map[string]any
// @Router       /billing/invoices [get]
func (s *Server) ListInvoices(c *gin.Context) {
	accountID, err := s.authorizeAccount(c, c.Query("accountId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invoices, err := s.subscriptionSvc.Invoices(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

// @Summary      Get Subscription
// @Description  Current ledger row for the authenticated account
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        accountId  query  string  true  "Account ID"
// @Success      200  {object}  map[string]any
// @Router       /billing/subscription [get]
func (s *Server) GetSubscription(c *gin.Context) {
	accountID, err := s.authorizeAccount(c, c.Query("accountId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	record, err := s.subscriptionSvc.Current(c.Request.Context(), accountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": record,
		// Expiry is derived, never stored; clients read the phase instead
		// of re-deriving it from the raw dates.
		"phase": subdomain.PhaseOf(record, s.clock.Now()),
	})
}
