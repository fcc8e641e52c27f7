package server

import (
	"net/http"

	accountdomain "github.com/christianseyboth/bolt-hackathon-sub000/internal/account/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type updateBillingInfoRequest struct {
	AccountID    string  `json:"accountId"`
	BillingEmail *string `json:"billingEmail"`
	BillingType  *string `json:"billingType"`
	CompanyName  *string `json:"companyName"`
	AddressLine1 *string `json:"addressLine1"`
	City         *string `json:"city"`
	PostalCode   *string `json:"postalCode"`
	Country      *string `json:"country"`
	TaxID        *string `json:"taxId"`
	VATID        *string `json:"vatId"`
}

// @Summary      Update Billing Info
// @Description  Edit the billing contact profile and push it to the provider
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     SessionAuth
// @Param        request body updateBillingInfoRequest true "Billing Info"
// @Success      200  {object}  map[string]any
// @Router       /billing/info [put]
func (s *Server) UpdateBillingInfo(c *gin.Context) {
	var req updateBillingInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	accountID, err := s.authorizeAccount(c, req.AccountID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	update := accountdomain.UpdateBillingInfoRequest{
		AccountID:    accountID,
		BillingEmail: req.BillingEmail,
		CompanyName:  req.CompanyName,
		AddressLine1: req.AddressLine1,
		City:         req.City,
		PostalCode:   req.PostalCode,
		Country:      req.Country,
		TaxID:        req.TaxID,
		VATID:        req.VATID,
	}
	if req.BillingType != nil {
		billingType := accountdomain.BillingType(*req.BillingType)
		update.BillingType = &billingType
	}

	account, err := s.accountSvc.UpdateBillingInfo(c.Request.Context(), update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// The provider push is retriable via sync-billing-info; a failure here
	// must not lose the stored edit.
	if err := s.subscriptionSvc.SyncBillingInfo(c.Request.Context(), accountID); err != nil {
		s.log.Warn("billing info provider push failed",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"account": account,
	})
}
