package api

import (
	"errors"
	"fmt"
	"net/http"

	"license-api/internal/database"
	"license-api/internal/errs"
	"license-api/internal/middleware"
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PurchaseLicenseRequest represents a license purchase request
type PurchaseLicenseRequest struct {
	Platform             string `json:"platform" binding:"required"`
	TradingAccountNumber string `json:"trading_account_number" binding:"required"`
	PlanDays             int    `json:"plan_days" binding:"required"`
}

// PurchaseLicense creates a new license for the caller
// POST /api/licenses
func PurchaseLicense(c *gin.Context) {
	var req PurchaseLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}

	licenseService := services.NewLicenseService()
	license, err := licenseService.Purchase(middleware.Username(c), req.Platform, req.TradingAccountNumber, req.PlanDays)
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"license_code": license.Code,
		"status":       license.Status,
	})
}

// ListLicenses returns the caller's licenses with derived effective statuses
// GET /api/licenses
func ListLicenses(c *gin.Context) {
	licenseService := services.NewLicenseService()
	licenses, err := licenseService.ListForUser(middleware.Username(c))
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, licenses)
}

// ChangeAccountNumberRequest represents an account number change request
type ChangeAccountNumberRequest struct {
	NewAccountNumber string `json:"new_account_number" binding:"required"`
}

// ChangeAccountNumber swaps the trading account number bound to a license
// POST /api/licenses/:code/account-number
func ChangeAccountNumber(c *gin.Context) {
	var req ChangeAccountNumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}

	licenseService := services.NewLicenseService()
	deducted, remaining, err := licenseService.ChangeAccountNumber(middleware.Username(c), c.Param("code"), req.NewAccountNumber)
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"credits_deducted":  deducted,
		"remaining_credits": remaining,
	})
}

// GetAccount returns the caller's profile, balance and recent credit history
// GET /api/account
func GetAccount(c *gin.Context) {
	username := middleware.Username(c)

	account, err := database.GetAccountByUsername(database.GetDB(), username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.BusinessErrorJSON(c, fmt.Errorf("%w: account %s", errs.ErrNotFound, username))
		} else {
			response.BusinessErrorJSON(c, err)
		}
		return
	}

	entries, err := database.GetCreditEntries(username, 50)
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"username":       account.Username,
		"email":          account.Email,
		"credit_balance": account.CreditBalance,
		"credit_history": entries,
	})
}

// ListActivePlans returns the purchasable plan catalog
// GET /api/plans
func ListActivePlans(c *gin.Context) {
	planService := services.NewPlanService()
	plans, err := planService.ListPlans(true)
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, plans)
}
