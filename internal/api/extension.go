package api

import (
	"fmt"
	"net/http"

	"license-api/internal/middleware"
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
)

// ExtendLicenseRequest represents an extension request. Days and PlanDays
// are mutually exclusive: Days is an admin-style custom count, PlanDays
// selects a catalog entry. Exactly one must be set.
type ExtendLicenseRequest struct {
	Days        int    `json:"days"`
	PlanDays    int    `json:"plan_days"`
	FundingMode string `json:"funding_mode" binding:"required,oneof=credits admin-request"`
}

// ExtendLicense extends a license via credits or enqueues an admin request
// POST /api/licenses/:code/extend
func ExtendLicense(c *gin.Context) {
	var req ExtendLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}
	if (req.Days == 0) == (req.PlanDays == 0) {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Exactly one of days or plan_days must be set")
		return
	}
	days := req.Days
	if days == 0 {
		days = req.PlanDays
	}

	username := middleware.Username(c)
	code := c.Param("code")

	guard := services.NewGuardService()
	subject := fmt.Sprintf("%s:%s", username, code)
	if !guard.Acquire("extend", subject) {
		response.ErrorJSON(c, http.StatusConflict, "DuplicatePendingRequest", "An identical extension is already being processed")
		return
	}
	defer guard.Release("extend", subject)

	extensionService := services.NewExtensionService()
	result, err := extensionService.Extend(username, code, days, req.FundingMode)
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}

	if result.Completed {
		response.SuccessJSON(c, gin.H{
			"status":            "completed",
			"new_expiry":        result.NewExpiry,
			"credits_used":      result.CreditsUsed,
			"remaining_credits": result.RemainingCredits,
		})
		return
	}
	response.SuccessJSON(c, gin.H{
		"status":     "pending",
		"request_id": result.RequestID,
	})
}

// AdminExtendRequest represents an admin direct extension
type AdminExtendRequest struct {
	Days int `json:"days" binding:"required,min=1,max=9999"`
}

// AdminExtendLicense commits an extension instantly, free of charge, with no
// ownership check
// POST /api/admin/licenses/:code/extend
func AdminExtendLicense(c *gin.Context) {
	var req AdminExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}

	extensionService := services.NewExtensionService()
	result, err := extensionService.AdminExtend(c.Param("code"), req.Days, adminActor(c))
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"status":     "completed",
		"new_expiry": result.NewExpiry,
	})
}
