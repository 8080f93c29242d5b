package api

import (
	"net/http"
	"strconv"

	"license-api/internal/database"
	"license-api/internal/models"
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// adminActor identifies the processing admin for audit stamps.
func adminActor(c *gin.Context) string {
	if actor := c.GetHeader("X-Admin-User"); actor != "" {
		return actor
	}
	return "admin"
}

func requestID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request id")
		return 0, false
	}
	return uint(id), true
}

// AdminGrantLicenseRequest represents an admin-issued license grant
type AdminGrantLicenseRequest struct {
	Username             string `json:"username" binding:"required"`
	Platform             string `json:"platform" binding:"required"`
	TradingAccountNumber string `json:"trading_account_number"`
	PlanDays             int    `json:"plan_days" binding:"required"`
}

// AdminGrantLicense issues a license directly, bypassing payment
// POST /api/admin/licenses
func AdminGrantLicense(c *gin.Context) {
	var req AdminGrantLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}

	licenseService := services.NewLicenseService()
	license, err := licenseService.AdminGrant(req.Username, req.Platform, req.TradingAccountNumber, req.PlanDays)
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"license_code": license.Code,
		"status":       license.Status,
		"expires_at":   license.ExpiresAt,
	})
}

// AdminMarkLicensePaid records payment confirmation
// POST /api/admin/licenses/:code/mark-paid
func AdminMarkLicensePaid(c *gin.Context) {
	licenseService := services.NewLicenseService()
	if err := licenseService.MarkPaid(c.Param("code")); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"status": models.LicenseStatusPaid})
}

// AdminActivateLicense activates a paid license
// POST /api/admin/licenses/:code/activate
func AdminActivateLicense(c *gin.Context) {
	licenseService := services.NewLicenseService()
	license, err := licenseService.Activate(c.Param("code"))
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{
		"status":     license.Status,
		"expires_at": license.ExpiresAt,
	})
}

// AdminSuspendLicense suspends an activated license
// POST /api/admin/licenses/:code/suspend
func AdminSuspendLicense(c *gin.Context) {
	licenseService := services.NewLicenseService()
	if err := licenseService.Suspend(c.Param("code")); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"sub_status": models.LicenseSubStatusSuspended})
}

// AdminReactivateLicense lifts a suspension
// POST /api/admin/licenses/:code/reactivate
func AdminReactivateLicense(c *gin.Context) {
	licenseService := services.NewLicenseService()
	if err := licenseService.Reactivate(c.Param("code")); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"sub_status": models.LicenseSubStatusValid})
}

// AdminDeleteLicenseRequest carries the confirmation token: the caller must
// echo the license code back before the delete is committed.
type AdminDeleteLicenseRequest struct {
	ConfirmCode string `json:"confirm_code" binding:"required"`
}

// AdminDeleteLicense deletes a suspended or expired license
// DELETE /api/admin/licenses/:code
func AdminDeleteLicense(c *gin.Context) {
	var req AdminDeleteLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}

	licenseService := services.NewLicenseService()
	if err := licenseService.Delete(c.Param("code"), req.ConfirmCode); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"deleted": true})
}

// AdminListExtensionRequests lists extension requests, optionally by status
// GET /api/admin/extensions?status=pending
func AdminListExtensionRequests(c *gin.Context) {
	requestService := services.NewRequestService()
	requests, err := requestService.ListExtensions(c.Query("status"))
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, requests)
}

// AdminApproveExtension approves one extension request
// POST /api/admin/extensions/:id/approve
func AdminApproveExtension(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	requestService := services.NewRequestService()
	if err := requestService.ApproveExtension(id, adminActor(c)); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"status": models.RequestStatusApproved})
}

// RejectRequestBody carries the mandatory rejection reason
type RejectRequestBody struct {
	Reason string `json:"reason" binding:"required"`
}

// AdminRejectExtension rejects one extension request
// POST /api/admin/extensions/:id/reject
func AdminRejectExtension(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req RejectRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Rejection reason is required")
		return
	}
	requestService := services.NewRequestService()
	if err := requestService.RejectExtension(id, req.Reason, adminActor(c)); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"status": models.RequestStatusRejected})
}

// BulkIDsRequest carries the id list of a bulk approve
type BulkIDsRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// BulkRejectRequest carries the id list and shared reason of a bulk reject
type BulkRejectRequest struct {
	IDs    []uint `json:"ids" binding:"required,min=1"`
	Reason string `json:"reason" binding:"required"`
}

// AdminBulkApproveExtensions approves a set of extension requests
// POST /api/admin/extensions/approve
func AdminBulkApproveExtensions(c *gin.Context) {
	var req BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}
	requestService := services.NewRequestService()
	response.SuccessJSON(c, requestService.BulkApproveExtensions(req.IDs, adminActor(c)))
}

// AdminBulkRejectExtensions rejects a set of extension requests
// POST /api/admin/extensions/reject
func AdminBulkRejectExtensions(c *gin.Context) {
	var req BulkRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}
	requestService := services.NewRequestService()
	response.SuccessJSON(c, requestService.BulkRejectExtensions(req.IDs, req.Reason, adminActor(c)))
}

// AdminListTopUpRequests lists top-up requests, optionally by status
// GET /api/admin/topups?status=pending
func AdminListTopUpRequests(c *gin.Context) {
	requestService := services.NewRequestService()
	requests, err := requestService.ListTopUps(c.Query("status"))
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, requests)
}

// AdminApproveTopUp approves one top-up request
// POST /api/admin/topups/:id/approve
func AdminApproveTopUp(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	requestService := services.NewRequestService()
	if err := requestService.ApproveTopUp(id, adminActor(c)); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"status": models.RequestStatusApproved})
}

// AdminRejectTopUp rejects one top-up request
// POST /api/admin/topups/:id/reject
func AdminRejectTopUp(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req RejectRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Rejection reason is required")
		return
	}
	requestService := services.NewRequestService()
	if err := requestService.RejectTopUp(id, req.Reason, adminActor(c)); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"status": models.RequestStatusRejected})
}

// AdminBulkApproveTopUps approves a set of top-up requests
// POST /api/admin/topups/approve
func AdminBulkApproveTopUps(c *gin.Context) {
	var req BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}
	requestService := services.NewRequestService()
	response.SuccessJSON(c, requestService.BulkApproveTopUps(req.IDs, adminActor(c)))
}

// AdminBulkRejectTopUps rejects a set of top-up requests
// POST /api/admin/topups/reject
func AdminBulkRejectTopUps(c *gin.Context) {
	var req BulkRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}
	requestService := services.NewRequestService()
	response.SuccessJSON(c, requestService.BulkRejectTopUps(req.IDs, req.Reason, adminActor(c)))
}

// AdjustCreditsRequest carries a signed manual credit adjustment
type AdjustCreditsRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AdminAdjustCredits applies a manual credit adjustment to an account. A
// deduction that would drive the balance negative is rejected.
// POST /api/admin/accounts/:username/credits
func AdminAdjustCredits(c *gin.Context) {
	var req AdjustCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}

	username := c.Param("username")
	ledger := services.NewLedgerService()

	var balance int64
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = ledger.Adjust(tx, username, req.Delta, req.Reason, adminActor(c))
		return err
	})
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}

	services.NewBroadcastService().Publish(services.EventCreditsUpdated, username, map[string]interface{}{
		"balance": balance,
	})
	response.SuccessJSON(c, gin.H{"balance": balance})
}

// AdminListPlans lists the whole plan catalog
// GET /api/admin/plans
func AdminListPlans(c *gin.Context) {
	planService := services.NewPlanService()
	plans, err := planService.ListPlans(false)
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, plans)
}

// CreatePlanRequest represents a new catalog entry
type CreatePlanRequest struct {
	Days   int   `json:"days" binding:"required"`
	Price  int64 `json:"price" binding:"required"`
	Points int64 `json:"points" binding:"required"`
}

// AdminCreatePlan adds a catalog entry
// POST /api/admin/plans
func AdminCreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}

	plan := &models.PlanSetting{
		Days:     req.Days,
		Price:    req.Price,
		Points:   req.Points,
		IsActive: true,
	}
	planService := services.NewPlanService()
	if err := planService.CreatePlan(plan); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, plan)
}

// UpdatePlanRequest represents a catalog entry update
type UpdatePlanRequest struct {
	Price    *int64 `json:"price"`
	Points   *int64 `json:"points"`
	IsActive *bool  `json:"is_active"`
}

// AdminUpdatePlan updates a catalog entry
// PUT /api/admin/plans/:id
func AdminUpdatePlan(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}

	fields := make(map[string]interface{})
	if req.Price != nil {
		fields["price"] = *req.Price
	}
	if req.Points != nil {
		fields["points"] = *req.Points
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Nothing to update")
		return
	}

	planService := services.NewPlanService()
	if err := planService.UpdatePlan(id, fields); err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"updated": true})
}
