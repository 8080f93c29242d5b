package api

import (
	"license-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all routes
func SetupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// Customer routes (require a resolved session token)
		user := api.Group("")
		user.Use(middleware.UserAuthMiddleware())
		{
			user.GET("/account", GetAccount)
			user.GET("/plans", ListActivePlans)
			user.GET("/licenses", ListLicenses)
			user.POST("/licenses", PurchaseLicense)
			user.POST("/licenses/:code/extend", ExtendLicense)
			user.POST("/licenses/:code/account-number", ChangeAccountNumber)
			user.POST("/topups", SubmitTopUp)
		}

		// Admin routes (require the admin API key)
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware())
		{
			admin.POST("/licenses", AdminGrantLicense)
			admin.POST("/licenses/:code/extend", AdminExtendLicense)
			admin.POST("/licenses/:code/mark-paid", AdminMarkLicensePaid)
			admin.POST("/licenses/:code/activate", AdminActivateLicense)
			admin.POST("/licenses/:code/suspend", AdminSuspendLicense)
			admin.POST("/licenses/:code/reactivate", AdminReactivateLicense)
			admin.DELETE("/licenses/:code", AdminDeleteLicense)

			admin.GET("/extensions", AdminListExtensionRequests)
			admin.POST("/extensions/approve", AdminBulkApproveExtensions)
			admin.POST("/extensions/reject", AdminBulkRejectExtensions)
			admin.POST("/extensions/:id/approve", AdminApproveExtension)
			admin.POST("/extensions/:id/reject", AdminRejectExtension)

			admin.GET("/topups", AdminListTopUpRequests)
			admin.POST("/topups/approve", AdminBulkApproveTopUps)
			admin.POST("/topups/reject", AdminBulkRejectTopUps)
			admin.POST("/topups/:id/approve", AdminApproveTopUp)
			admin.POST("/topups/:id/reject", AdminRejectTopUp)

			admin.POST("/accounts/:username/credits", AdminAdjustCredits)

			admin.GET("/plans", AdminListPlans)
			admin.POST("/plans", AdminCreatePlan)
			admin.PUT("/plans/:id", AdminUpdatePlan)
		}
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "license-service",
		})
	})
}
