package api

import (
	"net/http"

	"license-api/internal/middleware"
	"license-api/internal/response"
	"license-api/internal/services"

	"github.com/gin-gonic/gin"
)

// TopUpRequestBody represents a top-up submission
type TopUpRequestBody struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}

// SubmitTopUp enqueues a credit purchase for admin approval
// POST /api/topups
func SubmitTopUp(c *gin.Context) {
	var req TopUpRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "ValidationError", "Invalid request format: "+err.Error())
		return
	}

	username := middleware.Username(c)

	guard := services.NewGuardService()
	if !guard.Acquire("topup", username) {
		response.ErrorJSON(c, http.StatusConflict, "DuplicatePendingRequest", "A top-up is already being processed")
		return
	}
	defer guard.Release("topup", username)

	requestService := services.NewRequestService()
	request, err := requestService.SubmitTopUp(username, req.Amount)
	if err != nil {
		response.BusinessErrorJSON(c, err)
		return
	}

	response.SuccessJSON(c, gin.H{
		"request_id": request.ID,
		"status":     request.Status,
	})
}
