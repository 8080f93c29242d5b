package response

import (
	"errors"
	"net/http"

	"license-api/internal/errs"
	"license-api/pkg/logging"
	"license-api/pkg/thaitime"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success returns a success response
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Message: "success",
		Data:    data,
	}
}

// Error returns an error response
func Error(code, message string) Response {
	return Response{
		Success: false,
		Error:   code,
		Message: message,
	}
}

// SuccessJSON sends a success JSON response
func SuccessJSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Success(data))
}

// ErrorJSON sends an error JSON response
func ErrorJSON(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Error(code, message))
}

// BusinessErrorJSON maps a service error onto the wire: every business rule
// violation keeps its taxonomy code and a 4xx status; anything else is a
// storage or transport failure and becomes a 500 with the detail logged, not
// leaked.
func BusinessErrorJSON(c *gin.Context, err error) {
	var ice *errs.InsufficientCreditsError
	if errors.As(err, &ice) {
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Error:   "InsufficientCredits",
			Message: ice.Error(),
			Data: gin.H{
				"required":  ice.Required,
				"available": ice.Available,
			},
		})
		return
	}

	switch {
	case errors.Is(err, errs.ErrAuthenticationRequired):
		ErrorJSON(c, http.StatusUnauthorized, "AuthenticationRequired", err.Error())
	case errors.Is(err, errs.ErrNotFound):
		ErrorJSON(c, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, errs.ErrInvalidState):
		ErrorJSON(c, http.StatusConflict, "InvalidState", err.Error())
	case errors.Is(err, errs.ErrDuplicatePendingRequest):
		ErrorJSON(c, http.StatusConflict, "DuplicatePendingRequest", err.Error())
	case errors.Is(err, errs.ErrValidation), thaitime.IsParseError(err):
		ErrorJSON(c, http.StatusBadRequest, "ValidationError", err.Error())
	default:
		logging.Errorf("Internal error: %v", err)
		ErrorJSON(c, http.StatusInternalServerError, "InternalError", "internal error")
	}
}
