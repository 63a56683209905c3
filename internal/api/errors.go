package api

import (
	"net/http"

	"storefront-orders/internal/service"
	"storefront-orders/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statusByCode = map[service.ErrorCode]int{
	service.CodeEmptyCart:          http.StatusBadRequest,
	service.CodeInsufficientStock:  http.StatusConflict,
	service.CodeNotFound:           http.StatusNotFound,
	service.CodeAccessDenied:       http.StatusForbidden,
	service.CodeInvalidTransition:  http.StatusConflict,
	service.CodeValidation:         http.StatusBadRequest,
	service.CodeCheckoutInProgress: http.StatusConflict,
}

// respondError writes err as {"error","code","details"}. Errors outside
// the domain taxonomy become a bare 500.
func respondError(c *gin.Context, err error) {
	de, ok := service.AsError(err)
	if !ok {
		util.GetLogger().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  "INTERNAL",
		})
		return
	}

	status, ok := statusByCode[de.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	body := gin.H{
		"error": de.Message,
		"code":  de.Code,
	}
	if details := errorDetails(de); len(details) > 0 {
		body["details"] = details
	}
	c.JSON(status, body)
}

func errorDetails(de *service.Error) gin.H {
	details := gin.H{}
	if de.Field != "" {
		details["field"] = de.Field
	}
	if de.Code == service.CodeInsufficientStock {
		details["product_id"] = de.ProductID
		details["product_name"] = de.ProductName
		details["requested"] = de.Requested
		details["available"] = de.Available
	}
	return details
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"code":    service.CodeValidation,
		"details": gin.H{"reason": err.Error()},
	})
}
