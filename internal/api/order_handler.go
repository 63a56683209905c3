package api

import (
	"net/http"

	"storefront-orders/internal/models"
	"storefront-orders/internal/service"
	"storefront-orders/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// createOrder checks out the caller's cart
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), c.GetString(ctxUserID), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *Handler) getUserOrders(c *gin.Context) {
	orders, err := h.orders.GetUserOrders(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.GetOrderByID(c.Request.Context(), c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) confirmPayment(c *gin.Context) {
	order, err := h.orders.ConfirmPayment(c.Request.Context(), c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) cancelOrder(c *gin.Context) {
	order, err := h.lifecycle.CancelOrder(c.Request.Context(), c.Param("id"), c.GetString(ctxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.lifecycle.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// streamOrders upgrades to a websocket carrying the caller's order updates
func (h *Handler) streamOrders(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	if err := h.hub.Serve(c.Writer, c.Request, userID); err != nil {
		util.GetLogger().Debug("Websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
	}
}
