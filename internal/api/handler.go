package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront-orders/internal/notify"
	"storefront-orders/internal/service"
	"storefront-orders/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	carts     *service.CartService
	orders    *service.OrderService
	lifecycle *service.LifecycleManager
	products  service.ProductRepository
	hub       *notify.Hub
	auth      *Authenticator
	checks    map[string]Pinger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	carts *service.CartService,
	orders *service.OrderService,
	lifecycle *service.LifecycleManager,
	products service.ProductRepository,
	hub *notify.Hub,
	auth *Authenticator,
) *Handler {
	return &Handler{
		carts:     carts,
		orders:    orders,
		lifecycle: lifecycle,
		products:  products,
		hub:       hub,
		auth:      auth,
		checks:    make(map[string]Pinger),
	}
}

// AddReadinessCheck makes /ready depend on p
func (h *Handler) AddReadinessCheck(name string, p Pinger) {
	h.checks[name] = p
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine, allowedOrigins []string) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())
	router.Use(corsMiddleware(allowedOrigins))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.GET("/products/:id", h.getProduct)

	authed := v1.Group("", h.auth.RequireUser())
	{
		authed.GET("/cart", h.getCart)
		authed.POST("/cart/add", h.addToCart)
		authed.PUT("/cart/item/:itemId", h.updateCartItem)
		authed.DELETE("/cart/item/:itemId", h.removeCartItem)
		authed.DELETE("/cart/clear", h.clearCart)

		authed.POST("/orders", h.createOrder)
		authed.GET("/orders", h.getUserOrders)
		authed.GET("/orders/:id", h.getOrder)
		authed.PUT("/orders/:id/payment", h.confirmPayment)
		authed.PUT("/orders/:id/cancel", h.cancelOrder)
		authed.PUT("/orders/:id/status", h.auth.RequireAdmin(), h.updateOrderStatus)

		authed.GET("/stream/orders", h.streamOrders)
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	failed := gin.H{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// getProduct returns an active product
func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.products.GetProductByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && !product.IsActive) {
		respondError(c, &service.Error{Code: service.CodeNotFound, Message: "Product not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}
