package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"apparel-order-service/internal/catalog"
	"apparel-order-service/internal/models"
	"apparel-order-service/internal/service"
	"apparel-order-service/internal/stock"
	"apparel-order-service/internal/util"
	"apparel-order-service/internal/vendor"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	orders        *service.OrderService
	orchestrator  *service.SubmissionOrchestrator
	history       *service.HistoryService
	catalog       *catalog.Catalog
	stockCache    *stock.Cache
	adminPassword string
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	orchestrator *service.SubmissionOrchestrator,
	history *service.HistoryService,
	cat *catalog.Catalog,
	stockCache *stock.Cache,
	adminPassword string,
) *Handler {
	return &Handler{
		orders:        orders,
		orchestrator:  orchestrator,
		history:       history,
		catalog:       cat,
		stockCache:    stockCache,
		adminPassword: adminPassword,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/inventory", h.getInventory)
		api.GET("/catalog", h.getCatalog)
		api.POST("/orders", h.submitOrder)
	}

	admin := router.Group("/api", h.adminAuth())
	{
		admin.GET("/orders", h.listOrders)
		admin.DELETE("/orders/:id", h.deleteOrder)
		admin.POST("/submit-order", h.submitBatch)
		admin.GET("/batches", h.listBatches)
		admin.GET("/batches/:id", h.getBatch)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// adminAuth gates the admin endpoints behind the shared password.
func (h *Handler) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-Admin-Password") != h.adminPassword {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid admin password",
			})
			return
		}
		c.Next()
	}
}

// getInventory returns the orderable colors for a catalog style, gated by
// the live stock snapshot. Stock uncertainty degrades to an empty color
// list rather than an error: the UI must fail closed, not block.
func (h *Handler) getInventory(c *gin.Context) {
	styleCode := c.Query("style")
	if styleCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing style parameter"})
		return
	}

	style, ok := h.catalog.StyleByCode(styleCode)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown style"})
		return
	}

	snap, err := h.stockCache.GetOrFetch(c.Request.Context(), styleCode)
	if err != nil {
		if errors.Is(err, vendor.ErrStyleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		// snap is nil here; Filter returns the empty orderable set.
	}

	c.JSON(http.StatusOK, catalog.Filter(*style, snap))
}

// getCatalog returns the static style definitions.
func (h *Handler) getCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"styles": h.catalog.Styles()})
}

// submitOrder records one employee's apparel selection.
func (h *Handler) submitOrder(c *gin.Context) {
	var req service.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.orders.SubmitOrder(c.Request.Context(), &req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		if errors.Is(err, service.ErrDuplicateSubmission) {
			c.JSON(http.StatusConflict, gin.H{"error": "Order already recorded for this submission"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to record order",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// listOrders returns orders by lifecycle status (default pending).
func (h *Handler) listOrders(c *gin.Context) {
	status := c.DefaultQuery("status", models.OrderStatusPending)

	orders, err := h.orders.ListOrders(c.Request.Context(), status)
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders", "details": err.Error()})
		return
	}
	if orders == nil {
		orders = []models.EmployeeOrder{}
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// deleteOrder removes a pending order
func (h *Handler) deleteOrder(c *gin.Context) {
	if err := h.orders.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// submitBatch runs one bulk submission attempt.
func (h *Handler) submitBatch(c *gin.Context) {
	var req service.SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sub, err := h.orchestrator.Submit(c.Request.Context(), &req)
	if err != nil {
		h.writeSubmissionError(c, sub, err)
		return
	}

	message := "Order submitted successfully"
	if sub.TestOrder {
		message = "Test order submitted successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   sub,
		"message": message,
	})
}

func (h *Handler) writeSubmissionError(c *gin.Context, sub *service.Submission, err error) {
	var vErr *models.ValidationError
	var rejected *models.VendorRejectedError
	var reconcile *models.PostSubmitReconciliationError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})

	case errors.Is(err, service.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.As(err, &rejected):
		// Forward the vendor's status; nothing was mutated, retry is safe.
		c.JSON(rejected.StatusCode, gin.H{
			"error":   "Vendor rejected the order",
			"details": rejected.Body,
		})

	case errors.As(err, &reconcile):
		// The vendor holds this order. Surface everything needed for manual
		// reconciliation; re-submitting the pending set would double-order.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":       "Vendor order placed but completion failed - do not resubmit",
			"ss_order_id": reconcile.SSOrderID,
			"batch_id":    reconcile.BatchID,
			"pending_ids": reconcile.PendingIDs,
			"details":     reconcile.Error(),
		})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to submit order",
			"details": err.Error(),
		})
	}
}

// listBatches returns the batch history, newest first.
func (h *Handler) listBatches(c *gin.Context) {
	batches, err := h.history.ListBatches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load batches", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches, "count": len(batches)})
}

// getBatch returns one batch's member orders.
func (h *Handler) getBatch(c *gin.Context) {
	detail, err := h.history.GetBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Batch not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load batch", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
