package handlers

import (
	"net/http"
	"time"

	"github.com/01moynul/ecofinds-golang/internal/services"
	"github.com/gin-gonic/gin"
)

// UpdateOrderInput defines the JSON for a partial order update.
type UpdateOrderInput struct {
	Status            string     `json:"status"`
	TrackingNumber    string     `json:"trackingNumber"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	Notes             string     `json:"notes"`
}

// GetMyOrders handles GET /api/cart/orders
func (h *Handlers) GetMyOrders(c *gin.Context) {
	orders, err := h.Service.ListOrders(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /api/cart/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.Service.GetOrder(c.Request.Context(), currentUserID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrder handles PUT /api/cart/orders/:id
func (h *Handlers) UpdateOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id", "order")
	if !ok {
		return
	}
	var input UpdateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	order, err := h.Service.UpdateOrder(c.Request.Context(), currentUserID(c), orderID, services.OrderUpdate{
		Status:            input.Status,
		TrackingNumber:    input.TrackingNumber,
		EstimatedDelivery: input.EstimatedDelivery,
		Notes:             input.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
