package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/01moynul/ecofinds-golang/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers ---
//

// AddToCartInput defines the JSON for adding an item to the cart.
type AddToCartInput struct {
	ProductID any  `json:"productId"`
	Quantity  *int `json:"quantity"` // defaults to 1
}

// UpdateCartItemInput defines the JSON for changing a line's quantity.
type UpdateCartItemInput struct {
	Quantity int `json:"quantity"`
}

// CheckoutInput defines the JSON for placing an order.
type CheckoutInput struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
}

// GetCart handles GET /api/cart
func (h *Handlers) GetCart(c *gin.Context) {
	cart, err := h.Service.GetOrCreateCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddToCart handles POST /api/cart/add
func (h *Handlers) AddToCart(c *gin.Context) {
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}

	cart, err := h.Service.AddItem(c.Request.Context(), currentUserID(c), bodyID(input.ProductID), quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// UpdateCartItem handles PUT /api/cart/item/:itemId
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	itemID, ok := pathID(c, "itemId", "item")
	if !ok {
		return
	}
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	cart, err := h.Service.UpdateItemQuantity(c.Request.Context(), currentUserID(c), itemID, input.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveCartItem handles DELETE /api/cart/item/:itemId
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	itemID, ok := pathID(c, "itemId", "item")
	if !ok {
		return
	}

	cart, err := h.Service.RemoveItem(c.Request.Context(), currentUserID(c), itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart handles DELETE /api/cart/clear
func (h *Handlers) ClearCart(c *gin.Context) {
	cart, err := h.Service.ClearCart(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// Checkout handles POST /api/cart/checkout
func (h *Handlers) Checkout(c *gin.Context) {
	var input CheckoutInput
	// The shipping address is optional, so an empty body is fine.
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	res, err := h.Service.Checkout(c.Request.Context(), currentUserID(c), input.ShippingAddress)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":           "Order placed successfully",
		"order":             res.Order,
		"orderNumber":       res.OrderNumber,
		"trackingNumber":    res.TrackingNumber,
		"estimatedDelivery": res.EstimatedDelivery,
	})
}
