package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/01moynul/ecofinds-golang/internal/media"
	"github.com/01moynul/ecofinds-golang/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PurchaseInput defines the JSON for a direct purchase.
type PurchaseInput struct {
	ProductID any `json:"productId"`
}

// ListProducts handles GET /api/products?category=&search=&page=&limit=
func (h *Handlers) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.Service.ListProducts(c.Request.Context(), services.ProductQuery{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetProduct handles GET /api/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.Service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/products (multipart form).
func (h *Handlers) CreateProduct(c *gin.Context) {
	// 1. --- Read the form fields ---
	price, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("price")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
		return
	}
	input := services.ProductInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Price:       price,
		Condition:   c.PostForm("condition"),
		Location:    c.PostForm("location"),
	}

	// 2. --- Create with any attached images ---
	product, err := h.Service.CreateProduct(c.Request.Context(), currentUserID(c), input, formImages(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:id (multipart form, every field optional).
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	patch := services.ProductPatch{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Condition:   c.PostForm("condition"),
		Location:    c.PostForm("location"),
	}
	if raw := strings.TrimSpace(c.PostForm("price")); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
			return
		}
		patch.Price = &price
	}

	product, err := h.Service.UpdateProduct(c.Request.Context(), currentUserID(c), id, patch, formImages(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	if err := h.Service.DeleteProduct(c.Request.Context(), currentUserID(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// GetMyProducts handles GET /api/products/user/my-products
func (h *Handlers) GetMyProducts(c *gin.Context) {
	products, err := h.Service.ListSellerProducts(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetMyPurchases handles GET /api/products/user/purchases
func (h *Handlers) GetMyPurchases(c *gin.Context) {
	products, err := h.Service.ListPurchases(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// PurchaseProduct handles POST /api/products/purchase
func (h *Handlers) PurchaseProduct(c *gin.Context) {
	var input PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	product, err := h.Service.PurchaseProduct(c.Request.Context(), currentUserID(c), bodyID(input.ProductID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product purchased successfully", "product": product})
}

// formImages collects the "image" and "images" file fields of a multipart request.
func formImages(c *gin.Context) []media.File {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	headers := append([]*multipart.FileHeader{}, form.File["image"]...)
	headers = append(headers, form.File["images"]...)
	return media.FromHeaders(headers...)
}
