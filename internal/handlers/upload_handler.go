package handlers

import (
	"net/http"

	"github.com/01moynul/ecofinds-golang/internal/media"
	"github.com/gin-gonic/gin"
)

// UploadFile handles POST /api/upload
// It stores a single image and returns its public URL and metadata.
func (h *Handlers) UploadFile(c *gin.Context) {
	// 1. Get the file from the request
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	// 2. Store it
	images, err := h.Service.UploadImages(c.Request.Context(), media.FromHeaders(file))
	if err != nil {
		h.respondError(c, err)
		return
	}

	// 3. Return the public URL
	c.JSON(http.StatusCreated, images[0])
}
