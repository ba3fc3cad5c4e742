package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/01moynul/ecofinds-golang/internal/config"
	"github.com/01moynul/ecofinds-golang/internal/middleware"
	"github.com/01moynul/ecofinds-golang/internal/services"
	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Service *services.Service
	Config  *config.Config
}

// Health handles GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "EcoFinds API is running"})
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(middleware.UserIDKey)
}

// pathID reads a numeric path parameter. Malformed IDs are answered with
// 400 and reported as !ok.
func pathID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID format"})
		return 0, false
	}
	return id, true
}

// bodyID accepts an ID sent either as a JSON number or as a string.
// Anything unparsable becomes 0, which the services reject.
func bodyID(v any) int64 {
	switch id := v.(type) {
	case float64:
		if id == float64(int64(id)) {
			return int64(id)
		}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err == nil {
			return n
		}
	}
	return 0
}

// respondError translates a service error into an HTTP response.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrUpstream):
		status = http.StatusBadRequest
	}

	if status != http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
	body := gin.H{"error": "Internal server error"}
	if h.Config != nil && h.Config.IsDevelopment() {
		body["details"] = err.Error()
	}
	c.JSON(status, body)
}
