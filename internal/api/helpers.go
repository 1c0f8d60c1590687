package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rockflint-backend/internal/middleware"
	"rockflint-backend/internal/models"
	"rockflint-backend/internal/services"
	"rockflint-backend/internal/utils"
)

// getDB retrieves the database connection placed in the context by the router
func getDB(c *gin.Context) (*sql.DB, bool) {
	db, exists := c.Get("db")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Database connection not available",
		})
		return nil, false
	}
	return db.(*sql.DB), true
}

// getEvents retrieves the event service placed in the context by the router.
// It may be absent in tests; publishing is then skipped.
func getEvents(c *gin.Context) *services.EventService {
	value, exists := c.Get("events")
	if !exists {
		return nil
	}
	events, ok := value.(*services.EventService)
	if !ok {
		return nil
	}
	return events
}

// pageSizes returns the configured default and maximum page sizes, falling
// back to safe values when the router did not set them
func pageSizes(c *gin.Context) (int, int) {
	defaultSize := c.GetInt("defaultPageSize")
	if defaultSize <= 0 {
		defaultSize = 20
	}
	maxSize := c.GetInt("maxPageSize")
	if maxSize <= 0 {
		maxSize = 100
	}
	return defaultSize, maxSize
}

// viewer returns the resolved identity, nil for anonymous requests
func viewer(c *gin.Context) *models.Identity {
	return middleware.IdentityFromContext(c)
}

// requireViewer returns the identity or writes a 401
func requireViewer(c *gin.Context) (*models.Identity, bool) {
	identity := viewer(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "User not authenticated",
		})
		return nil, false
	}
	return identity, true
}

// writeServiceError maps service errors to HTTP responses
func writeServiceError(c *gin.Context, err error) {
	var validationErrs utils.ValidationErrors
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Resource not found",
		})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Permission denied",
		})
	case errors.Is(err, services.ErrNotVendor):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "Vendor account required",
		})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrLocationPair):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Validation failed",
			"details": validationErrs,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	}
}
