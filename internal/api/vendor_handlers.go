package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rockflint-backend/internal/services"
)

// CreateVendor registers a user as a vendor, staff only
func CreateVendor(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req services.VendorCreation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request data: " + err.Error(),
		})
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	vendor, err := services.NewVendorService(db).Create(&req, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Vendor created successfully",
		"data":    vendor,
	})
}

// GetVendor returns a vendor's details to its own user or staff
func GetVendor(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	vendor, err := services.NewVendorService(db).GetByID(c.Param("id"), identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    vendor,
	})
}

// VerifyVendor marks a vendor as verified, staff only
func VerifyVendor(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	vendor, err := services.NewVendorService(db).Verify(c.Param("id"), identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Vendor verified successfully",
		"data":    vendor,
	})
}

// GetVendorDashboard returns the vendor's aggregated listing and engagement
// stats
func GetVendorDashboard(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	dashboard, err := services.NewVendorService(db).Dashboard(c.Param("id"), identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    dashboard,
	})
}

// GetVendorActivities returns the vendor's recent activity stream
func GetVendorActivities(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	activities, err := services.NewVendorService(db).Activities(c.Param("id"), limit, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    activities,
	})
}

// VendorEventSocket upgrades the connection and streams live engagement
// events to the authenticated vendor
func VendorEventSocket(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	events := getEvents(c)
	if events == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Event feed not available",
		})
		return
	}

	events.HandleVendorSocket(c, identity)
}
