package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/services"
)

// PromoteListing creates or extends a listing promotion, staff only
func PromoteListing(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req models.PromotionCreation
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

	promotion, err := services.NewPromotionService(db).Promote(&req, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	publishPromotionEvent(c, req.ListingID, true)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Listing promoted successfully",
		"data":    promotion,
	})
}

// DeactivatePromotion turns off a listing's promotion, staff only
func DeactivatePromotion(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	listingID := c.Param("id")
	if err := services.NewPromotionService(db).Deactivate(listingID, identity); err != nil {
		writeServiceError(c, err)
		return
	}

	publishPromotionEvent(c, listingID, false)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Promotion deactivated",
	})
}

func publishPromotionEvent(c *gin.Context, listingID string, active bool) {
	events := getEvents(c)
	if events == nil {
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	listingService := services.NewListingService(db)
	listing, err := listingService.GetByID(listingID, viewer(c))
	if err != nil {
		return
	}

	events.Publish(listing.VendorID, services.VendorEvent{
		Type:         services.EventPromotionChanged,
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		Data:         gin.H{"active": active},
	})
}
