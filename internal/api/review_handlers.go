package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/services"
)

// GetListingReviews returns reviews for a listing, newest first
func GetListingReviews(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	reviewService := services.NewReviewService(db)
	reviews, err := reviewService.ListForListing(c.Param("id"), viewer(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reviews,
	})
}

// CreateListingReview adds the caller's review of a listing
func CreateListingReview(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req models.ReviewCreation
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

	listingID := c.Param("id")
	reviewService := services.NewReviewService(db)
	review, err := reviewService.Add(listingID, &req, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if events := getEvents(c); events != nil {
		listingService := services.NewListingService(db)
		if listing, err := listingService.GetByID(listingID, identity); err == nil {
			events.Publish(listing.VendorID, services.VendorEvent{
				Type:         services.EventReviewAdded,
				ListingID:    listing.ID,
				ListingTitle: listing.Title,
				Data:         gin.H{"rating": review.Rating},
			})
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Review added successfully",
		"data":    review,
	})
}
