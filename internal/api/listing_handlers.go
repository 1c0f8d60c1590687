package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/services"
)

// SearchListings handles listing discovery with filtering, geo, promotion
// ranking and pagination
func SearchListings(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	defaultSize, maxSize := pageSizes(c)
	query := services.ParseListingQuery(c.Request.URL.Query(), defaultSize, maxSize)

	listingService := services.NewListingService(db)
	page, err := listingService.Search(query, viewer(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    page,
	})
}

// GetListing returns a single listing by id
func GetListing(c *gin.Context) {
	listingID := c.Param("id")
	if listingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Listing ID is required",
		})
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	listingService := services.NewListingService(db)
	listing, err := listingService.GetByID(listingID, viewer(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    listing,
	})
}

// CreateListing creates a listing owned by the caller's vendor account
func CreateListing(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req models.ListingCreation
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

	listingService := services.NewListingService(db)
	listing, err := listingService.Create(&req, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Listing created successfully",
		"data":    listing,
	})
}

// UpdateListing replaces a listing's editable fields
func UpdateListing(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	listingID := c.Param("id")
	var req models.ListingCreation
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

	listingService := services.NewListingService(db)
	listing, err := listingService.Update(listingID, &req, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Listing updated successfully",
		"data":    listing,
	})
}

// DeleteListing removes a listing owned by the caller's vendor account
func DeleteListing(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	listingService := services.NewListingService(db)
	if err := listingService.Delete(c.Param("id"), identity); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Listing deleted successfully",
	})
}

// GetRecommendations returns listings similar to the given one by category
// and price band
func GetRecommendations(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	listingService := services.NewListingService(db)
	seed, err := listingService.GetByID(c.Param("id"), viewer(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	toleranceParam := c.Query("price_tolerance")
	if toleranceParam == "" {
		toleranceParam = c.Query("tolerance")
	}
	tolerance := services.ParsePriceTolerance(toleranceParam)
	limit := services.ParseRecommendationLimit(c.Query("limit"))

	recommendationService := services.NewRecommendationService(db)
	similar, err := recommendationService.SimilarTo(seed, tolerance, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    similar,
	})
}
