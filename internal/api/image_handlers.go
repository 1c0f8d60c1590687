package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/services"
)

// AddListingImage attaches an image to a listing
func AddListingImage(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	var req models.ListingImageCreation
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

	imageService := services.NewImageService(db)
	image, err := imageService.Add(c.Param("id"), &req, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Image added successfully",
		"data":    image,
	})
}

// SetPrimaryImage marks an image as the listing's primary one, demoting any
// previous primary
func SetPrimaryImage(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	imageService := services.NewImageService(db)
	image, err := imageService.SetPrimary(c.Param("imageId"), identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Primary image updated",
		"data":    image,
	})
}

// DeleteListingImage removes an image from a listing
func DeleteListingImage(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	imageService := services.NewImageService(db)
	if err := imageService.Delete(c.Param("imageId"), identity); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image deleted successfully",
	})
}
