package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rockflint-backend/internal/services"
)

// ToggleFavorite saves or removes a listing from the caller's wishlist and
// reports the resulting state
func ToggleFavorite(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	listingID := c.Param("id")
	favoriteService := services.NewFavoriteService(db)
	favorited, err := favoriteService.Toggle(listingID, identity)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	if events := getEvents(c); events != nil {
		listingService := services.NewListingService(db)
		if listing, err := listingService.GetByID(listingID, identity); err == nil {
			events.Publish(listing.VendorID, services.VendorEvent{
				Type:         services.EventFavoriteToggled,
				ListingID:    listing.ID,
				ListingTitle: listing.Title,
				Data:         gin.H{"favorited": favorited},
			})
		}
	}

	message := "Listing removed from wishlist"
	if favorited {
		message = "Listing saved to wishlist"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data": gin.H{
			"favorited": favorited,
		},
	})
}

// GetWishlist returns the caller's saved listings. Staff may pass a user_id
// query parameter to inspect another account's wishlist.
func GetWishlist(c *gin.Context) {
	identity, ok := requireViewer(c)
	if !ok {
		return
	}

	userID := identity.UserID
	if requested := c.Query("user_id"); requested != "" && requested != identity.UserID {
		if !identity.IsStaff {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Permission denied",
			})
			return
		}
		userID = requested
	}

	db, ok := getDB(c)
	if !ok {
		return
	}

	favoriteService := services.NewFavoriteService(db)
	favorites, err := favoriteService.Wishlist(userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    favorites,
	})
}
