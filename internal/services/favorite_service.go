package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rockflint-backend/internal/models"
)

// FavoriteService handles saved listings
type FavoriteService struct {
	db       *sql.DB
	listings *ListingService
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(db *sql.DB) *FavoriteService {
	return &FavoriteService{db: db, listings: NewListingService(db)}
}

// Toggle saves the listing for the user, or removes it if already saved.
// Returns whether the listing is favorited after the call. The operation is
// its own inverse: two calls return to the original state.
func (s *FavoriteService) Toggle(listingID string, viewer *models.Identity) (bool, error) {
	if viewer == nil {
		return false, ErrPermissionDenied
	}
	if _, err := s.listings.GetByID(listingID, viewer); err != nil {
		return false, err
	}

	result, err := s.db.Exec(
		"DELETE FROM favorites WHERE user_id = ? AND listing_id = ?",
		viewer.UserID, listingID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if removed > 0 {
		return false, nil
	}

	_, err = s.db.Exec(
		"INSERT INTO favorites (id, user_id, listing_id, saved_at) VALUES (?, ?, ?, ?)",
		uuid.New().String(), viewer.UserID, listingID, time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// a concurrent toggle already saved it; report the saved state
			return true, nil
		}
		return false, fmt.Errorf("failed to save favorite: %w", err)
	}
	return true, nil
}

// Wishlist returns the user's saved listings joined to still-active listings,
// newest saved first. Staff may pass another user's id to inspect their
// wishlist.
func (s *FavoriteService) Wishlist(userID string) ([]*models.Favorite, error) {
	rows, err := s.db.Query(`
		SELECT f.id, f.user_id, f.listing_id, f.saved_at
		FROM favorites f
		INNER JOIN listings l ON f.listing_id = l.id
		WHERE f.user_id = ? AND l.active = TRUE
		ORDER BY f.saved_at DESC, f.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	favorites := []*models.Favorite{}
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ListingID, &f.SavedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Attach the listing records themselves
	for _, f := range favorites {
		listing, err := s.listings.getRaw(f.ListingID)
		if err == nil {
			f.Listing = listing
		} else if err != ErrNotFound {
			return nil, err
		}
	}
	if err := s.hydrateFavoriteListings(favorites); err != nil {
		return nil, err
	}
	return favorites, nil
}

func (s *FavoriteService) hydrateFavoriteListings(favorites []*models.Favorite) error {
	var listings []*models.Listing
	for _, f := range favorites {
		if f.Listing != nil {
			listings = append(listings, f.Listing)
		}
	}
	if len(listings) == 0 {
		return nil
	}
	promotions, err := s.listings.loadPromotions(listingIDs(listings))
	if err != nil {
		return err
	}
	AnnotatePromotions(listings, promotions, time.Now())
	return s.listings.hydrateRelations(listings)
}

// CountForVendor returns how many times the vendor's listings have been saved
func (s *FavoriteService) CountForVendor(vendorID string) (int, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*)
		FROM favorites f
		INNER JOIN listings l ON f.listing_id = l.id
		WHERE l.vendor_id = ?`, vendorID).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}
