package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/utils"
)

// ImageService manages listing images. All writes are guarded by listing
// ownership, and the single-primary invariant is enforced inside a
// transaction so concurrent image writes on the same listing cannot leave two
// primaries behind.
type ImageService struct {
	db       *sql.DB
	listings *ListingService
}

// NewImageService creates a new image service
func NewImageService(db *sql.DB) *ImageService {
	return &ImageService{db: db, listings: NewListingService(db)}
}

// Add attaches an image to a listing owned by the caller's vendor. When the
// new image is flagged primary, any previous primary is unset in the same
// transaction.
func (s *ImageService) Add(listingID string, creation *models.ListingImageCreation, viewer *models.Identity) (*models.ListingImage, error) {
	if _, err := s.listings.requireOwned(listingID, viewer); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(creation); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	image := &models.ListingImage{
		ID:        uuid.New().String(),
		ListingID: listingID,
		URL:       creation.URL,
		Caption:   creation.Caption,
		IsPrimary: creation.IsPrimary,
		Position:  creation.Position,
		CreatedAt: time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if image.IsPrimary {
		if err := unsetPrimary(tx, listingID); err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO listing_images (id, listing_id, url, caption, is_primary, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		image.ID, image.ListingID, image.URL, image.Caption, image.IsPrimary,
		image.Position, image.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: listing already has a primary image", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit image: %w", err)
	}
	return image, nil
}

// SetPrimary marks an image as the listing's primary, atomically unsetting
// the previous primary
func (s *ImageService) SetPrimary(imageID string, viewer *models.Identity) (*models.ListingImage, error) {
	image, err := s.get(imageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.listings.requireOwned(image.ListingID, viewer); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := unsetPrimary(tx, image.ListingID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec("UPDATE listing_images SET is_primary = TRUE WHERE id = ?", imageID); err != nil {
		return nil, fmt.Errorf("failed to set primary image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit primary image change: %w", err)
	}

	image.IsPrimary = true
	return image, nil
}

// Delete removes an image from a listing owned by the caller's vendor
func (s *ImageService) Delete(imageID string, viewer *models.Identity) error {
	image, err := s.get(imageID)
	if err != nil {
		return err
	}
	if _, err := s.listings.requireOwned(image.ListingID, viewer); err != nil {
		return err
	}

	if _, err := s.db.Exec("DELETE FROM listing_images WHERE id = ?", imageID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func (s *ImageService) get(imageID string) (*models.ListingImage, error) {
	var image models.ListingImage
	err := s.db.QueryRow(`
		SELECT id, listing_id, url, caption, is_primary, position, created_at
		FROM listing_images WHERE id = ?`, imageID,
	).Scan(&image.ID, &image.ListingID, &image.URL, &image.Caption,
		&image.IsPrimary, &image.Position, &image.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	return &image, nil
}

func unsetPrimary(tx *sql.Tx, listingID string) error {
	_, err := tx.Exec(
		"UPDATE listing_images SET is_primary = FALSE WHERE listing_id = ? AND is_primary = TRUE",
		listingID,
	)
	if err != nil {
		return fmt.Errorf("failed to unset previous primary image: %w", err)
	}
	return nil
}
