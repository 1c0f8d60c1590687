package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/utils"
)

// PromotionService manages listing promotions. Staff-only; what the billing
// flow drives.
type PromotionService struct {
	db *sql.DB
}

// NewPromotionService creates a new promotion service
func NewPromotionService(db *sql.DB) *PromotionService {
	return &PromotionService{db: db}
}

// Promote creates or refreshes the promotion for a listing. A listing carries
// at most one promotion, so an existing row is updated in place.
func (s *PromotionService) Promote(creation *models.PromotionCreation, viewer *models.Identity) (*models.Promotion, error) {
	if viewer == nil || !viewer.IsStaff {
		return nil, ErrPermissionDenied
	}
	if err := utils.ValidateStruct(creation); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	var exists int
	err := s.db.QueryRow("SELECT 1 FROM listings WHERE id = ?", creation.ListingID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check listing: %w", err)
	}

	promotion := &models.Promotion{
		ID:            uuid.New().String(),
		ListingID:     creation.ListingID,
		PromotedUntil: creation.PromotedUntil,
		Active:        true,
		CreatedAt:     time.Now(),
	}

	_, err = s.db.Exec(`
		INSERT INTO promotions (id, listing_id, promoted_until, active, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(listing_id) DO UPDATE SET
			promoted_until = excluded.promoted_until,
			active = TRUE`,
		promotion.ID, promotion.ListingID, promotion.PromotedUntil,
		promotion.Active, promotion.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to promote listing: %w", err)
	}
	return s.GetForListing(creation.ListingID)
}

// Deactivate switches a listing's promotion off without deleting its record
func (s *PromotionService) Deactivate(listingID string, viewer *models.Identity) error {
	if viewer == nil || !viewer.IsStaff {
		return ErrPermissionDenied
	}

	result, err := s.db.Exec("UPDATE promotions SET active = FALSE WHERE listing_id = ?", listingID)
	if err != nil {
		return fmt.Errorf("failed to deactivate promotion: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetForListing returns the promotion attached to a listing, if any
func (s *PromotionService) GetForListing(listingID string) (*models.Promotion, error) {
	var p models.Promotion
	err := s.db.QueryRow(`
		SELECT id, listing_id, promoted_until, active, created_at
		FROM promotions WHERE listing_id = ?`, listingID,
	).Scan(&p.ID, &p.ListingID, &p.PromotedUntil, &p.Active, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch promotion: %w", err)
	}
	return &p, nil
}
