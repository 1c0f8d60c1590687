package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/utils"
)

// ReviewService handles listing reviews
type ReviewService struct {
	db       *sql.DB
	listings *ListingService
}

// NewReviewService creates a new review service
func NewReviewService(db *sql.DB) *ReviewService {
	return &ReviewService{db: db, listings: NewListingService(db)}
}

// ListForListing returns the reviews on a listing the viewer may see, newest
// first, with reviewer names joined in
func (s *ReviewService) ListForListing(listingID string, viewer *models.Identity) ([]*models.Review, error) {
	if _, err := s.listings.GetByID(listingID, viewer); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT r.id, r.user_id, r.listing_id, r.title, r.comment, r.rating, r.created_at, u.name
		FROM reviews r
		INNER JOIN users u ON r.user_id = u.id
		WHERE r.listing_id = ?
		ORDER BY r.created_at DESC, r.id`, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.ListingID, &r.Title, &r.Comment, &r.Rating, &r.CreatedAt, &r.UserName); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}

// Add creates a review on a listing. A second review from the same user on
// the same listing is rejected as a conflict.
func (s *ReviewService) Add(listingID string, creation *models.ReviewCreation, viewer *models.Identity) (*models.Review, error) {
	if viewer == nil {
		return nil, ErrPermissionDenied
	}
	if _, err := s.listings.GetByID(listingID, viewer); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(creation); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	review := &models.Review{
		ID:        uuid.New().String(),
		UserID:    viewer.UserID,
		ListingID: listingID,
		Title:     creation.Title,
		Comment:   creation.Comment,
		Rating:    creation.Rating,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO reviews (id, user_id, listing_id, title, comment, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.UserID, review.ListingID, review.Title,
		review.Comment, review.Rating, review.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: you have already reviewed this listing", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}
