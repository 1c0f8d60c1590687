package models

import "time"

// Review represents a customer review on a listing, one per (user, listing)
type Review struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	ListingID string    `json:"listingId" db:"listing_id"`
	Title     string    `json:"title" db:"title"`
	Comment   string    `json:"comment" db:"comment"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Joined data (populated when needed)
	UserName     string `json:"userName,omitempty"`
	ListingTitle string `json:"listingTitle,omitempty"`
}

// ReviewCreation represents review creation input
type ReviewCreation struct {
	Title   string `json:"title,omitempty"`
	Comment string `json:"comment" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

// Favorite represents a saved listing for a user, one per (user, listing)
type Favorite struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	ListingID string    `json:"listingId" db:"listing_id"`
	SavedAt   time.Time `json:"savedAt" db:"saved_at"`

	// Joined data (populated when needed)
	Listing *Listing `json:"listing,omitempty"`
}

// Promotion represents a time-boxed rank boost for a listing
type Promotion struct {
	ID            string    `json:"id" db:"id"`
	ListingID     string    `json:"listingId" db:"listing_id"`
	PromotedUntil time.Time `json:"promotedUntil" db:"promoted_until"`
	Active        bool      `json:"active" db:"active"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// Current reports whether the promotion is in effect at the given time
func (p *Promotion) Current(now time.Time) bool {
	return p != nil && p.Active && p.PromotedUntil.After(now)
}

// PromotionCreation represents promotion creation input
type PromotionCreation struct {
	ListingID     string    `json:"listingId" validate:"required"`
	PromotedUntil time.Time `json:"promotedUntil" validate:"required"`
}
