package services

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"rockflint-backend/internal/models"
)

// Recommendation tuning bounds
const (
	DefaultPriceTolerance = 0.20
	MaxPriceTolerance     = 1.00
	DefaultRecomLimit     = 6
	MinRecomLimit         = 1
	MaxRecomLimit         = 20
)

// RecommendationService derives similar-listing shortlists from a seed
// listing by category and price band
type RecommendationService struct {
	db       *sql.DB
	listings *ListingService
}

// NewRecommendationService creates a new recommendation service
func NewRecommendationService(db *sql.DB) *RecommendationService {
	return &RecommendationService{db: db, listings: NewListingService(db)}
}

// ParsePriceTolerance parses a tolerance fraction, never failing: empty or
// unparsable input and negative values fall back to the default, values above
// one clamp to one.
func ParsePriceTolerance(value string) float64 {
	if value == "" {
		return DefaultPriceTolerance
	}
	tolerance, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(tolerance) {
		return DefaultPriceTolerance
	}
	if tolerance < 0 {
		return DefaultPriceTolerance
	}
	if tolerance > MaxPriceTolerance {
		return MaxPriceTolerance
	}
	return tolerance
}

// ParseRecommendationLimit parses a result limit, clamped to [1, 20] with a
// default of 6
func ParseRecommendationLimit(value string) int {
	limit := DefaultRecomLimit
	if value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			limit = n
		}
	}
	if limit < MinRecomLimit {
		limit = MinRecomLimit
	}
	if limit > MaxRecomLimit {
		limit = MaxRecomLimit
	}
	return limit
}

// SimilarTo returns up to limit active listings in the seed's category whose
// price falls inside [price*(1-tolerance), price*(1+tolerance)], ranked by
// absolute price difference ascending with ties broken by creation time
// descending. A seed without a price has no recommendations.
func (s *RecommendationService) SimilarTo(seed *models.Listing, tolerance float64, limit int) ([]*models.Listing, error) {
	if seed.Price == nil {
		return []*models.Listing{}, nil
	}

	if tolerance < 0 {
		tolerance = DefaultPriceTolerance
	}
	if tolerance > MaxPriceTolerance {
		tolerance = MaxPriceTolerance
	}
	if limit < MinRecomLimit {
		limit = MinRecomLimit
	}
	if limit > MaxRecomLimit {
		limit = MaxRecomLimit
	}

	price := *seed.Price
	lower := price * (1 - tolerance)
	upper := price * (1 + tolerance)
	if lower < 0 {
		lower = 0
	}

	query := "SELECT" + listingColumns + listingJoins + `
		WHERE l.active = TRUE
		  AND l.id != ?
		  AND l.category_id = ?
		  AND l.price IS NOT NULL
		  AND l.price >= ? AND l.price <= ?`

	rows, err := s.db.Query(query, seed.ID, seed.CategoryID, lower, upper)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar listings: %w", err)
	}
	defer rows.Close()

	var candidates []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan similar listing: %w", err)
		}
		candidates = append(candidates, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read similar listings: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		deltaA := math.Abs(*a.Price - price)
		deltaB := math.Abs(*b.Price - price)
		if deltaA != deltaB {
			return deltaA < deltaB
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	promotions, err := s.listings.loadPromotions(listingIDs(candidates))
	if err != nil {
		return nil, err
	}
	AnnotatePromotions(candidates, promotions, time.Now())

	if err := s.listings.hydrateRelations(candidates); err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []*models.Listing{}
	}
	return candidates, nil
}
