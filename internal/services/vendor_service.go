package services

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/utils"
)

// VendorService manages vendor records and the agent dashboard aggregates
type VendorService struct {
	db        *sql.DB
	favorites *FavoriteService
}

// NewVendorService creates a new vendor service
func NewVendorService(db *sql.DB) *VendorService {
	return &VendorService{db: db, favorites: NewFavoriteService(db)}
}

// VendorCreation represents vendor creation input
type VendorCreation struct {
	UserID      string  `json:"userId" validate:"required"`
	CompanyName string  `json:"companyName" validate:"required,min=2"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// Create registers a user as a vendor. Staff only.
func (s *VendorService) Create(creation *VendorCreation, viewer *models.Identity) (*models.Vendor, error) {
	if viewer == nil || !viewer.IsStaff {
		return nil, ErrPermissionDenied
	}
	if err := utils.ValidateStruct(creation); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	vendor := &models.Vendor{
		ID:          uuid.New().String(),
		UserID:      creation.UserID,
		CompanyName: creation.CompanyName,
		PhoneNumber: creation.PhoneNumber,
		Website:     creation.Website,
		Verified:    false,
		CreatedAt:   time.Now(),
	}

	_, err := s.db.Exec(`
		INSERT INTO vendors (id, user_id, company_name, phone_number, website, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		vendor.ID, vendor.UserID, vendor.CompanyName, vendor.PhoneNumber,
		vendor.Website, vendor.Verified, vendor.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user is already a vendor", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create vendor: %w", err)
	}
	return vendor, nil
}

// GetByID returns a vendor with user details joined. Only the vendor's own
// user or staff may access it.
func (s *VendorService) GetByID(vendorID string, viewer *models.Identity) (*models.Vendor, error) {
	vendor, err := s.get(vendorID)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(vendor, viewer) {
		return nil, ErrPermissionDenied
	}
	return vendor, nil
}

// GetByUserID returns the vendor associated with a user, or ErrNotFound
func (s *VendorService) GetByUserID(userID string) (*models.Vendor, error) {
	return s.scanOne(s.db.QueryRow(vendorSelect+" WHERE v.user_id = ?", userID))
}

// Verify marks a vendor as verified. Staff only.
func (s *VendorService) Verify(vendorID string, viewer *models.Identity) (*models.Vendor, error) {
	if viewer == nil || !viewer.IsStaff {
		return nil, ErrPermissionDenied
	}
	result, err := s.db.Exec("UPDATE vendors SET verified = TRUE WHERE id = ?", vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify vendor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.get(vendorID)
}

// Dashboard aggregates a vendor's listing and engagement stats. Only the
// vendor's own user or staff may access it.
func (s *VendorService) Dashboard(vendorID string, viewer *models.Identity) (*models.VendorDashboard, error) {
	vendor, err := s.get(vendorID)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(vendor, viewer) {
		return nil, ErrPermissionDenied
	}

	dashboard := &models.VendorDashboard{Vendor: vendor}

	err = s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN active THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN active THEN 0 ELSE 1 END), 0)
		FROM listings WHERE vendor_id = ?`, vendorID,
	).Scan(&dashboard.TotalListings, &dashboard.ActiveListings, &dashboard.InactiveListings)
	if err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	var avgRating sql.NullFloat64
	err = s.db.QueryRow(`
		SELECT COUNT(*), AVG(r.rating)
		FROM reviews r
		INNER JOIN listings l ON r.listing_id = l.id
		WHERE l.vendor_id = ?`, vendorID,
	).Scan(&dashboard.TotalReviews, &avgRating)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reviews: %w", err)
	}
	if avgRating.Valid {
		dashboard.AverageRating = utils.RoundToDecimalPlaces(avgRating.Float64, 2)
	}

	dashboard.TotalFavorites, err = s.favorites.CountForVendor(vendorID)
	if err != nil {
		return nil, err
	}

	dashboard.RecentListings, err = s.recentListings(vendorID, 5)
	if err != nil {
		return nil, err
	}
	dashboard.RecentReviews, err = s.recentReviews(vendorID, 5)
	if err != nil {
		return nil, err
	}
	dashboard.Activities, err = s.Activities(vendorID, 10, viewer)
	if err != nil {
		return nil, err
	}

	return dashboard, nil
}

// Activities merges a vendor's recent listing creations and received reviews
// into one feed, newest first
func (s *VendorService) Activities(vendorID string, limit int, viewer *models.Identity) ([]*models.VendorActivity, error) {
	vendor, err := s.get(vendorID)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(vendor, viewer) {
		return nil, ErrPermissionDenied
	}
	if limit < 1 {
		limit = 20
	}

	actor := vendor.UserName
	if actor == "" {
		actor = vendor.CompanyName
	}

	listings, err := s.recentListings(vendorID, limit)
	if err != nil {
		return nil, err
	}
	reviews, err := s.recentReviews(vendorID, limit)
	if err != nil {
		return nil, err
	}

	activities := []*models.VendorActivity{}
	for _, l := range listings {
		activities = append(activities, &models.VendorActivity{
			ActivityType: models.ActivityListingCreated,
			CreatedAt:    l.CreatedAt,
			Summary:      fmt.Sprintf("Listing created: %s", l.Title),
			ListingID:    l.ID,
			ListingTitle: l.Title,
			Actor:        actor,
		})
	}
	for _, r := range reviews {
		activities = append(activities, &models.VendorActivity{
			ActivityType: models.ActivityReviewAdded,
			CreatedAt:    r.CreatedAt,
			Summary:      fmt.Sprintf("Review by %s on %s", r.UserName, r.ListingTitle),
			ListingID:    r.ListingID,
			ListingTitle: r.ListingTitle,
			Actor:        r.UserName,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].CreatedAt.After(activities[j].CreatedAt)
	})
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

func (s *VendorService) recentListings(vendorID string, limit int) ([]*models.Listing, error) {
	rows, err := s.db.Query(
		"SELECT"+listingColumns+listingJoins+" WHERE l.vendor_id = ? ORDER BY l.created_at DESC, l.id LIMIT ?",
		vendorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent listings: %w", err)
	}
	defer rows.Close()

	listings := []*models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *VendorService) recentReviews(vendorID string, limit int) ([]*models.Review, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.user_id, r.listing_id, r.title, r.comment, r.rating, r.created_at, u.name, l.title
		FROM reviews r
		INNER JOIN listings l ON r.listing_id = l.id
		INNER JOIN users u ON r.user_id = u.id
		WHERE l.vendor_id = ?
		ORDER BY r.created_at DESC, r.id LIMIT ?`, vendorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		var r models.Review
		if err := rows.Scan(&r.ID, &r.UserID, &r.ListingID, &r.Title, &r.Comment, &r.Rating, &r.CreatedAt, &r.UserName, &r.ListingTitle); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}

const vendorSelect = `
	SELECT v.id, v.user_id, v.company_name, v.phone_number, v.website, v.verified, v.created_at,
	       u.email, u.name
	FROM vendors v
	INNER JOIN users u ON v.user_id = u.id`

func (s *VendorService) get(vendorID string) (*models.Vendor, error) {
	return s.scanOne(s.db.QueryRow(vendorSelect+" WHERE v.id = ?", vendorID))
}

func (s *VendorService) scanOne(row *sql.Row) (*models.Vendor, error) {
	var v models.Vendor
	var phone, website sql.NullString
	err := row.Scan(&v.ID, &v.UserID, &v.CompanyName, &phone, &website, &v.Verified, &v.CreatedAt, &v.UserEmail, &v.UserName)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vendor: %w", err)
	}
	if phone.Valid {
		v.PhoneNumber = &phone.String
	}
	if website.Valid {
		v.Website = &website.String
	}
	return &v, nil
}

func (s *VendorService) canAccess(vendor *models.Vendor, viewer *models.Identity) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsStaff || viewer.UserID == vendor.UserID
}
