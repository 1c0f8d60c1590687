package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/utils"
)

// ListingService handles listing search and lifecycle over the store
type ListingService struct {
	db *sql.DB
}

// NewListingService creates a new listing service
func NewListingService(db *sql.DB) *ListingService {
	return &ListingService{db: db}
}

const listingColumns = `
	l.id, l.vendor_id, l.title, l.slug, l.description,
	l.category_id, l.offer_id, l.state_id, l.lga_id, l.address,
	l.price, l.rent_period, l.bedrooms, l.bathrooms, l.area, l.building_age_years,
	l.attributes, l.latitude, l.longitude, l.active, l.created_at, l.updated_at,
	c.name, c.slug, o.name, o.slug, s.name, g.name`

const listingJoins = `
	FROM listings l
	INNER JOIN categories c ON l.category_id = c.id
	INNER JOIN offers o ON l.offer_id = o.id
	INNER JOIN states s ON l.state_id = s.id
	INNER JOIN lgas g ON l.lga_id = g.id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	var description, address, rentPeriod sql.NullString
	var price, area, latitude, longitude sql.NullFloat64
	var bedrooms, bathrooms, buildingAge sql.NullInt64
	var attributes string
	var category models.Category
	var offer models.Offer
	var state models.State
	var lga models.LGA

	err := row.Scan(
		&l.ID, &l.VendorID, &l.Title, &l.Slug, &description,
		&l.CategoryID, &l.OfferID, &l.StateID, &l.LGAID, &address,
		&price, &rentPeriod, &bedrooms, &bathrooms, &area, &buildingAge,
		&attributes, &latitude, &longitude, &l.Active, &l.CreatedAt, &l.UpdatedAt,
		&category.Name, &category.Slug, &offer.Name, &offer.Slug, &state.Name, &lga.Name,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		l.Description = &description.String
	}
	if address.Valid {
		l.Address = &address.String
	}
	if rentPeriod.Valid {
		l.RentPeriod = &rentPeriod.String
	}
	if price.Valid {
		l.Price = &price.Float64
	}
	if area.Valid {
		l.Area = &area.Float64
	}
	if latitude.Valid {
		l.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		l.Longitude = &longitude.Float64
	}
	if bedrooms.Valid {
		v := int(bedrooms.Int64)
		l.Bedrooms = &v
	}
	if bathrooms.Valid {
		v := int(bathrooms.Int64)
		l.Bathrooms = &v
	}
	if buildingAge.Valid {
		v := int(buildingAge.Int64)
		l.BuildingAgeYears = &v
	}
	if err := l.SetAttributesJSON(attributes); err != nil {
		return nil, fmt.Errorf("failed to parse listing attributes: %w", err)
	}

	category.ID = l.CategoryID
	offer.ID = l.OfferID
	state.ID = l.StateID
	lga.ID, lga.StateID = l.LGAID, l.StateID
	l.Category = &category
	l.Offer = &offer
	l.State = &state
	l.LGA = &lga

	return &l, nil
}

// Search runs the full discovery pipeline: attribute-filtered candidates from
// the store, then visibility -> promotion annotation -> promoted constraint ->
// geo -> ranking -> page. The page items are hydrated with features and
// images before returning.
func (s *ListingService) Search(q *ListingQuery, viewer *models.Identity) (*ListingPage, error) {
	query := "SELECT" + listingColumns + listingJoins
	where, args := buildListingWhere(q)
	if where != "" {
		query += " WHERE " + where
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var candidates []*models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		candidates = append(candidates, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}

	candidates = ApplyVisibility(candidates, viewer)

	promotions, err := s.loadPromotions(listingIDs(candidates))
	if err != nil {
		return nil, err
	}
	candidates = AnnotatePromotions(candidates, promotions, time.Now())
	candidates = FilterPromoted(candidates, q.Promoted)
	candidates = ApplyGeo(candidates, q.Geo)
	candidates = RankListings(candidates, q)

	page := Paginate(candidates, q.Page, q.PageSize)
	if err := s.hydrateRelations(page.Items); err != nil {
		return nil, err
	}
	return page, nil
}

// buildListingWhere translates the exact-match and range predicates of the
// query specification into a SQL where clause
func buildListingWhere(q *ListingQuery) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if q.MinPrice != nil {
		clauses = append(clauses, "l.price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		clauses = append(clauses, "l.price <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.CategoryID != nil {
		clauses = append(clauses, "l.category_id = ?")
		args = append(args, *q.CategoryID)
	}
	if q.OfferID != nil {
		clauses = append(clauses, "l.offer_id = ?")
		args = append(args, *q.OfferID)
	}
	if q.StateID != nil {
		clauses = append(clauses, "l.state_id = ?")
		args = append(args, *q.StateID)
	}
	if q.LGAID != nil {
		clauses = append(clauses, "l.lga_id = ?")
		args = append(args, *q.LGAID)
	}
	if q.Bedrooms != nil {
		clauses = append(clauses, "l.bedrooms = ?")
		args = append(args, *q.Bedrooms)
	}
	if q.Active != nil {
		clauses = append(clauses, "l.active = ?")
		args = append(args, *q.Active)
	}

	return strings.Join(clauses, " AND "), args
}

// GetByID retrieves one listing the viewer is allowed to see. An existing but
// invisible listing surfaces as not found.
func (s *ListingService) GetByID(id string, viewer *models.Identity) (*models.Listing, error) {
	l, err := s.getRaw(id)
	if err != nil {
		return nil, err
	}
	if !listingVisibleTo(l, viewer) {
		return nil, ErrNotFound
	}

	promotions, err := s.loadPromotions([]string{l.ID})
	if err != nil {
		return nil, err
	}
	AnnotatePromotions([]*models.Listing{l}, promotions, time.Now())

	if err := s.hydrateRelations([]*models.Listing{l}); err != nil {
		return nil, err
	}
	return l, nil
}

// getRaw fetches a listing without visibility rules applied
func (s *ListingService) getRaw(id string) (*models.Listing, error) {
	row := s.db.QueryRow("SELECT"+listingColumns+listingJoins+" WHERE l.id = ?", id)
	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	return l, nil
}

func listingVisibleTo(l *models.Listing, viewer *models.Identity) bool {
	if l.Active {
		return true
	}
	return viewer.HasVendor() && l.VendorID == viewer.VendorID
}

// Create persists a new listing for the caller's vendor. Callers without a
// vendor association are rejected before any persistence attempt.
func (s *ListingService) Create(creation *models.ListingCreation, viewer *models.Identity) (*models.Listing, error) {
	if !viewer.HasVendor() {
		return nil, ErrNotVendor
	}
	if err := utils.ValidateStruct(creation); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if (creation.Latitude == nil) != (creation.Longitude == nil) {
		return nil, ErrLocationPair
	}
	if creation.Price != nil && *creation.Price < 0 {
		return nil, fmt.Errorf("validation error: price must be non-negative")
	}

	slug := creation.Slug
	if slug == "" {
		var err error
		slug, err = utils.UniqueSlug(creation.Title, func(candidate string) (bool, error) {
			return s.slugTaken(viewer.VendorID, candidate)
		})
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	listing := &models.Listing{
		ID:               uuid.New().String(),
		VendorID:         viewer.VendorID,
		Title:            creation.Title,
		Slug:             slug,
		Description:      creation.Description,
		CategoryID:       creation.CategoryID,
		OfferID:          creation.OfferID,
		StateID:          creation.StateID,
		LGAID:            creation.LGAID,
		Address:          creation.Address,
		Price:            creation.Price,
		RentPeriod:       creation.RentPeriod,
		Bedrooms:         creation.Bedrooms,
		Bathrooms:        creation.Bathrooms,
		Area:             creation.Area,
		BuildingAgeYears: creation.BuildingAgeYears,
		Attributes:       creation.Attributes,
		Latitude:         creation.Latitude,
		Longitude:        creation.Longitude,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if creation.Active != nil {
		listing.Active = *creation.Active
	}

	attributesJSON, err := listing.AttributesJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize attributes: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO listings (
			id, vendor_id, title, slug, description, category_id, offer_id,
			state_id, lga_id, address, price, rent_period, bedrooms, bathrooms,
			area, building_age_years, attributes, latitude, longitude, active,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		listing.ID, listing.VendorID, listing.Title, listing.Slug, listing.Description,
		listing.CategoryID, listing.OfferID, listing.StateID, listing.LGAID, listing.Address,
		listing.Price, listing.RentPeriod, listing.Bedrooms, listing.Bathrooms,
		listing.Area, listing.BuildingAgeYears, attributesJSON, listing.Latitude,
		listing.Longitude, listing.Active, listing.CreatedAt, listing.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a listing with this slug already exists", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	if err := replaceFeatures(tx, listing.ID, creation.FeatureIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit listing: %w", err)
	}

	return s.GetByID(listing.ID, viewer)
}

// Update modifies a listing owned by the caller's vendor
func (s *ListingService) Update(id string, update *models.ListingCreation, viewer *models.Identity) (*models.Listing, error) {
	listing, err := s.requireOwned(id, viewer)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(update); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if (update.Latitude == nil) != (update.Longitude == nil) {
		return nil, ErrLocationPair
	}
	if update.Price != nil && *update.Price < 0 {
		return nil, fmt.Errorf("validation error: price must be non-negative")
	}

	attributes := update.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}
	attributesJSON, err := (&models.Listing{Attributes: attributes}).AttributesJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize attributes: %w", err)
	}

	active := listing.Active
	if update.Active != nil {
		active = *update.Active
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE listings SET
			title = ?, description = ?, category_id = ?, offer_id = ?, state_id = ?,
			lga_id = ?, address = ?, price = ?, rent_period = ?, bedrooms = ?,
			bathrooms = ?, area = ?, building_age_years = ?, attributes = ?,
			latitude = ?, longitude = ?, active = ?, updated_at = ?
		WHERE id = ?`,
		update.Title, update.Description, update.CategoryID, update.OfferID,
		update.StateID, update.LGAID, update.Address, update.Price, update.RentPeriod,
		update.Bedrooms, update.Bathrooms, update.Area, update.BuildingAgeYears,
		attributesJSON, update.Latitude, update.Longitude, active, time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	if update.FeatureIDs != nil {
		if err := replaceFeatures(tx, id, update.FeatureIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit listing update: %w", err)
	}

	return s.GetByID(id, viewer)
}

// Delete removes a listing owned by the caller's vendor; reviews, favorites,
// images and any promotion cascade with it
func (s *ListingService) Delete(id string, viewer *models.Identity) error {
	if _, err := s.requireOwned(id, viewer); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM listings WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

// requireOwned loads a listing and verifies the caller's vendor owns it
func (s *ListingService) requireOwned(id string, viewer *models.Identity) (*models.Listing, error) {
	listing, err := s.getRaw(id)
	if err != nil {
		return nil, err
	}
	if !viewer.HasVendor() || listing.VendorID != viewer.VendorID {
		return nil, ErrPermissionDenied
	}
	return listing, nil
}

func (s *ListingService) slugTaken(vendorID, slug string) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		"SELECT 1 FROM listings WHERE vendor_id = ? AND slug = ?", vendorID, slug,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func replaceFeatures(tx *sql.Tx, listingID string, featureIDs []string) error {
	if _, err := tx.Exec("DELETE FROM listing_features WHERE listing_id = ?", listingID); err != nil {
		return fmt.Errorf("failed to clear listing features: %w", err)
	}
	for _, featureID := range featureIDs {
		_, err := tx.Exec(
			"INSERT INTO listing_features (listing_id, feature_id) VALUES (?, ?)",
			listingID, featureID,
		)
		if err != nil {
			return fmt.Errorf("failed to attach feature: %w", err)
		}
	}
	return nil
}

func listingIDs(listings []*models.Listing) []string {
	ids := make([]string, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
	}
	return ids
}

// loadPromotions fetches the promotions for the given listings keyed by
// listing id
func (s *ListingService) loadPromotions(ids []string) (map[string]*models.Promotion, error) {
	promotions := make(map[string]*models.Promotion)
	if len(ids) == 0 {
		return promotions, nil
	}

	query := fmt.Sprintf(
		"SELECT id, listing_id, promoted_until, active, created_at FROM promotions WHERE listing_id IN (%s)",
		placeholders(len(ids)),
	)
	rows, err := s.db.Query(query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Promotion
		if err := rows.Scan(&p.ID, &p.ListingID, &p.PromotedUntil, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promotions[p.ListingID] = &p
	}
	return promotions, rows.Err()
}

// hydrateRelations populates features and images for the given listings
func (s *ListingService) hydrateRelations(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	byID := make(map[string]*models.Listing, len(listings))
	for _, l := range listings {
		byID[l.ID] = l
		l.Features = []*models.Feature{}
		l.Images = []*models.ListingImage{}
	}
	ids := listingIDs(listings)

	featureQuery := fmt.Sprintf(`
		SELECT lf.listing_id, f.id, f.name, f.icon
		FROM listing_features lf
		INNER JOIN features f ON lf.feature_id = f.id
		WHERE lf.listing_id IN (%s)
		ORDER BY f.name`, placeholders(len(ids)))
	rows, err := s.db.Query(featureQuery, stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query listing features: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var listingID string
		var f models.Feature
		var icon sql.NullString
		if err := rows.Scan(&listingID, &f.ID, &f.Name, &icon); err != nil {
			return fmt.Errorf("failed to scan feature: %w", err)
		}
		if icon.Valid {
			f.Icon = &icon.String
		}
		if l, ok := byID[listingID]; ok {
			l.Features = append(l.Features, &f)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	imageQuery := fmt.Sprintf(`
		SELECT id, listing_id, url, caption, is_primary, position, created_at
		FROM listing_images
		WHERE listing_id IN (%s)
		ORDER BY position, is_primary DESC, id`, placeholders(len(ids)))
	imgRows, err := s.db.Query(imageQuery, stringArgs(ids)...)
	if err != nil {
		return fmt.Errorf("failed to query listing images: %w", err)
	}
	defer imgRows.Close()
	for imgRows.Next() {
		var img models.ListingImage
		if err := imgRows.Scan(&img.ID, &img.ListingID, &img.URL, &img.Caption, &img.IsPrimary, &img.Position, &img.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan image: %w", err)
		}
		if l, ok := byID[img.ListingID]; ok {
			l.Images = append(l.Images, &img)
		}
	}
	return imgRows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
