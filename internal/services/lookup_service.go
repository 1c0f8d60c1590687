package services

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/utils"
)

// LookupService manages the reference entities listings classify against:
// categories, offer types, the state/LGA hierarchy and features
type LookupService struct {
	db *sql.DB
}

// NewLookupService creates a new lookup service
func NewLookupService(db *sql.DB) *LookupService {
	return &LookupService{db: db}
}

// Categories returns all categories ordered by name
func (s *LookupService) Categories() ([]*models.Category, error) {
	rows, err := s.db.Query("SELECT id, name, slug FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// CreateCategory adds a category with an auto-derived unique slug
func (s *LookupService) CreateCategory(name string, viewer *models.Identity) (*models.Category, error) {
	if viewer == nil || !viewer.IsStaff {
		return nil, ErrPermissionDenied
	}
	name = utils.SanitizeString(name)
	if name == "" {
		return nil, fmt.Errorf("validation error: name is required")
	}

	slug, err := utils.UniqueSlug(name, func(candidate string) (bool, error) {
		return s.slugTaken("categories", candidate)
	})
	if err != nil {
		return nil, err
	}

	category := &models.Category{ID: uuid.New().String(), Name: name, Slug: slug}
	_, err = s.db.Exec("INSERT INTO categories (id, name, slug) VALUES (?, ?, ?)",
		category.ID, category.Name, category.Slug)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category already exists", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// Offers returns all offer types ordered by name
func (s *LookupService) Offers() ([]*models.Offer, error) {
	rows, err := s.db.Query("SELECT id, name, slug FROM offers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []*models.Offer{}
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.ID, &o.Name, &o.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, &o)
	}
	return offers, rows.Err()
}

// CreateOffer adds an offer type with an auto-derived unique slug
func (s *LookupService) CreateOffer(name string, viewer *models.Identity) (*models.Offer, error) {
	if viewer == nil || !viewer.IsStaff {
		return nil, ErrPermissionDenied
	}
	name = utils.SanitizeString(name)
	if name == "" {
		return nil, fmt.Errorf("validation error: name is required")
	}

	slug, err := utils.UniqueSlug(name, func(candidate string) (bool, error) {
		return s.slugTaken("offers", candidate)
	})
	if err != nil {
		return nil, err
	}

	offer := &models.Offer{ID: uuid.New().String(), Name: name, Slug: slug}
	_, err = s.db.Exec("INSERT INTO offers (id, name, slug) VALUES (?, ?, ?)",
		offer.ID, offer.Name, offer.Slug)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: offer already exists", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return offer, nil
}

// States returns all states with their LGAs nested, ordered by name
func (s *LookupService) States() ([]*models.State, error) {
	rows, err := s.db.Query("SELECT id, name FROM states ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()

	states := []*models.State{}
	byID := map[string]*models.State{}
	for rows.Next() {
		var st models.State
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		st.LGAs = []*models.LGA{}
		states = append(states, &st)
		byID[st.ID] = &st
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lgaRows, err := s.db.Query("SELECT id, state_id, name FROM lgas ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query lgas: %w", err)
	}
	defer lgaRows.Close()
	for lgaRows.Next() {
		var lga models.LGA
		if err := lgaRows.Scan(&lga.ID, &lga.StateID, &lga.Name); err != nil {
			return nil, fmt.Errorf("failed to scan lga: %w", err)
		}
		if st, ok := byID[lga.StateID]; ok {
			st.LGAs = append(st.LGAs, &lga)
		}
	}
	return states, lgaRows.Err()
}

// CreateState adds a state
func (s *LookupService) CreateState(name string, viewer *models.Identity) (*models.State, error) {
	if viewer == nil || !viewer.IsStaff {
		return nil, ErrPermissionDenied
	}
	name = utils.SanitizeString(name)
	if name == "" {
		return nil, fmt.Errorf("validation error: name is required")
	}

	state := &models.State{ID: uuid.New().String(), Name: name, LGAs: []*models.LGA{}}
	if _, err := s.db.Exec("INSERT INTO states (id, name) VALUES (?, ?)", state.ID, state.Name); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: state already exists", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create state: %w", err)
	}
	return state, nil
}

// CreateLGA adds a local government area under a state
func (s *LookupService) CreateLGA(stateID, name string, viewer *models.Identity) (*models.LGA, error) {
	if viewer == nil || !viewer.IsStaff {
		return nil, ErrPermissionDenied
	}
	name = utils.SanitizeString(name)
	if name == "" {
		return nil, fmt.Errorf("validation error: name is required")
	}

	var exists int
	err := s.db.QueryRow("SELECT 1 FROM states WHERE id = ?", stateID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check state: %w", err)
	}

	lga := &models.LGA{ID: uuid.New().String(), StateID: stateID, Name: name}
	if _, err := s.db.Exec("INSERT INTO lgas (id, state_id, name) VALUES (?, ?, ?)", lga.ID, lga.StateID, lga.Name); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: lga already exists in this state", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create lga: %w", err)
	}
	return lga, nil
}

// Features returns all features ordered by name
func (s *LookupService) Features() ([]*models.Feature, error) {
	rows, err := s.db.Query("SELECT id, name, icon FROM features ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	features := []*models.Feature{}
	for rows.Next() {
		var f models.Feature
		var icon sql.NullString
		if err := rows.Scan(&f.ID, &f.Name, &icon); err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		if icon.Valid {
			f.Icon = &icon.String
		}
		features = append(features, &f)
	}
	return features, rows.Err()
}

// CreateFeature adds a reusable amenity
func (s *LookupService) CreateFeature(name string, icon *string, viewer *models.Identity) (*models.Feature, error) {
	if viewer == nil || !viewer.IsStaff {
		return nil, ErrPermissionDenied
	}
	name = utils.SanitizeString(name)
	if name == "" {
		return nil, fmt.Errorf("validation error: name is required")
	}

	feature := &models.Feature{ID: uuid.New().String(), Name: name, Icon: icon}
	if _, err := s.db.Exec("INSERT INTO features (id, name, icon) VALUES (?, ?, ?)", feature.ID, feature.Name, feature.Icon); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: feature already exists", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create feature: %w", err)
	}
	return feature, nil
}

func (s *LookupService) slugTaken(table, slug string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT 1 FROM "+table+" WHERE slug = ?", slug).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
