package models

import (
	"encoding/json"
	"time"
)

// Listing represents a vendor-owned property advertisement
type Listing struct {
	ID          string  `json:"id" db:"id"`
	VendorID    string  `json:"vendorId" db:"vendor_id"`
	Title       string  `json:"title" db:"title"`
	Slug        string  `json:"slug" db:"slug"`
	Description *string `json:"description,omitempty" db:"description"`
	CategoryID  string  `json:"categoryId" db:"category_id"`
	OfferID     string  `json:"offerId" db:"offer_id"`
	StateID     string  `json:"stateId" db:"state_id"`
	LGAID       string  `json:"lgaId" db:"lga_id"`
	Address     *string `json:"address,omitempty" db:"address"`

	// price & rent; a nil price means the listing has no price anchor
	Price      *float64 `json:"price,omitempty" db:"price"`
	RentPeriod *string  `json:"rentPeriod,omitempty" db:"rent_period"` // monthly, yearly etc

	// property specs
	Bedrooms         *int     `json:"bedrooms,omitempty" db:"bedrooms"`
	Bathrooms        *int     `json:"bathrooms,omitempty" db:"bathrooms"`
	Area             *float64 `json:"area,omitempty" db:"area"`
	BuildingAgeYears *int     `json:"buildingAgeYears,omitempty" db:"building_age_years"`

	// flexible attributes, e.g. {"lot_size": "200m2", "furnishing": "furnished"}
	Attributes map[string]string `json:"attributes" db:"attributes"`

	// geolocation; both nil means no location filter applicable
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`

	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Joined data (populated when needed)
	Category *Category       `json:"category,omitempty"`
	Offer    *Offer          `json:"offer,omitempty"`
	State    *State          `json:"state,omitempty"`
	LGA      *LGA            `json:"lga,omitempty"`
	Features []*Feature      `json:"features,omitempty"`
	Images   []*ListingImage `json:"images,omitempty"`

	// Computed by the query pipeline
	IsPromoted bool     `json:"isPromoted"`
	Distance   *float64 `json:"distance,omitempty"` // km from the requested center
}

// HasLocation reports whether the listing carries a geographic point
func (l *Listing) HasLocation() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// PrimaryImage returns the URL of the primary image, falling back to the
// first image by position, or nil when the listing has no images
func (l *Listing) PrimaryImage() *string {
	for _, img := range l.Images {
		if img.IsPrimary {
			return &img.URL
		}
	}
	if len(l.Images) > 0 {
		return &l.Images[0].URL
	}
	return nil
}

// AttributesJSON serializes the flexible attribute map for storage
func (l *Listing) AttributesJSON() (string, error) {
	if l.Attributes == nil {
		return "{}", nil
	}
	data, err := json.Marshal(l.Attributes)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetAttributesJSON parses the stored attribute map
func (l *Listing) SetAttributesJSON(data string) error {
	if data == "" {
		l.Attributes = map[string]string{}
		return nil
	}
	return json.Unmarshal([]byte(data), &l.Attributes)
}

// MarshalJSON adds the computed primaryImage field to listing responses
func (l *Listing) MarshalJSON() ([]byte, error) {
	type alias Listing
	return json.Marshal(struct {
		*alias
		PrimaryImage *string `json:"primaryImage"`
	}{
		alias:        (*alias)(l),
		PrimaryImage: l.PrimaryImage(),
	})
}

// ListingImage represents an image attached to a listing
type ListingImage struct {
	ID        string    `json:"id" db:"id"`
	ListingID string    `json:"listingId" db:"listing_id"`
	URL       string    `json:"url" db:"url"`
	Caption   string    `json:"caption" db:"caption"`
	IsPrimary bool      `json:"isPrimary" db:"is_primary"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ListingCreation represents listing creation input
type ListingCreation struct {
	Title            string            `json:"title" validate:"required,min=3"`
	Description      *string           `json:"description,omitempty"`
	CategoryID       string            `json:"categoryId" validate:"required"`
	OfferID          string            `json:"offerId" validate:"required"`
	StateID          string            `json:"stateId" validate:"required"`
	LGAID            string            `json:"lgaId" validate:"required"`
	Address          *string           `json:"address,omitempty"`
	Price            *float64          `json:"price,omitempty"`
	RentPeriod       *string           `json:"rentPeriod,omitempty"`
	Bedrooms         *int              `json:"bedrooms,omitempty"`
	Bathrooms        *int              `json:"bathrooms,omitempty"`
	Area             *float64          `json:"area,omitempty"`
	BuildingAgeYears *int              `json:"buildingAgeYears,omitempty"`
	Attributes       map[string]string `json:"attributes,omitempty"`
	FeatureIDs       []string          `json:"featureIds,omitempty"`
	Latitude         *float64          `json:"latitude,omitempty"`
	Longitude        *float64          `json:"longitude,omitempty"`
	Active           *bool             `json:"active,omitempty"`
	Slug             string            `json:"slug,omitempty"`
}

// ListingImageCreation represents image creation input
type ListingImageCreation struct {
	URL       string `json:"url" validate:"required"`
	Caption   string `json:"caption,omitempty"`
	IsPrimary bool   `json:"isPrimary,omitempty"`
	Position  int    `json:"position,omitempty"`
}
