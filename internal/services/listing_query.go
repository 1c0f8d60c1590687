package services

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/utils"
)

// DefaultRadiusKm is applied when a geo filter is requested without a radius
const DefaultRadiusKm = 10.0

// GeoFilter describes a radius search around a center point. A non-positive
// RadiusKm means the radius constraint is disabled: candidates are still
// annotated with distance but none are cut.
type GeoFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// ListingQuery is an immutable specification of a listing search: predicates,
// sort key and page window. It is built once from request parameters and
// translated into SQL plus in-memory pipeline stages by the listing service.
type ListingQuery struct {
	MinPrice *float64
	MaxPrice *float64

	CategoryID *string
	OfferID    *string
	StateID    *string
	LGAID      *string
	Bedrooms   *int
	Active     *bool

	// Promoted: nil = no constraint, true = only currently promoted,
	// false = exclude currently promoted
	Promoted *bool

	Geo *GeoFilter

	// Sort is one of created, -created, price, -price, bedrooms, -bedrooms
	Sort string

	Page     int
	PageSize int
}

// ListingPage is one ordered page of a listing search result
type ListingPage struct {
	Items    []*models.Listing `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

var allowedSorts = map[string]bool{
	"created": true, "-created": true,
	"price": true, "-price": true,
	"bedrooms": true, "-bedrooms": true,
}

// ParseListingQuery builds a ListingQuery from request query parameters.
// Malformed optional values fall back to safe defaults and never surface an
// error; the only hard requirement is that latitude and longitude arrive as a
// pair, which is enforced by ignoring an incomplete pair.
func ParseListingQuery(values url.Values, defaultPageSize, maxPageSize int) *ListingQuery {
	q := &ListingQuery{
		Sort:     "-created",
		Page:     1,
		PageSize: defaultPageSize,
	}

	q.MinPrice = parseFloatParam(values.Get("min_price"))
	q.MaxPrice = parseFloatParam(values.Get("max_price"))

	q.CategoryID = parseStringParam(values.Get("category"))
	q.OfferID = parseStringParam(values.Get("offer"))
	q.StateID = parseStringParam(values.Get("state"))
	q.LGAID = parseStringParam(values.Get("lga"))

	if v := values.Get("bedrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Bedrooms = &n
		}
	}
	if v := values.Get("active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			q.Active = &b
		}
	}
	if v := values.Get("promoted"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			q.Promoted = &b
		}
	}

	q.Geo = parseGeoFilter(values)

	if v := values.Get("sort"); allowedSorts[v] {
		q.Sort = v
	}
	if v := values.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Page = n
		}
	}
	if v := values.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.PageSize = n
		}
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}

	return q
}

// parseGeoFilter activates the geo filter only when both latitude and
// longitude are supplied and parse as finite numbers
func parseGeoFilter(values url.Values) *GeoFilter {
	latStr := values.Get("latitude")
	lonStr := values.Get("longitude")
	if latStr == "" || lonStr == "" {
		return nil
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil ||
		math.IsNaN(lat) || math.IsInf(lat, 0) ||
		math.IsNaN(lon) || math.IsInf(lon, 0) {
		return nil
	}

	radiusStr := values.Get("radius_km")
	if radiusStr == "" {
		radiusStr = values.Get("radius")
	}
	radius := DefaultRadiusKm
	if radiusStr != "" {
		if r, err := strconv.ParseFloat(radiusStr, 64); err == nil && !math.IsNaN(r) && !math.IsInf(r, 0) {
			radius = r
		}
	}

	return &GeoFilter{Latitude: lat, Longitude: lon, RadiusKm: radius}
}

func parseFloatParam(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func parseStringParam(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// ---- pipeline stages ----
//
// The search pipeline is candidates -> visibility -> geo -> promotion rank ->
// page. Each stage takes and returns a listing slice so the stages can be
// unit tested without a store.

// ApplyVisibility narrows candidates to what the viewer may see: everyone
// sees active listings, a vendor additionally sees their own inactive ones.
func ApplyVisibility(candidates []*models.Listing, viewer *models.Identity) []*models.Listing {
	result := make([]*models.Listing, 0, len(candidates))
	for _, l := range candidates {
		if l.Active {
			result = append(result, l)
			continue
		}
		if viewer.HasVendor() && l.VendorID == viewer.VendorID {
			result = append(result, l)
		}
	}
	return result
}

// ApplyGeo annotates candidates with their distance from the filter center
// and, when the radius constraint is enabled, drops candidates outside the
// radius. Listings without a location cannot satisfy a radius constraint.
func ApplyGeo(candidates []*models.Listing, geo *GeoFilter) []*models.Listing {
	if geo == nil {
		return candidates
	}

	constrained := geo.RadiusKm > 0
	result := make([]*models.Listing, 0, len(candidates))
	for _, l := range candidates {
		if !l.HasLocation() {
			if !constrained {
				result = append(result, l)
			}
			continue
		}
		d := utils.CalculateDistance(geo.Latitude, geo.Longitude, *l.Latitude, *l.Longitude)
		if constrained && d > geo.RadiusKm {
			continue
		}
		dist := utils.RoundToDecimalPlaces(d, 3)
		l.Distance = &dist
		result = append(result, l)
	}
	return result
}

// AnnotatePromotions sets IsPromoted for each candidate from the promotion
// map: promoted iff a promotion exists, is active and expires after now.
func AnnotatePromotions(candidates []*models.Listing, promotions map[string]*models.Promotion, now time.Time) []*models.Listing {
	for _, l := range candidates {
		l.IsPromoted = promotions[l.ID].Current(now)
	}
	return candidates
}

// FilterPromoted applies the promoted tri-state constraint over annotated
// candidates
func FilterPromoted(candidates []*models.Listing, want *bool) []*models.Listing {
	if want == nil {
		return candidates
	}
	result := make([]*models.Listing, 0, len(candidates))
	for _, l := range candidates {
		if l.IsPromoted == *want {
			result = append(result, l)
		}
	}
	return result
}

// RankListings orders candidates by promotion score descending, then by
// distance ascending when a geo filter was applied, then by the requested
// sort field, breaking remaining ties by id ascending so pagination stays
// deterministic across requests.
func RankListings(candidates []*models.Listing, q *ListingQuery) []*models.Listing {
	geoActive := q.Geo != nil
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]

		if a.IsPromoted != b.IsPromoted {
			return a.IsPromoted
		}
		if geoActive {
			if c := compareDistance(a.Distance, b.Distance); c != 0 {
				return c < 0
			}
		}
		if c := compareSortField(a, b, q.Sort); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
	return candidates
}

// compareDistance orders annotated distances ascending, listings without a
// distance sorting last
func compareDistance(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

// compareSortField orders by the requested field; listings missing the field
// sort last regardless of direction
func compareSortField(a, b *models.Listing, field string) int {
	desc := false
	if len(field) > 0 && field[0] == '-' {
		desc = true
		field = field[1:]
	}

	var c int
	switch field {
	case "price":
		if n := nilsLast(a.Price == nil, b.Price == nil); n != 0 {
			return n
		}
		if a.Price != nil {
			switch {
			case *a.Price < *b.Price:
				c = -1
			case *a.Price > *b.Price:
				c = 1
			}
		}
	case "bedrooms":
		if n := nilsLast(a.Bedrooms == nil, b.Bedrooms == nil); n != 0 {
			return n
		}
		if a.Bedrooms != nil {
			switch {
			case *a.Bedrooms < *b.Bedrooms:
				c = -1
			case *a.Bedrooms > *b.Bedrooms:
				c = 1
			}
		}
	default: // created
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			c = -1
		case a.CreatedAt.After(b.CreatedAt):
			c = 1
		}
	}

	if desc {
		c = -c
	}
	return c
}

// nilsLast returns a non-zero ordering when exactly one side is missing
func nilsLast(aNil, bNil bool) int {
	switch {
	case aNil && !bNil:
		return 1
	case !aNil && bNil:
		return -1
	default:
		return 0
	}
}

// Paginate slices the ranked candidates into the requested page window
func Paginate(candidates []*models.Listing, page, pageSize int) *ListingPage {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	total := len(candidates)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &ListingPage{
		Items:    candidates[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}
