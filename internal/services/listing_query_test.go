package services

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rockflint-backend/internal/models"
)

func TestParseListingQueryDefaults(t *testing.T) {
	q := ParseListingQuery(url.Values{}, 20, 100)

	assert.Equal(t, "-created", q.Sort)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PageSize)
	assert.Nil(t, q.MinPrice)
	assert.Nil(t, q.Promoted)
	assert.Nil(t, q.Geo)
}

func TestParseListingQueryMalformedValuesFallBack(t *testing.T) {
	values := url.Values{}
	values.Set("min_price", "cheap")
	values.Set("bedrooms", "many")
	values.Set("promoted", "maybe")
	values.Set("sort", "danger; DROP TABLE listings")
	values.Set("page", "-3")
	values.Set("page_size", "nope")

	q := ParseListingQuery(values, 20, 100)

	assert.Nil(t, q.MinPrice)
	assert.Nil(t, q.Bedrooms)
	assert.Nil(t, q.Promoted)
	assert.Equal(t, "-created", q.Sort)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.PageSize)
}

func TestParseListingQueryPageSizeCapped(t *testing.T) {
	values := url.Values{}
	values.Set("page_size", "5000")

	q := ParseListingQuery(values, 20, 100)
	assert.Equal(t, 100, q.PageSize)
}

func TestParseListingQueryGeoRequiresBothCoordinates(t *testing.T) {
	values := url.Values{}
	values.Set("latitude", "6.52")

	q := ParseListingQuery(values, 20, 100)
	assert.Nil(t, q.Geo)

	values.Set("longitude", "3.37")
	q = ParseListingQuery(values, 20, 100)
	if assert.NotNil(t, q.Geo) {
		assert.Equal(t, 6.52, q.Geo.Latitude)
		assert.Equal(t, 3.37, q.Geo.Longitude)
		assert.Equal(t, DefaultRadiusKm, q.Geo.RadiusKm)
	}
}

func TestParseListingQueryRadiusAlias(t *testing.T) {
	values := url.Values{}
	values.Set("latitude", "6.52")
	values.Set("longitude", "3.37")
	values.Set("radius", "25")

	q := ParseListingQuery(values, 20, 100)
	if assert.NotNil(t, q.Geo) {
		assert.Equal(t, 25.0, q.Geo.RadiusKm)
	}
}

func makeListing(id, vendorID string, active bool) *models.Listing {
	return &models.Listing{ID: id, VendorID: vendorID, Active: active}
}

func TestApplyVisibilityAnonymousSeesOnlyActive(t *testing.T) {
	candidates := []*models.Listing{
		makeListing("a", "v1", true),
		makeListing("b", "v1", false),
		makeListing("c", "v2", true),
	}

	visible := ApplyVisibility(candidates, nil)

	assert.Len(t, visible, 2)
	assert.Equal(t, "a", visible[0].ID)
	assert.Equal(t, "c", visible[1].ID)
}

func TestApplyVisibilityVendorSeesOwnInactive(t *testing.T) {
	candidates := []*models.Listing{
		makeListing("a", "v1", false),
		makeListing("b", "v2", false),
		makeListing("c", "v2", true),
	}

	viewer := &models.Identity{UserID: "u1", VendorID: "v1"}
	visible := ApplyVisibility(candidates, viewer)

	assert.Len(t, visible, 2)
	assert.Equal(t, "a", visible[0].ID)
	assert.Equal(t, "c", visible[1].ID)
}

func TestAnnotatePromotions(t *testing.T) {
	now := time.Now()
	candidates := []*models.Listing{
		makeListing("promoted", "v1", true),
		makeListing("expired", "v1", true),
		makeListing("inactive-promo", "v1", true),
		makeListing("none", "v1", true),
	}
	promotions := map[string]*models.Promotion{
		"promoted":       {ListingID: "promoted", Active: true, PromotedUntil: now.Add(time.Hour)},
		"expired":        {ListingID: "expired", Active: true, PromotedUntil: now.Add(-time.Hour)},
		"inactive-promo": {ListingID: "inactive-promo", Active: false, PromotedUntil: now.Add(time.Hour)},
	}

	AnnotatePromotions(candidates, promotions, now)

	assert.True(t, candidates[0].IsPromoted)
	assert.False(t, candidates[1].IsPromoted)
	assert.False(t, candidates[2].IsPromoted)
	assert.False(t, candidates[3].IsPromoted)
}

func TestFilterPromotedTriState(t *testing.T) {
	promoted := makeListing("a", "v1", true)
	promoted.IsPromoted = true
	plain := makeListing("b", "v1", true)

	candidates := []*models.Listing{promoted, plain}

	assert.Len(t, FilterPromoted(candidates, nil), 2)

	only := FilterPromoted(candidates, boolPtr(true))
	if assert.Len(t, only, 1) {
		assert.Equal(t, "a", only[0].ID)
	}

	excluded := FilterPromoted(candidates, boolPtr(false))
	if assert.Len(t, excluded, 1) {
		assert.Equal(t, "b", excluded[0].ID)
	}
}

func TestRankListingsPromotedFirstRegardlessOfRecency(t *testing.T) {
	now := time.Now()
	older := makeListing("older-promoted", "v1", true)
	older.IsPromoted = true
	older.CreatedAt = now.Add(-48 * time.Hour)

	newest := makeListing("newest", "v1", true)
	newest.CreatedAt = now

	middle := makeListing("middle", "v1", true)
	middle.CreatedAt = now.Add(-24 * time.Hour)

	q := &ListingQuery{Sort: "-created"}
	ranked := RankListings([]*models.Listing{newest, middle, older}, q)

	assert.Equal(t, "older-promoted", ranked[0].ID)
	assert.Equal(t, "newest", ranked[1].ID)
	assert.Equal(t, "middle", ranked[2].ID)
}

func TestRankListingsDistanceBreaksTiesUnderGeo(t *testing.T) {
	near := makeListing("near", "v1", true)
	near.Distance = floatPtr(1.5)
	far := makeListing("far", "v1", true)
	far.Distance = floatPtr(8.0)
	unknown := makeListing("unknown", "v1", true)

	q := &ListingQuery{Sort: "-created", Geo: &GeoFilter{Latitude: 6.5, Longitude: 3.4, RadiusKm: 0}}
	ranked := RankListings([]*models.Listing{unknown, far, near}, q)

	assert.Equal(t, "near", ranked[0].ID)
	assert.Equal(t, "far", ranked[1].ID)
	assert.Equal(t, "unknown", ranked[2].ID)
}

func TestRankListingsPriceSort(t *testing.T) {
	cheap := makeListing("cheap", "v1", true)
	cheap.Price = floatPtr(100)
	expensive := makeListing("expensive", "v1", true)
	expensive.Price = floatPtr(900)
	unpriced := makeListing("unpriced", "v1", true)

	ranked := RankListings([]*models.Listing{unpriced, expensive, cheap}, &ListingQuery{Sort: "price"})
	assert.Equal(t, "cheap", ranked[0].ID)
	assert.Equal(t, "expensive", ranked[1].ID)
	assert.Equal(t, "unpriced", ranked[2].ID)

	ranked = RankListings(ranked, &ListingQuery{Sort: "-price"})
	assert.Equal(t, "expensive", ranked[0].ID)
	assert.Equal(t, "cheap", ranked[1].ID)
	assert.Equal(t, "unpriced", ranked[2].ID)
}

func TestApplyGeoRadiusCutsOutsiders(t *testing.T) {
	// Ikeja center; one listing in Ikeja, one in Abuja
	inside := makeListing("inside", "v1", true)
	inside.Latitude = floatPtr(6.6018)
	inside.Longitude = floatPtr(3.3515)

	outside := makeListing("outside", "v1", true)
	outside.Latitude = floatPtr(9.0765)
	outside.Longitude = floatPtr(7.3986)

	noLocation := makeListing("no-location", "v1", true)

	geo := &GeoFilter{Latitude: 6.6, Longitude: 3.35, RadiusKm: 10}
	result := ApplyGeo([]*models.Listing{inside, outside, noLocation}, geo)

	if assert.Len(t, result, 1) {
		assert.Equal(t, "inside", result[0].ID)
		assert.NotNil(t, result[0].Distance)
	}
}

func TestApplyGeoZeroRadiusKeepsEveryCandidate(t *testing.T) {
	inside := makeListing("inside", "v1", true)
	inside.Latitude = floatPtr(6.6018)
	inside.Longitude = floatPtr(3.3515)

	outside := makeListing("outside", "v1", true)
	outside.Latitude = floatPtr(9.0765)
	outside.Longitude = floatPtr(7.3986)

	noLocation := makeListing("no-location", "v1", true)

	all := []*models.Listing{inside, outside, noLocation}
	unfiltered := ApplyGeo(all, nil)
	zeroRadius := ApplyGeo(all, &GeoFilter{Latitude: 6.6, Longitude: 3.35, RadiusKm: 0})

	// radius 0 disables the cut: the candidate set matches no geo filter at
	// all, with distances annotated where known
	assert.Equal(t, len(unfiltered), len(zeroRadius))
	assert.NotNil(t, inside.Distance)
	assert.NotNil(t, outside.Distance)
	assert.Nil(t, noLocation.Distance)
}

func TestPaginate(t *testing.T) {
	candidates := []*models.Listing{
		makeListing("a", "v1", true),
		makeListing("b", "v1", true),
		makeListing("c", "v1", true),
		makeListing("d", "v1", true),
		makeListing("e", "v1", true),
	}

	page := Paginate(candidates, 2, 2)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 2, page.Page)
	if assert.Len(t, page.Items, 2) {
		assert.Equal(t, "c", page.Items[0].ID)
		assert.Equal(t, "d", page.Items[1].ID)
	}

	beyond := Paginate(candidates, 9, 2)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 5, beyond.Total)
}
