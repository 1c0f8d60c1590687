package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"rockflint-backend/internal/models"
)

type FavoriteServiceTestSuite struct {
	suite.Suite
	db       *sql.DB
	service  *FavoriteService
	lookups  lookupIDs
	vendor   *models.Identity
	customer *models.Identity
	listing  *models.Listing
}

func (s *FavoriteServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewFavoriteService(s.db)
	s.lookups = seedLookups(s.T(), s.db)
	s.vendor = seedVendor(s.T(), s.db, "Prime Homes")
	s.customer = seedCustomer(s.T(), s.db)

	listing, err := NewListingService(s.db).Create(basicCreation("Sunny Flat", s.lookups), s.vendor)
	s.Require().NoError(err)
	s.listing = listing
}

func TestFavoriteServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FavoriteServiceTestSuite))
}

func (s *FavoriteServiceTestSuite) TestToggleIsItsOwnInverse() {
	favorited, err := s.service.Toggle(s.listing.ID, s.customer)
	s.Require().NoError(err)
	s.True(favorited)

	favorited, err = s.service.Toggle(s.listing.ID, s.customer)
	s.Require().NoError(err)
	s.False(favorited)

	var count int
	s.NoError(s.db.QueryRow("SELECT COUNT(*) FROM favorites").Scan(&count))
	s.Equal(0, count)

	// third toggle saves again
	favorited, err = s.service.Toggle(s.listing.ID, s.customer)
	s.Require().NoError(err)
	s.True(favorited)
}

func (s *FavoriteServiceTestSuite) TestToggleRequiresAuthentication() {
	_, err := s.service.Toggle(s.listing.ID, nil)
	s.ErrorIs(err, ErrPermissionDenied)
}

func (s *FavoriteServiceTestSuite) TestToggleInvisibleListingNotFound() {
	hidden := basicCreation("Hidden Flat", s.lookups)
	hidden.Active = boolPtr(false)
	listing, err := NewListingService(s.db).Create(hidden, s.vendor)
	s.Require().NoError(err)

	_, err = s.service.Toggle(listing.ID, s.customer)
	s.ErrorIs(err, ErrNotFound)
}

func (s *FavoriteServiceTestSuite) TestWishlistNewestFirstAndActiveOnly() {
	second, err := NewListingService(s.db).Create(basicCreation("Second Flat", s.lookups), s.vendor)
	s.Require().NoError(err)

	_, err = s.service.Toggle(s.listing.ID, s.customer)
	s.Require().NoError(err)
	_, err = s.service.Toggle(second.ID, s.customer)
	s.Require().NoError(err)

	// deactivating a saved listing drops it from the wishlist
	_, err = s.db.Exec("UPDATE listings SET active = FALSE WHERE id = ?", s.listing.ID)
	s.Require().NoError(err)

	wishlist, err := s.service.Wishlist(s.customer.UserID)
	s.Require().NoError(err)
	s.Require().Len(wishlist, 1)
	s.Equal(second.ID, wishlist[0].ListingID)
	s.Require().NotNil(wishlist[0].Listing)
	s.Equal("Second Flat", wishlist[0].Listing.Title)
}

func (s *FavoriteServiceTestSuite) TestCountForVendor() {
	other := seedCustomer(s.T(), s.db)

	_, err := s.service.Toggle(s.listing.ID, s.customer)
	s.Require().NoError(err)
	_, err = s.service.Toggle(s.listing.ID, other)
	s.Require().NoError(err)

	count, err := s.service.CountForVendor(s.vendor.VendorID)
	s.Require().NoError(err)
	s.Equal(2, count)
}
