package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rockflint-backend/internal/models"
)

type PromotionServiceTestSuite struct {
	suite.Suite
	db      *sql.DB
	service *PromotionService
	staff   *models.Identity
	vendor  *models.Identity
	listing *models.Listing
}

func (s *PromotionServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewPromotionService(s.db)
	lookups := seedLookups(s.T(), s.db)
	s.staff = seedStaff(s.T(), s.db)
	s.vendor = seedVendor(s.T(), s.db, "Prime Homes")

	listing, err := NewListingService(s.db).Create(basicCreation("Sunny Flat", lookups), s.vendor)
	s.Require().NoError(err)
	s.listing = listing
}

func TestPromotionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PromotionServiceTestSuite))
}

func (s *PromotionServiceTestSuite) TestPromoteStaffOnly() {
	creation := &models.PromotionCreation{
		ListingID:     s.listing.ID,
		PromotedUntil: time.Now().Add(24 * time.Hour),
	}

	_, err := s.service.Promote(creation, s.vendor)
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.service.Promote(creation, nil)
	s.ErrorIs(err, ErrPermissionDenied)

	promotion, err := s.service.Promote(creation, s.staff)
	s.Require().NoError(err)
	s.True(promotion.Active)
	s.True(promotion.Current(time.Now()))
}

func (s *PromotionServiceTestSuite) TestPromoteUnknownListing() {
	_, err := s.service.Promote(&models.PromotionCreation{
		ListingID:     "no-such-listing",
		PromotedUntil: time.Now().Add(time.Hour),
	}, s.staff)
	s.ErrorIs(err, ErrNotFound)
}

func (s *PromotionServiceTestSuite) TestRepromoteRefreshesInPlace() {
	first := time.Now().Add(24 * time.Hour)
	_, err := s.service.Promote(&models.PromotionCreation{
		ListingID:     s.listing.ID,
		PromotedUntil: first,
	}, s.staff)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Deactivate(s.listing.ID, s.staff))

	// promoting again reactivates and extends the same row
	extended := time.Now().Add(72 * time.Hour)
	promotion, err := s.service.Promote(&models.PromotionCreation{
		ListingID:     s.listing.ID,
		PromotedUntil: extended,
	}, s.staff)
	s.Require().NoError(err)
	s.True(promotion.Active)
	s.WithinDuration(extended, promotion.PromotedUntil, time.Second)

	var count int
	s.NoError(s.db.QueryRow("SELECT COUNT(*) FROM promotions WHERE listing_id = ?", s.listing.ID).Scan(&count))
	s.Equal(1, count)
}

func (s *PromotionServiceTestSuite) TestDeactivate() {
	s.ErrorIs(s.service.Deactivate(s.listing.ID, s.vendor), ErrPermissionDenied)
	s.ErrorIs(s.service.Deactivate(s.listing.ID, s.staff), ErrNotFound)

	_, err := s.service.Promote(&models.PromotionCreation{
		ListingID:     s.listing.ID,
		PromotedUntil: time.Now().Add(time.Hour),
	}, s.staff)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Deactivate(s.listing.ID, s.staff))

	promotion, err := s.service.GetForListing(s.listing.ID)
	s.Require().NoError(err)
	s.False(promotion.Active)
	s.False(promotion.Current(time.Now()))
}
