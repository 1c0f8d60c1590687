package services

import (
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"rockflint-backend/internal/models"
)

type ImageServiceTestSuite struct {
	suite.Suite
	db      *sql.DB
	service *ImageService
	listing *models.Listing
	vendor  *models.Identity
}

func (s *ImageServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewImageService(s.db)
	lookups := seedLookups(s.T(), s.db)
	s.vendor = seedVendor(s.T(), s.db, "Prime Homes")

	listing, err := NewListingService(s.db).Create(basicCreation("Sunny Flat", lookups), s.vendor)
	s.Require().NoError(err)
	s.listing = listing
}

func TestImageServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImageServiceTestSuite))
}

func (s *ImageServiceTestSuite) primaryCount() int {
	var count int
	s.Require().NoError(s.db.QueryRow(
		"SELECT COUNT(*) FROM listing_images WHERE listing_id = ? AND is_primary = TRUE",
		s.listing.ID,
	).Scan(&count))
	return count
}

func (s *ImageServiceTestSuite) TestAddRequiresOwnership() {
	other := seedVendor(s.T(), s.db, "Coastal Estates")
	_, err := s.service.Add(s.listing.ID, &models.ListingImageCreation{URL: "https://img.example/1.jpg"}, other)
	s.ErrorIs(err, ErrPermissionDenied)

	customer := seedCustomer(s.T(), s.db)
	_, err = s.service.Add(s.listing.ID, &models.ListingImageCreation{URL: "https://img.example/1.jpg"}, customer)
	s.ErrorIs(err, ErrPermissionDenied)
}

func (s *ImageServiceTestSuite) TestNewPrimaryDemotesPrevious() {
	first, err := s.service.Add(s.listing.ID, &models.ListingImageCreation{
		URL:       "https://img.example/1.jpg",
		IsPrimary: true,
	}, s.vendor)
	s.Require().NoError(err)

	_, err = s.service.Add(s.listing.ID, &models.ListingImageCreation{
		URL:       "https://img.example/2.jpg",
		IsPrimary: true,
	}, s.vendor)
	s.Require().NoError(err)

	s.Equal(1, s.primaryCount())

	var firstPrimary bool
	s.Require().NoError(s.db.QueryRow(
		"SELECT is_primary FROM listing_images WHERE id = ?", first.ID,
	).Scan(&firstPrimary))
	s.False(firstPrimary)
}

func (s *ImageServiceTestSuite) TestSetPrimarySwaps() {
	first, err := s.service.Add(s.listing.ID, &models.ListingImageCreation{
		URL:       "https://img.example/1.jpg",
		IsPrimary: true,
	}, s.vendor)
	s.Require().NoError(err)

	second, err := s.service.Add(s.listing.ID, &models.ListingImageCreation{
		URL: "https://img.example/2.jpg",
	}, s.vendor)
	s.Require().NoError(err)

	promoted, err := s.service.SetPrimary(second.ID, s.vendor)
	s.Require().NoError(err)
	s.True(promoted.IsPrimary)
	s.Equal(1, s.primaryCount())

	var firstPrimary bool
	s.Require().NoError(s.db.QueryRow(
		"SELECT is_primary FROM listing_images WHERE id = ?", first.ID,
	).Scan(&firstPrimary))
	s.False(firstPrimary)
}

func (s *ImageServiceTestSuite) TestPrimaryImageFallsBackToFirstByPosition() {
	_, err := s.service.Add(s.listing.ID, &models.ListingImageCreation{
		URL:      "https://img.example/2.jpg",
		Position: 2,
	}, s.vendor)
	s.Require().NoError(err)
	_, err = s.service.Add(s.listing.ID, &models.ListingImageCreation{
		URL:      "https://img.example/1.jpg",
		Position: 1,
	}, s.vendor)
	s.Require().NoError(err)

	listing, err := NewListingService(s.db).GetByID(s.listing.ID, s.vendor)
	s.Require().NoError(err)
	primary := listing.PrimaryImage()
	s.Require().NotNil(primary)
	s.Equal("https://img.example/1.jpg", *primary)
}

func (s *ImageServiceTestSuite) TestDelete() {
	image, err := s.service.Add(s.listing.ID, &models.ListingImageCreation{
		URL: "https://img.example/1.jpg",
	}, s.vendor)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(image.ID, s.vendor))

	err = s.service.Delete(image.ID, s.vendor)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ImageServiceTestSuite) TestConcurrentPrimaryWritesKeepOnePrimary() {
	first, err := s.service.Add(s.listing.ID, &models.ListingImageCreation{
		URL:       "https://img.example/0.jpg",
		IsPrimary: true,
	}, s.vendor)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if n%2 == 0 {
				_, err := s.service.Add(s.listing.ID, &models.ListingImageCreation{
					URL:       fmt.Sprintf("https://img.example/%d.jpg", n+1),
					IsPrimary: true,
				}, s.vendor)
				s.NoError(err)
			} else {
				_, err := s.service.SetPrimary(first.ID, s.vendor)
				s.NoError(err)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, s.primaryCount())

	var total int
	s.Require().NoError(s.db.QueryRow(
		"SELECT COUNT(*) FROM listing_images WHERE listing_id = ?", s.listing.ID,
	).Scan(&total))
	s.Equal(5, total)
}

func (s *ImageServiceTestSuite) TestAddRequiresURL() {
	_, err := s.service.Add(s.listing.ID, &models.ListingImageCreation{}, s.vendor)
	s.Error(err)
}
