package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rockflint-backend/internal/models"
)

type VendorServiceTestSuite struct {
	suite.Suite
	db      *sql.DB
	service *VendorService
}

func (s *VendorServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewVendorService(s.db)
}

func TestVendorServiceTestSuite(t *testing.T) {
	suite.Run(t, new(VendorServiceTestSuite))
}

func (s *VendorServiceTestSuite) TestCreateStaffOnly() {
	user := seedUser(s.T(), s.db, "Ada Obi", "ada@example.com", models.UserRoleUser)
	creation := &VendorCreation{UserID: user.ID, CompanyName: "Ada Homes"}

	_, err := s.service.Create(creation, seedCustomer(s.T(), s.db))
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.service.Create(creation, nil)
	s.ErrorIs(err, ErrPermissionDenied)

	vendor, err := s.service.Create(creation, seedStaff(s.T(), s.db))
	s.Require().NoError(err)
	s.Equal(user.ID, vendor.UserID)
	s.False(vendor.Verified)
}

func (s *VendorServiceTestSuite) TestCreateSameUserTwiceConflicts() {
	staff := seedStaff(s.T(), s.db)
	user := seedUser(s.T(), s.db, "Ada Obi", "ada@example.com", models.UserRoleUser)
	creation := &VendorCreation{UserID: user.ID, CompanyName: "Ada Homes"}

	_, err := s.service.Create(creation, staff)
	s.Require().NoError(err)

	_, err = s.service.Create(creation, staff)
	s.ErrorIs(err, ErrConflict)
}

func (s *VendorServiceTestSuite) TestGetByIDAccessControl() {
	vendor := seedVendor(s.T(), s.db, "Ada Homes")

	_, err := s.service.GetByID(vendor.VendorID, seedCustomer(s.T(), s.db))
	s.ErrorIs(err, ErrPermissionDenied)

	fetched, err := s.service.GetByID(vendor.VendorID, vendor)
	s.Require().NoError(err)
	s.Equal("Ada Homes", fetched.CompanyName)

	fetched, err = s.service.GetByID(vendor.VendorID, seedStaff(s.T(), s.db))
	s.Require().NoError(err)
	s.Equal(vendor.VendorID, fetched.ID)

	_, err = s.service.GetByID("no-such-vendor", seedStaff(s.T(), s.db))
	s.ErrorIs(err, ErrNotFound)
}

func (s *VendorServiceTestSuite) TestVerify() {
	staff := seedStaff(s.T(), s.db)
	user := seedUser(s.T(), s.db, "Ada Obi", "ada@example.com", models.UserRoleUser)
	vendor, err := s.service.Create(&VendorCreation{UserID: user.ID, CompanyName: "Ada Homes"}, staff)
	s.Require().NoError(err)
	s.False(vendor.Verified)

	_, err = s.service.Verify(vendor.ID, &models.Identity{UserID: user.ID})
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.service.Verify("no-such-vendor", staff)
	s.ErrorIs(err, ErrNotFound)

	verified, err := s.service.Verify(vendor.ID, staff)
	s.Require().NoError(err)
	s.True(verified.Verified)
}

func (s *VendorServiceTestSuite) TestDashboardAggregates() {
	ids := seedLookups(s.T(), s.db)
	vendor := seedVendor(s.T(), s.db, "Ada Homes")
	listings := NewListingService(s.db)

	active, err := listings.Create(basicCreation("Active Flat", ids), vendor)
	s.Require().NoError(err)
	inactive, err := listings.Create(basicCreation("Withdrawn Flat", ids), vendor)
	s.Require().NoError(err)
	_, err = s.db.Exec("UPDATE listings SET active = FALSE WHERE id = ?", inactive.ID)
	s.Require().NoError(err)

	customer := seedCustomer(s.T(), s.db)
	_, err = NewReviewService(s.db).Add(active.ID, &models.ReviewCreation{
		Title:   "Great place",
		Comment: "Would rent again",
		Rating:  4,
	}, customer)
	s.Require().NoError(err)

	second := seedCustomer(s.T(), s.db)
	_, err = NewReviewService(s.db).Add(active.ID, &models.ReviewCreation{
		Title:   "Decent",
		Comment: "A bit noisy",
		Rating:  3,
	}, second)
	s.Require().NoError(err)

	_, err = NewFavoriteService(s.db).Toggle(active.ID, customer)
	s.Require().NoError(err)

	dashboard, err := s.service.Dashboard(vendor.VendorID, vendor)
	s.Require().NoError(err)
	s.Equal(2, dashboard.TotalListings)
	s.Equal(1, dashboard.ActiveListings)
	s.Equal(1, dashboard.InactiveListings)
	s.Equal(2, dashboard.TotalReviews)
	s.InDelta(3.5, dashboard.AverageRating, 0.001)
	s.Equal(1, dashboard.TotalFavorites)
	s.Len(dashboard.RecentListings, 2)
	s.Len(dashboard.RecentReviews, 2)
	s.NotEmpty(dashboard.Activities)
}

func (s *VendorServiceTestSuite) TestDashboardAccessControl() {
	vendor := seedVendor(s.T(), s.db, "Ada Homes")

	_, err := s.service.Dashboard(vendor.VendorID, seedCustomer(s.T(), s.db))
	s.ErrorIs(err, ErrPermissionDenied)

	_, err = s.service.Dashboard(vendor.VendorID, nil)
	s.ErrorIs(err, ErrPermissionDenied)
}

func (s *VendorServiceTestSuite) TestActivitiesMergeNewestFirst() {
	ids := seedLookups(s.T(), s.db)
	vendor := seedVendor(s.T(), s.db, "Ada Homes")
	listings := NewListingService(s.db)

	listing, err := listings.Create(basicCreation("Older Flat", ids), vendor)
	s.Require().NoError(err)
	setCreatedAt(s.T(), s.db, listing.ID, time.Now().Add(-2*time.Hour))

	_, err = NewReviewService(s.db).Add(listing.ID, &models.ReviewCreation{
		Title:   "Review",
		Comment: "Newest event",
		Rating:  5,
	}, seedCustomer(s.T(), s.db))
	s.Require().NoError(err)

	activities, err := s.service.Activities(vendor.VendorID, 10, vendor)
	s.Require().NoError(err)
	s.Require().Len(activities, 2)
	s.Equal(models.ActivityReviewAdded, activities[0].ActivityType)
	s.Equal(models.ActivityListingCreated, activities[1].ActivityType)
	s.Equal(listing.ID, activities[0].ListingID)
}

func (s *VendorServiceTestSuite) TestActivitiesLimit() {
	ids := seedLookups(s.T(), s.db)
	vendor := seedVendor(s.T(), s.db, "Ada Homes")
	listings := NewListingService(s.db)

	for i := 0; i < 3; i++ {
		creation := basicCreation("Flat", ids)
		creation.Title = creation.Title + " " + string(rune('A'+i))
		listing, err := listings.Create(creation, vendor)
		s.Require().NoError(err)
		setCreatedAt(s.T(), s.db, listing.ID, time.Now().Add(-time.Duration(i)*time.Minute))
	}

	activities, err := s.service.Activities(vendor.VendorID, 2, vendor)
	s.Require().NoError(err)
	s.Len(activities, 2)
	s.Equal("Listing created: Flat A", activities[0].Summary)
}
