package models

import "time"

// VendorActivityType represents the type of a dashboard activity entry
type VendorActivityType string

const (
	ActivityListingCreated VendorActivityType = "listing_created"
	ActivityReviewAdded    VendorActivityType = "review_added"
)

// VendorActivity represents one entry in a vendor's activity feed
type VendorActivity struct {
	ActivityType VendorActivityType `json:"activityType"`
	CreatedAt    time.Time          `json:"createdAt"`
	Summary      string             `json:"summary"`
	ListingID    string             `json:"listingId"`
	ListingTitle string             `json:"listingTitle"`
	Actor        string             `json:"actor"`
}

// VendorDashboard aggregates a vendor's listing and engagement stats
type VendorDashboard struct {
	Vendor           *Vendor           `json:"vendor"`
	TotalListings    int               `json:"totalListings"`
	ActiveListings   int               `json:"activeListings"`
	InactiveListings int               `json:"inactiveListings"`
	TotalReviews     int               `json:"totalReviews"`
	AverageRating    float64           `json:"averageRating"`
	TotalFavorites   int               `json:"totalFavorites"`
	RecentListings   []*Listing        `json:"recentListings"`
	RecentReviews    []*Review         `json:"recentReviews"`
	Activities       []*VendorActivity `json:"activities"`
}
