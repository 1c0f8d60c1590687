package services

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"rockflint-backend/database"
	"rockflint-backend/internal/models"
)

// newTestDB creates an in-memory SQLite database with the full schema applied
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	// a single connection keeps every query on the same in-memory database
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, name, email string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		Role:     role,
		IsActive: true,
	}
	_, err := db.Exec(`
		INSERT INTO users (id, email, name, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, TRUE, ?, ?)`,
		user.ID, user.Email, user.Name, "not-a-real-hash", string(user.Role), time.Now(), time.Now(),
	)
	require.NoError(t, err)
	return user
}

// seedVendor creates a user with a vendor account and returns the vendor
// identity
func seedVendor(t *testing.T, db *sql.DB, company string) *models.Identity {
	t.Helper()

	user := seedUser(t, db, company+" Agent", fmt.Sprintf("%s@example.com", uuid.New().String()[:8]), models.UserRoleUser)
	vendorID := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO vendors (id, user_id, company_name, verified, created_at)
		VALUES (?, ?, ?, TRUE, ?)`,
		vendorID, user.ID, company, time.Now(),
	)
	require.NoError(t, err)

	return &models.Identity{UserID: user.ID, VendorID: vendorID}
}

func seedCustomer(t *testing.T, db *sql.DB) *models.Identity {
	t.Helper()
	user := seedUser(t, db, "Customer", fmt.Sprintf("%s@example.com", uuid.New().String()[:8]), models.UserRoleUser)
	return &models.Identity{UserID: user.ID}
}

func seedStaff(t *testing.T, db *sql.DB) *models.Identity {
	t.Helper()
	user := seedUser(t, db, "Staff", fmt.Sprintf("%s@example.com", uuid.New().String()[:8]), models.UserRoleStaff)
	return &models.Identity{UserID: user.ID, IsStaff: true}
}

// lookupIDs bundles the reference rows listings need
type lookupIDs struct {
	category string
	offer    string
	state    string
	lga      string
	feature  string
}

func seedLookups(t *testing.T, db *sql.DB) lookupIDs {
	t.Helper()

	staff := seedStaff(t, db)
	lookups := NewLookupService(db)

	category, err := lookups.CreateCategory("Apartment", staff)
	require.NoError(t, err)
	offer, err := lookups.CreateOffer("For Rent", staff)
	require.NoError(t, err)
	state, err := lookups.CreateState("Lagos", staff)
	require.NoError(t, err)
	lga, err := lookups.CreateLGA(state.ID, "Ikeja", staff)
	require.NoError(t, err)
	feature, err := lookups.CreateFeature("Swimming Pool", nil, staff)
	require.NoError(t, err)

	return lookupIDs{
		category: category.ID,
		offer:    offer.ID,
		state:    state.ID,
		lga:      lga.ID,
		feature:  feature.ID,
	}
}

func basicCreation(title string, ids lookupIDs) *models.ListingCreation {
	return &models.ListingCreation{
		Title:      title,
		CategoryID: ids.category,
		OfferID:    ids.offer,
		StateID:    ids.state,
		LGAID:      ids.lga,
	}
}

// setCreatedAt backdates a listing so ordering tests have distinct timestamps
func setCreatedAt(t *testing.T, db *sql.DB, listingID string, at time.Time) {
	t.Helper()
	_, err := db.Exec("UPDATE listings SET created_at = ? WHERE id = ?", at, listingID)
	require.NoError(t, err)
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
