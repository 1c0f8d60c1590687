package services

import (
	"errors"
	"strings"
)

// Sentinel errors surfaced by the listing core. Handlers map these to HTTP
// status codes; nothing in the core retries a failed operation.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotVendor        = errors.New("you must be a vendor to create listings")
	ErrConflict         = errors.New("conflict")
	ErrLocationPair     = errors.New("both latitude and longitude are required to set location")
)

// isUniqueViolation reports whether err is a store-level unique constraint
// rejection (duplicate slug, duplicate review/favorite, second primary image)
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
