package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a string to a URL-friendly slug
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	return slug
}

// slugRetries bounds the random-suffix attempts before the timestamp fallback
const slugRetries = 5

// UniqueSlug derives a slug from name that is unique according to taken.
// On collision it appends a short random hex suffix and retries; after
// slugRetries failed attempts it falls back to a Unix-timestamp suffix so the
// loop always terminates. Uniqueness is best effort: two concurrent writers
// can still race past the probe, and the store's unique constraint is the
// final arbiter.
func UniqueSlug(name string, taken func(slug string) (bool, error)) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = GenerateRandomString(6)
	}

	slug := base
	for i := 0; i <= slugRetries; i++ {
		used, err := taken(slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug availability: %w", err)
		}
		if !used {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%s", base, GenerateRandomString(6))
	}

	return fmt.Sprintf("%s-%d", base, time.Now().Unix()), nil
}

// GenerateRandomString generates a random hex string of specified length
func GenerateRandomString(length int) string {
	bytes := make([]byte, (length+1)/2)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return hex.EncodeToString(bytes)[:length]
}

// CalculateDistance calculates distance between two coordinates in kilometers
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371 // Earth's radius in kilometers

	// Convert degrees to radians
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	// Haversine formula
	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// RoundToDecimalPlaces rounds a float to specified decimal places
func RoundToDecimalPlaces(value float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(value*multiplier) / multiplier
}

