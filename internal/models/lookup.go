package models

// Category represents a listing category, e.g. 'Apartment', 'Duplex'
type Category struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// Offer represents an offer type, e.g. 'For Sale', 'For Rent', 'Lease'
type Offer struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// State represents a state in the geographic hierarchy
type State struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// Joined data (populated when needed)
	LGAs []*LGA `json:"lgas,omitempty"`
}

// LGA represents a local government area within a state
type LGA struct {
	ID      string `json:"id" db:"id"`
	StateID string `json:"stateId" db:"state_id"`
	Name    string `json:"name" db:"name"`
}

// Feature represents a reusable amenity (pool, gym, parking...)
type Feature struct {
	ID   string  `json:"id" db:"id"`
	Name string  `json:"name" db:"name"`
	Icon *string `json:"icon,omitempty" db:"icon"`
}
