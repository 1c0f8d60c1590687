package models

import "time"

// UserRole represents user role
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleStaff UserRole = "staff"
)

// User represents an account in the system
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	IsActive     bool      `json:"isActive" db:"is_active"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`

	// Joined data (populated when needed)
	Vendor *Vendor `json:"vendor,omitempty"`
}

// IsStaff reports whether the user has staff privileges
func (u *User) IsStaff() bool {
	return u.Role == UserRoleStaff
}

// Vendor represents a user account authorized to own and manage listings
type Vendor struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	CompanyName string    `json:"companyName" db:"company_name"`
	PhoneNumber *string   `json:"phoneNumber,omitempty" db:"phone_number"`
	Website     *string   `json:"website,omitempty" db:"website"`
	Verified    bool      `json:"verified" db:"verified"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`

	// Joined data (populated when needed)
	UserEmail string `json:"userEmail,omitempty"`
	UserName  string `json:"userName,omitempty"`
}

// Profile represents a customer profile
type Profile struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	FirstName   string    `json:"firstName" db:"first_name"`
	LastName    string    `json:"lastName" db:"last_name"`
	PhoneNumber *string   `json:"phoneNumber,omitempty" db:"phone_number"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// FullName returns the profile's display name
func (p *Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// UserRegistration represents user registration input
type UserRegistration struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserLogin represents user login input
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Identity is the authenticated-identity view the listing core consumes.
// A nil Identity means an anonymous caller.
type Identity struct {
	UserID   string
	IsStaff  bool
	VendorID string // empty when the user has no vendor association
}

// HasVendor reports whether the identity carries a vendor association
func (i *Identity) HasVendor() bool {
	return i != nil && i.VendorID != ""
}
