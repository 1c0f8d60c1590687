package services

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"rockflint-backend/internal/models"
	"rockflint-backend/internal/utils"
)

// RegistrationHook is invoked after a user has been persisted. The auth
// collaborator calls hooks explicitly instead of relying on implicit global
// subscriptions.
type RegistrationHook interface {
	UserRegistered(user *models.User) error
}

// UserService handles account records and the registration boundary
type UserService struct {
	db    *sql.DB
	hooks []RegistrationHook
}

// NewUserService creates a new user service
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// AddRegistrationHook appends a hook to run after each successful
// registration
func (s *UserService) AddRegistrationHook(hook RegistrationHook) {
	s.hooks = append(s.hooks, hook)
}

// Register creates a new user account
func (s *UserService) Register(registration *models.UserRegistration) (*models.User, error) {
	if err := utils.ValidateStruct(registration); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	registration.Email = strings.ToLower(utils.SanitizeString(registration.Email))
	registration.Name = utils.SanitizeString(registration.Name)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registration.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        registration.Email,
		Name:         registration.Name,
		PasswordHash: string(hashedPassword),
		Role:         models.UserRoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = s.db.Exec(`
		INSERT INTO users (id, email, name, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.Role,
		user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user with this email already exists", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	for _, hook := range s.hooks {
		if err := hook.UserRegistered(user); err != nil {
			// Hooks keep ancillary records in sync; registration itself stands
			log.Printf("Warning: registration hook failed for user %s: %v", user.ID, err)
		}
	}

	return user, nil
}

// Authenticate verifies credentials and returns the user
func (s *UserService) Authenticate(login *models.UserLogin) (*models.User, error) {
	if err := utils.ValidateStruct(login); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	email := strings.ToLower(utils.SanitizeString(login.Email))
	user, err := s.GetByEmail(email)
	if err != nil {
		if err == ErrNotFound {
			return nil, errors.New("invalid email or password")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.New("account is not active")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(login.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}
	return user, nil
}

// GetByID fetches a user by id
func (s *UserService) GetByID(id string) (*models.User, error) {
	return scanUser(s.db.QueryRow(userSelect+" WHERE id = ?", id))
}

// GetByEmail fetches a user by email
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	return scanUser(s.db.QueryRow(userSelect+" WHERE email = ?", email))
}

// Identity resolves the authenticated-identity view the listing core
// consumes: user id, staff flag and current vendor association
func (s *UserService) Identity(userID string) (*models.Identity, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	identity := &models.Identity{
		UserID:  user.ID,
		IsStaff: user.IsStaff(),
	}

	var vendorID string
	err = s.db.QueryRow("SELECT id FROM vendors WHERE user_id = ?", userID).Scan(&vendorID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to resolve vendor association: %w", err)
	}
	identity.VendorID = vendorID

	return identity, nil
}

const userSelect = "SELECT id, email, name, password_hash, role, is_active, created_at, updated_at FROM users"

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &u, nil
}

// ProfileSyncHook creates an empty customer profile when a user registers
type ProfileSyncHook struct {
	db *sql.DB
}

// NewProfileSyncHook creates a new profile sync hook
func NewProfileSyncHook(db *sql.DB) *ProfileSyncHook {
	return &ProfileSyncHook{db: db}
}

// UserRegistered implements RegistrationHook
func (h *ProfileSyncHook) UserRegistered(user *models.User) error {
	firstName := user.Name
	lastName := ""
	if parts := strings.SplitN(user.Name, " ", 2); len(parts) == 2 {
		firstName, lastName = parts[0], parts[1]
	}

	_, err := h.db.Exec(`
		INSERT INTO profiles (id, user_id, first_name, last_name, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), user.ID, firstName, lastName, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}
