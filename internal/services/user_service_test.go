package services

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"rockflint-backend/internal/models"
)

type recordingHook struct {
	users []*models.User
	fail  bool
}

func (h *recordingHook) UserRegistered(user *models.User) error {
	h.users = append(h.users, user)
	if h.fail {
		return errors.New("hook failure")
	}
	return nil
}

type UserServiceTestSuite struct {
	suite.Suite
	db      *sql.DB
	service *UserService
}

func (s *UserServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.service = NewUserService(s.db)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func registration() *models.UserRegistration {
	return &models.UserRegistration{
		Email:    "Ada@Example.com",
		Name:     "Ada Obi",
		Password: "correct-horse-battery",
	}
}

func (s *UserServiceTestSuite) TestRegisterNormalizesEmail() {
	user, err := s.service.Register(registration())
	s.Require().NoError(err)
	s.Equal("ada@example.com", user.Email)
	s.Equal(models.UserRoleUser, user.Role)
	s.True(user.IsActive)
	s.NotEqual("correct-horse-battery", user.PasswordHash)
}

func (s *UserServiceTestSuite) TestRegisterDuplicateEmailConflicts() {
	_, err := s.service.Register(registration())
	s.Require().NoError(err)

	_, err = s.service.Register(registration())
	s.ErrorIs(err, ErrConflict)
}

func (s *UserServiceTestSuite) TestRegisterValidation() {
	_, err := s.service.Register(&models.UserRegistration{Email: "not-an-email", Name: "A", Password: "short"})
	s.Error(err)
}

func (s *UserServiceTestSuite) TestRegistrationHooksRunAfterPersist() {
	hook := &recordingHook{}
	s.service.AddRegistrationHook(hook)

	user, err := s.service.Register(registration())
	s.Require().NoError(err)
	s.Require().Len(hook.users, 1)
	s.Equal(user.ID, hook.users[0].ID)
}

func (s *UserServiceTestSuite) TestFailingHookDoesNotFailRegistration() {
	s.service.AddRegistrationHook(&recordingHook{fail: true})

	user, err := s.service.Register(registration())
	s.Require().NoError(err)

	fetched, err := s.service.GetByID(user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, fetched.Email)
}

func (s *UserServiceTestSuite) TestProfileSyncHookSplitsName() {
	s.service.AddRegistrationHook(NewProfileSyncHook(s.db))

	user, err := s.service.Register(registration())
	s.Require().NoError(err)

	var first, last string
	s.Require().NoError(s.db.QueryRow(
		"SELECT first_name, last_name FROM profiles WHERE user_id = ?", user.ID,
	).Scan(&first, &last))
	s.Equal("Ada", first)
	s.Equal("Obi", last)
}

func (s *UserServiceTestSuite) TestAuthenticate() {
	_, err := s.service.Register(registration())
	s.Require().NoError(err)

	user, err := s.service.Authenticate(&models.UserLogin{
		Email:    "ada@example.com",
		Password: "correct-horse-battery",
	})
	s.Require().NoError(err)
	s.Equal("ada@example.com", user.Email)

	_, err = s.service.Authenticate(&models.UserLogin{
		Email:    "ada@example.com",
		Password: "wrong-password",
	})
	s.Error(err)

	// unknown account and wrong password are indistinguishable
	_, unknownErr := s.service.Authenticate(&models.UserLogin{
		Email:    "nobody@example.com",
		Password: "whatever-password",
	})
	s.Error(unknownErr)
	s.Equal(err.Error(), unknownErr.Error())
}

func (s *UserServiceTestSuite) TestIdentityResolvesVendorAndStaff() {
	user, err := s.service.Register(registration())
	s.Require().NoError(err)

	identity, err := s.service.Identity(user.ID)
	s.Require().NoError(err)
	s.False(identity.IsStaff)
	s.False(identity.HasVendor())

	// vendor association appears on the next resolution
	_, err = s.db.Exec(
		"INSERT INTO vendors (id, user_id, company_name) VALUES (?, ?, ?)",
		"vendor-1", user.ID, "Ada Homes",
	)
	s.Require().NoError(err)

	identity, err = s.service.Identity(user.ID)
	s.Require().NoError(err)
	s.True(identity.HasVendor())
	s.Equal("vendor-1", identity.VendorID)

	// staff flag follows the stored role
	_, err = s.db.Exec("UPDATE users SET role = 'staff' WHERE id = ?", user.ID)
	s.Require().NoError(err)

	identity, err = s.service.Identity(user.ID)
	s.Require().NoError(err)
	s.True(identity.IsStaff)
}
