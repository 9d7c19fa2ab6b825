package service

import (
	"context"
	"errors"
	"strings"

	"github.com/agriintel/agri-intel/database"
	"github.com/agriintel/agri-intel/database/model"
	"github.com/agriintel/agri-intel/logger"
	"github.com/agriintel/agri-intel/util/crypto"
	"github.com/agriintel/agri-intel/web/entity"
)

const (
	msgCredentialsRequired = "Email and password are required."
	msgInvalidCredentials  = "Invalid email or password."
	msgEmailTaken          = "An account with this email already exists."
)

// UserStore persists user accounts.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	InsertUser(ctx context.Context, user *model.User) error
	UpdatePasswordHash(ctx context.Context, userId, hash string) error
}

// FarmerStore looks farmers up by their portal code and enrolls new ones.
type FarmerStore interface {
	FindFarmerByCode(ctx context.Context, code string) (*model.FarmerRecord, error)
	InsertFarmer(ctx context.Context, farmer *model.Farmer) error
}

// CredentialStore is everything the auth flows need from persistence.
// *database.Store implements it.
type CredentialStore interface {
	UserStore
	FarmerStore
}

// AuthService registers accounts and checks credentials. It never touches
// the session; controllers decide what to do with a successful result.
type AuthService struct {
	users UserStore
	cost  int
}

func NewAuthService(users UserStore, bcryptCost int) *AuthService {
	return &AuthService{users: users, cost: bcryptCost}
}

// Register validates name, email and password, collecting every field error,
// and creates the account when all checks pass. A non-nil error means the
// store failed; the field errors are then nil.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (entity.FieldErrors, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	errs := entity.FieldErrors{}
	if msg := validateName(name); msg != "" {
		errs.Add("name", msg)
	}
	if msg := validateEmail(email); msg != "" {
		errs.Add("email", msg)
	}
	if err := ValidatePassword(password); err != nil {
		errs.Add("password", err.Error())
	}
	if errs.Any() {
		return errs, nil
	}

	// Best-effort pre-check; the unique index decides under concurrency.
	existing, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		errs.Add("email", msgEmailTaken)
		return errs, nil
	}

	hash, err := crypto.HashPassword(password, s.cost)
	if err != nil {
		return nil, err
	}

	err = s.users.InsertUser(ctx, &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if errors.Is(err, database.ErrDuplicateEmail) {
		errs.Add("email", msgEmailTaken)
		return errs, nil
	}
	if err != nil {
		return nil, err
	}
	return errs, nil
}

// Authenticate returns the account matching email and password. Unknown
// emails and wrong passwords produce the same general error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, entity.FieldErrors, error) {
	email = normalizeEmail(email)
	errs := entity.FieldErrors{}
	if email == "" || password == "" {
		errs.Add(entity.GeneralField, msgCredentialsRequired)
		return nil, errs, nil
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !crypto.CheckPasswordHash(user.PasswordHash, password) {
		errs.Add(entity.GeneralField, msgInvalidCredentials)
		return nil, errs, nil
	}
	s.rehash(ctx, user, password)
	return user, errs, nil
}

// rehash upgrades a hash made at an older cost. Failures only cost another
// rehash attempt on the next login.
func (s *AuthService) rehash(ctx context.Context, user *model.User, password string) {
	if !crypto.NeedsRehash(user.PasswordHash, s.cost) {
		return
	}
	hash, err := crypto.HashPassword(password, s.cost)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.Id, hash)
	}
	if err != nil {
		logger.Warning("rehash password err:", err)
		return
	}
	user.PasswordHash = hash
}
