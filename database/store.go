package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/agriintel/agri-intel/database/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateEmail is returned by InsertUser when the email unique index
// rejects the row.
var ErrDuplicateEmail = errors.New("email already registered")

// Errors returned by InsertFarmer.
var (
	ErrDuplicateCode = errors.New("farmer code already issued")
	ErrUnknownRegion = errors.New("region does not exist")
)

// Store is the gorm-backed credential store: user accounts and farmer
// lookups by code.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindUserByEmail returns nil, nil when no account has the given email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := s.db.WithContext(ctx).
		Where("email = ?", email).
		First(user).
		Error
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (s *Store) InsertUser(ctx context.Context, user *model.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdatePasswordHash replaces the stored hash of the user with userId.
func (s *Store) UpdatePasswordHash(ctx context.Context, userId, hash string) error {
	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userId).
		Update("password_hash", hash).Error
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

// FindFarmerByCode returns nil, nil when no farmer holds code.
func (s *Store) FindFarmerByCode(ctx context.Context, code string) (*model.FarmerRecord, error) {
	var rows []model.FarmerRecord
	err := s.db.WithContext(ctx).
		Table("farmers AS f").
		Select("f.id AS id, f.name AS name, f.farmer_code AS code, r.name AS region").
		Joins("LEFT JOIN regions r ON r.id = f.region_id").
		Where("f.farmer_code = ?", code).
		Limit(1).
		Scan(&rows).
		Error
	if err != nil {
		return nil, fmt.Errorf("find farmer by code: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// InsertFarmer creates f. A code clash yields ErrDuplicateCode.
func (s *Store) InsertFarmer(ctx context.Context, f *model.Farmer) error {
	var regions int64
	if err := s.db.WithContext(ctx).Model(&model.Region{}).Where("id = ?", f.RegionId).Count(&regions).Error; err != nil {
		return fmt.Errorf("insert farmer: %w", err)
	}
	if regions == 0 {
		return ErrUnknownRegion
	}

	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateCode
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrUnknownRegion
	case err != nil:
		return fmt.Errorf("insert farmer: %w", err)
	}
	return nil
}
