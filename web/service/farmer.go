package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agriintel/agri-intel/database"
	"github.com/agriintel/agri-intel/database/model"
	"github.com/agriintel/agri-intel/util/random"
	"github.com/agriintel/agri-intel/web/entity"
)

const (
	msgCodeRequired = "Farmer code is required."
	msgCodeFormat   = "Farmer code must be exactly 6 digits."
	msgCodeInvalid  = "Invalid farmer code."
)

const enrollAttempts = 5

// FarmerService verifies farmer portal codes and issues new ones.
type FarmerService struct {
	farmers FarmerStore
	newCode func() string
}

func NewFarmerService(farmers FarmerStore) *FarmerService {
	return &FarmerService{
		farmers: farmers,
		newCode: func() string { return random.Digits(6) },
	}
}

// VerifyCode checks the code format and looks the farmer up. Malformed codes
// are rejected before the store is queried. The caller starts the farmer
// session.
func (s *FarmerService) VerifyCode(ctx context.Context, code string) (*model.FarmerRecord, entity.FieldErrors, error) {
	code = strings.TrimSpace(code)
	errs := entity.FieldErrors{}
	if code == "" {
		errs.Add("code", msgCodeRequired)
		return nil, errs, nil
	}
	if !farmerCodePattern.MatchString(code) {
		errs.Add("code", msgCodeFormat)
		return nil, errs, nil
	}

	rec, err := s.farmers.FindFarmerByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		errs.Add("code", msgCodeInvalid)
		return nil, errs, nil
	}
	return rec, errs, nil
}

// Enroll registers a farmer in regionId under a freshly drawn code. Codes
// that are already taken are redrawn a few times before giving up.
func (s *FarmerService) Enroll(ctx context.Context, name string, regionId int) (*model.Farmer, entity.FieldErrors, error) {
	name = strings.TrimSpace(name)
	errs := entity.FieldErrors{}
	if msg := validateName(name); msg != "" {
		errs.Add("name", msg)
	}
	if regionId <= 0 {
		errs.Add("region_id", "Please choose a region.")
	}
	if errs.Any() {
		return nil, errs, nil
	}

	for i := 0; i < enrollAttempts; i++ {
		farmer := &model.Farmer{Name: name, FarmerCode: s.newCode(), RegionId: regionId}
		err := s.farmers.InsertFarmer(ctx, farmer)
		switch {
		case err == nil:
			return farmer, errs, nil
		case errors.Is(err, database.ErrDuplicateCode):
			continue
		case errors.Is(err, database.ErrUnknownRegion):
			errs.Add("region_id", "Unknown region.")
			return nil, errs, nil
		default:
			return nil, nil, err
		}
	}
	return nil, nil, fmt.Errorf("enroll farmer: no free code after %d attempts", enrollAttempts)
}
