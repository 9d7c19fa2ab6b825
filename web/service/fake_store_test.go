package service

import (
	"context"

	"github.com/agriintel/agri-intel/database"
	"github.com/agriintel/agri-intel/database/model"
)

// fakeStore is an in-memory CredentialStore that counts lookups.
type fakeStore struct {
	users   map[string]*model.User
	farmers map[string]*model.FarmerRecord

	findUserCalls   int
	findFarmerCalls int
	inserts         int
	rehashes        int
	nextFarmerId    int
	missingRegions  map[int]bool

	err       error // returned by every call when set
	insertErr error // returned by InsertUser when set
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   map[string]*model.User{},
		farmers: map[string]*model.FarmerRecord{},
	}
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.findUserCalls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) InsertUser(ctx context.Context, user *model.User) error {
	if f.err != nil {
		return f.err
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	if _, ok := f.users[user.Email]; ok {
		return database.ErrDuplicateEmail
	}
	f.inserts++
	cp := *user
	cp.Id = "user-" + user.Email
	f.users[user.Email] = &cp
	return nil
}

func (f *fakeStore) FindFarmerByCode(ctx context.Context, code string) (*model.FarmerRecord, error) {
	f.findFarmerCalls++
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.farmers[code]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) UpdatePasswordHash(ctx context.Context, userId, hash string) error {
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Id == userId {
			u.PasswordHash = hash
			f.rehashes++
			return nil
		}
	}
	return nil
}

func (f *fakeStore) InsertFarmer(ctx context.Context, farmer *model.Farmer) error {
	if f.err != nil {
		return f.err
	}
	if f.missingRegions[farmer.RegionId] {
		return database.ErrUnknownRegion
	}
	if _, ok := f.farmers[farmer.FarmerCode]; ok {
		return database.ErrDuplicateCode
	}
	f.nextFarmerId++
	farmer.Id = f.nextFarmerId
	f.farmers[farmer.FarmerCode] = &model.FarmerRecord{Id: farmer.Id, Name: farmer.Name, Code: farmer.FarmerCode}
	return nil
}
