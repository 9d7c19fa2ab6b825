package service

import (
	"context"
	"errors"
	"testing"

	"github.com/agriintel/agri-intel/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCode(t *testing.T) {
	store := newFakeStore()
	store.farmers["123456"] = &model.FarmerRecord{Id: 1, Name: "Karim", Code: "123456", Region: "Rajshahi"}
	farmers := NewFarmerService(store)
	ctx := context.Background()

	t.Run("match", func(t *testing.T) {
		rec, errs, err := farmers.VerifyCode(ctx, " 123456 ")
		require.NoError(t, err)
		assert.False(t, errs.Any())
		require.NotNil(t, rec)
		assert.Equal(t, "Karim", rec.Name)
		assert.Equal(t, 1, rec.Id)
	})

	t.Run("malformed codes never reach the store", func(t *testing.T) {
		for _, code := range []string{"12345", "1234567", "12a456", "abcdef", "12 456", "١٢٣٤٥٦", "-12345"} {
			calls := store.findFarmerCalls
			rec, errs, err := farmers.VerifyCode(ctx, code)
			require.NoError(t, err, code)
			assert.Nil(t, rec, code)
			assert.Equal(t, msgCodeFormat, errs.Get("code"), code)
			assert.Equal(t, calls, store.findFarmerCalls, code)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, errs, err := farmers.VerifyCode(ctx, "   ")
		require.NoError(t, err)
		assert.Equal(t, msgCodeRequired, errs.Get("code"))
	})

	t.Run("unknown code", func(t *testing.T) {
		rec, errs, err := farmers.VerifyCode(ctx, "654321")
		require.NoError(t, err)
		assert.Nil(t, rec)
		assert.Equal(t, msgCodeInvalid, errs.Get("code"))
	})

	t.Run("store fault", func(t *testing.T) {
		store.err = errors.New("no such table: farmers")
		defer func() { store.err = nil }()
		rec, errs, err := farmers.VerifyCode(ctx, "123456")
		assert.Error(t, err)
		assert.Nil(t, rec)
		assert.Nil(t, errs)
	})
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a six digit code that verifies", func(t *testing.T) {
		store := newFakeStore()
		farmers := NewFarmerService(store)

		farmer, errs, err := farmers.Enroll(ctx, " Nasima ", 3)
		require.NoError(t, err)
		assert.False(t, errs.Any())
		require.NotNil(t, farmer)
		assert.Equal(t, "Nasima", farmer.Name)
		assert.Regexp(t, `^[0-9]{6}$`, farmer.FarmerCode)

		rec, errs, err := farmers.VerifyCode(ctx, farmer.FarmerCode)
		require.NoError(t, err)
		assert.False(t, errs.Any())
		assert.Equal(t, farmer.Id, rec.Id)
	})

	t.Run("redraws taken codes", func(t *testing.T) {
		store := newFakeStore()
		store.farmers["123456"] = &model.FarmerRecord{Id: 99, Name: "Karim", Code: "123456"}
		farmers := NewFarmerService(store)
		codes := []string{"123456", "123456", "654321"}
		farmers.newCode = func() string {
			c := codes[0]
			codes = codes[1:]
			return c
		}

		farmer, _, err := farmers.Enroll(ctx, "Nasima", 1)
		require.NoError(t, err)
		assert.Equal(t, "654321", farmer.FarmerCode)
	})

	t.Run("gives up when every code is taken", func(t *testing.T) {
		store := newFakeStore()
		store.farmers["123456"] = &model.FarmerRecord{Id: 99, Name: "Karim", Code: "123456"}
		farmers := NewFarmerService(store)
		farmers.newCode = func() string { return "123456" }

		farmer, errs, err := farmers.Enroll(ctx, "Nasima", 1)
		assert.Error(t, err)
		assert.Nil(t, farmer)
		assert.Nil(t, errs)
	})

	t.Run("field errors", func(t *testing.T) {
		store := newFakeStore()
		store.missingRegions = map[int]bool{42: true}
		farmers := NewFarmerService(store)

		_, errs, err := farmers.Enroll(ctx, "N", 0)
		require.NoError(t, err)
		assert.True(t, errs.Has("name"))
		assert.True(t, errs.Has("region_id"))

		_, errs, err = farmers.Enroll(ctx, "Nasima", 42)
		require.NoError(t, err)
		assert.Equal(t, "Unknown region.", errs.Get("region_id"))
	})

	t.Run("store fault", func(t *testing.T) {
		store := newFakeStore()
		store.err = errors.New("disk full")
		_, errs, err := NewFarmerService(store).Enroll(ctx, "Nasima", 1)
		assert.Error(t, err)
		assert.Nil(t, errs)
	})
}
