package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPassword("Secret1!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "Secret1!", hash)
	assert.True(t, CheckPasswordHash(hash, "Secret1!"))
	assert.False(t, CheckPasswordHash(hash, "secret1!"))
	assert.False(t, CheckPasswordHash("not-a-hash", "Secret1!"))
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("Secret1!", bcrypt.MinCost)
	require.NoError(t, err)
	b, err := HashPassword("Secret1!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOldCostStillVerifies(t *testing.T) {
	old, err := HashPassword("Secret1!", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, NeedsRehash(old, bcrypt.MinCost+1))
	assert.False(t, NeedsRehash(old, bcrypt.MinCost))
	assert.True(t, CheckPasswordHash(old, "Secret1!"))
}
