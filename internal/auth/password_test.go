package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("abcde", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "abcde"))
	assert.False(t, CheckPassword(hash, "abcdf"))
}

func TestHashPassword_InvalidCostFallsBack(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("abcde", 99)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
