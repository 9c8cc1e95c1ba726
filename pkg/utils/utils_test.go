package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	password := "testpassword"
	hashedPassword, err := HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEmpty(t, hashedPassword)
	assert.NotEqual(t, password, string(hashedPassword))
}

func TestCheckPasswordHash(t *testing.T) {
	password := "testpassword"
	hashedPassword, _ := HashPassword(password, bcrypt.MinCost)

	assert.True(t, CheckPasswordHash(password, hashedPassword))
	assert.False(t, CheckPasswordHash("wrongpassword", hashedPassword))
	assert.False(t, CheckPasswordHash(password, nil))
}

func TestSameEmail(t *testing.T) {
	assert.True(t, SameEmail("admin@chapa.co", "Admin@Chapa.co"))
	assert.True(t, SameEmail(" admin@chapa.co", "admin@chapa.co "))
	assert.False(t, SameEmail("admin@chapa.co", "super@chapa.co"))
}
