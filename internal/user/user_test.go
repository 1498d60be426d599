package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	digest, err := HashPassword("purple-monkey-dinosaur")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.NotEqual(t, "purple-monkey-dinosaur", digest)

	usr := &User{ID: "u1", Email: "user@example.com", PasswordHash: digest}

	assert.True(t, usr.CheckPassword("purple-monkey-dinosaur"))
	assert.False(t, usr.CheckPassword("dishwasher-funk"))
	assert.False(t, usr.CheckPassword(""))
}

func TestHashPasswordProducesDistinctDigests(t *testing.T) {
	first, err := HashPassword("pw1")
	require.NoError(t, err)
	second, err := HashPassword("pw1")
	require.NoError(t, err)

	// bcrypt salts every digest.
	assert.NotEqual(t, first, second)
}
