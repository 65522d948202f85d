package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "confsite/pkg/domain-errors"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("admin-token")
	require.NoError(t, err)
	assert.True(t, IsHash(hash))

	assert.NoError(t, Verify("admin-token", hash))

	err = Verify("guess", hash)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = Verify("admin-token", "not-a-hash")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestHashRejects(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = Hash(strings.Repeat("x", 100))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestIsHash(t *testing.T) {
	assert.False(t, IsHash("plain-token"))
	assert.False(t, IsHash("$2a$short"))
	assert.True(t, IsHash("$2a$10$"+strings.Repeat("a", 53)))
}
