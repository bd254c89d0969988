// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	first, err := HashPassword("same input")
	require.NoError(t, err)

	second, err := HashPassword("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", "not-a-hash")
	assert.Error(t, err)
}

func TestVerifyPasswordTimingSafeMissingHash(t *testing.T) {
	// Missing stored hash burns a dummy verify and still reports false.
	ok, _, err := VerifyPasswordTimingSafe("anything", nil)
	require.NoError(t, err)
	assert.False(t, ok)

	empty := ""
	ok, _, err = VerifyPasswordTimingSafe("anything", &empty)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordTimingSafeMatch(t *testing.T) {
	hash, err := HashPassword("s3cret-passw0rd")
	require.NoError(t, err)

	ok, rehash, err := VerifyPasswordTimingSafe("s3cret-passw0rd", &hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, rehash)
}

func TestGenerateVerificationCode(t *testing.T) {
	seen := map[string]bool{}

	for range 20 {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		for _, c := range code {
			assert.True(t, c >= '0' && c <= '9')
		}
		seen[code] = true
	}

	// 20 draws from a million-value space should not all collide.
	assert.Greater(t, len(seen), 1)
}
