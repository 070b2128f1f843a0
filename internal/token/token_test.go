package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldcup-predict/internal/token"
)

func TestGenerateAndVerify(t *testing.T) {
	params := token.Params{TokenBytes: 32, BcryptCost: bcryptCostForTests, PrefixLen: 16}

	tok, hash, err := params.Generate()
	require.NoError(t, err)
	assert.Len(t, tok, 64)
	assert.NotEmpty(t, hash)
	assert.True(t, params.ValidFormat(tok))

	assert.True(t, token.Verify(tok, hash))
	assert.False(t, token.Verify("deadbeef", hash))
}

func TestGenerateUniqueness(t *testing.T) {
	params := token.Params{TokenBytes: 32, BcryptCost: bcryptCostForTests, PrefixLen: 16}

	tok1, _, err := params.Generate()
	require.NoError(t, err)
	tok2, _, err := params.Generate()
	require.NoError(t, err)

	assert.NotEqual(t, tok1, tok2)
}

func TestPrefix(t *testing.T) {
	params := token.Params{TokenBytes: 32, BcryptCost: bcryptCostForTests, PrefixLen: 16}
	tok, _, err := params.Generate()
	require.NoError(t, err)

	prefix := params.Prefix(tok)
	assert.Len(t, prefix, 16)
	assert.Equal(t, tok[:16], prefix)
}

func TestValidFormat(t *testing.T) {
	params := token.Params{TokenBytes: 32, BcryptCost: bcryptCostForTests, PrefixLen: 16}

	tok, _, err := params.Generate()
	require.NoError(t, err)
	assert.True(t, params.ValidFormat(tok))
	assert.False(t, params.ValidFormat("too-short"))
	assert.False(t, params.ValidFormat("zz"+tok[2:]))
}

// bcryptCostForTests keeps test suites fast; production uses
// config.Session.BcryptRounds (default 12).
const bcryptCostForTests = 4
