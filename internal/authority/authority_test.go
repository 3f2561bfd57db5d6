package authority

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind_IsDeterministic(t *testing.T) {
	a, err := Find("listing", "asset-1", "0xseller")
	require.NoError(t, err)

	b, err := Find("listing", "asset-1", "0xseller")
	require.NoError(t, err)

	assert.Equal(t, a.Address, b.Address)
	assert.Equal(t, a.Nonce, b.Nonce)
	assert.True(t, strings.HasPrefix(a.Address, "zil1"))
}

func TestFind_ReturnsHighestValidNonce(t *testing.T) {
	a, err := Find("listing", "asset-1", "0xseller")
	require.NoError(t, err)

	assert.True(t, valid(digest("listing", a.Nonce, "asset-1", "0xseller")))
	for n := 255; n > int(a.Nonce); n-- {
		assert.False(t, valid(digest("listing", uint8(n), "asset-1", "0xseller")), "nonce %d", n)
	}
}

func TestFind_SeedsAndNamespaceChangeAddress(t *testing.T) {
	base, err := Find("listing", "asset-1", "0xseller")
	require.NoError(t, err)

	otherAsset, err := Find("listing", "asset-2", "0xseller")
	require.NoError(t, err)
	otherSeller, err := Find("listing", "asset-1", "0xbuyer")
	require.NoError(t, err)
	otherNamespace, err := Find("marketplace", "asset-1", "0xseller")
	require.NoError(t, err)

	assert.NotEqual(t, base.Address, otherAsset.Address)
	assert.NotEqual(t, base.Address, otherSeller.Address)
	assert.NotEqual(t, base.Address, otherNamespace.Address)
}

func TestFind_SeedBoundariesAreSeparated(t *testing.T) {
	a, err := Find("listing", "ab", "c")
	require.NoError(t, err)
	b, err := Find("listing", "a", "bc")
	require.NoError(t, err)

	assert.NotEqual(t, a.Address, b.Address)
}

func TestVerify(t *testing.T) {
	a, err := Find("listing", "asset-1", "0xseller")
	require.NoError(t, err)

	assert.True(t, a.Verify())
	assert.True(t, Verify(a.Address, "listing", a.Nonce, "asset-1", "0xseller"))

	assert.False(t, Verify(a.Address, "listing", a.Nonce, "asset-1", "0xother"))
	assert.False(t, Verify(a.Address, "marketplace", a.Nonce, "asset-1", "0xseller"))
	assert.False(t, Verify("", "listing", a.Nonce, "asset-1", "0xseller"))
	if a.Nonce > 0 {
		assert.False(t, Verify(a.Address, "listing", a.Nonce-1, "asset-1", "0xseller"))
	}
}

func TestDerive_MatchesFind(t *testing.T) {
	a, err := Find("marketplace")
	require.NoError(t, err)

	assert.Equal(t, a.Address, Derive("marketplace", a.Nonce))
}
