package gateway

import (
	"context"
	"testing"

	"github.com/ZilDuck/nft-marketplace/internal/custody"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(host ledger.Host, fn func(tx ledger.Tx) error) error {
	access := []ledger.Access{
		ledger.Write(ledger.AssetKey("0xseller", "nft")),
		ledger.Write(ledger.AssetKey("0xbuyer", "nft")),
		ledger.Write(ledger.DelegationKey("nft", "0xseller")),
	}

	return host.Execute(context.Background(), access, fn)
}

func claimOf(t *testing.T, g Gateway, asset, owner string) Claim {
	auth, err := g.Authority(asset, owner)
	require.NoError(t, err)

	return Claim{Address: auth.Address, Nonce: auth.Nonce}
}

func TestGrantAndTransferViaDelegate(t *testing.T) {
	g := NewGateway("listing")
	host := ledger.NewMemory()
	claim := claimOf(t, g, "nft", "0xseller")

	require.NoError(t, run(host, func(tx ledger.Tx) error {
		if err := custody.Mint(tx, "0xseller", "nft", 1); err != nil {
			return err
		}
		return g.Grant(tx, "0xseller", "nft", claim, 1)
	}))

	require.NoError(t, run(host, func(tx ledger.Tx) error {
		d, err := g.Delegation(tx, "0xseller", "nft")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, claim.Address, d.Delegate)
		assert.Equal(t, uint64(1), d.Amount)
		return nil
	}))

	require.NoError(t, run(host, func(tx ledger.Tx) error {
		return g.TransferViaDelegate(tx, "nft", "0xseller", "0xbuyer", 1, claim)
	}))

	require.NoError(t, run(host, func(tx ledger.Tx) error {
		buyer, _ := custody.BalanceOf(tx, "0xbuyer", "nft")
		assert.Equal(t, uint64(1), buyer)
		return nil
	}))
}

func TestGrant_RejectsForeignAuthority(t *testing.T) {
	g := NewGateway("listing")
	foreign := claimOf(t, g, "nft", "0xbuyer")

	err := run(ledger.NewMemory(), func(tx ledger.Tx) error {
		return g.Grant(tx, "0xseller", "nft", foreign, 1)
	})
	assert.ErrorIs(t, err, ErrInvalidAuthority)
}

func TestTransferViaDelegate_RejectsForgedClaim(t *testing.T) {
	g := NewGateway("listing")
	host := ledger.NewMemory()
	claim := claimOf(t, g, "nft", "0xseller")

	require.NoError(t, run(host, func(tx ledger.Tx) error {
		if err := custody.Mint(tx, "0xseller", "nft", 1); err != nil {
			return err
		}
		return g.Grant(tx, "0xseller", "nft", claim, 1)
	}))

	forged := Claim{Address: claim.Address, Nonce: claim.Nonce + 1}
	err := run(host, func(tx ledger.Tx) error {
		return g.TransferViaDelegate(tx, "nft", "0xseller", "0xbuyer", 1, forged)
	})
	assert.ErrorIs(t, err, ErrInvalidAuthority)

	other := NewGateway("other")
	err = run(host, func(tx ledger.Tx) error {
		return other.TransferViaDelegate(tx, "nft", "0xseller", "0xbuyer", 1, claim)
	})
	assert.ErrorIs(t, err, ErrInvalidAuthority)
}

func TestRevoke(t *testing.T) {
	g := NewGateway("listing")
	host := ledger.NewMemory()
	claim := claimOf(t, g, "nft", "0xseller")

	require.NoError(t, run(host, func(tx ledger.Tx) error {
		if err := custody.Mint(tx, "0xseller", "nft", 1); err != nil {
			return err
		}
		if err := g.Grant(tx, "0xseller", "nft", claim, 1); err != nil {
			return err
		}
		return g.Revoke(tx, "0xseller", "nft")
	}))

	err := run(host, func(tx ledger.Tx) error {
		return g.TransferViaDelegate(tx, "nft", "0xseller", "0xbuyer", 1, claim)
	})
	assert.ErrorIs(t, err, custody.ErrNoDelegation)
}
