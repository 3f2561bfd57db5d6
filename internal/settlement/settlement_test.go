package settlement

import (
	"context"
	"math"
	"testing"

	"github.com/ZilDuck/nft-marketplace/internal/currency"
	"github.com/ZilDuck/nft-marketplace/internal/custody"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/gateway"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		price        uint64
		bps          uint16
		fee          uint64
		sellerAmount uint64
	}{
		{1_000_000_000, 250, 25_000_000, 975_000_000},
		{1_000_000_000, 0, 0, 1_000_000_000},
		{1_000_000_000, 10000, 1_000_000_000, 0},
		{1, 9999, 0, 1},
		{399, 250, 9, 390},
		{math.MaxUint64, 10000, math.MaxUint64, 0},
		{math.MaxUint64, 5000, math.MaxUint64 / 2, math.MaxUint64 - math.MaxUint64/2},
	}

	for _, tt := range tests {
		fee, sellerAmount := SplitFee(tt.price, tt.bps)
		assert.Equal(t, tt.fee, fee, "price %d bps %d", tt.price, tt.bps)
		assert.Equal(t, tt.sellerAmount, sellerAmount, "price %d bps %d", tt.price, tt.bps)
		assert.Equal(t, tt.price, fee+sellerAmount)
	}
}

func TestSplitFee_ClampsBps(t *testing.T) {
	fee, sellerAmount := SplitFee(100, 20000)
	assert.Equal(t, uint64(100), fee)
	assert.Zero(t, sellerAmount)
}

type fixture struct {
	host    ledger.Host
	gateway gateway.Gateway
	engine  Engine
	market  entity.Marketplace
	listing entity.Listing
}

func (f fixture) access() []ledger.Access {
	return []ledger.Access{
		ledger.Write(ledger.ListingKey(f.listing.Key())),
		ledger.Write(ledger.DelegationKey("nft", "0xseller")),
		ledger.Write(ledger.AssetKey("0xseller", "nft")),
		ledger.Write(ledger.AssetKey("0xbuyer", "nft")),
		ledger.Write(ledger.CurrencyKey("0xbuyer")),
		ledger.Write(ledger.CurrencyKey("0xseller")),
		ledger.Write(ledger.CurrencyKey("0xadmin")),
	}
}

func newFixture(t *testing.T, price uint64, funds uint64) fixture {
	g := gateway.NewGateway(entity.ListingNamespace)
	auth, err := g.Authority("nft", "0xseller")
	require.NoError(t, err)

	f := fixture{
		host:    ledger.NewMemory(),
		gateway: g,
		engine:  NewEngine(g),
		market:  entity.Marketplace{Admin: "0xadmin", FeeBps: 250},
		listing: entity.Listing{
			Address: auth.Address,
			Nonce:   auth.Nonce,
			Seller:  "0xseller",
			Asset:   "nft",
			Price:   price,
			Active:  true,
		},
	}

	require.NoError(t, f.host.Execute(context.Background(), f.access(), func(tx ledger.Tx) error {
		if err := custody.Mint(tx, "0xseller", "nft", 1); err != nil {
			return err
		}
		if err := currency.Deposit(tx, "0xbuyer", funds); err != nil {
			return err
		}
		claim := gateway.Claim{Address: f.listing.Address, Nonce: f.listing.Nonce}
		if err := g.Grant(tx, "0xseller", "nft", claim, 1); err != nil {
			return err
		}
		return tx.PutListing(f.listing)
	}))

	return f
}

func (f fixture) balances(t *testing.T) (buyer, seller, admin, buyerAssets, sellerAssets uint64) {
	require.NoError(t, f.host.Execute(context.Background(), f.access(), func(tx ledger.Tx) error {
		buyer, _ = currency.BalanceOf(tx, "0xbuyer")
		seller, _ = currency.BalanceOf(tx, "0xseller")
		admin, _ = currency.BalanceOf(tx, "0xadmin")
		buyerAssets, _ = custody.BalanceOf(tx, "0xbuyer", "nft")
		sellerAssets, _ = custody.BalanceOf(tx, "0xseller", "nft")
		return nil
	}))
	return
}

func TestBuy(t *testing.T) {
	f := newFixture(t, 1_000_000_000, 2_000_000_000)

	var result *Settlement
	err := f.host.Execute(context.Background(), f.access(), func(tx ledger.Tx) (err error) {
		result, err = f.engine.Buy(tx, "0xbuyer", f.market, f.listing)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(25_000_000), result.Fee)
	assert.Equal(t, uint64(975_000_000), result.SellerAmount)

	buyer, seller, admin, buyerAssets, sellerAssets := f.balances(t)
	assert.Equal(t, uint64(1_000_000_000), buyer)
	assert.Equal(t, uint64(975_000_000), seller)
	assert.Equal(t, uint64(25_000_000), admin)
	assert.Equal(t, uint64(1), buyerAssets)
	assert.Zero(t, sellerAssets)

	require.NoError(t, f.host.Execute(context.Background(), f.access(), func(tx ledger.Tx) error {
		l, err := tx.Listing(f.listing.Key())
		require.NoError(t, err)
		assert.False(t, l.Active)
		return nil
	}))
}

func TestBuy_InsufficientFundsLeavesNoEffect(t *testing.T) {
	f := newFixture(t, 1_000, 999)

	err := f.host.Execute(context.Background(), f.access(), func(tx ledger.Tx) error {
		_, err := f.engine.Buy(tx, "0xbuyer", f.market, f.listing)
		return err
	})
	require.ErrorIs(t, err, currency.ErrInsufficientFunds)

	buyer, seller, admin, buyerAssets, sellerAssets := f.balances(t)
	assert.Equal(t, uint64(999), buyer)
	assert.Zero(t, seller)
	assert.Zero(t, admin)
	assert.Zero(t, buyerAssets)
	assert.Equal(t, uint64(1), sellerAssets)
}

func TestBuy_MissingDelegationRollsBackPayment(t *testing.T) {
	f := newFixture(t, 1_000, 1_000)

	require.NoError(t, f.host.Execute(context.Background(), f.access(), func(tx ledger.Tx) error {
		return custody.Revoke(tx, "nft", "0xseller")
	}))

	err := f.host.Execute(context.Background(), f.access(), func(tx ledger.Tx) error {
		_, err := f.engine.Buy(tx, "0xbuyer", f.market, f.listing)
		return err
	})
	require.ErrorIs(t, err, custody.ErrNoDelegation)

	buyer, seller, admin, _, sellerAssets := f.balances(t)
	assert.Equal(t, uint64(1_000), buyer)
	assert.Zero(t, seller)
	assert.Zero(t, admin)
	assert.Equal(t, uint64(1), sellerAssets)
}

func TestBuy_InactiveListing(t *testing.T) {
	f := newFixture(t, 1_000, 1_000)
	inactive := f.listing
	inactive.Active = false

	err := f.host.Execute(context.Background(), f.access(), func(tx ledger.Tx) error {
		_, err := f.engine.Buy(tx, "0xbuyer", f.market, inactive)
		return err
	})
	assert.ErrorIs(t, err, entity.ErrListingNotActive)
}
