package listing

import (
	"context"
	"testing"
	"time"

	"github.com/ZilDuck/nft-marketplace/internal/custody"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/gateway"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = entity.ListingKey{Asset: "nft", Seller: "0xseller"}

type fixture struct {
	host    ledger.Host
	gateway gateway.Gateway
	store   Store
}

func newFixture(t *testing.T, units uint64) fixture {
	g := gateway.NewGateway(entity.ListingNamespace)
	f := fixture{ledger.NewMemory(), g, NewStore(g)}

	if units > 0 {
		require.NoError(t, f.run(func(tx ledger.Tx) error {
			return custody.Mint(tx, "0xseller", "nft", units)
		}))
	}

	return f
}

func (f fixture) run(fn func(tx ledger.Tx) error) error {
	access := []ledger.Access{
		ledger.Write(ledger.ListingKey(key)),
		ledger.Write(ledger.DelegationKey("nft", "0xseller")),
		ledger.Write(ledger.AssetKey("0xseller", "nft")),
		ledger.Write(ledger.AssetKey("0xbuyer", "nft")),
	}

	return f.host.Execute(context.Background(), access, fn)
}

func (f fixture) create(t *testing.T, price uint64) *entity.Listing {
	var l *entity.Listing
	require.NoError(t, f.run(func(tx ledger.Tx) (err error) {
		l, err = f.store.Create(tx, "0xseller", "nft", price, time.Now())
		return err
	}))

	return l
}

func (f fixture) delegation(t *testing.T) *entity.Delegation {
	var d *entity.Delegation
	require.NoError(t, f.run(func(tx ledger.Tx) (err error) {
		d, err = f.gateway.Delegation(tx, "0xseller", "nft")
		return err
	}))

	return d
}

func TestCreate(t *testing.T) {
	f := newFixture(t, 1)
	l := f.create(t, 500)

	assert.True(t, l.Active)
	assert.Equal(t, uint64(500), l.Price)
	assert.Equal(t, entity.ListingActive, l.State())

	d := f.delegation(t)
	require.NotNil(t, d)
	assert.Equal(t, l.Address, d.Delegate)
	assert.Equal(t, uint64(1), d.Amount)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		units uint64
		price uint64
		err   error
	}{
		{"zero price", 1, 0, entity.ErrInvalidPrice},
		{"no asset", 0, 10, entity.ErrInvalidAssetAmount},
		{"more than one unit", 2, 10, entity.ErrInvalidAssetAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.units)
			err := f.run(func(tx ledger.Tx) error {
				_, err := f.store.Create(tx, "0xseller", "nft", tt.price, time.Now())
				return err
			})
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	f := newFixture(t, 1)
	f.create(t, 500)

	err := f.run(func(tx ledger.Tx) error {
		_, err := f.store.Create(tx, "0xseller", "nft", 600, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrAlreadyExists)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, 1)
	created := f.create(t, 500)

	var updated *entity.Listing
	require.NoError(t, f.run(func(tx ledger.Tx) (err error) {
		updated, err = f.store.Update(tx, "0xseller", key, 700, time.Now())
		return err
	}))

	assert.Equal(t, uint64(700), updated.Price)
	assert.Equal(t, created.Address, updated.Address)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestUpdate_RegrantsDroppedDelegation(t *testing.T) {
	f := newFixture(t, 1)
	l := f.create(t, 500)

	require.NoError(t, f.run(func(tx ledger.Tx) error {
		return custody.Revoke(tx, "nft", "0xseller")
	}))
	assert.Nil(t, f.delegation(t))

	require.NoError(t, f.run(func(tx ledger.Tx) error {
		_, err := f.store.Update(tx, "0xseller", key, 500, time.Now())
		return err
	}))

	d := f.delegation(t)
	require.NotNil(t, d)
	assert.Equal(t, l.Address, d.Delegate)
}

func TestUpdate_Errors(t *testing.T) {
	f := newFixture(t, 1)

	err := f.run(func(tx ledger.Tx) error {
		_, err := f.store.Update(tx, "0xseller", key, 700, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrListingNotActive)

	f.create(t, 500)

	err = f.run(func(tx ledger.Tx) error {
		_, err := f.store.Update(tx, "0xmallory", key, 1, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrUnauthorizedAccess)

	err = f.run(func(tx ledger.Tx) error {
		_, err := f.store.Update(tx, "0xseller", key, 0, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrInvalidPrice)

	require.NoError(t, f.run(func(tx ledger.Tx) error {
		return custody.Transfer(tx, "nft", "0xseller", "0xbuyer", 1)
	}))
	err = f.run(func(tx ledger.Tx) error {
		_, err := f.store.Update(tx, "0xseller", key, 700, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrInvalidAssetAmount)
}

func TestCancel(t *testing.T) {
	f := newFixture(t, 1)
	f.create(t, 500)

	err := f.run(func(tx ledger.Tx) error {
		_, err := f.store.Cancel(tx, "0xmallory", key, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrUnauthorizedAccess)

	var l *entity.Listing
	require.NoError(t, f.run(func(tx ledger.Tx) (err error) {
		l, err = f.store.Cancel(tx, "0xseller", key, time.Now())
		return err
	}))
	assert.False(t, l.Active)
	assert.Nil(t, f.delegation(t))

	err = f.run(func(tx ledger.Tx) error {
		_, err := f.store.Cancel(tx, "0xseller", key, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrListingNotActive)

	err = f.run(func(tx ledger.Tx) error {
		_, err := f.store.Update(tx, "0xseller", key, 600, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrListingNotActive)
}
