package registry

import (
	"context"
	"testing"
	"time"

	"github.com/ZilDuck/nft-marketplace/internal/authority"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(host ledger.Host, fn func(tx ledger.Tx) error) error {
	return host.Execute(context.Background(), []ledger.Access{ledger.Write(ledger.RegistryKey)}, fn)
}

func TestInitialize(t *testing.T) {
	host := ledger.NewMemory()
	r := NewRegistry()
	now := time.Now().UTC()

	var m *entity.Marketplace
	require.NoError(t, run(host, func(tx ledger.Tx) (err error) {
		m, err = r.Initialize(tx, "0xadmin", 250, now)
		return err
	}))

	assert.Equal(t, "0xadmin", m.Admin)
	assert.Equal(t, uint16(250), m.FeeBps)
	assert.True(t, authority.Verify(m.Address, entity.MarketplaceNamespace, m.Nonce))

	require.NoError(t, run(host, func(tx ledger.Tx) error {
		got, err := r.Get(tx)
		require.NoError(t, err)
		assert.Equal(t, *m, *got)
		return nil
	}))
}

func TestInitialize_OnlyOnce(t *testing.T) {
	host := ledger.NewMemory()
	r := NewRegistry()

	require.NoError(t, run(host, func(tx ledger.Tx) error {
		_, err := r.Initialize(tx, "0xadmin", 250, time.Now())
		return err
	}))

	err := run(host, func(tx ledger.Tx) error {
		_, err := r.Initialize(tx, "0xother", 100, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrAlreadyInitialized)

	require.NoError(t, run(host, func(tx ledger.Tx) error {
		m, err := r.Get(tx)
		require.NoError(t, err)
		assert.Equal(t, "0xadmin", m.Admin)
		assert.Equal(t, uint16(250), m.FeeBps)
		return nil
	}))
}

func TestInitialize_FeeBounds(t *testing.T) {
	r := NewRegistry()

	for _, fee := range []uint16{0, 10000} {
		err := run(ledger.NewMemory(), func(tx ledger.Tx) error {
			_, err := r.Initialize(tx, "0xadmin", fee, time.Now())
			return err
		})
		assert.NoError(t, err, "fee %d", fee)
	}

	err := run(ledger.NewMemory(), func(tx ledger.Tx) error {
		_, err := r.Initialize(tx, "0xadmin", 10001, time.Now())
		return err
	})
	assert.ErrorIs(t, err, entity.ErrInvalidFee)
}

func TestGet_NotInitialized(t *testing.T) {
	err := run(ledger.NewMemory(), func(tx ledger.Tx) error {
		_, err := NewRegistry().Get(tx)
		return err
	})
	assert.ErrorIs(t, err, entity.ErrNotInitialized)
}
