package registry

import (
	"github.com/ZilDuck/nft-marketplace/internal/authority"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"time"
)

type Registry interface {
	Initialize(tx ledger.Tx, admin string, feeBps uint16, now time.Time) (*entity.Marketplace, error)
	Get(tx ledger.Tx) (*entity.Marketplace, error)
}

type registry struct{}

func NewRegistry() Registry {
	return registry{}
}

func (r registry) Initialize(tx ledger.Tx, admin string, feeBps uint16, now time.Time) (*entity.Marketplace, error) {
	if feeBps > entity.MaxFeeBps {
		return nil, entity.ErrInvalidFee
	}

	if _, err := tx.Registry(); err == nil {
		return nil, entity.ErrAlreadyInitialized
	} else if err != ledger.ErrNotFound {
		return nil, err
	}

	auth, err := authority.Find(entity.MarketplaceNamespace)
	if err != nil {
		return nil, err
	}

	m := entity.Marketplace{
		Address:   auth.Address,
		Admin:     admin,
		FeeBps:    feeBps,
		Nonce:     auth.Nonce,
		CreatedAt: now,
	}

	return &m, tx.PutRegistry(m)
}

func (r registry) Get(tx ledger.Tx) (*entity.Marketplace, error) {
	m, err := tx.Registry()
	if err == ledger.ErrNotFound {
		return nil, entity.ErrNotInitialized
	}

	return m, err
}
