package listing

import (
	"github.com/ZilDuck/nft-marketplace/internal/custody"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/gateway"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"go.uber.org/zap"
	"time"
)

type Store interface {
	Create(tx ledger.Tx, seller, asset string, price uint64, now time.Time) (*entity.Listing, error)
	Update(tx ledger.Tx, caller string, key entity.ListingKey, price uint64, now time.Time) (*entity.Listing, error)
	Cancel(tx ledger.Tx, caller string, key entity.ListingKey, now time.Time) (*entity.Listing, error)
	Get(tx ledger.Tx, key entity.ListingKey) (*entity.Listing, error)
}

type store struct {
	gateway gateway.Gateway
}

func NewStore(gateway gateway.Gateway) Store {
	return store{gateway}
}

func (s store) Create(tx ledger.Tx, seller, asset string, price uint64, now time.Time) (*entity.Listing, error) {
	if price == 0 {
		return nil, entity.ErrInvalidPrice
	}
	if err := requireSingleUnit(tx, seller, asset); err != nil {
		return nil, err
	}

	key := entity.ListingKey{Asset: asset, Seller: seller}
	if _, err := tx.Listing(key); err == nil {
		return nil, entity.ErrAlreadyExists
	} else if err != ledger.ErrNotFound {
		return nil, err
	}

	auth, err := s.gateway.Authority(asset, seller)
	if err != nil {
		return nil, err
	}

	l := entity.Listing{
		Address:   auth.Address,
		Seller:    seller,
		Asset:     asset,
		Price:     price,
		Active:    true,
		Nonce:     auth.Nonce,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.gateway.Grant(tx, seller, asset, claimFor(l), 1); err != nil {
		return nil, err
	}

	zap.L().With(zap.String("listing", l.Address), zap.String("key", key.String())).Debug("ListingStore: Created")

	return &l, tx.PutListing(l)
}

// Update re-issues the delegation on every call: any owner-side custody
// interaction since listing drops it.
func (s store) Update(tx ledger.Tx, caller string, key entity.ListingKey, price uint64, now time.Time) (*entity.Listing, error) {
	l, err := s.Get(tx, key)
	if err != nil {
		return nil, err
	}
	if l.Seller != caller {
		return nil, entity.ErrUnauthorizedAccess
	}
	if !l.Active {
		return nil, entity.ErrListingNotActive
	}
	if price == 0 {
		return nil, entity.ErrInvalidPrice
	}
	if err := requireSingleUnit(tx, l.Seller, l.Asset); err != nil {
		return nil, err
	}

	if err := s.gateway.Grant(tx, l.Seller, l.Asset, claimFor(*l), 1); err != nil {
		return nil, err
	}

	l.Price = price
	l.Active = true
	l.UpdatedAt = now

	return l, tx.PutListing(*l)
}

func (s store) Cancel(tx ledger.Tx, caller string, key entity.ListingKey, now time.Time) (*entity.Listing, error) {
	l, err := s.Get(tx, key)
	if err != nil {
		return nil, err
	}
	if !l.Active {
		return nil, entity.ErrListingNotActive
	}
	if l.Seller != caller {
		return nil, entity.ErrUnauthorizedAccess
	}

	if err := s.gateway.Revoke(tx, l.Seller, l.Asset); err != nil {
		return nil, err
	}

	l.Active = false
	l.UpdatedAt = now

	return l, tx.PutListing(*l)
}

// Get treats an absent listing as not active.
func (s store) Get(tx ledger.Tx, key entity.ListingKey) (*entity.Listing, error) {
	l, err := tx.Listing(key)
	if err == ledger.ErrNotFound {
		return nil, entity.ErrListingNotActive
	}

	return l, err
}

func requireSingleUnit(tx ledger.Tx, owner, asset string) error {
	amount, err := custody.BalanceOf(tx, owner, asset)
	if err != nil {
		return err
	}
	if amount != 1 {
		zap.L().With(zap.String("owner", owner), zap.String("asset", asset), zap.Uint64("amount", amount)).
			Debug("ListingStore: Invalid asset amount")
		return entity.ErrInvalidAssetAmount
	}

	return nil
}

func claimFor(l entity.Listing) gateway.Claim {
	return gateway.Claim{Address: l.Address, Nonce: l.Nonce}
}
