package marketplace

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"github.com/ZilDuck/nft-marketplace/internal/listing"
	"github.com/ZilDuck/nft-marketplace/internal/registry"
	"github.com/ZilDuck/nft-marketplace/internal/settlement"
	"github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
	"strings"
	"time"
)

// Service validates each request, runs it as one host operation and emits the
// notification once the operation has committed.
type Service interface {
	InitializeMarketplace(ctx context.Context, admin string, feeBps uint16) (*entity.Receipt, error)
	List(ctx context.Context, seller, asset string, price uint64) (*entity.Receipt, error)
	UpdateListing(ctx context.Context, caller string, key entity.ListingKey, price uint64) (*entity.Receipt, error)
	Buy(ctx context.Context, buyer string, key entity.ListingKey) (*entity.Receipt, error)
	CancelListing(ctx context.Context, caller string, key entity.ListingKey) (*entity.Receipt, error)

	GetMarketplace(ctx context.Context) (*entity.Marketplace, error)
	GetListing(ctx context.Context, key entity.ListingKey) (*entity.Listing, error)
}

type Emitter interface {
	EmitEvent(eventType event.Type, msg interface{})
}

type service struct {
	host       ledger.Host
	registry   registry.Registry
	listings   listing.Store
	settlement settlement.Engine
	events     Emitter
	clock      func() time.Time
}

func NewService(
	host ledger.Host,
	registry registry.Registry,
	listings listing.Store,
	settlement settlement.Engine,
	events Emitter,
) Service {
	return service{host, registry, listings, settlement, events, func() time.Time { return time.Now().UTC() }}
}

func (s service) InitializeMarketplace(ctx context.Context, admin string, feeBps uint16) (*entity.Receipt, error) {
	if err := requireIdentity(admin); err != nil {
		return nil, err
	}

	now := s.clock()
	var m *entity.Marketplace
	err := s.host.Execute(ctx, []ledger.Access{ledger.Write(ledger.RegistryKey)}, func(tx ledger.Tx) (err error) {
		m, err = s.registry.Initialize(tx, admin, feeBps, now)
		return err
	})
	if err != nil {
		return nil, s.fail(entity.InitializeMarketplaceOp, admin, err)
	}

	receipt := s.receipt(entity.InitializeMarketplaceOp, admin, now)
	receipt.Marketplace = m

	s.events.EmitEvent(event.MarketplaceCreatedEvent, event.MarketplaceCreated{
		Marketplace: m.Address,
		Admin:       m.Admin,
		Fee:         m.FeeBps,
		ReceiptID:   receipt.ID,
		Time:        now,
	})

	return receipt, nil
}

func (s service) List(ctx context.Context, seller, asset string, price uint64) (*entity.Receipt, error) {
	if err := requireIdentity(seller, asset); err != nil {
		return nil, err
	}

	key := entity.ListingKey{Asset: asset, Seller: seller}
	access := []ledger.Access{
		ledger.Read(ledger.RegistryKey),
		ledger.Write(ledger.ListingKey(key)),
		ledger.Write(ledger.DelegationKey(asset, seller)),
		ledger.Read(ledger.AssetKey(seller, asset)),
	}

	now := s.clock()
	var l *entity.Listing
	err := s.host.Execute(ctx, access, func(tx ledger.Tx) (err error) {
		if _, err = s.registry.Get(tx); err != nil {
			return err
		}
		l, err = s.listings.Create(tx, seller, asset, price, now)
		return err
	})
	if err != nil {
		return nil, s.fail(entity.ListOp, seller, err)
	}

	receipt := s.receipt(entity.ListOp, seller, now)
	receipt.Listing = l

	s.events.EmitEvent(event.NFTListedEvent, event.NFTListed{
		Listing:   l.Address,
		Seller:    l.Seller,
		Asset:     l.Asset,
		Price:     l.Price,
		ReceiptID: receipt.ID,
		Time:      now,
	})

	return receipt, nil
}

func (s service) UpdateListing(ctx context.Context, caller string, key entity.ListingKey, price uint64) (*entity.Receipt, error) {
	if err := requireIdentity(caller, key.Asset, key.Seller); err != nil {
		return nil, err
	}

	access := []ledger.Access{
		ledger.Write(ledger.ListingKey(key)),
		ledger.Write(ledger.DelegationKey(key.Asset, key.Seller)),
		ledger.Read(ledger.AssetKey(key.Seller, key.Asset)),
	}

	now := s.clock()
	var l *entity.Listing
	err := s.host.Execute(ctx, access, func(tx ledger.Tx) (err error) {
		l, err = s.listings.Update(tx, caller, key, price, now)
		return err
	})
	if err != nil {
		return nil, s.fail(entity.UpdateListingOp, caller, err)
	}

	receipt := s.receipt(entity.UpdateListingOp, caller, now)
	receipt.Listing = l

	s.events.EmitEvent(event.NFTListingUpdatedEvent, event.NFTListingUpdated{
		Listing:   l.Address,
		Seller:    l.Seller,
		Asset:     l.Asset,
		Price:     l.Price,
		ReceiptID: receipt.ID,
		Time:      now,
	})

	return receipt, nil
}

func (s service) Buy(ctx context.Context, buyer string, key entity.ListingKey) (*entity.Receipt, error) {
	if err := requireIdentity(buyer, key.Asset, key.Seller); err != nil {
		return nil, err
	}

	// The admin account has to be declared up front, so the registry is read first.
	market, err := s.GetMarketplace(ctx)
	if err != nil {
		return nil, s.fail(entity.BuyOp, buyer, err)
	}

	access := []ledger.Access{
		ledger.Read(ledger.RegistryKey),
		ledger.Write(ledger.ListingKey(key)),
		ledger.Write(ledger.DelegationKey(key.Asset, key.Seller)),
		ledger.Write(ledger.AssetKey(key.Seller, key.Asset)),
		ledger.Write(ledger.AssetKey(buyer, key.Asset)),
		ledger.Write(ledger.CurrencyKey(buyer)),
		ledger.Write(ledger.CurrencyKey(key.Seller)),
		ledger.Write(ledger.CurrencyKey(market.Admin)),
	}

	now := s.clock()
	var l *entity.Listing
	var result *settlement.Settlement
	err = s.host.Execute(ctx, access, func(tx ledger.Tx) error {
		m, err := s.registry.Get(tx)
		if err != nil {
			return err
		}
		if m.Admin != market.Admin {
			return ledger.ErrConflict
		}

		if l, err = s.listings.Get(tx, key); err != nil {
			return err
		}

		result, err = s.settlement.Buy(tx, buyer, *m, *l)
		l.Active = false
		return err
	})
	if err != nil {
		return nil, s.fail(entity.BuyOp, buyer, err)
	}

	receipt := s.receipt(entity.BuyOp, buyer, now)
	receipt.Listing = l
	receipt.Fee = result.Fee
	receipt.SellerAmount = result.SellerAmount

	s.events.EmitEvent(event.NFTSoldEvent, event.NFTSold{
		Listing:   l.Address,
		Buyer:     buyer,
		Price:     result.Price,
		Seller:    l.Seller,
		Asset:     l.Asset,
		Fee:       result.Fee,
		ReceiptID: receipt.ID,
		Time:      now,
	})

	return receipt, nil
}

func (s service) CancelListing(ctx context.Context, caller string, key entity.ListingKey) (*entity.Receipt, error) {
	if err := requireIdentity(caller, key.Asset, key.Seller); err != nil {
		return nil, err
	}

	access := []ledger.Access{
		ledger.Write(ledger.ListingKey(key)),
		ledger.Write(ledger.DelegationKey(key.Asset, key.Seller)),
	}

	now := s.clock()
	var l *entity.Listing
	err := s.host.Execute(ctx, access, func(tx ledger.Tx) (err error) {
		l, err = s.listings.Cancel(tx, caller, key, now)
		return err
	})
	if err != nil {
		return nil, s.fail(entity.CancelListingOp, caller, err)
	}

	receipt := s.receipt(entity.CancelListingOp, caller, now)
	receipt.Listing = l

	s.events.EmitEvent(event.NFTListingCanceledEvent, event.NFTListingCanceled{
		Listing:   l.Address,
		Seller:    l.Seller,
		Asset:     l.Asset,
		ReceiptID: receipt.ID,
		Time:      now,
	})

	return receipt, nil
}

func (s service) GetMarketplace(ctx context.Context) (*entity.Marketplace, error) {
	var m *entity.Marketplace
	err := s.host.Execute(ctx, []ledger.Access{ledger.Read(ledger.RegistryKey)}, func(tx ledger.Tx) (err error) {
		m, err = s.registry.Get(tx)
		return err
	})

	return m, err
}

func (s service) GetListing(ctx context.Context, key entity.ListingKey) (*entity.Listing, error) {
	var l *entity.Listing
	err := s.host.Execute(ctx, []ledger.Access{ledger.Read(ledger.ListingKey(key))}, func(tx ledger.Tx) (err error) {
		l, err = tx.Listing(key)
		if err == ledger.ErrNotFound {
			return entity.ErrListingNotFound
		}
		return err
	})

	return l, err
}

func (s service) receipt(op entity.Operation, caller string, now time.Time) *entity.Receipt {
	id := ""
	if u, err := uuid.NewV4(); err == nil {
		id = u.String()
	} else {
		zap.L().With(zap.Error(err)).Error("Marketplace: Failed to create receipt id")
	}

	return &entity.Receipt{ID: id, Operation: op, Caller: caller, Time: now}
}

func (s service) fail(op entity.Operation, caller string, err error) error {
	zap.L().With(
		zap.String("operation", string(op)),
		zap.String("caller", caller),
		zap.Error(err),
	).Info("Marketplace: Operation rejected")

	return err
}

func requireIdentity(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return entity.ErrInvalidIdentity
		}
	}
	return nil
}
