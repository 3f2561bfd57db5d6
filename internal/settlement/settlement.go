package settlement

import (
	"github.com/ZilDuck/nft-marketplace/internal/currency"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/gateway"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

const bpsDenominator = 10000

type Settlement struct {
	Price        uint64 `json:"price"`
	Fee          uint64 `json:"fee"`
	SellerAmount uint64 `json:"sellerAmount"`
}

// SplitFee returns floor(price*feeBps/10000) and the remainder. The product is
// taken in 256 bits so every uint64 price is exact. feeBps above 10000 is clamped.
func SplitFee(price uint64, feeBps uint16) (fee, sellerAmount uint64) {
	if feeBps > bpsDenominator {
		feeBps = bpsDenominator
	}

	product := new(uint256.Int).Mul(uint256.NewInt(price), uint256.NewInt(uint64(feeBps)))
	fee = product.Div(product, uint256.NewInt(bpsDenominator)).Uint64()

	return fee, price - fee
}

type Engine interface {
	Buy(tx ledger.Tx, buyer string, market entity.Marketplace, listing entity.Listing) (*Settlement, error)
}

type engine struct {
	gateway gateway.Gateway
}

func NewEngine(gateway gateway.Gateway) Engine {
	return engine{gateway}
}

// Buy pays the seller and the admin, moves the asset through the listing's
// delegation and closes the listing. It relies on the host to discard every
// effect if any step fails.
func (e engine) Buy(tx ledger.Tx, buyer string, market entity.Marketplace, listing entity.Listing) (*Settlement, error) {
	if !listing.Active {
		return nil, entity.ErrListingNotActive
	}

	fee, sellerAmount := SplitFee(listing.Price, market.FeeBps)

	zap.L().With(
		zap.String("listing", listing.Address),
		zap.String("buyer", buyer),
		zap.Uint64("price", listing.Price),
		zap.Uint64("fee", fee),
		zap.Uint64("sellerAmount", sellerAmount),
	).Debug("Settlement: Buy")

	if err := currency.Transfer(tx, buyer, listing.Seller, sellerAmount); err != nil {
		return nil, err
	}

	if fee > 0 {
		if err := currency.Transfer(tx, buyer, market.Admin, fee); err != nil {
			return nil, err
		}
	}

	claim := gateway.Claim{Address: listing.Address, Nonce: listing.Nonce}
	if err := e.gateway.TransferViaDelegate(tx, listing.Asset, listing.Seller, buyer, 1, claim); err != nil {
		return nil, err
	}

	listing.Active = false
	if err := tx.PutListing(listing); err != nil {
		return nil, err
	}

	return &Settlement{Price: listing.Price, Fee: fee, SellerAmount: sellerAmount}, nil
}
