package gateway

import (
	"errors"
	"github.com/ZilDuck/nft-marketplace/internal/authority"
	"github.com/ZilDuck/nft-marketplace/internal/custody"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"go.uber.org/zap"
)

var (
	ErrInvalidAuthority = errors.New("authority does not match derivation")
)

// Claim is what a caller presents to act as a derived authority.
type Claim struct {
	Address string
	Nonce   uint8
}

// Gateway grants a derived authority the right to move an owner's asset without
// taking custody, and proves that right by re-deriving the authority on use.
type Gateway interface {
	Authority(asset, owner string) (*authority.Authority, error)
	Grant(tx ledger.Tx, owner, asset string, claim Claim, amount uint64) error
	Revoke(tx ledger.Tx, owner, asset string) error
	TransferViaDelegate(tx ledger.Tx, asset, from, to string, amount uint64, claim Claim) error
	Delegation(tx ledger.Tx, owner, asset string) (*entity.Delegation, error)
}

type gateway struct {
	namespace string
}

func NewGateway(namespace string) Gateway {
	return gateway{namespace}
}

func (g gateway) Authority(asset, owner string) (*authority.Authority, error) {
	return authority.Find(g.namespace, asset, owner)
}

func (g gateway) verify(asset, owner string, claim Claim) error {
	if !authority.Verify(claim.Address, g.namespace, claim.Nonce, asset, owner) {
		zap.L().With(
			zap.String("asset", asset),
			zap.String("owner", owner),
			zap.String("claim", claim.Address),
		).Warn("Gateway: Authority claim rejected")
		return ErrInvalidAuthority
	}

	return nil
}

// Grant replaces any existing delegation for (asset, owner).
func (g gateway) Grant(tx ledger.Tx, owner, asset string, claim Claim, amount uint64) error {
	if err := g.verify(asset, owner, claim); err != nil {
		return err
	}

	return custody.Approve(tx, asset, owner, claim.Address, amount)
}

func (g gateway) Revoke(tx ledger.Tx, owner, asset string) error {
	return custody.Revoke(tx, asset, owner)
}

func (g gateway) TransferViaDelegate(tx ledger.Tx, asset, from, to string, amount uint64, claim Claim) error {
	if err := g.verify(asset, from, claim); err != nil {
		return err
	}

	return custody.TransferAsDelegate(tx, asset, from, to, amount, claim.Address)
}

func (g gateway) Delegation(tx ledger.Tx, owner, asset string) (*entity.Delegation, error) {
	return custody.Delegation(tx, asset, owner)
}
