package custody

import (
	"errors"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"math"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than 0")
	ErrInsufficientAssets = errors.New("insufficient asset balance")
	ErrNoDelegation       = errors.New("no delegation for asset")
	ErrDelegateMismatch   = errors.New("delegate does not match delegation")
	ErrDelegationExceeded = errors.New("amount exceeds delegated amount")
	ErrSupplyOverflow     = errors.New("asset balance overflow")
)

func BalanceOf(tx ledger.Tx, owner, asset string) (uint64, error) {
	return tx.AssetBalance(owner, asset)
}

func Mint(tx ledger.Tx, owner, asset string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	balance, err := tx.AssetBalance(owner, asset)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}

	return tx.SetAssetBalance(owner, asset, balance+amount)
}

// Transfer is an owner-signed move. Any interaction by the owner drops their
// delegation for the asset.
func Transfer(tx ledger.Tx, asset, from, to string, amount uint64) error {
	if err := move(tx, asset, from, to, amount); err != nil {
		return err
	}

	return Revoke(tx, asset, from)
}

func Approve(tx ledger.Tx, asset, owner, delegate string, amount uint64) error {
	return tx.PutDelegation(entity.Delegation{
		Asset:    asset,
		Owner:    owner,
		Delegate: delegate,
		Amount:   amount,
	})
}

func Revoke(tx ledger.Tx, asset, owner string) error {
	return tx.DeleteDelegation(asset, owner)
}

func Delegation(tx ledger.Tx, asset, owner string) (*entity.Delegation, error) {
	d, err := tx.Delegation(asset, owner)
	if err == ledger.ErrNotFound {
		return nil, nil
	}

	return d, err
}

// TransferAsDelegate spends from the delegated amount. The delegation is cleared once exhausted.
func TransferAsDelegate(tx ledger.Tx, asset, from, to string, amount uint64, delegate string) error {
	d, err := Delegation(tx, asset, from)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrNoDelegation
	}
	if d.Delegate != delegate {
		return ErrDelegateMismatch
	}
	if amount > d.Amount {
		return ErrDelegationExceeded
	}

	if err := move(tx, asset, from, to, amount); err != nil {
		return err
	}

	d.Amount -= amount
	if d.Amount == 0 {
		return tx.DeleteDelegation(asset, from)
	}

	return tx.PutDelegation(*d)
}

func move(tx ledger.Tx, asset, from, to string, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	balance, err := tx.AssetBalance(from, asset)
	if err != nil {
		return err
	}
	if balance < amount {
		return ErrInsufficientAssets
	}
	if err := tx.SetAssetBalance(from, asset, balance-amount); err != nil {
		return err
	}

	balance, err = tx.AssetBalance(to, asset)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return ErrSupplyOverflow
	}

	return tx.SetAssetBalance(to, asset, balance+amount)
}
