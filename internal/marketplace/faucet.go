package marketplace

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/custody"
	"github.com/ZilDuck/nft-marketplace/internal/currency"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"go.uber.org/zap"
)

// Faucet funds wallets and moves assets directly. Account funding belongs to the
// host; this only exists for development networks and tests.
type Faucet interface {
	Fund(ctx context.Context, owner string, amount uint64) (uint64, error)
	Mint(ctx context.Context, owner, asset string, amount uint64) (uint64, error)
	Transfer(ctx context.Context, asset, from, to string) error
	Balances(ctx context.Context, owner, asset string) (currencyBalance uint64, assetBalance uint64, err error)
}

type faucet struct {
	host ledger.Host
}

func NewFaucet(host ledger.Host) Faucet {
	return faucet{host}
}

func (f faucet) Fund(ctx context.Context, owner string, amount uint64) (balance uint64, err error) {
	if err := requireIdentity(owner); err != nil {
		return 0, err
	}

	err = f.host.Execute(ctx, []ledger.Access{ledger.Write(ledger.CurrencyKey(owner))}, func(tx ledger.Tx) error {
		if err := currency.Deposit(tx, owner, amount); err != nil {
			return err
		}
		balance, err = currency.BalanceOf(tx, owner)
		return err
	})
	if err == nil {
		zap.L().With(zap.String("owner", owner), zap.Uint64("amount", amount)).Info("Faucet: Funded")
	}

	return balance, err
}

func (f faucet) Mint(ctx context.Context, owner, asset string, amount uint64) (balance uint64, err error) {
	if err := requireIdentity(owner, asset); err != nil {
		return 0, err
	}

	err = f.host.Execute(ctx, []ledger.Access{ledger.Write(ledger.AssetKey(owner, asset))}, func(tx ledger.Tx) error {
		if err := custody.Mint(tx, owner, asset, amount); err != nil {
			return err
		}
		balance, err = custody.BalanceOf(tx, owner, asset)
		return err
	})
	if err == nil {
		zap.L().With(zap.String("owner", owner), zap.String("asset", asset)).Info("Faucet: Minted")
	}

	return balance, err
}

func (f faucet) Transfer(ctx context.Context, asset, from, to string) error {
	if err := requireIdentity(asset, from, to); err != nil {
		return err
	}

	access := []ledger.Access{
		ledger.Write(ledger.AssetKey(from, asset)),
		ledger.Write(ledger.AssetKey(to, asset)),
		ledger.Write(ledger.DelegationKey(asset, from)),
	}

	return f.host.Execute(ctx, access, func(tx ledger.Tx) error {
		return custody.Transfer(tx, asset, from, to, 1)
	})
}

func (f faucet) Balances(ctx context.Context, owner, asset string) (currencyBalance uint64, assetBalance uint64, err error) {
	access := []ledger.Access{ledger.Read(ledger.CurrencyKey(owner))}
	if asset != "" {
		access = append(access, ledger.Read(ledger.AssetKey(owner, asset)))
	}

	err = f.host.Execute(ctx, access, func(tx ledger.Tx) error {
		if currencyBalance, err = currency.BalanceOf(tx, owner); err != nil {
			return err
		}
		if asset == "" {
			return nil
		}
		assetBalance, err = custody.BalanceOf(tx, owner, asset)
		return err
	})

	return currencyBalance, assetBalance, err
}
