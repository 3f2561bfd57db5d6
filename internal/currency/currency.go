package currency

import (
	"errors"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"math"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

func BalanceOf(tx ledger.Tx, owner string) (uint64, error) {
	return tx.CurrencyBalance(owner)
}

func Deposit(tx ledger.Tx, owner string, amount uint64) error {
	balance, err := tx.CurrencyBalance(owner)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}

	return tx.SetCurrencyBalance(owner, balance+amount)
}

// Transfer debits from and credits to unconditionally; the caller has already authorized it.
func Transfer(tx ledger.Tx, from, to string, amount uint64) error {
	balance, err := tx.CurrencyBalance(from)
	if err != nil {
		return err
	}
	if balance < amount {
		return ErrInsufficientFunds
	}
	if err := tx.SetCurrencyBalance(from, balance-amount); err != nil {
		return err
	}

	return Deposit(tx, to, amount)
}
