package api

import (
	"errors"
	"github.com/ZilDuck/nft-marketplace/internal/currency"
	"github.com/ZilDuck/nft-marketplace/internal/custody"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/gateway"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"net/http"
)

var (
	ErrMissingWallet = errors.New("missing X-Wallet header")
	ErrInvalidBody   = errors.New("invalid request body")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrFaucetOff     = errors.New("dev faucet disabled")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrListingNotFound),
		errors.Is(err, entity.ErrNotInitialized),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ErrFaucetOff):
		return http.StatusNotFound

	case errors.Is(err, entity.ErrUnauthorizedAccess):
		return http.StatusForbidden

	case errors.Is(err, ErrMissingWallet):
		return http.StatusUnauthorized

	case errors.Is(err, currency.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests

	case errors.Is(err, entity.ErrInvalidAssetAmount),
		errors.Is(err, entity.ErrInvalidFee),
		errors.Is(err, entity.ErrInvalidPrice),
		errors.Is(err, entity.ErrInvalidIdentity),
		errors.Is(err, custody.ErrInvalidAmount),
		errors.Is(err, custody.ErrInsufficientAssets),
		errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest

	case errors.Is(err, entity.ErrListingNotActive),
		errors.Is(err, entity.ErrAlreadyExists),
		errors.Is(err, entity.ErrAlreadyInitialized),
		errors.Is(err, ledger.ErrConflict),
		errors.Is(err, custody.ErrNoDelegation),
		errors.Is(err, custody.ErrDelegateMismatch),
		errors.Is(err, custody.ErrDelegationExceeded),
		errors.Is(err, custody.ErrSupplyOverflow),
		errors.Is(err, currency.ErrBalanceOverflow),
		errors.Is(err, gateway.ErrInvalidAuthority):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}
