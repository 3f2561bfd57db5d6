package entity

import "errors"

var (
	ErrInvalidAssetAmount = errors.New("asset amount must be exactly 1")
	ErrListingNotActive   = errors.New("listing is not active")
	ErrUnauthorizedAccess = errors.New("unauthorized access")
	ErrAlreadyInitialized = errors.New("marketplace already initialized")
	ErrAlreadyExists      = errors.New("listing already exists")

	ErrNotInitialized = errors.New("marketplace not initialized")
	ErrInvalidFee     = errors.New("fee basis points must be between 0 and 10000")
	ErrInvalidPrice   = errors.New("price must be greater than 0")
)

var (
	ErrInvalidIdentity  = errors.New("identity is required")
	ErrListingNotFound  = errors.New("listing not found")
)
