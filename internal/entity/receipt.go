package entity

import (
	"time"
)

type Operation string

const (
	InitializeMarketplaceOp Operation = "initialize_marketplace"
	ListOp                  Operation = "list"
	UpdateListingOp         Operation = "update_listing"
	BuyOp                   Operation = "buy"
	CancelListingOp         Operation = "cancel_listing"
)

// Receipt is returned for every committed operation. ID stands in for the
// transaction signature of the host.
type Receipt struct {
	ID           string       `json:"id"`
	Operation    Operation    `json:"operation"`
	Caller       string       `json:"caller"`
	Marketplace  *Marketplace `json:"marketplace,omitempty"`
	Listing      *Listing     `json:"listing,omitempty"`
	Fee          uint64       `json:"fee"`
	SellerAmount uint64       `json:"sellerAmount"`
	Time         time.Time    `json:"time"`
}
