package event

import (
	"time"
)

type Type string

const (
	MarketplaceCreatedEvent Type = "MarketplaceCreated"
	NFTListedEvent          Type = "NFTListed"
	NFTListingUpdatedEvent  Type = "NFTListingUpdated"
	NFTSoldEvent            Type = "NFTSold"
	NFTListingCanceledEvent Type = "NFTListingCanceled"
)

var Types = []Type{
	MarketplaceCreatedEvent,
	NFTListedEvent,
	NFTListingUpdatedEvent,
	NFTSoldEvent,
	NFTListingCanceledEvent,
}

type MarketplaceCreated struct {
	Marketplace string    `json:"marketplace"`
	Admin       string    `json:"admin"`
	Fee         uint16    `json:"fee"`
	ReceiptID   string    `json:"receiptId"`
	Time        time.Time `json:"time"`
}

type NFTListed struct {
	Listing   string    `json:"listing"`
	Seller    string    `json:"seller"`
	Asset     string    `json:"asset"`
	Price     uint64    `json:"price"`
	ReceiptID string    `json:"receiptId"`
	Time      time.Time `json:"time"`
}

type NFTListingUpdated struct {
	Listing   string    `json:"listing"`
	Seller    string    `json:"seller"`
	Asset     string    `json:"asset"`
	Price     uint64    `json:"price"`
	ReceiptID string    `json:"receiptId"`
	Time      time.Time `json:"time"`
}

// NFTSold carries seller, asset and fee beyond the on-ledger notification so
// listeners do not have to look the listing up again.
type NFTSold struct {
	Listing   string    `json:"listing"`
	Buyer     string    `json:"buyer"`
	Price     uint64    `json:"price"`
	Seller    string    `json:"seller"`
	Asset     string    `json:"asset"`
	Fee       uint64    `json:"fee"`
	ReceiptID string    `json:"receiptId"`
	Time      time.Time `json:"time"`
}

type NFTListingCanceled struct {
	Listing   string    `json:"listing"`
	Seller    string    `json:"seller"`
	Asset     string    `json:"asset"`
	ReceiptID string    `json:"receiptId"`
	Time      time.Time `json:"time"`
}
