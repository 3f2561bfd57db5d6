package entity

import (
	"time"
)

const (
	MaxFeeBps uint16 = 10000

	MarketplaceNamespace = "marketplace"
	ListingNamespace     = "listing"
)

// Marketplace is the singleton registry record. Nonce is fixed at creation.
type Marketplace struct {
	Address   string    `json:"address"`
	Admin     string    `json:"admin"`
	FeeBps    uint16    `json:"feeBps"`
	Nonce     uint8     `json:"nonce"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m Marketplace) Slug() string {
	return MarketplaceNamespace
}
