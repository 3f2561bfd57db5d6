package entity

import (
	"fmt"
	"github.com/gosimple/slug"
	"time"
)

type ListingKey struct {
	Asset  string `json:"asset"`
	Seller string `json:"seller"`
}

func (k ListingKey) String() string {
	return fmt.Sprintf("%s/%s", k.Asset, k.Seller)
}

type ListingState string

const (
	ListingUncreated ListingState = "uncreated"
	ListingActive    ListingState = "active"
	ListingInactive  ListingState = "inactive"
)

type Listing struct {
	Address   string    `json:"address"`
	Seller    string    `json:"seller"`
	Asset     string    `json:"asset"`
	Price     uint64    `json:"price"`
	Active    bool      `json:"active"`
	Nonce     uint8     `json:"nonce"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l Listing) Key() ListingKey {
	return ListingKey{Asset: l.Asset, Seller: l.Seller}
}

func (l Listing) State() ListingState {
	if l.Active {
		return ListingActive
	}
	return ListingInactive
}

func (l Listing) Slug() string {
	return CreateListingSlug(l.Asset, l.Seller)
}

func CreateListingSlug(asset, seller string) string {
	return slug.Make(fmt.Sprintf("listing-%s-%s", asset, seller))
}
