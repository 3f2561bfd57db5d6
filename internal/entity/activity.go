package entity

import (
	"crypto/md5"
	"fmt"
	"time"
)

type ActivityType string

const (
	MarketplaceCreatedActivity ActivityType = "marketplace"
	ListingActivity            ActivityType = "listing"
	ListingUpdateActivity      ActivityType = "update"
	SaleActivity               ActivityType = "sale"
	DelistingActivity          ActivityType = "delisting"
)

type Activity struct {
	Type      ActivityType `json:"type"`
	ReceiptID string       `json:"receiptId"`
	Listing   string       `json:"listing"`
	Asset     string       `json:"asset"`
	Seller    string       `json:"seller"`
	Buyer     string       `json:"buyer,omitempty"`
	Price     uint64       `json:"price"`
	Fee       uint64       `json:"fee"`
	Time      time.Time    `json:"time"`
}

func (a Activity) Slug() string {
	return CreateActivitySlug(a.Listing, a.ReceiptID, string(a.Type))
}

func CreateActivitySlug(listing, receiptId, activityType string) string {
	data := []byte(fmt.Sprintf("activity-%s-%s-%s", listing, receiptId, activityType))
	return fmt.Sprintf("%x", md5.Sum(data))
}
