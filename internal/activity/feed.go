package activity

import (
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"sort"
	"sync"
	"time"
)

type Stats struct {
	TotalVolume    uint64  `json:"totalVolume"`
	TotalSales     uint64  `json:"totalSales"`
	TotalFees      uint64  `json:"totalFees"`
	UniqueSellers  int     `json:"uniqueSellers"`
	AvgPrice       float64 `json:"avgPrice"`
	ActiveListings int64   `json:"activeListings"`
}

// Sink receives every recorded activity, typically the search index.
type Sink interface {
	Add(a entity.Activity)
}

type Subscriber interface {
	AddEventListener(eventType event.Type, callback func(msg interface{}))
}

type Feed interface {
	Register(events Subscriber)
	Record(eventType event.Type, msg interface{}) (*entity.Activity, bool)
	Recent(limit int) []entity.Activity
	ForAsset(asset string) []entity.Activity
	Stats() Stats
}

type entry struct {
	seq      uint64
	activity entity.Activity
}

type feed struct {
	size  int
	cache *cache.Cache
	sinks []Sink

	mu             sync.Mutex
	seq            uint64
	volume         uint64
	sales          uint64
	fees           uint64
	sellers        map[string]struct{}
	activeListings int64
}

func NewFeed(size int, ttl time.Duration, sinks ...Sink) Feed {
	if size <= 0 {
		size = 100
	}

	return &feed{
		size:    size,
		cache:   cache.New(ttl, 2*ttl),
		sinks:   sinks,
		sellers: make(map[string]struct{}),
	}
}

func (f *feed) Register(events Subscriber) {
	for _, t := range event.Types {
		eventType := t
		events.AddEventListener(eventType, func(msg interface{}) {
			f.Record(eventType, msg)
		})
	}
}

func (f *feed) Record(eventType event.Type, msg interface{}) (*entity.Activity, bool) {
	a, ok := toActivity(eventType, msg)
	if !ok {
		zap.L().With(zap.String("type", string(eventType))).Warn("Activity: Unknown notification")
		return nil, false
	}

	f.mu.Lock()
	f.seq++
	f.aggregate(a)
	f.cache.Set(a.Slug(), entry{f.seq, a}, cache.DefaultExpiration)
	f.trim()
	f.mu.Unlock()

	for _, sink := range f.sinks {
		sink.Add(a)
	}

	return &a, true
}

func (f *feed) aggregate(a entity.Activity) {
	switch a.Type {
	case entity.ListingActivity:
		f.activeListings++
		f.sellers[a.Seller] = struct{}{}
	case entity.SaleActivity:
		f.activeListings--
		f.sales++
		f.volume += a.Price
		f.fees += a.Fee
	case entity.DelistingActivity:
		f.activeListings--
	}
}

// trim evicts the oldest entries above the feed size. Callers hold mu.
func (f *feed) trim() {
	entries := f.entries()
	if len(entries) <= f.size {
		return
	}
	for _, e := range entries[f.size:] {
		f.cache.Delete(e.activity.Slug())
	}
}

// entries returns the cached activities newest first.
func (f *feed) entries() []entry {
	items := f.cache.Items()
	entries := make([]entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.Object.(entry))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq > entries[j].seq
	})

	return entries
}

func (f *feed) Recent(limit int) []entity.Activity {
	f.mu.Lock()
	entries := f.entries()
	f.mu.Unlock()

	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}

	activities := make([]entity.Activity, 0, limit)
	for _, e := range entries[:limit] {
		activities = append(activities, e.activity)
	}

	return activities
}

func (f *feed) ForAsset(asset string) []entity.Activity {
	f.mu.Lock()
	entries := f.entries()
	f.mu.Unlock()

	activities := make([]entity.Activity, 0)
	for _, e := range entries {
		if e.activity.Asset == asset {
			activities = append(activities, e.activity)
		}
	}

	return activities
}

func (f *feed) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := Stats{
		TotalVolume:    f.volume,
		TotalSales:     f.sales,
		TotalFees:      f.fees,
		UniqueSellers:  len(f.sellers),
		ActiveListings: f.activeListings,
	}
	if f.sales > 0 {
		stats.AvgPrice = float64(f.volume) / float64(f.sales)
	}

	return stats
}

func toActivity(eventType event.Type, msg interface{}) (entity.Activity, bool) {
	switch e := msg.(type) {
	case event.MarketplaceCreated:
		return entity.Activity{
			Type:      entity.MarketplaceCreatedActivity,
			ReceiptID: e.ReceiptID,
			Listing:   e.Marketplace,
			Seller:    e.Admin,
			Fee:       uint64(e.Fee),
			Time:      e.Time,
		}, eventType == event.MarketplaceCreatedEvent
	case event.NFTListed:
		return entity.Activity{
			Type:      entity.ListingActivity,
			ReceiptID: e.ReceiptID,
			Listing:   e.Listing,
			Asset:     e.Asset,
			Seller:    e.Seller,
			Price:     e.Price,
			Time:      e.Time,
		}, eventType == event.NFTListedEvent
	case event.NFTListingUpdated:
		return entity.Activity{
			Type:      entity.ListingUpdateActivity,
			ReceiptID: e.ReceiptID,
			Listing:   e.Listing,
			Asset:     e.Asset,
			Seller:    e.Seller,
			Price:     e.Price,
			Time:      e.Time,
		}, eventType == event.NFTListingUpdatedEvent
	case event.NFTSold:
		return entity.Activity{
			Type:      entity.SaleActivity,
			ReceiptID: e.ReceiptID,
			Listing:   e.Listing,
			Asset:     e.Asset,
			Seller:    e.Seller,
			Buyer:     e.Buyer,
			Price:     e.Price,
			Fee:       e.Fee,
			Time:      e.Time,
		}, eventType == event.NFTSoldEvent
	case event.NFTListingCanceled:
		return entity.Activity{
			Type:      entity.DelistingActivity,
			ReceiptID: e.ReceiptID,
			Listing:   e.Listing,
			Asset:     e.Asset,
			Seller:    e.Seller,
			Time:      e.Time,
		}, eventType == event.NFTListingCanceledEvent
	}

	return entity.Activity{}, false
}
