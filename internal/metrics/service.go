package metrics

import (
	"context"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/marketplace"
	"time"
)

type instrumented struct {
	marketplace.Service
	metrics *Metrics
}

// Instrument records outcome and latency of every state changing operation.
func Instrument(svc marketplace.Service, m *Metrics) marketplace.Service {
	return instrumented{svc, m}
}

func (s instrumented) observe(op entity.Operation, start time.Time, err error) {
	s.metrics.Operations.WithLabelValues(string(op), Outcome(err)).Inc()
	s.metrics.OperationDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
}

func (s instrumented) InitializeMarketplace(ctx context.Context, admin string, feeBps uint16) (r *entity.Receipt, err error) {
	defer func(start time.Time) { s.observe(entity.InitializeMarketplaceOp, start, err) }(time.Now())
	return s.Service.InitializeMarketplace(ctx, admin, feeBps)
}

func (s instrumented) List(ctx context.Context, seller, asset string, price uint64) (r *entity.Receipt, err error) {
	defer func(start time.Time) { s.observe(entity.ListOp, start, err) }(time.Now())
	return s.Service.List(ctx, seller, asset, price)
}

func (s instrumented) UpdateListing(ctx context.Context, caller string, key entity.ListingKey, price uint64) (r *entity.Receipt, err error) {
	defer func(start time.Time) { s.observe(entity.UpdateListingOp, start, err) }(time.Now())
	return s.Service.UpdateListing(ctx, caller, key, price)
}

func (s instrumented) Buy(ctx context.Context, buyer string, key entity.ListingKey) (r *entity.Receipt, err error) {
	defer func(start time.Time) { s.observe(entity.BuyOp, start, err) }(time.Now())
	return s.Service.Buy(ctx, buyer, key)
}

func (s instrumented) CancelListing(ctx context.Context, caller string, key entity.ListingKey) (r *entity.Receipt, err error) {
	defer func(start time.Time) { s.observe(entity.CancelListingOp, start, err) }(time.Now())
	return s.Service.CancelListing(ctx, caller, key)
}
