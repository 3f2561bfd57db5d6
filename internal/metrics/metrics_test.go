package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/marketplace"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "unauthorized", Outcome(entity.ErrUnauthorizedAccess))
	assert.Equal(t, "not_active", Outcome(fmt.Errorf("buy: %w", entity.ErrListingNotActive)))
	assert.Equal(t, "conflict", Outcome(entity.ErrAlreadyExists))
	assert.Equal(t, "invalid", Outcome(entity.ErrInvalidPrice))
	assert.Equal(t, "error", Outcome(errors.New("boom")))
}

func TestRegister(t *testing.T) {
	m := New()
	events := event.NewManager()
	m.Register(events)

	events.EmitEvent(event.NFTListedEvent, event.NFTListed{})
	events.EmitEvent(event.NFTListedEvent, event.NFTListed{})
	events.EmitEvent(event.NFTSoldEvent, event.NFTSold{Price: 1000, Fee: 25})
	events.Close()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActiveListings))
	assert.Equal(t, float64(1000), testutil.ToFloat64(m.SaleVolume))
	assert.Equal(t, float64(25), testutil.ToFloat64(m.Fees))
}

type stubService struct {
	marketplace.Service
	err error
}

func (s stubService) Buy(ctx context.Context, buyer string, key entity.ListingKey) (*entity.Receipt, error) {
	return nil, s.err
}

func TestInstrument(t *testing.T) {
	m := New()

	_, _ = Instrument(stubService{}, m).Buy(context.Background(), "0xbuyer", entity.ListingKey{})
	_, _ = Instrument(stubService{err: entity.ErrListingNotActive}, m).Buy(context.Background(), "0xbuyer", entity.ListingKey{})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations.WithLabelValues("buy", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Operations.WithLabelValues("buy", "not_active")))
}
