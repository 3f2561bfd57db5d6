package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZilDuck/nft-marketplace/internal/activity"
	"github.com/ZilDuck/nft-marketplace/internal/api"
	"github.com/ZilDuck/nft-marketplace/internal/client"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/gateway"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"github.com/ZilDuck/nft-marketplace/internal/listing"
	"github.com/ZilDuck/nft-marketplace/internal/marketplace"
	"github.com/ZilDuck/nft-marketplace/internal/registry"
	"github.com/ZilDuck/nft-marketplace/internal/repository"
	"github.com/ZilDuck/nft-marketplace/internal/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedEmitter struct {
	feed activity.Feed
}

func (e feedEmitter) EmitEvent(eventType event.Type, msg interface{}) {
	e.feed.Record(eventType, msg)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	host := ledger.NewMemory()
	g := gateway.NewGateway(entity.ListingNamespace)
	feed := activity.NewFeed(100, time.Hour)
	svc := marketplace.NewService(host, registry.NewRegistry(), listing.NewStore(g), settlement.NewEngine(g), feedEmitter{feed})

	srv := api.NewServer(svc, feed, repository.NewFeedActivityRepository(feed), nil, api.Options{
		RateLimit: 1000,
		Burst:     1000,
		Faucet:    marketplace.NewFaucet(host),
	})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return ts
}

func run(t *testing.T, url, wallet string, args ...string) error {
	t.Helper()

	return newApp().Run(append([]string{"marketplace", "--api", url, "--wallet", wallet}, args...))
}

func TestInitRejectsFeeAboveMaximum(t *testing.T) {
	ts := newTestServer(t)

	err := run(t, ts.URL, "0xadmin", "init", "--fee", "10001")
	assert.ErrorIs(t, err, entity.ErrInvalidFee)

	_, err = client.New(ts.URL, "").GetMarketplace(context.Background())
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestCommandsDriveTheMarketplace(t *testing.T) {
	ts := newTestServer(t)

	require.NoError(t, run(t, ts.URL, "0xadmin", "init", "--fee", "10000"))
	require.NoError(t, run(t, ts.URL, "0xadmin", "mint", "--owner", "0xseller", "--asset", "nft"))
	require.NoError(t, run(t, ts.URL, "0xadmin", "fund", "--owner", "0xbuyer", "--amount", "50"))
	require.NoError(t, run(t, ts.URL, "0xseller", "list", "--asset", "nft", "--price", "80"))
	require.NoError(t, run(t, ts.URL, "0xseller", "update", "--asset", "nft", "--seller", "0xseller", "--price", "50"))
	require.NoError(t, run(t, ts.URL, "0xbuyer", "buy", "--asset", "nft", "--seller", "0xseller"))
	require.NoError(t, run(t, ts.URL, "0xbuyer", "stats"))
	require.NoError(t, run(t, ts.URL, "0xbuyer", "activity", "--asset", "nft"))

	err := run(t, ts.URL, "0xseller", "cancel", "--asset", "nft", "--seller", "0xseller")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	m, err := client.New(ts.URL, "").GetMarketplace(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(10000), m.FeeBps)

	b, err := client.New(ts.URL, "").Balances(context.Background(), "0xadmin", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), b.Currency)
}
