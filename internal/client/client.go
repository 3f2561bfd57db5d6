package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/activity"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const walletHeader = "X-Wallet"

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Balance struct {
	Owner    string `json:"owner"`
	Currency uint64 `json:"currency"`
	Asset    string `json:"asset,omitempty"`
	Units    uint64 `json:"units"`
}

type Client struct {
	baseUrl string
	wallet  string
	client  *retryablehttp.Client
}

func New(baseUrl, wallet string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil

	return NewWithClient(baseUrl, wallet, rc)
}

func NewWithClient(baseUrl, wallet string, client *retryablehttp.Client) *Client {
	return &Client{strings.TrimRight(baseUrl, "/"), wallet, client}
}

func (c *Client) InitializeMarketplace(ctx context.Context, fee uint16) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := c.do(ctx, http.MethodPost, "/marketplace", map[string]interface{}{"fee": fee}, &receipt)

	return &receipt, err
}

func (c *Client) GetMarketplace(ctx context.Context) (*entity.Marketplace, error) {
	var m entity.Marketplace
	err := c.do(ctx, http.MethodGet, "/marketplace", nil, &m)

	return &m, err
}

func (c *Client) List(ctx context.Context, asset string, price uint64) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := c.do(ctx, http.MethodPost, "/listings", map[string]interface{}{"asset": asset, "price": price}, &receipt)

	return &receipt, err
}

func (c *Client) GetListing(ctx context.Context, key entity.ListingKey) (*entity.Listing, error) {
	var l entity.Listing
	err := c.do(ctx, http.MethodGet, listingPath(key), nil, &l)

	return &l, err
}

func (c *Client) UpdateListing(ctx context.Context, key entity.ListingKey, price uint64) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := c.do(ctx, http.MethodPut, listingPath(key), map[string]interface{}{"price": price}, &receipt)

	return &receipt, err
}

func (c *Client) CancelListing(ctx context.Context, key entity.ListingKey) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := c.do(ctx, http.MethodDelete, listingPath(key), nil, &receipt)

	return &receipt, err
}

func (c *Client) Buy(ctx context.Context, key entity.ListingKey) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := c.do(ctx, http.MethodPost, listingPath(key)+"/buy", nil, &receipt)

	return &receipt, err
}

func (c *Client) Stats(ctx context.Context) (*activity.Stats, error) {
	var stats activity.Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &stats)

	return &stats, err
}

func (c *Client) Activity(ctx context.Context, asset string, limit int) ([]entity.Activity, error) {
	path := "/activity"
	if asset != "" {
		path = fmt.Sprintf("/assets/%s/activity", url.PathEscape(asset))
	}
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	activities := make([]entity.Activity, 0)
	err := c.do(ctx, http.MethodGet, path, nil, &activities)

	return activities, err
}

func (c *Client) Fund(ctx context.Context, owner string, amount uint64) (*Balance, error) {
	var b Balance
	err := c.do(ctx, http.MethodPost, "/dev/fund", map[string]interface{}{"owner": owner, "amount": amount}, &b)

	return &b, err
}

func (c *Client) Mint(ctx context.Context, owner, asset string, amount uint64) (*Balance, error) {
	var b Balance
	err := c.do(ctx, http.MethodPost, "/dev/mint", map[string]interface{}{"owner": owner, "asset": asset, "amount": amount}, &b)

	return &b, err
}

func (c *Client) Balances(ctx context.Context, owner, asset string) (*Balance, error) {
	path := fmt.Sprintf("/dev/balances/%s", url.PathEscape(owner))
	if asset != "" {
		path = fmt.Sprintf("%s?asset=%s", path, url.QueryEscape(asset))
	}

	var b Balance
	err := c.do(ctx, http.MethodGet, path, nil, &b)

	return &b, err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseUrl+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.wallet != "" {
		req.Header.Set(walletHeader, c.wallet)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("method", method), zap.String("path", path)).Error("Client: Request failed")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, out)
}

func listingPath(key entity.ListingKey) string {
	return fmt.Sprintf("/listings/%s/%s", url.PathEscape(key.Asset), url.PathEscape(key.Seller))
}
