package main

import (
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/client"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/messenger"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
)

func main() {
	config.Init("cli")

	if err := newApp().Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("CLI command failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "marketplace",
		Usage: "drive the escrow marketplace API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:8080", EnvVars: []string{"MARKETPLACE_API"}, Usage: "marketplace API base url"},
			&cli.StringFlag{Name: "wallet", EnvVars: []string{"MARKETPLACE_WALLET"}, Usage: "wallet acting as caller"},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "initialize the marketplace with the wallet as admin",
				Action: initMarketplace,
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "fee", Value: 0, Usage: "platform fee in basis points"},
				},
			},
			{
				Name:   "show",
				Usage:  "show the marketplace",
				Action: showMarketplace,
			},
			{
				Name:   "list",
				Usage:  "list an asset for sale",
				Action: listAsset,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "asset", Required: true},
					&cli.Uint64Flag{Name: "price", Required: true},
				},
			},
			{
				Name:   "listing",
				Usage:  "show a listing",
				Action: showListing,
				Flags:  listingFlags(),
			},
			{
				Name:   "update",
				Usage:  "change the price of a listing",
				Action: updateListing,
				Flags: append(listingFlags(),
					&cli.Uint64Flag{Name: "price", Required: true},
				),
			},
			{
				Name:   "buy",
				Usage:  "buy a listed asset",
				Action: buyListing,
				Flags:  listingFlags(),
			},
			{
				Name:   "cancel",
				Usage:  "cancel a listing",
				Action: cancelListing,
				Flags:  listingFlags(),
			},
			{
				Name:   "stats",
				Usage:  "market statistics",
				Action: showStats,
			},
			{
				Name:   "activity",
				Usage:  "recent activity, optionally for one asset",
				Action: showActivity,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "asset"},
					&cli.IntFlag{Name: "limit", Value: 20},
				},
			},
			{
				Name:   "fund",
				Usage:  "credit currency to a wallet (dev faucet)",
				Action: fund,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner", Required: true},
					&cli.Uint64Flag{Name: "amount", Required: true},
				},
			},
			{
				Name:   "mint",
				Usage:  "mint asset units to a wallet (dev faucet)",
				Action: mint,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner", Required: true},
					&cli.StringFlag{Name: "asset", Required: true},
					&cli.Uint64Flag{Name: "amount", Value: 1},
				},
			},
			{
				Name:   "balance",
				Usage:  "show wallet balances (dev faucet)",
				Action: balance,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner", Required: true},
					&cli.StringFlag{Name: "asset"},
				},
			},
			{
				Name:   "watch",
				Usage:  "print notifications published to RabbitMQ",
				Action: watch,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "topic", Value: "marketplace.#"},
				},
			},
		},
	}
}

func listingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "asset", Required: true},
		&cli.StringFlag{Name: "seller", Required: true},
	}
}

func newClient(c *cli.Context) *client.Client {
	return client.New(c.String("api"), c.String("wallet"))
}

func listingKey(c *cli.Context) entity.ListingKey {
	return entity.ListingKey{Asset: c.String("asset"), Seller: c.String("seller")}
}

func output(v interface{}, err error) error {
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))

	return nil
}

func initMarketplace(c *cli.Context) error {
	fee := c.Uint("fee")
	if fee > uint(entity.MaxFeeBps) {
		return entity.ErrInvalidFee
	}

	return output(newClient(c).InitializeMarketplace(c.Context, uint16(fee)))
}

func showMarketplace(c *cli.Context) error {
	return output(newClient(c).GetMarketplace(c.Context))
}

func listAsset(c *cli.Context) error {
	return output(newClient(c).List(c.Context, c.String("asset"), c.Uint64("price")))
}

func showListing(c *cli.Context) error {
	return output(newClient(c).GetListing(c.Context, listingKey(c)))
}

func updateListing(c *cli.Context) error {
	return output(newClient(c).UpdateListing(c.Context, listingKey(c), c.Uint64("price")))
}

func buyListing(c *cli.Context) error {
	return output(newClient(c).Buy(c.Context, listingKey(c)))
}

func cancelListing(c *cli.Context) error {
	return output(newClient(c).CancelListing(c.Context, listingKey(c)))
}

func showStats(c *cli.Context) error {
	return output(newClient(c).Stats(c.Context))
}

func showActivity(c *cli.Context) error {
	return output(newClient(c).Activity(c.Context, c.String("asset"), c.Int("limit")))
}

func fund(c *cli.Context) error {
	return output(newClient(c).Fund(c.Context, c.String("owner"), c.Uint64("amount")))
}

func mint(c *cli.Context) error {
	return output(newClient(c).Mint(c.Context, c.String("owner"), c.String("asset"), c.Uint64("amount")))
}

func balance(c *cli.Context) error {
	return output(newClient(c).Balances(c.Context, c.String("owner"), c.String("asset")))
}

func watch(c *cli.Context) error {
	m := messenger.NewMessenger(config.Get().Notify.AmqpUri, false)
	defer m.Close()

	return m.ConsumeMessages(c.Context, "", c.String("topic"), func(routingKey string, body []byte) {
		fmt.Printf("%s %s\n", routingKey, string(body))
	})
}
