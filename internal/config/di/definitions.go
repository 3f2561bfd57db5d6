package di

import (
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/activity"
	"github.com/ZilDuck/nft-marketplace/internal/api"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/daemon"
	"github.com/ZilDuck/nft-marketplace/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/gateway"
	"github.com/ZilDuck/nft-marketplace/internal/ledger"
	"github.com/ZilDuck/nft-marketplace/internal/listing"
	"github.com/ZilDuck/nft-marketplace/internal/marketplace"
	"github.com/ZilDuck/nft-marketplace/internal/messenger"
	"github.com/ZilDuck/nft-marketplace/internal/metrics"
	"github.com/ZilDuck/nft-marketplace/internal/registry"
	"github.com/ZilDuck/nft-marketplace/internal/repository"
	"github.com/ZilDuck/nft-marketplace/internal/settlement"
	"github.com/sarulabs/di/v2"
	"time"
)

func Definitions(cfg *config.Config) []di.Def {
	return []di.Def{
		{
			Name: "events",
			Build: func(ctn di.Container) (interface{}, error) {
				return event.NewManager(), nil
			},
		},
		{
			Name: "ledger",
			Build: func(ctn di.Container) (interface{}, error) {
				switch cfg.Ledger.Driver {
				case "memory", "":
					return ledger.NewMemory(), nil
				case "postgres":
					pg, err := ledger.Connect(cfg.Ledger.PostgresDsn)
					if err != nil {
						return nil, err
					}
					if err := pg.Migrate(); err != nil {
						return nil, err
					}
					return pg, nil
				}
				return nil, fmt.Errorf("unknown ledger driver %q", cfg.Ledger.Driver)
			},
			Close: func(obj interface{}) error {
				if pg, ok := obj.(*ledger.Postgres); ok {
					return pg.Close()
				}
				return nil
			},
		},
		{
			Name: "gateway",
			Build: func(ctn di.Container) (interface{}, error) {
				namespace := cfg.Namespace
				if namespace == "" {
					namespace = entity.ListingNamespace
				}
				return gateway.NewGateway(namespace), nil
			},
		},
		{
			Name: "registry",
			Build: func(ctn di.Container) (interface{}, error) {
				return registry.NewRegistry(), nil
			},
		},
		{
			Name: "listing.store",
			Build: func(ctn di.Container) (interface{}, error) {
				return listing.NewStore(ctn.Get("gateway").(gateway.Gateway)), nil
			},
		},
		{
			Name: "settlement",
			Build: func(ctn di.Container) (interface{}, error) {
				return settlement.NewEngine(ctn.Get("gateway").(gateway.Gateway)), nil
			},
		},
		{
			Name: "metrics",
			Build: func(ctn di.Container) (interface{}, error) {
				return metrics.New(), nil
			},
		},
		{
			Name: "marketplace",
			Build: func(ctn di.Container) (interface{}, error) {
				svc := marketplace.NewService(
					ctn.Get("ledger").(ledger.Host),
					ctn.Get("registry").(registry.Registry),
					ctn.Get("listing.store").(listing.Store),
					ctn.Get("settlement").(settlement.Engine),
					ctn.Get("events").(*event.Manager),
				)
				return metrics.Instrument(svc, ctn.Get("metrics").(*metrics.Metrics)), nil
			},
		},
		{
			Name: "faucet",
			Build: func(ctn di.Container) (interface{}, error) {
				return marketplace.NewFaucet(ctn.Get("ledger").(ledger.Host)), nil
			},
		},
		{
			Name: "elastic",
			Build: func(ctn di.Container) (interface{}, error) {
				if !cfg.ElasticSearch.Enabled {
					return nil, nil
				}
				return elastic_search.New(cfg)
			},
		},
		{
			Name: "activity.feed",
			Build: func(ctn di.Container) (interface{}, error) {
				ttl := time.Duration(cfg.Activity.FeedTtl) * time.Second
				if es, ok := ctn.Get("elastic").(elastic_search.Index); ok {
					return activity.NewFeed(cfg.Activity.FeedSize, ttl, es), nil
				}
				return activity.NewFeed(cfg.Activity.FeedSize, ttl), nil
			},
		},
		{
			Name: "activity.repository",
			Build: func(ctn di.Container) (interface{}, error) {
				if es, ok := ctn.Get("elastic").(elastic_search.Index); ok {
					return repository.NewActivityRepository(es), nil
				}
				return repository.NewFeedActivityRepository(ctn.Get("activity.feed").(activity.Feed)), nil
			},
		},
		{
			Name: "notifier",
			Build: func(ctn di.Container) (interface{}, error) {
				switch cfg.Notify.Driver {
				case "":
					return nil, nil
				case "amqp":
					return messenger.NewMessenger(cfg.Notify.AmqpUri, true), nil
				case "sqs":
					return messenger.NewSqsNotifier(cfg.Aws.Region, cfg.Aws.AccessKey, cfg.Aws.SecretKey, cfg.Aws.Token, cfg.Notify.SqsQueueUrl)
				}
				return nil, fmt.Errorf("unknown notify driver %q", cfg.Notify.Driver)
			},
		},
		{
			Name: "api",
			Build: func(ctn di.Container) (interface{}, error) {
				opts := api.Options{RateLimit: cfg.RateLimit.Rps, Burst: cfg.RateLimit.Burst}
				if cfg.DevFaucet {
					opts.Faucet = ctn.Get("faucet").(marketplace.Faucet)
				}
				return api.NewServer(
					ctn.Get("marketplace").(marketplace.Service),
					ctn.Get("activity.feed").(activity.Feed),
					ctn.Get("activity.repository").(repository.ActivityRepository),
					ctn.Get("metrics").(*metrics.Metrics),
					opts,
				), nil
			},
		},
		{
			Name: "daemon",
			Build: func(ctn di.Container) (interface{}, error) {
				es, _ := ctn.Get("elastic").(elastic_search.Index)
				notifier, _ := ctn.Get("notifier").(messenger.Notifier)
				return daemon.NewDaemon(
					cfg.Port,
					time.Duration(cfg.Activity.FlushSeconds)*time.Second,
					ctn.Get("events").(*event.Manager),
					ctn.Get("api").(*api.Server),
					ctn.Get("activity.feed").(activity.Feed),
					ctn.Get("metrics").(*metrics.Metrics),
					es,
					notifier,
				), nil
			},
		},
	}
}
