package di

import (
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/daemon"
	"github.com/ZilDuck/nft-marketplace/internal/marketplace"
	"github.com/sarulabs/di/v2"
)

type Container struct {
	ctn di.Container
}

func NewContainer(cfg *config.Config) (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}

	if err := builder.Add(Definitions(cfg)...); err != nil {
		return nil, err
	}

	return &Container{builder.Build()}, nil
}

func (c *Container) GetDaemon() (*daemon.Daemon, error) {
	obj, err := c.ctn.SafeGet("daemon")
	if err != nil {
		return nil, err
	}
	return obj.(*daemon.Daemon), nil
}

func (c *Container) GetMarketplace() (marketplace.Service, error) {
	obj, err := c.ctn.SafeGet("marketplace")
	if err != nil {
		return nil, err
	}
	return obj.(marketplace.Service), nil
}

func (c *Container) GetFaucet() (marketplace.Faucet, error) {
	obj, err := c.ctn.SafeGet("faucet")
	if err != nil {
		return nil, err
	}
	return obj.(marketplace.Faucet), nil
}

func (c *Container) Delete() error {
	return c.ctn.Delete()
}
