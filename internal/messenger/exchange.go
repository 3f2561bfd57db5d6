package messenger

import "github.com/streadway/amqp"

type exchange struct {
	Name        string
	Type        string
	Durable     bool
	AutoDeleted bool
	Internal    bool
	NoWait      bool
	Arguments   amqp.Table
}

const MarketplaceExchange = "marketplace.events"

var exchanges = map[string]exchange{
	MarketplaceExchange: {
		Name:        MarketplaceExchange,
		Type:        "topic",
		Durable:     true,
		AutoDeleted: false,
		Internal:    false,
		NoWait:      false,
		Arguments:   nil,
	},
}
