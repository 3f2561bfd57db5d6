package metrics

import (
	"errors"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

const namespace = "marketplace"

type Metrics struct {
	registry *prometheus.Registry

	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	SaleVolume        prometheus.Counter
	Fees              prometheus.Counter
	ActiveListings    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Marketplace operations by type and outcome.",
		}, []string{"operation", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Time spent executing marketplace operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		SaleVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_volume_total",
			Help:      "Sum of settled sale prices in base units.",
		}),
		Fees: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_total",
			Help:      "Sum of platform fees collected in base units.",
		}),
		ActiveListings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_listings",
			Help:      "Listings currently open for purchase.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Operations,
		m.OperationDuration,
		m.SaleVolume,
		m.Fees,
		m.ActiveListings,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type Subscriber interface {
	AddEventListener(eventType event.Type, callback func(msg interface{}))
}

func (m *Metrics) Register(events Subscriber) {
	events.AddEventListener(event.NFTListedEvent, func(msg interface{}) {
		m.ActiveListings.Inc()
	})
	events.AddEventListener(event.NFTListingCanceledEvent, func(msg interface{}) {
		m.ActiveListings.Dec()
	})
	events.AddEventListener(event.NFTSoldEvent, func(msg interface{}) {
		m.ActiveListings.Dec()
		if sold, ok := msg.(event.NFTSold); ok {
			m.SaleVolume.Add(float64(sold.Price))
			m.Fees.Add(float64(sold.Fee))
		}
	})
}

// Outcome buckets an operation error into a low cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entity.ErrUnauthorizedAccess):
		return "unauthorized"
	case errors.Is(err, entity.ErrListingNotActive), errors.Is(err, entity.ErrListingNotFound):
		return "not_active"
	case errors.Is(err, entity.ErrAlreadyExists), errors.Is(err, entity.ErrAlreadyInitialized):
		return "conflict"
	case errors.Is(err, entity.ErrInvalidAssetAmount),
		errors.Is(err, entity.ErrInvalidFee),
		errors.Is(err, entity.ErrInvalidPrice),
		errors.Is(err, entity.ErrInvalidIdentity):
		return "invalid"
	}
	return "error"
}
