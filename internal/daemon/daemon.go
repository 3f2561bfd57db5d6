package daemon

import (
	"context"
	"errors"
	"github.com/ZilDuck/nft-marketplace/internal/activity"
	"github.com/ZilDuck/nft-marketplace/internal/api"
	"github.com/ZilDuck/nft-marketplace/internal/elastic_search"
	"github.com/ZilDuck/nft-marketplace/internal/event"
	"github.com/ZilDuck/nft-marketplace/internal/messenger"
	"github.com/ZilDuck/nft-marketplace/internal/metrics"
	"go.uber.org/zap"
	"net/http"
	"time"
)

type Daemon struct {
	port     string
	flush    time.Duration
	events   *event.Manager
	server   *api.Server
	feed     activity.Feed
	metrics  *metrics.Metrics
	elastic  elastic_search.Index
	notifier messenger.Notifier
}

// NewDaemon wires listeners onto the event manager. elastic and notifier may be nil.
func NewDaemon(
	port string,
	flush time.Duration,
	events *event.Manager,
	server *api.Server,
	feed activity.Feed,
	m *metrics.Metrics,
	elastic elastic_search.Index,
	notifier messenger.Notifier,
) *Daemon {
	if flush <= 0 {
		flush = 5 * time.Second
	}

	d := &Daemon{port, flush, events, server, feed, m, elastic, notifier}

	feed.Register(events)
	if m != nil {
		m.Register(events)
	}
	if notifier != nil {
		messenger.Relay(events, notifier)
	}

	return d
}

func (d *Daemon) Execute(ctx context.Context) error {
	if d.elastic != nil {
		if err := d.elastic.InstallMappings(); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              ":" + d.port,
		Handler:           d.server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		zap.L().With(zap.String("port", d.port)).Info("Marketplace Started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	go d.maintain(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errs:
		zap.L().With(zap.Error(serveErr)).Error("Failed to start marketplace")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().With(zap.Error(err)).Warn("Marketplace: Shutdown failed")
	}

	d.stop()

	return serveErr
}

// maintain periodically flushes buffered activity and prunes idle rate limiters.
func (d *Daemon) maintain(ctx context.Context) {
	ticker := time.NewTicker(d.flush)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.persist()
			d.server.PruneLimiters()
		}
	}
}

func (d *Daemon) persist() {
	if d.elastic == nil {
		return
	}

	if actions, err := d.elastic.Persist(); err != nil {
		zap.L().With(zap.Error(err)).Error("Marketplace: Failed to persist activity")
	} else if actions > 0 {
		zap.L().With(zap.Int("actions", actions)).Debug("Marketplace: Persisted activity")
	}
}

func (d *Daemon) stop() {
	d.events.Close()
	d.persist()

	if d.notifier != nil {
		if err := d.notifier.Close(); err != nil {
			zap.L().With(zap.Error(err)).Warn("Marketplace: Failed to close notifier")
		}
	}

	zap.L().Info("Marketplace Stopped")
}
