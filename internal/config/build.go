package config

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/signalsfoundry/wifi-interference/ber"
	"github.com/signalsfoundry/wifi-interference/core"
	"github.com/signalsfoundry/wifi-interference/internal/logging"
	"github.com/signalsfoundry/wifi-interference/internal/observability"
	"github.com/signalsfoundry/wifi-interference/timectrl"
)

// Receiver is an interference helper assembled from a Config together
// with the pieces that were built for it.
type Receiver struct {
	Helper    *core.InterferenceHelper
	Logger    logging.Logger
	Collector *observability.PhyCollector

	cache       *ber.CachedModel
	stopTracing func(context.Context) error
}

// Close flushes tracing, if it was started, and releases the error-model
// cache.
func (r *Receiver) Close() {
	if r == nil {
		return
	}
	observability.ShutdownWithTimeout(context.Background(), r.stopTracing, r.Logger)
	r.stopTracing = nil
	r.cache.Close()
}

// Build wires an interference helper from cfg: the configured error model
// (memoized when the cache is enabled), the noise model, a logger and a
// Prometheus collector registered on reg. A nil reg skips metrics.
func Build(cfg Config, clock timectrl.SimClock, reg prometheus.Registerer) (*Receiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		return nil, fmt.Errorf("%w: nil clock", ErrInvalidConfig)
	}

	log := logging.New(cfg.Logging)
	r := &Receiver{Logger: log}

	var errModel core.ErrorRateModel = ber.NewNistModel()
	if cfg.ErrorModel.Cache.Enabled {
		var cacheOpts []ber.CachedOption
		if reg != nil {
			cc, err := observability.NewCacheCollector(reg)
			if err != nil {
				return nil, fmt.Errorf("config: cache metrics: %w", err)
			}
			cacheOpts = append(cacheOpts, ber.WithCacheRecorder(cc))
		}
		cached, err := ber.NewCachedModel(errModel, ber.CacheConfig{
			NumCounters: cfg.ErrorModel.Cache.NumCounters,
			MaxCost:     cfg.ErrorModel.Cache.MaxCost,
		}, cacheOpts...)
		if err != nil {
			return nil, err
		}
		r.cache = cached
		errModel = cached
	}

	opts := []core.HelperOption{core.WithNoiseModel(cfg.Receiver.NoiseModel())}
	if reg != nil {
		collector, err := observability.NewPhyCollector(reg)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("config: metrics: %w", err)
		}
		r.Collector = collector
		opts = append(opts, core.WithMetricsRecorder(collector))
	}

	r.Helper = core.NewInterferenceHelper(clock, errModel, log, opts...)
	log.Info(context.Background(), "interference helper ready",
		logging.String("error_model", cfg.ErrorModel.Name),
		logging.Any("cache", cfg.ErrorModel.Cache.Enabled),
		logging.Float64("noise_figure_db", cfg.Receiver.NoiseFigureDB),
	)
	return r, nil
}

// StartTracing installs the tracer provider described by cfg. Spans are
// flushed by Close.
func (r *Receiver) StartTracing(ctx context.Context, cfg observability.TracingConfig) error {
	shutdown, err := observability.InitTracing(ctx, cfg, r.Logger)
	if err != nil {
		return fmt.Errorf("config: tracing: %w", err)
	}
	observability.ShutdownWithTimeout(ctx, r.stopTracing, r.Logger)
	r.stopTracing = shutdown
	return nil
}
