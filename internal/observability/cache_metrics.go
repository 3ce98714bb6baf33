package observability

import "github.com/prometheus/client_golang/prometheus"

// CacheCollector exposes metrics for the error-rate model memo cache. It
// satisfies ber.CacheRecorder.
type CacheCollector struct {
	gatherer prometheus.Gatherer

	Lookups  *prometheus.CounterVec
	HitRatio prometheus.Gauge
}

// NewCacheCollector registers cache metrics against the provided registerer.
func NewCacheCollector(reg prometheus.Registerer) (*CacheCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phy_error_model_cache_lookups_total",
		Help: "Error-rate model cache lookups, labeled by result (hit or miss).",
	}, []string{"result"})
	lookups, err := registerCounterVec(reg, lookups, "phy_error_model_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	ratio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "phy_error_model_cache_hit_ratio",
		Help: "Hit ratio of the error-rate model cache since start.",
	})
	ratio, err = registerGauge(reg, ratio, "phy_error_model_cache_hit_ratio")
	if err != nil {
		return nil, err
	}

	return &CacheCollector{
		gatherer: gatherer,
		Lookups:  lookups,
		HitRatio: ratio,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *CacheCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveCacheLookup counts one lookup and refreshes the hit ratio from
// the running totals.
func (c *CacheCollector) ObserveCacheLookup(hit bool, hits, misses uint64) {
	if c == nil {
		return
	}
	if c.Lookups != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		c.Lookups.WithLabelValues(result).Inc()
	}
	if c.HitRatio != nil && hits+misses > 0 {
		c.HitRatio.Set(float64(hits) / float64(hits+misses))
	}
}
