package observability

import (
	"fmt"
	"math"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PhyCollector bundles Prometheus metrics for an interference helper. It
// satisfies core.MetricsRecorder so the helper can drive it directly.
type PhyCollector struct {
	gatherer prometheus.Gatherer

	Evaluations *prometheus.CounterVec
	PacketError *prometheus.HistogramVec
	SnrDB       *prometheus.HistogramVec

	TimelineBreakpoints prometheus.Gauge
	TrackedEvents       prometheus.Gauge
	TimelineFolds       prometheus.Counter
}

// NewPhyCollector registers PHY metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil. Metrics already
// registered by an earlier collector are reused.
func NewPhyCollector(reg prometheus.Registerer) (*PhyCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phy_evaluations_total",
		Help: "Total number of SNR/PER evaluations, labeled by kind (frame or payload).",
	}, []string{"kind"})
	evaluations, err := registerCounterVec(reg, evaluations, "phy_evaluations_total")
	if err != nil {
		return nil, err
	}

	per := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phy_packet_error_rate",
		Help:    "Packet error rate of evaluated frames.",
		Buckets: []float64{1e-6, 1e-5, 1e-4, 1e-3, 0.01, 0.05, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99, 1},
	}, []string{"kind"})
	per, err = registerHistogramVec(reg, per, "phy_packet_error_rate")
	if err != nil {
		return nil, err
	}

	snr := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phy_snr_db",
		Help:    "SNR at the start of evaluated frames in dB.",
		Buckets: prometheus.LinearBuckets(-10, 5, 12),
	}, []string{"kind"})
	snr, err = registerHistogramVec(reg, snr, "phy_snr_db")
	if err != nil {
		return nil, err
	}

	breakpoints, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "phy_timeline_breakpoints",
		Help: "Current number of power changes retained on the timeline.",
	}), "phy_timeline_breakpoints")
	if err != nil {
		return nil, err
	}
	tracked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "phy_tracked_events",
		Help: "Current number of transmitters with a tracked event.",
	}), "phy_tracked_events")
	if err != nil {
		return nil, err
	}
	folds, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "phy_timeline_folds_total",
		Help: "Cumulative number of power changes folded into the timeline baseline.",
	}), "phy_timeline_folds_total")
	if err != nil {
		return nil, err
	}

	return &PhyCollector{
		gatherer:            gatherer,
		Evaluations:         evaluations,
		PacketError:         per,
		SnrDB:               snr,
		TimelineBreakpoints: breakpoints,
		TrackedEvents:       tracked,
		TimelineFolds:       folds,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PhyCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveEvaluation records one evaluation result. snr is linear.
func (c *PhyCollector) ObserveEvaluation(kind string, snr, per float64) {
	if c == nil {
		return
	}
	if c.Evaluations != nil {
		c.Evaluations.WithLabelValues(kind).Inc()
	}
	if c.PacketError != nil {
		c.PacketError.WithLabelValues(kind).Observe(per)
	}
	if c.SnrDB != nil && snr > 0 {
		c.SnrDB.WithLabelValues(kind).Observe(10 * math.Log10(snr))
	}
}

// SetTimelineSize updates the timeline and registry gauges.
func (c *PhyCollector) SetTimelineSize(breakpoints, tracked int) {
	if c == nil {
		return
	}
	if c.TimelineBreakpoints != nil {
		c.TimelineBreakpoints.Set(float64(breakpoints))
	}
	if c.TrackedEvents != nil {
		c.TrackedEvents.Set(float64(tracked))
	}
}

// AddFolded counts power changes folded into the baseline.
func (c *PhyCollector) AddFolded(n int) {
	if c == nil || c.TimelineFolds == nil || n <= 0 {
		return
	}
	c.TimelineFolds.Add(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
