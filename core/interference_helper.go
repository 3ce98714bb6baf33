package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/wifi-interference/internal/logging"
	"github.com/signalsfoundry/wifi-interference/model"
	"github.com/signalsfoundry/wifi-interference/timectrl"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/signalsfoundry/wifi-interference/core"

// ErrorRateModel converts an SNR over a run of bits into the probability
// that every bit decodes correctly.
type ErrorRateModel interface {
	ChunkSuccessRate(mode model.Mode, snr float64, nbits uint64) float64
}

// MetricsRecorder receives engine activity for export.
type MetricsRecorder interface {
	ObserveEvaluation(kind string, snr, per float64)
	SetTimelineSize(breakpoints, tracked int)
	AddFolded(n int)
}

// Evaluation kinds reported to the MetricsRecorder.
const (
	KindFrame   = "frame"
	KindPayload = "payload"
)

// SnrPer is the outcome of evaluating one Event: the SNR at its start and
// the probability that it fails to decode.
type SnrPer struct {
	SNR float64
	PER float64
}

// InterferenceHelper tracks every transmission a receiver can hear and
// answers how likely a given one is to decode under the interference of
// the others.
//
// It is driven by a single-threaded scheduler in non-decreasing time order
// and is not safe for concurrent use.
type InterferenceHelper struct {
	clock      timectrl.SimClock
	errorModel ErrorRateModel
	noise      NoiseModel

	timeline  Timeline
	events    *Registry
	receiving bool

	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
}

// HelperOption customises InterferenceHelper construction.
type HelperOption func(*InterferenceHelper)

// WithMetricsRecorder attaches an optional recorder for evaluation results
// and timeline size.
func WithMetricsRecorder(m MetricsRecorder) HelperOption {
	return func(h *InterferenceHelper) {
		h.metrics = m
	}
}

// WithNoiseModel replaces the default 7 dB receiver.
func WithNoiseModel(n NoiseModel) HelperOption {
	return func(h *InterferenceHelper) {
		h.noise = n
	}
}

// WithTracer sets the tracer used for evaluation spans. The global
// provider's tracer is used otherwise.
func WithTracer(t trace.Tracer) HelperOption {
	return func(h *InterferenceHelper) {
		h.tracer = t
	}
}

// NewInterferenceHelper creates an idle helper reading time from clock and
// scoring chunks with errorModel.
func NewInterferenceHelper(clock timectrl.SimClock, errorModel ErrorRateModel, log logging.Logger, opts ...HelperOption) *InterferenceHelper {
	if log == nil {
		log = logging.Noop()
	}
	h := &InterferenceHelper{
		clock:      clock,
		errorModel: errorModel,
		noise:      DefaultNoiseModel(),
		events:     NewRegistry(),
		log:        log,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.tracer == nil {
		h.tracer = otel.Tracer(tracerName)
	}
	return h
}

// Register records a transmission from address that starts now and lasts
// duration. It returns the tracked Event for address, which is updated in
// place if the address was already known.
func (h *InterferenceHelper) Register(size uint64, mode model.Mode, preamble model.Preamble, duration time.Duration, rxPowerW float64, txVector model.TxVector, address model.Mac48Address) *Event {
	now := h.clock.Now()
	ev, created := h.events.Upsert(NewEvent(size, mode, preamble, now, now.Add(duration), rxPowerW, txVector, address))
	h.insertWindow(ev, now)
	h.logRegistered(ev, created)
	return ev
}

// RegisterWindow records a transmission from address occupying
// [start, end]. The start may lie in the future for transmissions known
// in advance.
func (h *InterferenceHelper) RegisterWindow(size uint64, mode model.Mode, preamble model.Preamble, start, end time.Time, rxPowerW float64, txVector model.TxVector, address model.Mac48Address) *Event {
	now := h.clock.Now()
	ev, created := h.events.Upsert(NewEvent(size, mode, preamble, start, end, rxPowerW, txVector, address))
	if ev.startTime.After(now) {
		h.timeline.Insert(Breakpoint{Time: ev.startTime, Delta: ev.rxPowerW})
		h.timeline.Insert(Breakpoint{Time: ev.endTime, Delta: -ev.rxPowerW})
		h.recordSize()
	} else {
		h.insertWindow(ev, now)
	}
	h.logRegistered(ev, created)
	return ev
}

// insertWindow adds the +power/-power pair for ev. While idle, history
// before now is folded into the baseline first.
func (h *InterferenceHelper) insertWindow(ev *Event, now time.Time) {
	if !h.receiving {
		if n := h.timeline.FoldBefore(now); n > 0 {
			if h.metrics != nil {
				h.metrics.AddFolded(n)
			}
			h.log.Debug(context.Background(), "timeline folded",
				logging.Int("breakpoints", n),
				logging.Power("baseline", h.timeline.Baseline()),
			)
		}
	}
	h.timeline.Insert(Breakpoint{Time: ev.startTime, Delta: ev.rxPowerW})
	h.timeline.Insert(Breakpoint{Time: ev.endTime, Delta: -ev.rxPowerW})
	h.recordSize()
}

func (h *InterferenceHelper) logRegistered(ev *Event, created bool) {
	h.log.Debug(context.Background(), "event registered",
		logging.String("address", ev.address.String()),
		logging.String("mode", ev.payloadMode.Name),
		logging.String("preamble", ev.preamble.String()),
		logging.Time("start", ev.startTime),
		logging.Time("end", ev.endTime),
		logging.Power("rx_power", ev.rxPowerW),
		logging.Any("new", created),
	)
}

// ExtendEnd moves ev's end to newEnd. The previous end decrement is
// cancelled and a new one is placed at newEnd.
func (h *InterferenceHelper) ExtendEnd(ev *Event, newEnd time.Time) {
	oldEnd := ev.endTime
	h.timeline.insertAhead(Breakpoint{Time: oldEnd, Delta: ev.rxPowerW})
	h.timeline.Insert(Breakpoint{Time: newEnd, Delta: -ev.rxPowerW})
	ev.setEndTime(newEnd)
	h.recordSize()

	h.log.Debug(context.Background(), "event end extended",
		logging.String("address", ev.address.String()),
		logging.Time("old_end", oldEnd),
		logging.Time("new_end", newEnd),
	)
}

// ExtendEndByAddress extends the tracked Event for address, but only once
// now has reached its current end so a frame still in flight is never
// altered. It reports whether the extension was applied.
func (h *InterferenceHelper) ExtendEndByAddress(address model.Mac48Address, newEnd time.Time) bool {
	ev, ok := h.events.Lookup(address)
	if !ok {
		h.log.Debug(context.Background(), "extend end ignored, address not tracked",
			logging.String("address", address.String()),
		)
		return false
	}
	if h.clock.Now().Before(ev.endTime) {
		return false
	}
	h.ExtendEnd(ev, newEnd)
	return true
}

// EnergyDuration returns how long, from now, the aggregate power on the
// medium stays at or above thresholdW. The level is compared with the
// threshold at each breakpoint from now on; the result is zero when the
// first of them is already below it.
func (h *InterferenceHelper) EnergyDuration(thresholdW float64) time.Duration {
	now := h.clock.Now()
	level := h.timeline.Baseline()
	end := now
	for _, bp := range h.timeline.changes {
		level += bp.Delta
		end = bp.Time
		if end.Before(now) {
			continue
		}
		if level < thresholdW {
			break
		}
	}
	if end.After(now) {
		return end.Sub(now)
	}
	return 0
}

// Reset discards the timeline and returns to idle. Tracked Events are
// kept so later reports still update them in place.
func (h *InterferenceHelper) Reset() {
	h.timeline.Reset()
	h.receiving = false
	h.recordSize()
}

// NotifyRxStart marks the start of a reception. History is retained until
// NotifyRxEnd.
func (h *InterferenceHelper) NotifyRxStart() {
	h.receiving = true
}

// NotifyRxEnd returns the helper to idle.
func (h *InterferenceHelper) NotifyRxEnd() {
	h.receiving = false
}

// IsReceiving reports whether a reception is in progress.
func (h *InterferenceHelper) IsReceiving() bool {
	return h.receiving
}

// Timeline exposes the power timeline for inspection. Callers must not
// modify it.
func (h *InterferenceHelper) Timeline() *Timeline {
	return &h.timeline
}

// Events returns the tracked Events in first-seen order.
func (h *InterferenceHelper) Events() []*Event {
	return h.events.Events()
}

// Lookup returns the tracked Event for address, if any.
func (h *InterferenceHelper) Lookup(address model.Mac48Address) (*Event, bool) {
	return h.events.Lookup(address)
}

// SetNoiseFigure sets the receiver noise figure as a linear ratio.
func (h *InterferenceHelper) SetNoiseFigure(linear float64) {
	h.noise.NoiseFigure = linear
}

// NoiseFigure returns the receiver noise figure as a linear ratio.
func (h *InterferenceHelper) NoiseFigure() float64 {
	return h.noise.NoiseFigure
}

// NoiseModel returns the receiver noise parameters.
func (h *InterferenceHelper) NoiseModel() NoiseModel {
	return h.noise
}

// SetErrorRateModel swaps the model used to score chunks.
func (h *InterferenceHelper) SetErrorRateModel(m ErrorRateModel) {
	h.errorModel = m
}

// ErrorRateModel returns the model used to score chunks.
func (h *InterferenceHelper) ErrorRateModel() ErrorRateModel {
	return h.errorModel
}

func (h *InterferenceHelper) recordSize() {
	if h.metrics != nil {
		h.metrics.SetTimelineSize(h.timeline.Len(), h.events.Len())
	}
}
