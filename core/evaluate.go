package core

import (
	"context"

	"github.com/signalsfoundry/wifi-interference/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Evaluate returns the SNR at the start of ev and its packet error rate
// over every PLCP field. It panics with ErrNotReceiving when no reception
// is in progress.
func (h *InterferenceHelper) Evaluate(ctx context.Context, ev *Event) SnrPer {
	ctx, span := h.startSpan(ctx, "phy.Evaluate", ev)
	defer span.End()

	interference, window := h.buildLocalWindow(ev)
	res := SnrPer{
		SNR: h.snr(ev.rxPowerW, interference, ev.payloadMode),
		PER: h.calculatePer(ev, window),
	}
	h.finish(ctx, span, KindFrame, ev, res, len(window))
	return res
}

// EvaluatePayload is Evaluate restricted to the payload, ignoring the last
// truncationBits of airtime, which a busy tone is assumed to occupy.
func (h *InterferenceHelper) EvaluatePayload(ctx context.Context, ev *Event, truncationBits uint64) SnrPer {
	ctx, span := h.startSpan(ctx, "phy.EvaluatePayload", ev)
	defer span.End()
	span.SetAttributes(attribute.Int64("phy.truncation_bits", int64(truncationBits)))

	interference, window := h.buildLocalWindow(ev)
	res := SnrPer{
		SNR: h.snr(ev.rxPowerW, interference, ev.payloadMode),
		PER: h.calculatePerPayload(ev, window, truncationBits),
	}
	h.finish(ctx, span, KindPayload, ev, res, len(window))
	return res
}

func (h *InterferenceHelper) startSpan(ctx context.Context, name string, ev *Event) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return h.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("phy.address", ev.address.String()),
		attribute.String("phy.mode", ev.payloadMode.Name),
		attribute.String("phy.preamble", ev.preamble.String()),
		attribute.Int64("phy.size_bits", int64(ev.size)),
	))
}

func (h *InterferenceHelper) finish(ctx context.Context, span trace.Span, kind string, ev *Event, res SnrPer, windowLen int) {
	span.SetAttributes(
		attribute.Float64("phy.snr", res.SNR),
		attribute.Float64("phy.per", res.PER),
		attribute.Int("phy.window_breakpoints", windowLen),
	)
	if h.metrics != nil {
		h.metrics.ObserveEvaluation(kind, res.SNR, res.PER)
	}
	h.recordSize()

	fields := []logging.Field{
		logging.String("kind", kind),
		logging.String("address", ev.address.String()),
		logging.Float64("per", res.PER),
		logging.Int("window", windowLen),
	}
	if res.SNR > 0 {
		fields = append(fields, logging.Float64("snr_db", LinearToDB(res.SNR)))
	}
	logging.LoggerFromContext(ctx, h.log).Debug(ctx, "event evaluated", fields...)
}
