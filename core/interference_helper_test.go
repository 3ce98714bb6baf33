package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signalsfoundry/wifi-interference/model"
)

func TestEvaluateIsolatedEventSnrIsSignalOverNoiseFloor(t *testing.T) {
	h, _, _ := newTestHelper(t)
	mode := model.OfdmRate6Mbps
	power := 1e-9

	ev := h.Register(800, mode, model.PreambleLong, us(1000), power, model.NewTxVector(mode), addr(1))
	h.NotifyRxStart()
	res := h.Evaluate(context.Background(), ev)

	want := power / h.NoiseModel().Floor(float64(mode.BandwidthHz))
	if !approxEqual(res.SNR, want, 1e-9) {
		t.Fatalf("SNR = %g, want %g", res.SNR, want)
	}
	if res.PER < 0 || res.PER > 1 {
		t.Fatalf("PER = %v, want within [0,1]", res.PER)
	}
}

func TestRegisterSameAddressUpdatesInPlace(t *testing.T) {
	h, _, _ := newTestHelper(t)
	mode := model.OfdmRate12Mbps
	tx := model.NewTxVector(mode)

	first := h.Register(100, mode, model.PreambleLong, us(100), 1e-9, tx, addr(7))
	second := h.Register(200, model.OfdmRate24Mbps, model.PreambleShort, us(300), 2e-9, model.NewTxVector(model.OfdmRate24Mbps), addr(7))

	if got := len(h.Events()); got != 1 {
		t.Fatalf("tracked events = %d, want 1", got)
	}
	if got := h.Timeline().Len(); got != 4 {
		t.Fatalf("timeline breakpoints = %d, want 4", got)
	}
	if first != second {
		t.Fatalf("second report returned a new handle, want the tracked one")
	}
	if first.Size() != 200 || first.RxPowerW() != 2e-9 || first.PayloadMode() != model.OfdmRate24Mbps {
		t.Fatalf("first handle = {%d %v %v}, want updated fields", first.Size(), first.RxPowerW(), first.PayloadMode())
	}
	if first.Duration() != us(300) {
		t.Fatalf("Duration = %v, want %v", first.Duration(), us(300))
	}
}

func TestWindowShowsOnlyOverlappingInterference(t *testing.T) {
	h, clock, _ := newTestHelper(t)
	mode := model.OfdmRate6Mbps
	tx := model.NewTxVector(mode)
	pA, pB := 1e-9, 3e-10

	a := h.RegisterWindow(100, mode, model.PreambleLong, at(clock, 0), at(clock, 10), pA, tx, addr(1))
	h.RegisterWindow(100, mode, model.PreambleLong, at(clock, 5), at(clock, 15), pB, tx, addr(2))
	h.NotifyRxStart()

	interference, window := h.buildLocalWindow(a)
	if interference != 0 {
		t.Fatalf("interference at start = %v, want 0", interference)
	}
	want := []Breakpoint{
		{Time: at(clock, 0), Delta: 0},
		{Time: at(clock, 5), Delta: pB},
		{Time: at(clock, 10), Delta: 0},
	}
	if diff := cmp.Diff(want, window); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestWindowFoldsHistoryBeforeStart(t *testing.T) {
	h, clock, _ := newTestHelper(t)
	mode := model.OfdmRate6Mbps
	tx := model.NewTxVector(mode)
	pA, pB := 5e-10, 1e-9

	h.NotifyRxStart()
	h.RegisterWindow(100, mode, model.PreambleLong, at(clock, 0), at(clock, 30), pA, tx, addr(1))
	clock.Advance(us(10))
	b := h.Register(100, mode, model.PreambleLong, us(10), pB, tx, addr(2))

	interference, window := h.buildLocalWindow(b)
	if interference != pA {
		t.Fatalf("interference at start = %v, want %v", interference, pA)
	}
	if got := h.Timeline().Baseline(); got != pA {
		t.Fatalf("baseline = %v, want %v", got, pA)
	}
	want := []Breakpoint{
		{Time: at(clock, 10), Delta: pA},
		{Time: at(clock, 20), Delta: 0},
	}
	if diff := cmp.Diff(want, window); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestWindowSameInstantStartSkipsLaterBreakpoint(t *testing.T) {
	h, clock, _ := newTestHelper(t)
	mode := model.OfdmRate6Mbps
	tx := model.NewTxVector(mode)
	pA, pB := 1e-9, 2e-10

	a := h.Register(100, mode, model.PreambleLong, us(100), pA, tx, addr(1))
	h.RegisterWindow(100, mode, model.PreambleLong, at(clock, 0), at(clock, 50), pB, tx, addr(2))
	h.NotifyRxStart()

	// The last breakpoint at the start is B's, inserted after A's own
	// +pA, so A's power lands in the starting level instead of B's.
	interference, window := h.buildLocalWindow(a)
	if interference != pA {
		t.Fatalf("interference at start = %v, want %v", interference, pA)
	}
	want := []Breakpoint{
		{Time: at(clock, 0), Delta: pA},
		{Time: at(clock, 50), Delta: -pB},
		{Time: at(clock, 100), Delta: 0},
	}
	if diff := cmp.Diff(want, window); diff != "" {
		t.Fatalf("window mismatch (-want +got):\n%s", diff)
	}
}

func TestExtendEndAfterPreviousEnd(t *testing.T) {
	for _, elapsed := range []int{10, 12} {
		h, clock, _ := newTestHelper(t)
		mode := model.DsssRate1Mbps
		power := 1e-9

		h.Register(100, mode, model.PreambleLong, us(10), power, model.NewTxVector(mode), addr(3))
		clock.Advance(us(elapsed))

		if !h.ExtendEndByAddress(addr(3), at(clock, 15)) {
			t.Fatalf("now=%dus: ExtendEndByAddress = false, want true", elapsed)
		}
		ev, _ := h.Lookup(addr(3))
		if !ev.EndTime().Equal(at(clock, 15)) {
			t.Fatalf("now=%dus: end = %v, want %v", elapsed, ev.EndTime(), at(clock, 15))
		}
		if got, want := h.EnergyDuration(power/2), us(15-elapsed); got != want {
			t.Fatalf("now=%dus: EnergyDuration = %v, want %v", elapsed, got, want)
		}
	}
}

func TestExtendEndByAddressRejected(t *testing.T) {
	h, clock, _ := newTestHelper(t)
	mode := model.DsssRate1Mbps
	h.Register(100, mode, model.PreambleLong, us(10), 1e-9, model.NewTxVector(mode), addr(3))
	clock.Advance(us(5))

	before := h.Timeline().Breakpoints()
	if h.ExtendEndByAddress(addr(3), at(clock, 20)) {
		t.Fatalf("ExtendEndByAddress while in flight = true, want false")
	}
	if h.ExtendEndByAddress(addr(9), at(clock, 20)) {
		t.Fatalf("ExtendEndByAddress for unknown address = true, want false")
	}
	if diff := cmp.Diff(before, h.Timeline().Breakpoints()); diff != "" {
		t.Fatalf("timeline changed (-before +after):\n%s", diff)
	}
}

func TestEnergyDuration(t *testing.T) {
	h, clock, _ := newTestHelper(t)
	mode := model.OfdmRate6Mbps
	tx := model.NewTxVector(mode)

	if got := h.EnergyDuration(1e-12); got != 0 {
		t.Fatalf("EnergyDuration on empty medium = %v, want 0", got)
	}

	h.RegisterWindow(100, mode, model.PreambleLong, at(clock, 0), at(clock, 40), 1e-9, tx, addr(1))
	h.RegisterWindow(100, mode, model.PreambleLong, at(clock, 20), at(clock, 60), 1e-9, tx, addr(2))
	clock.Advance(us(10))

	// Only breakpoints at or after now are compared with the threshold.
	cases := []struct {
		threshold float64
		want      int
	}{
		{threshold: 5e-10, want: 50},
		{threshold: 1.5e-9, want: 30},
		{threshold: 3e-9, want: 10},
	}
	for _, tc := range cases {
		if got := h.EnergyDuration(tc.threshold); got != us(tc.want) {
			t.Fatalf("EnergyDuration(%g) = %v, want %v", tc.threshold, got, us(tc.want))
		}
	}
}

func TestIdleRegistrationFoldsPastBreakpoints(t *testing.T) {
	rec := &stubRecorder{}
	h, clock, _ := newTestHelper(t, WithMetricsRecorder(rec))
	mode := model.OfdmRate6Mbps
	tx := model.NewTxVector(mode)

	h.Register(100, mode, model.PreambleLong, us(10), 1e-9, tx, addr(1))
	clock.Advance(us(20))
	h.Register(100, mode, model.PreambleLong, us(10), 2e-9, tx, addr(2))

	if got := h.Timeline().Len(); got != 2 {
		t.Fatalf("timeline breakpoints = %d, want 2", got)
	}
	if got := h.Timeline().Baseline(); got != 0 {
		t.Fatalf("baseline = %v, want 0", got)
	}
	if rec.folded != 2 {
		t.Fatalf("folded = %d, want 2", rec.folded)
	}
	if rec.breakpoints != 2 || rec.tracked != 2 {
		t.Fatalf("recorded size = (%d, %d), want (2, 2)", rec.breakpoints, rec.tracked)
	}
}

func TestReceivingRegistrationKeepsHistory(t *testing.T) {
	h, clock, _ := newTestHelper(t)
	mode := model.OfdmRate6Mbps
	tx := model.NewTxVector(mode)

	h.Register(100, mode, model.PreambleLong, us(10), 1e-9, tx, addr(1))
	h.NotifyRxStart()
	clock.Advance(us(20))
	h.Register(100, mode, model.PreambleLong, us(10), 2e-9, tx, addr(2))

	if got := h.Timeline().Len(); got != 4 {
		t.Fatalf("timeline breakpoints = %d, want 4", got)
	}
	h.NotifyRxEnd()
	if h.IsReceiving() {
		t.Fatalf("IsReceiving after NotifyRxEnd = true, want false")
	}
}

func TestTruncatedEvaluationIgnoresInterferenceAfterCutoff(t *testing.T) {
	mode := model.DsssRate1Mbps
	tx := model.NewTxVector(mode)
	power := 1e-9
	const toneBits = 200 // 200us at 1 Mbps

	run := func(interfererStart int) (SnrPer, []chunkCall) {
		h, clock, errModel := newTestHelper(t)
		ev := h.RegisterWindow(1000, mode, model.PreambleLong, at(clock, 0), at(clock, 1000), power, tx, addr(1))
		if interfererStart >= 0 {
			h.RegisterWindow(100, mode, model.PreambleLong, at(clock, interfererStart), at(clock, 2000), 100*power, tx, addr(2))
		}
		h.NotifyRxStart()
		return h.EvaluatePayload(context.Background(), ev, toneBits), errModel.modesAndBits()
	}

	clean, cleanCalls := run(-1)
	late, lateCalls := run(850)
	early, _ := run(700)

	if late.PER != clean.PER {
		t.Fatalf("PER with interference after cutoff = %v, want %v", late.PER, clean.PER)
	}
	want := []chunkCall{{Mode: mode.Name, NBits: 800}}
	if diff := cmp.Diff(want, cleanCalls); diff != "" {
		t.Fatalf("clean chunks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, lateCalls); diff != "" {
		t.Fatalf("late chunks mismatch (-want +got):\n%s", diff)
	}
	if early.PER <= clean.PER {
		t.Fatalf("PER with interference before cutoff = %v, want > %v", early.PER, clean.PER)
	}
}

func TestTruncatedEvaluationCutoffBeforeStartScoresNothing(t *testing.T) {
	h, clock, errModel := newTestHelper(t)
	mode := model.DsssRate1Mbps
	ev := h.RegisterWindow(100, mode, model.PreambleLong, at(clock, 0), at(clock, 100), 1e-9, model.NewTxVector(mode), addr(1))
	h.NotifyRxStart()

	res := h.EvaluatePayload(context.Background(), ev, 200)
	if res.PER != 0 {
		t.Fatalf("PER = %v, want 0", res.PER)
	}
	if len(errModel.calls) != 0 {
		t.Fatalf("error model called %d times, want 0", len(errModel.calls))
	}
}

func TestChunkSuccessRateZeroDuration(t *testing.T) {
	h, _, errModel := newTestHelper(t)
	for _, mode := range []model.Mode{model.DsssRate1Mbps, model.OfdmRate54Mbps, model.HtMcs7} {
		for _, snr := range []float64{0, 1e-3, 1, 1e6} {
			if got := h.chunkSuccessRate(snr, 0, mode); got != 1.0 {
				t.Fatalf("chunkSuccessRate(%v, 0, %s) = %v, want 1", snr, mode, got)
			}
		}
	}
	if len(errModel.calls) != 0 {
		t.Fatalf("error model called %d times, want 0", len(errModel.calls))
	}
}

func TestChunkSuccessRateConvertsAirtimeToBits(t *testing.T) {
	h, _, errModel := newTestHelper(t)
	h.chunkSuccessRate(10, us(4), model.OfdmRate6Mbps)
	h.chunkSuccessRate(10, us(4), model.OfdmRate54Mbps)
	h.chunkSuccessRate(10, us(200), model.DsssRate1Mbps)

	want := []chunkCall{
		{Mode: "OfdmRate6Mbps", NBits: 48},
		{Mode: "OfdmRate54Mbps", NBits: 288},
		{Mode: "DsssRate1Mbps", NBits: 200},
	}
	if diff := cmp.Diff(want, errModel.modesAndBits()); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestResetIsIdempotent(t *testing.T) {
	h, _, _ := newTestHelper(t)
	mode := model.OfdmRate6Mbps
	h.Register(100, mode, model.PreambleLong, us(10), 1e-9, model.NewTxVector(mode), addr(1))
	h.NotifyRxStart()

	for i := 0; i < 2; i++ {
		h.Reset()
		if got := h.Timeline().Len(); got != 0 {
			t.Fatalf("reset %d: timeline breakpoints = %d, want 0", i+1, got)
		}
		if got := h.Timeline().Baseline(); got != 0 {
			t.Fatalf("reset %d: baseline = %v, want 0", i+1, got)
		}
		if h.IsReceiving() {
			t.Fatalf("reset %d: IsReceiving = true, want false", i+1)
		}
	}
}

func TestEvaluateWhileIdlePanics(t *testing.T) {
	h, _, _ := newTestHelper(t)
	mode := model.OfdmRate6Mbps
	ev := h.Register(100, mode, model.PreambleLong, us(10), 1e-9, model.NewTxVector(mode), addr(1))

	err := recoverError(t, func() { h.Evaluate(context.Background(), ev) })
	if !errors.Is(err, ErrNotReceiving) {
		t.Fatalf("panic error = %v, want ErrNotReceiving", err)
	}
}

func TestEvaluateOnEmptyTimelinePanics(t *testing.T) {
	h, _, _ := newTestHelper(t)
	mode := model.OfdmRate6Mbps
	ev := h.Register(100, mode, model.PreambleLong, us(10), 1e-9, model.NewTxVector(mode), addr(1))
	h.Reset()
	h.NotifyRxStart()

	err := recoverError(t, func() { h.EvaluatePayload(context.Background(), ev, 10) })
	if !errors.Is(err, ErrEmptyTimeline) {
		t.Fatalf("panic error = %v, want ErrEmptyTimeline", err)
	}
}

func TestEvaluateReportsMetrics(t *testing.T) {
	rec := &stubRecorder{}
	h, _, _ := newTestHelper(t, WithMetricsRecorder(rec))
	mode := model.OfdmRate6Mbps
	ev := h.Register(100, mode, model.PreambleLong, us(100), 1e-9, model.NewTxVector(mode), addr(1))
	h.NotifyRxStart()

	res := h.Evaluate(context.Background(), ev)
	h.EvaluatePayload(context.Background(), ev, 24)

	if rec.evaluations[KindFrame] != 1 || rec.evaluations[KindPayload] != 1 {
		t.Fatalf("evaluations = %v, want one of each kind", rec.evaluations)
	}
	if rec.tracked != 1 {
		t.Fatalf("tracked = %d, want 1", rec.tracked)
	}
	if res.PER < 0 || res.PER > 1 {
		t.Fatalf("PER = %v, want within [0,1]", res.PER)
	}
}

func TestNoiseFigureAndErrorModelAccessors(t *testing.T) {
	h, _, errModel := newTestHelper(t)
	if got := h.NoiseFigure(); !approxEqual(got, NoiseFigureFromDB(DefaultNoiseFigureDB), 1e-12) {
		t.Fatalf("default NoiseFigure = %v, want 7 dB", got)
	}
	h.SetNoiseFigure(2)
	if got := h.NoiseFigure(); got != 2 {
		t.Fatalf("NoiseFigure = %v, want 2", got)
	}
	if h.ErrorRateModel() != ErrorRateModel(errModel) {
		t.Fatalf("ErrorRateModel did not return the configured model")
	}
	other := &recordingModel{}
	h.SetErrorRateModel(other)
	if h.ErrorRateModel() != ErrorRateModel(other) {
		t.Fatalf("SetErrorRateModel did not replace the model")
	}
}
