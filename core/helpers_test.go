package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/wifi-interference/model"
	"github.com/signalsfoundry/wifi-interference/timectrl"
)

type chunkCall struct {
	Mode  string
	SNR   float64
	NBits uint64
}

// recordingModel remembers every chunk it scores. Its success rate falls
// with chunk length and rises with SNR so interference changes results.
type recordingModel struct {
	calls []chunkCall
}

func (m *recordingModel) ChunkSuccessRate(mode model.Mode, snr float64, nbits uint64) float64 {
	m.calls = append(m.calls, chunkCall{Mode: mode.Name, SNR: snr, NBits: nbits})
	return math.Exp(-float64(nbits) / (1000 * snr))
}

func (m *recordingModel) modesAndBits() []chunkCall {
	out := make([]chunkCall, len(m.calls))
	for i, c := range m.calls {
		out[i] = chunkCall{Mode: c.Mode, NBits: c.NBits}
	}
	return out
}

type stubRecorder struct {
	evaluations map[string]int
	lastPER     float64
	breakpoints int
	tracked     int
	folded      int
}

func (r *stubRecorder) ObserveEvaluation(kind string, snr, per float64) {
	if r.evaluations == nil {
		r.evaluations = make(map[string]int)
	}
	r.evaluations[kind]++
	r.lastPER = per
}

func (r *stubRecorder) SetTimelineSize(breakpoints, tracked int) {
	r.breakpoints = breakpoints
	r.tracked = tracked
}

func (r *stubRecorder) AddFolded(n int) {
	r.folded += n
}

func newTestHelper(t *testing.T, opts ...HelperOption) (*InterferenceHelper, *timectrl.TimeController, *recordingModel) {
	t.Helper()
	clock := timectrl.NewTimeController(time.Time{})
	errModel := &recordingModel{}
	return NewInterferenceHelper(clock, errModel, nil, opts...), clock, errModel
}

func us(n int) time.Duration {
	return time.Duration(n) * time.Microsecond
}

func at(clock *timectrl.TimeController, micros int) time.Time {
	return clock.At(us(micros))
}

func addr(n uint32) model.Mac48Address {
	return model.Mac48FromIndex(n)
}

func approxEqual(a, b, relTol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= relTol*math.Max(math.Abs(a), math.Abs(b))
}

func recoverError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic, got none")
		}
		e, ok := r.(error)
		if !ok {
			t.Fatalf("panic value = %v (%T), want error", r, r)
		}
		err = e
	}()
	fn()
	return nil
}
