package core

import (
	"math/bits"
	"time"

	"github.com/signalsfoundry/wifi-interference/model"
)

func (h *InterferenceHelper) snr(signalW, interferenceW float64, mode model.Mode) float64 {
	return h.noise.Snr(signalW, interferenceW, mode)
}

// chunkSuccessRate scores d of airtime sent with mode at snr. An empty
// chunk always succeeds.
func (h *InterferenceHelper) chunkSuccessRate(snr float64, d time.Duration, mode model.Mode) float64 {
	if d <= 0 {
		return 1
	}
	hi, lo := bits.Mul64(mode.PhyRate(), uint64(d))
	nbits, _ := bits.Div64(hi, lo, uint64(time.Second))
	return h.errorModel.ChunkSuccessRate(mode, snr, nbits)
}

// frameLayout holds the instants at which each PLCP field of a frame
// begins.
type frameLayout struct {
	headerStart   time.Time // L-SIG, or the DSSS PLCP header
	hsigStart     time.Time
	trainingStart time.Time
	payloadStart  time.Time
}

func layoutFrame(start time.Time, ev *Event) frameLayout {
	mode, preamble := ev.payloadMode, ev.preamble
	var l frameLayout
	l.headerStart = start.Add(model.PreambleDuration(mode, preamble))
	l.hsigStart = l.headerStart.Add(model.HeaderDuration(mode, preamble))
	l.trainingStart = l.hsigStart.Add(model.HtSigDuration(mode, preamble))
	l.payloadStart = l.trainingStart.Add(model.HtTrainingDuration(mode, preamble, ev.txVector))
	return l
}

// calculatePer walks the local window of ev and multiplies the success
// rate of every piece of the frame. Each chunk between two breakpoints is
// split at field boundaries and each piece is scored with the mode of the
// field it belongs to. Training symbols are never scored.
func (h *InterferenceHelper) calculatePer(ev *Event, window []Breakpoint) float64 {
	psr := 1.0
	previous := window[0].Time
	interference := window[0].Delta
	power := ev.rxPowerW

	payloadMode := ev.payloadMode
	preamble := ev.preamble
	legacy := preamble.IsLegacy()
	headerMode := model.HeaderMode(payloadMode, preamble)
	var mfHeaderMode model.Mode
	if preamble == model.PreambleHTMixed {
		mfHeaderMode = model.MixedFormatHeaderMode(payloadMode, preamble)
	}
	l := layoutFrame(previous, ev)

	score := func(mode model.Mode, d time.Duration) {
		psr *= h.chunkSuccessRate(h.snr(power, interference, mode), d, mode)
	}

	for _, bp := range window[1:] {
		current := bp.Time

		switch {
		case !previous.Before(l.payloadStart):
			score(payloadMode, current.Sub(previous))

		case !previous.Before(l.trainingStart):
			if !current.Before(l.payloadStart) {
				score(payloadMode, current.Sub(l.payloadStart))
			}

		// Legacy frames never get here: their HT-SIG and training fields
		// are empty, so the cases above already matched.
		case !previous.Before(l.hsigStart):
			switch {
			case !current.Before(l.payloadStart):
				score(payloadMode, current.Sub(l.payloadStart))
				score(headerMode, l.trainingStart.Sub(previous))
			case !current.Before(l.trainingStart):
				score(headerMode, l.trainingStart.Sub(previous))
			default:
				score(headerMode, current.Sub(previous))
			}

		// Greenfield frames have no L-SIG and never get here.
		case !previous.Before(l.headerStart):
			switch {
			case !current.Before(l.payloadStart):
				score(payloadMode, current.Sub(l.payloadStart))
				if legacy {
					score(headerMode, l.payloadStart.Sub(previous))
				} else {
					score(headerMode, l.trainingStart.Sub(l.hsigStart))
					score(mfHeaderMode, l.hsigStart.Sub(previous))
				}
			case !current.Before(l.trainingStart):
				score(headerMode, l.trainingStart.Sub(l.hsigStart))
				score(mfHeaderMode, l.hsigStart.Sub(previous))
			case !current.Before(l.hsigStart):
				score(headerMode, current.Sub(l.hsigStart))
				score(mfHeaderMode, l.hsigStart.Sub(previous))
			default:
				if legacy {
					score(headerMode, current.Sub(previous))
				} else {
					score(mfHeaderMode, current.Sub(previous))
				}
			}

		// The chunk starts inside the preamble, which is not scored.
		default:
			switch {
			case !current.Before(l.payloadStart):
				score(payloadMode, current.Sub(l.payloadStart))
				if legacy {
					score(headerMode, l.payloadStart.Sub(l.headerStart))
				} else {
					score(headerMode, l.trainingStart.Sub(l.hsigStart))
				}
				if preamble == model.PreambleHTMixed {
					score(mfHeaderMode, l.hsigStart.Sub(l.headerStart))
				}
			case !current.Before(l.trainingStart):
				score(headerMode, l.trainingStart.Sub(l.hsigStart))
				if preamble == model.PreambleHTMixed {
					score(mfHeaderMode, l.hsigStart.Sub(l.headerStart))
				}
			case !current.Before(l.hsigStart):
				score(headerMode, current.Sub(l.hsigStart))
				if preamble != model.PreambleHTGreenfield {
					score(mfHeaderMode, l.hsigStart.Sub(l.headerStart))
				}
			case !current.Before(l.headerStart):
				if legacy {
					score(headerMode, current.Sub(l.headerStart))
				} else {
					score(mfHeaderMode, current.Sub(l.headerStart))
				}
			}
		}

		interference += bp.Delta
		previous = current
	}
	return 1 - psr
}
