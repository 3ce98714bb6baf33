package core

import "github.com/signalsfoundry/wifi-interference/model"

// calculatePerPayload scores ev with its payload mode only, up to a cutoff
// truncationBits worth of airtime before the end of the window. Whatever
// follows the cutoff is assumed lost to a competing busy tone and is left
// out.
func (h *InterferenceHelper) calculatePerPayload(ev *Event, window []Breakpoint, truncationBits uint64) float64 {
	psr := 1.0
	previous := window[0].Time
	interference := window[0].Delta
	mode := ev.payloadMode
	power := ev.rxPowerW

	tone := model.PayloadDuration(truncationBits, ev.txVector)
	cutoff := window[len(window)-1].Time.Add(-tone)

	for _, bp := range window[1:] {
		current := bp.Time
		snr := h.snr(power, interference, mode)
		if current.After(cutoff) {
			// A cutoff before previous scores nothing.
			psr *= h.chunkSuccessRate(snr, cutoff.Sub(previous), mode)
			break
		}
		psr *= h.chunkSuccessRate(snr, current.Sub(previous), mode)

		interference += bp.Delta
		previous = current
	}
	return 1 - psr
}
