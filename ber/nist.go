// Package ber holds bit-error-rate models that turn an SNR and a bit count
// into the probability that a chunk of a frame is received intact.
package ber

import (
	"math"

	"github.com/signalsfoundry/wifi-interference/model"
)

// NistModel follows the NIST OFDM error model: uncoded BER from the
// constellation, then a union bound on the Viterbi decoder's first-event
// error probability for the mode's convolutional code. DSSS modes are
// handled by the DBPSK/DQPSK closed forms.
type NistModel struct{}

// NewNistModel returns the NIST error-rate model.
func NewNistModel() *NistModel { return &NistModel{} }

// ChunkSuccessRate returns the probability that nbits sent with mode at
// snr (linear) are all decoded correctly.
func (NistModel) ChunkSuccessRate(mode model.Mode, snr float64, nbits uint64) float64 {
	switch mode.Class {
	case model.ModulationDSSS:
		return dsssSuccessRate(mode, snr, nbits)
	case model.ModulationOFDM, model.ModulationHT:
		return ofdmSuccessRate(mode, snr, nbits)
	default:
		return 0
	}
}

func ofdmSuccessRate(mode model.Mode, snr float64, nbits uint64) float64 {
	var rawBer float64
	switch mode.ConstellationSize {
	case 2:
		rawBer = bpskBer(snr)
	case 4:
		rawBer = qpskBer(snr)
	case 16:
		rawBer = qam16Ber(snr)
	case 64:
		rawBer = qam64Ber(snr)
	default:
		return 0
	}
	return fecSuccessRate(rawBer, nbits, mode.CodeRate)
}

func bpskBer(snr float64) float64 {
	z := math.Sqrt(snr)
	return 0.5 * math.Erfc(z)
}

func qpskBer(snr float64) float64 {
	z := math.Sqrt(snr / 2.0)
	return 0.5 * math.Erfc(z)
}

func qam16Ber(snr float64) float64 {
	z := math.Sqrt(snr / (5.0 * 2.0))
	return 0.75 * 0.5 * math.Erfc(z)
}

func qam64Ber(snr float64) float64 {
	z := math.Sqrt(snr / (21.0 * 2.0))
	return 7.0 / 12.0 * 0.5 * math.Erfc(z)
}

func fecSuccessRate(rawBer float64, nbits uint64, rate model.CodeRate) float64 {
	if rawBer == 0 {
		return 1
	}
	pe := math.Min(firstEventError(rawBer, rate), 1)
	return math.Pow(1-pe, float64(nbits))
}

// Weight spectra of the punctured K=7 convolutional codes, starting at
// each code's free distance.
var (
	spectrum1_2 = []float64{36, 0, 211, 0, 1404, 0, 11633, 0, 77433, 0, 502690, 0, 3322763, 0, 21292910, 0, 134365911}
	spectrum2_3 = []float64{3, 70, 285, 1276, 6160, 27128, 117019, 498860, 2103891, 8784123}
	spectrum3_4 = []float64{42, 201, 1492, 10469, 62935, 379644, 2253373, 13073811, 75152755, 428005675}
	spectrum5_6 = []float64{92, 528, 8694, 79453, 792114, 7375573, 67884974, 610875423, 5427275376, 47664215639}
)

func firstEventError(p float64, rate model.CodeRate) float64 {
	d := math.Sqrt(4.0 * p * (1.0 - p))

	var (
		dfree    int
		spectrum []float64
		scale    float64
	)
	switch rate {
	case model.CodeRate2_3:
		dfree, spectrum, scale = 6, spectrum2_3, 1.0/(2.0*2.0)
	case model.CodeRate3_4:
		dfree, spectrum, scale = 5, spectrum3_4, 1.0/(2.0*3.0)
	case model.CodeRate5_6:
		dfree, spectrum, scale = 4, spectrum5_6, 1.0/(2.0*5.0)
	default:
		dfree, spectrum, scale = 10, spectrum1_2, 0.5
	}

	pe := 0.0
	for i, weight := range spectrum {
		if weight == 0 {
			continue
		}
		pe += weight * math.Pow(d, float64(dfree+i))
	}
	return scale * pe
}
