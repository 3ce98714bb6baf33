package ber

import (
	"math"

	"github.com/signalsfoundry/wifi-interference/model"
)

const dsssChipRate = 22000000.0

func dsssSuccessRate(mode model.Mode, snr float64, nbits uint64) float64 {
	switch mode.DataRate {
	case 1000000:
		return dbpskSuccessRate(snr, nbits)
	case 2000000:
		return dqpskSuccessRate(snr, nbits)
	default:
		return 0
	}
}

func dbpskSuccessRate(snr float64, nbits uint64) float64 {
	ebN0 := snr * dsssChipRate / 1000000.0
	ber := 0.5 * math.Exp(-ebN0)
	return math.Pow(1-ber, float64(nbits))
}

func dqpskSuccessRate(snr float64, nbits uint64) float64 {
	ebN0 := snr * dsssChipRate / 1000000.0 / 2.0
	ber := math.Min(dqpskBer(ebN0), 1)
	return math.Pow(1-ber, float64(nbits))
}

func dqpskBer(x float64) float64 {
	if x <= 0 {
		return 1
	}
	return ((math.Sqrt2 + 1) / math.Sqrt(8*math.Pi*math.Sqrt2)) *
		(1 / math.Sqrt(x)) *
		math.Exp(-(2-math.Sqrt2)*x)
}
