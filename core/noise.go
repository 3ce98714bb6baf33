package core

import (
	"math"

	"github.com/signalsfoundry/wifi-interference/model"
)

const (
	// BoltzmannConstant in J/K.
	BoltzmannConstant = 1.3803e-23
	// ReferenceTemperatureK is the standard noise temperature.
	ReferenceTemperatureK = 290.0
	// DefaultNoiseFigureDB is the receiver noise figure used when none is
	// configured.
	DefaultNoiseFigureDB = 7.0
)

// NoiseModel describes the receiver's thermal noise. NoiseFigure is a
// linear ratio; use NoiseFigureFromDB to convert.
type NoiseModel struct {
	NoiseFigure  float64
	Boltzmann    float64
	TemperatureK float64
}

// DefaultNoiseModel returns a 7 dB receiver at 290 K.
func DefaultNoiseModel() NoiseModel {
	return NoiseModel{
		NoiseFigure:  NoiseFigureFromDB(DefaultNoiseFigureDB),
		Boltzmann:    BoltzmannConstant,
		TemperatureK: ReferenceTemperatureK,
	}
}

// NoiseFigureFromDB converts a noise figure in dB to a linear ratio.
func NoiseFigureFromDB(db float64) float64 {
	return math.Pow(10, db/10)
}

// Floor returns the receiver noise floor in watts over bandwidthHz:
// thermal noise k*T*B scaled by the noise figure.
func (n NoiseModel) Floor(bandwidthHz float64) float64 {
	thermal := n.Boltzmann * n.TemperatureK * bandwidthHz
	return n.NoiseFigure * thermal
}

// Snr returns signalW over the noise floor of mode plus interferenceW.
func (n NoiseModel) Snr(signalW, interferenceW float64, mode model.Mode) float64 {
	noise := n.Floor(float64(mode.BandwidthHz)) + interferenceW
	return signalW / noise
}

// LinearToDB converts a power ratio to decibels.
func LinearToDB(ratio float64) float64 {
	return 10 * math.Log10(ratio)
}
