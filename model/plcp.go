package model

import "time"

// HtSigMode is the rate HT-SIG is sent with on a 20 MHz channel.
var HtSigMode = Mode{Name: "OfdmRate6_5MbpsBW20MHz", Class: ModulationOFDM, BandwidthHz: 20000000, DataRate: 6500000, CodeRate: CodeRate1_2, ConstellationSize: 2}

const (
	ofdmSymbol        = 4 * time.Microsecond
	htShortGISymbol   = 3600 * time.Nanosecond
	serviceFieldBits  = 16
	tailBitsPerCoder  = 6
	htSigFieldTime    = 8 * time.Microsecond
	htTrainingSymbol  = 4 * time.Microsecond
	mixedFormatHtStf  = 4 * time.Microsecond
	maxTrainingFields = 4
)

// PreambleDuration is the length of the PLCP preamble (training fields
// before the first SIGNAL field).
func PreambleDuration(mode Mode, preamble Preamble) time.Duration {
	switch mode.Class {
	case ModulationOFDM:
		return ofdmScaled(mode, 16*time.Microsecond)
	case ModulationHT:
		return 16 * time.Microsecond
	case ModulationDSSS:
		if preamble == PreambleShort {
			return 72 * time.Microsecond
		}
		return 144 * time.Microsecond
	default:
		return 0
	}
}

// HeaderDuration is the length of the legacy PLCP header (L-SIG for OFDM
// and HT mixed format, the PLCP header for DSSS). Greenfield frames have
// none.
func HeaderDuration(mode Mode, preamble Preamble) time.Duration {
	switch mode.Class {
	case ModulationOFDM:
		return ofdmScaled(mode, 4*time.Microsecond)
	case ModulationHT:
		if preamble == PreambleHTGreenfield {
			return 0
		}
		return 4 * time.Microsecond
	case ModulationDSSS:
		if preamble == PreambleShort {
			return 24 * time.Microsecond
		}
		return 48 * time.Microsecond
	default:
		return 0
	}
}

// HtSigDuration is the length of HT-SIG; zero for legacy framing.
func HtSigDuration(mode Mode, preamble Preamble) time.Duration {
	switch preamble {
	case PreambleHTMixed, PreambleHTGreenfield:
		return htSigFieldTime
	default:
		return 0
	}
}

// HtTrainingDuration is the length of the HT training fields, which grows
// with the number of data and extension spatial streams.
func HtTrainingDuration(mode Mode, preamble Preamble, txVector TxVector) time.Duration {
	dataLtf := trainingFields(txVector.spatialStreams())
	extLtf := trainingFields(txVector.Ness)

	switch preamble {
	case PreambleHTMixed:
		return mixedFormatHtStf + htTrainingSymbol*time.Duration(dataLtf) + htTrainingSymbol*time.Duration(extLtf)
	case PreambleHTGreenfield:
		return htTrainingSymbol*time.Duration(dataLtf) + htTrainingSymbol*time.Duration(extLtf)
	default:
		return 0
	}
}

func trainingFields(streams uint8) int {
	if streams < 3 {
		return int(streams)
	}
	return maxTrainingFields
}

// PayloadDuration is the airtime needed to carry bits with txVector.
func PayloadDuration(bits uint64, txVector TxVector) time.Duration {
	mode := txVector.Mode
	switch mode.Class {
	case ModulationOFDM:
		symbol := ofdmScaled(mode, ofdmSymbol)
		perSymbol := bitsPerSymbol(mode.DataRate, symbol, 1)
		return time.Duration(ceilDiv(serviceFieldBits+bits+tailBitsPerCoder, perSymbol)) * symbol
	case ModulationHT:
		symbol := ofdmSymbol
		if txVector.ShortGuardInterval {
			symbol = htShortGISymbol
		}
		// Bits per symbol do not depend on the guard interval.
		perSymbol := bitsPerSymbol(mode.DataRate, ofdmSymbol, txVector.spatialStreams())
		return time.Duration(ceilDiv(serviceFieldBits+bits+tailBitsPerCoder, perSymbol)) * symbol
	case ModulationDSSS:
		if mode.DataRate == 0 {
			return 0
		}
		return time.Duration(ceilDiv(bits*1000000, mode.DataRate)) * time.Microsecond
	default:
		return 0
	}
}

func bitsPerSymbol(dataRate uint64, symbol time.Duration, streams uint8) uint64 {
	return dataRate * uint64(symbol) * uint64(streams) / uint64(time.Second)
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// FrameDuration is the total airtime of a frame of bits sent with txVector
// and preamble.
func FrameDuration(bits uint64, txVector TxVector, preamble Preamble) time.Duration {
	mode := txVector.Mode
	return PreambleDuration(mode, preamble) +
		HeaderDuration(mode, preamble) +
		HtSigDuration(mode, preamble) +
		HtTrainingDuration(mode, preamble, txVector) +
		PayloadDuration(bits, txVector)
}

// HeaderMode returns the mode the header field following the preamble is
// sent with: L-SIG for OFDM, HT-SIG for HT, the PLCP header for DSSS.
func HeaderMode(payload Mode, preamble Preamble) Mode {
	switch payload.Class {
	case ModulationOFDM:
		return OfdmRate6Mbps
	case ModulationHT:
		return HtSigMode
	case ModulationDSSS:
		if preamble == PreambleShort {
			return DsssRate2Mbps
		}
		return DsssRate1Mbps
	default:
		return payload
	}
}

// MixedFormatHeaderMode returns the L-SIG mode of an HT mixed format frame.
func MixedFormatHeaderMode(payload Mode, preamble Preamble) Mode {
	return OfdmRate6Mbps
}

// OFDM timing stretches as the channel narrows below 20 MHz.
func ofdmScaled(mode Mode, at20MHz time.Duration) time.Duration {
	switch mode.BandwidthHz {
	case 10000000:
		return 2 * at20MHz
	case 5000000:
		return 4 * at20MHz
	default:
		return at20MHz
	}
}
