package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownMode is returned when a mode name is not in the catalog.
var ErrUnknownMode = errors.New("unknown wifi mode")

// ModulationClass groups modes that share PLCP framing rules.
type ModulationClass int

const (
	ModulationUnknown ModulationClass = iota
	ModulationDSSS                    // 802.11b DBPSK/DQPSK
	ModulationOFDM                    // 802.11a/g
	ModulationHT                      // 802.11n
)

func (c ModulationClass) String() string {
	switch c {
	case ModulationDSSS:
		return "DSSS"
	case ModulationOFDM:
		return "OFDM"
	case ModulationHT:
		return "HT"
	default:
		return "UNKNOWN"
	}
}

// CodeRate is the convolutional coding rate of an OFDM or HT mode.
type CodeRate int

const (
	CodeRateUndefined CodeRate = iota
	CodeRate1_2
	CodeRate2_3
	CodeRate3_4
	CodeRate5_6
)

// Fraction returns the coding rate as numerator and denominator; uncoded
// modes report 1/1.
func (r CodeRate) Fraction() (num, den uint64) {
	switch r {
	case CodeRate1_2:
		return 1, 2
	case CodeRate2_3:
		return 2, 3
	case CodeRate3_4:
		return 3, 4
	case CodeRate5_6:
		return 5, 6
	default:
		return 1, 1
	}
}

// Mode describes one modulation and coding scheme on the medium.
//
// DataRate is the rate seen by the MAC. The raw rate on the air, which
// is what a chunk of airtime is converted to bits with, is PhyRate.
type Mode struct {
	Name              string          `yaml:"name"`
	Class             ModulationClass `yaml:"class"`
	BandwidthHz       uint32          `yaml:"bandwidthHz"`
	DataRate          uint64          `yaml:"dataRate"`
	CodeRate          CodeRate        `yaml:"codeRate"`
	ConstellationSize uint16          `yaml:"constellationSize"`
}

// PhyRate returns the coded bit rate in bits per second.
func (m Mode) PhyRate() uint64 {
	num, den := m.CodeRate.Fraction()
	return m.DataRate * den / num
}

func (m Mode) String() string {
	return m.Name
}

// DSSS modes.
var (
	DsssRate1Mbps = Mode{Name: "DsssRate1Mbps", Class: ModulationDSSS, BandwidthHz: 22000000, DataRate: 1000000, ConstellationSize: 2}
	DsssRate2Mbps = Mode{Name: "DsssRate2Mbps", Class: ModulationDSSS, BandwidthHz: 22000000, DataRate: 2000000, ConstellationSize: 4}
)

// OFDM modes at 20 MHz.
var (
	OfdmRate6Mbps  = Mode{Name: "OfdmRate6Mbps", Class: ModulationOFDM, BandwidthHz: 20000000, DataRate: 6000000, CodeRate: CodeRate1_2, ConstellationSize: 2}
	OfdmRate9Mbps  = Mode{Name: "OfdmRate9Mbps", Class: ModulationOFDM, BandwidthHz: 20000000, DataRate: 9000000, CodeRate: CodeRate3_4, ConstellationSize: 2}
	OfdmRate12Mbps = Mode{Name: "OfdmRate12Mbps", Class: ModulationOFDM, BandwidthHz: 20000000, DataRate: 12000000, CodeRate: CodeRate1_2, ConstellationSize: 4}
	OfdmRate18Mbps = Mode{Name: "OfdmRate18Mbps", Class: ModulationOFDM, BandwidthHz: 20000000, DataRate: 18000000, CodeRate: CodeRate3_4, ConstellationSize: 4}
	OfdmRate24Mbps = Mode{Name: "OfdmRate24Mbps", Class: ModulationOFDM, BandwidthHz: 20000000, DataRate: 24000000, CodeRate: CodeRate1_2, ConstellationSize: 16}
	OfdmRate36Mbps = Mode{Name: "OfdmRate36Mbps", Class: ModulationOFDM, BandwidthHz: 20000000, DataRate: 36000000, CodeRate: CodeRate3_4, ConstellationSize: 16}
	OfdmRate48Mbps = Mode{Name: "OfdmRate48Mbps", Class: ModulationOFDM, BandwidthHz: 20000000, DataRate: 48000000, CodeRate: CodeRate2_3, ConstellationSize: 64}
	OfdmRate54Mbps = Mode{Name: "OfdmRate54Mbps", Class: ModulationOFDM, BandwidthHz: 20000000, DataRate: 54000000, CodeRate: CodeRate3_4, ConstellationSize: 64}
)

// HT modes at 20 MHz, long guard interval, single stream.
var (
	HtMcs0 = Mode{Name: "HtMcs0", Class: ModulationHT, BandwidthHz: 20000000, DataRate: 6500000, CodeRate: CodeRate1_2, ConstellationSize: 2}
	HtMcs1 = Mode{Name: "HtMcs1", Class: ModulationHT, BandwidthHz: 20000000, DataRate: 13000000, CodeRate: CodeRate1_2, ConstellationSize: 4}
	HtMcs2 = Mode{Name: "HtMcs2", Class: ModulationHT, BandwidthHz: 20000000, DataRate: 19500000, CodeRate: CodeRate3_4, ConstellationSize: 4}
	HtMcs3 = Mode{Name: "HtMcs3", Class: ModulationHT, BandwidthHz: 20000000, DataRate: 26000000, CodeRate: CodeRate1_2, ConstellationSize: 16}
	HtMcs4 = Mode{Name: "HtMcs4", Class: ModulationHT, BandwidthHz: 20000000, DataRate: 39000000, CodeRate: CodeRate3_4, ConstellationSize: 16}
	HtMcs5 = Mode{Name: "HtMcs5", Class: ModulationHT, BandwidthHz: 20000000, DataRate: 52000000, CodeRate: CodeRate2_3, ConstellationSize: 64}
	HtMcs6 = Mode{Name: "HtMcs6", Class: ModulationHT, BandwidthHz: 20000000, DataRate: 58500000, CodeRate: CodeRate3_4, ConstellationSize: 64}
	HtMcs7 = Mode{Name: "HtMcs7", Class: ModulationHT, BandwidthHz: 20000000, DataRate: 65000000, CodeRate: CodeRate5_6, ConstellationSize: 64}
)

var catalog = func() map[string]Mode {
	all := []Mode{
		DsssRate1Mbps, DsssRate2Mbps,
		OfdmRate6Mbps, OfdmRate9Mbps, OfdmRate12Mbps, OfdmRate18Mbps,
		OfdmRate24Mbps, OfdmRate36Mbps, OfdmRate48Mbps, OfdmRate54Mbps,
		HtMcs0, HtMcs1, HtMcs2, HtMcs3, HtMcs4, HtMcs5, HtMcs6, HtMcs7,
	}
	out := make(map[string]Mode, len(all))
	for _, m := range all {
		out[m.Name] = m
	}
	return out
}()

// LookupMode returns the catalog mode with the given name.
func LookupMode(name string) (Mode, error) {
	m, ok := catalog[name]
	if !ok {
		return Mode{}, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return m, nil
}

// ModeNames returns all catalog mode names in sorted order.
func ModeNames() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
