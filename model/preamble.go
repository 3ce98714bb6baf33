package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPreamble is returned when a preamble name cannot be parsed.
var ErrUnknownPreamble = errors.New("unknown preamble")

// Preamble selects the PLCP framing variant of a frame.
type Preamble int

const (
	PreambleLong Preamble = iota
	PreambleShort
	PreambleHTMixed      // HT mixed format: L-SIG followed by HT-SIG
	PreambleHTGreenfield // HT greenfield: no legacy L-SIG
)

func (p Preamble) String() string {
	switch p {
	case PreambleLong:
		return "long"
	case PreambleShort:
		return "short"
	case PreambleHTMixed:
		return "ht-mf"
	case PreambleHTGreenfield:
		return "ht-gf"
	default:
		return fmt.Sprintf("preamble(%d)", int(p))
	}
}

// IsLegacy reports whether the frame carries no HT-SIG or training symbols.
func (p Preamble) IsLegacy() bool {
	return p == PreambleLong || p == PreambleShort
}

// ParsePreamble maps a configuration string to a Preamble.
func ParsePreamble(s string) (Preamble, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "":
		return PreambleLong, nil
	case "short":
		return PreambleShort, nil
	case "ht-mf", "mixed", "ht_mf":
		return PreambleHTMixed, nil
	case "ht-gf", "greenfield", "ht_gf":
		return PreambleHTGreenfield, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPreamble, s)
	}
}
