package model

import (
	"fmt"
	"net"
)

// Mac48Address identifies a transmitter on the medium.
type Mac48Address [6]byte

// ParseMac48 parses a colon separated EUI-48 address.
func ParseMac48(s string) (Mac48Address, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return Mac48Address{}, fmt.Errorf("parse mac48 %q: %w", s, err)
	}
	if len(hw) != 6 {
		return Mac48Address{}, fmt.Errorf("parse mac48 %q: not a 48-bit address", s)
	}
	var a Mac48Address
	copy(a[:], hw)
	return a, nil
}

// Mac48FromIndex allocates a locally administered address from n, the
// way simulators number their devices.
func Mac48FromIndex(n uint32) Mac48Address {
	return Mac48Address{0x02, 0x00, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func (a Mac48Address) String() string {
	return net.HardwareAddr(a[:]).String()
}
