package model

// TxVector carries the per-transmission parameters that shape PLCP timing.
type TxVector struct {
	Mode Mode

	// Nss is the number of spatial streams; 0 is treated as 1.
	Nss uint8
	// Ness is the number of extension spatial streams.
	Ness uint8

	ShortGuardInterval bool
}

// NewTxVector returns a single-stream, long-GI vector for mode.
func NewTxVector(mode Mode) TxVector {
	return TxVector{Mode: mode, Nss: 1}
}

func (v TxVector) spatialStreams() uint8 {
	if v.Nss == 0 {
		return 1
	}
	return v.Nss
}
