package core

import (
	"time"

	"github.com/signalsfoundry/wifi-interference/model"
)

// Event is the latest known transmission from one transmitter: its size,
// framing, airtime window and received power.
//
// The helper hands out *Event handles and keeps mutating them in place
// when the same transmitter reports again or its end time is extended.
// Holders of a handle therefore always observe the current state; copy
// the fields out if a snapshot is needed.
type Event struct {
	size        uint64
	payloadMode model.Mode
	preamble    model.Preamble
	startTime   time.Time
	endTime     time.Time
	rxPowerW    float64
	txVector    model.TxVector
	address     model.Mac48Address
}

// NewEvent builds an Event occupying [start, end]. An end before start is
// clamped to start.
func NewEvent(size uint64, payloadMode model.Mode, preamble model.Preamble, start, end time.Time, rxPowerW float64, txVector model.TxVector, address model.Mac48Address) *Event {
	if end.Before(start) {
		end = start
	}
	return &Event{
		size:        size,
		payloadMode: payloadMode,
		preamble:    preamble,
		startTime:   start,
		endTime:     end,
		rxPowerW:    rxPowerW,
		txVector:    txVector,
		address:     address,
	}
}

func (e *Event) Size() uint64                { return e.size }
func (e *Event) PayloadMode() model.Mode     { return e.payloadMode }
func (e *Event) Preamble() model.Preamble    { return e.preamble }
func (e *Event) StartTime() time.Time        { return e.startTime }
func (e *Event) EndTime() time.Time          { return e.endTime }
func (e *Event) Duration() time.Duration     { return e.endTime.Sub(e.startTime) }
func (e *Event) RxPowerW() float64           { return e.rxPowerW }
func (e *Event) TxVector() model.TxVector    { return e.txVector }
func (e *Event) Address() model.Mac48Address { return e.address }

// overwrite copies every reported field of src into e, keeping e's
// identity.
func (e *Event) overwrite(src *Event) {
	e.size = src.size
	e.payloadMode = src.payloadMode
	e.preamble = src.preamble
	e.startTime = src.startTime
	e.endTime = src.endTime
	e.rxPowerW = src.rxPowerW
	e.txVector = src.txVector
}

func (e *Event) setEndTime(t time.Time) {
	e.endTime = t
}
