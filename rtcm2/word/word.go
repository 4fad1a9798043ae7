// The word package handles the 30-bit words in which RTCM version 2
// messages are transmitted.  The format is inherited from the GPS
// navigation message: 24 data bits followed by 6 parity bits, with the
// parity of each word chained to the last two parity bits of the word
// before it.
package word

import (
	"fmt"
	"math/bits"
)

// A word is held in a uint32.  The top two bits are the parity context:
// the trailing two parity bits (D29 and D30) of the previous word.
// When D30 of the previous word is set, the data bits of this word were
// transmitted complemented - "polarity inversion".  The parity bits are
// never inverted.
//
//	bit 31     D29 of the previous word (D29*)
//	bit 30     D30 of the previous word (D30*)
//	bits 29-6  the 24 data bits D1-D24, D1 most significant
//	bits 5-0   the 6 parity bits D25-D30, D25 most significant

const d29Mask = 0x80000000
const d30Mask = 0x40000000
const dataMask = 0x3fffffc0
const parityMask = 0x3f

// parityTaps gives, for each of the six parity bits D25-D30, the bits
// of the word that participate in its parity sum.  The masks cover the
// context bits and the data bits and come from the GPS interface
// specification (ICD-GPS-200, table 20-XIV): for example D25 is the
// exclusive-or of D29* and data bits 1,2,3,5,6,10,11,12,13,14,17,18,20
// and 23.
var parityTaps = [6]uint32{
	0xbb1f3480, // D25
	0x5d8f9a40, // D26
	0xaec7cd00, // D27
	0x5763e680, // D28
	0x6bb1f340, // D29
	0x8b7a89c0, // D30
}

// Word is one 30-bit transmission word plus the two context bits
// inherited from the previous word.
type Word uint32

// Inverted reports whether the data bits of the word were transmitted
// complemented.  That happens exactly when the last parity bit of the
// previous word (D30*) is set.
func (w Word) Inverted() bool {
	return w&d30Mask != 0
}

// Data returns the 24 data bits of the word with any polarity
// inversion removed.
func (w Word) Data() uint32 {
	data := (uint32(w) & dataMask) >> 6
	if w.Inverted() {
		data = ^data & 0xffffff
	}
	return data
}

// Parity returns the six parity bits as received.
func (w Word) Parity() uint32 {
	return uint32(w) & parityMask
}

// computeParity evaluates the parity equations over a word whose data
// bits are in source (un-inverted) form.
func computeParity(w uint32) uint32 {
	var parity uint32
	for _, tap := range parityTaps {
		parity = (parity << 1) | uint32(bits.OnesCount32(w&tap)&1)
	}
	return parity
}

// ParityOK reports whether the word's parity bits satisfy the check
// equations given its context bits.
func (w Word) ParityOK() bool {
	u := uint32(w)
	if w.Inverted() {
		// The equations run over the source data bits.
		u ^= dataMask
	}
	return computeParity(u) == w.Parity()
}

// New builds the transmission word carrying the given 24 data bits,
// chaining the parity context from the previous word.  If the previous
// word's D30 is set, the data bits are complemented for transmission.
func New(data uint32, prev Word) Word {
	data &= 0xffffff

	// D29* and D30* are the bottom two parity bits of the previous word.
	var context uint32
	if uint32(prev)&0x2 != 0 {
		context |= d29Mask
	}
	if uint32(prev)&0x1 != 0 {
		context |= d30Mask
	}

	parity := computeParity(context | data<<6)

	if context&d30Mask != 0 {
		data = ^data & 0xffffff
	}

	return Word(context | data<<6 | parity)
}

// String gives the word as a breakdown of its parts, for tracing.
func (w Word) String() string {
	return fmt.Sprintf("data 0x%06x parity 0x%02x inverted %v",
		w.Data(), w.Parity(), w.Inverted())
}
