// The testdata package provides message fixtures shared by the tests
// of the other packages.  The data word values were worked out by hand
// from the field layouts so that the packing and unpacking code is
// tested against an independent source, not against itself.
package testdata

import (
	"github.com/ycxzf/gpsd/rtcm2/word"
)

// HeaderWord0 is the first header data word of the fixtures: preamble
// 0x66, message type 1, station ID 666.
const HeaderWord0 = 0x66069A

// HeaderWord1WordCount2 is the second header data word: modified
// z-count 1000 (600 seconds), sequence 2, word count 2, health 0.
const HeaderWord1WordCount2 = 0x1F4210

// HeaderWord1WordCount5 is the same with word count 5.
const HeaderWord1WordCount5 = 0x1F4228

// Type1OneSatellite is a complete type 1 message with one correction:
// scale factor 0, UDRE 1, satellite 3, PRC 1000 (20 metres), RRC -2
// (-0.004 metres/second), IOD 7, followed by eight bits of alternating
// fill.
var Type1OneSatellite = []uint32{
	HeaderWord0,
	HeaderWord1WordCount2,
	0x2303E8,
	0xFE07AA,
}

// Words builds the transmission words for a sequence of data words,
// chaining the parity from an all-zero context, as for a stream the
// receiver has just synchronised to.
func Words(dataWords []uint32) []word.Word {
	words := make([]word.Word, 0, len(dataWords))
	var prev word.Word
	for _, data := range dataWords {
		w := word.New(data, prev)
		words = append(words, w)
		prev = w
	}
	return words
}

// Damage returns a copy of the words with one data bit of the given
// word flipped, so that its parity check fails.
func Damage(words []word.Word, wordNumber int) []word.Word {
	damaged := make([]word.Word, len(words))
	copy(damaged, words)
	damaged[wordNumber] ^= 1 << 15
	return damaged
}
