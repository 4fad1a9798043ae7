// The cursor package provides bit-level access to the data bits of an
// RTCM version 2 message.  The message fields are packed contiguously
// across a sequence of 24-bit data words with no alignment, so a field
// may start in one word and end in the next.  All bit shifting and
// masking in the decoder happens here.
package cursor

import (
	"errors"
	"fmt"
)

// ErrTruncated is returned when a read runs past the end of the word
// sequence.
var ErrTruncated = errors.New("truncated")

// ErrFieldOverflow is returned when a value to be written does not fit
// in the width of its field.
var ErrFieldOverflow = errors.New("field overflow")

// bitsPerWord is the number of data bits in each word.
const bitsPerWord = 24

// MaxFieldWidth is the widest field that can be read or written in one
// call.  Wider quantities (such as the 32-bit coordinates in a type 3
// message) are handled as two fields by the caller.
const MaxFieldWidth = 24

// Cursor reads and writes bit fields over a sequence of 24-bit data
// words, most significant bit first.  A reader operates over a fixed
// word sequence; a writer grows its sequence as needed.  The cursor is
// owned by a single operation for its duration - it is not safe for
// concurrent use.
type Cursor struct {
	words   []uint32
	pos     uint
	writing bool
}

// NewReader creates a cursor reading from the given data words.
func NewReader(words []uint32) *Cursor {
	return &Cursor{words: words}
}

// NewWriter creates a cursor writing into a fresh word sequence.
func NewWriter() *Cursor {
	return &Cursor{writing: true}
}

// Pos returns the cursor's position as a bit offset from the start of
// the word sequence.
func (c *Cursor) Pos() uint {
	return c.pos
}

// BitsRemaining returns the number of unread bits left in a reader's
// word budget.
func (c *Cursor) BitsRemaining() uint {
	total := uint(len(c.words)) * bitsPerWord
	if c.pos >= total {
		return 0
	}
	return total - c.pos
}

// Words returns the word sequence built by a writer, padded to a whole
// number of words with zero bits.
func (c *Cursor) Words() []uint32 {
	return c.words
}

// ReadUnsigned returns the next width bits as an unsigned integer and
// advances the cursor.  The read may span a word boundary.
func (c *Cursor) ReadUnsigned(width uint) (uint32, error) {
	if width < 1 || width > MaxFieldWidth {
		return 0, fmt.Errorf("%w: illegal field width %d", ErrTruncated, width)
	}
	if width > c.BitsRemaining() {
		return 0, fmt.Errorf("%w: need %d bits, %d left",
			ErrTruncated, width, c.BitsRemaining())
	}

	// Collect the bits one at a time, most significant first.  (The
	// RTKLIB getbitu function works the same way.)
	var result uint32
	for i := c.pos; i < c.pos+width; i++ {
		word := c.words[i/bitsPerWord]
		bit := (word >> (bitsPerWord - 1 - i%bitsPerWord)) & 1
		result = (result << 1) | bit
	}
	c.pos += width

	return result, nil
}

// ReadSigned returns the next width bits as a two's-complement signed
// integer, sign-extended from the declared width, and advances the
// cursor.
func (c *Cursor) ReadSigned(width uint) (int32, error) {
	uval, err := c.ReadUnsigned(width)
	if err != nil {
		return 0, err
	}

	// If the top bit of the field is set the value is negative: give
	// the top bit its negative weight and add the rest.
	mask := uint32(1) << (width - 1)
	if uval&mask == 0 {
		return int32(uval), nil
	}
	return -int32(uval&mask) + int32(uval&^mask), nil
}

// WriteUnsigned writes value into the next width bits, allocating a
// new word when the write runs off the end of the sequence.
func (c *Cursor) WriteUnsigned(value uint32, width uint) error {
	if width < 1 || width > MaxFieldWidth {
		return fmt.Errorf("%w: illegal field width %d", ErrFieldOverflow, width)
	}
	if width < 32 && value >= 1<<width {
		return fmt.Errorf("%w: %d does not fit in %d bits",
			ErrFieldOverflow, value, width)
	}

	for i := c.pos; i < c.pos+width; i++ {
		wordNumber := i / bitsPerWord
		for uint(len(c.words)) <= wordNumber {
			c.words = append(c.words, 0)
		}
		bit := (value >> (width - 1 - (i - c.pos))) & 1
		if bit != 0 {
			c.words[wordNumber] |= 1 << (bitsPerWord - 1 - i%bitsPerWord)
		} else {
			c.words[wordNumber] &^= 1 << (bitsPerWord - 1 - i%bitsPerWord)
		}
	}
	c.pos += width

	return nil
}

// WriteSigned writes a two's-complement signed value into the next
// width bits.
func (c *Cursor) WriteSigned(value int32, width uint) error {
	if width < 1 || width > MaxFieldWidth {
		return fmt.Errorf("%w: illegal field width %d", ErrFieldOverflow, width)
	}
	min := -(int32(1) << (width - 1))
	max := (int32(1) << (width - 1)) - 1
	if value < min || value > max {
		return fmt.Errorf("%w: %d does not fit in %d bits signed",
			ErrFieldOverflow, value, width)
	}

	mask := (uint32(1) << width) - 1
	return c.WriteUnsigned(uint32(value)&mask, width)
}
