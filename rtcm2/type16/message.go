// The type16 package handles messages of type 16 (special message),
// free text from the reference station operator.
package type16

import (
	"fmt"

	"github.com/ycxzf/gpsd/rtcm2/utils"
)

// Message contains a message of type 16.
type Message struct {
	// Text is the message text, up to 90 characters.
	Text string `json:"text"`

	// Padding is the number of trailing zero characters that padded
	// the text out to a word boundary on the wire.  Repacking writes
	// them again, so the repacked message keeps its word count.
	Padding uint `json:"padding"`
}

// New creates a type 16 message.
func New(text string) (*Message, error) {
	if len(text) > utils.MaxSpecialMessageLength {
		return nil, fmt.Errorf("special message text has %d characters, max %d",
			len(text), utils.MaxSpecialMessageLength)
	}
	message := Message{Text: text}
	return &message, nil
}

// FromTuples builds the message from the character groups of the
// bitstream.  Each tuple holds one 8-bit character.  Trailing zero
// bytes are padding and are recorded separately from the text.
func FromTuples(tuples [][]int64) (*Message, error) {
	b := make([]byte, 0, len(tuples))
	for _, tuple := range tuples {
		if len(tuple) != 1 {
			return nil, fmt.Errorf("special message character group has %d fields, want 1",
				len(tuple))
		}
		b = append(b, byte(tuple[0]))
	}
	var padding uint
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
		padding++
	}
	return &Message{Text: string(b), Padding: padding}, nil
}

// Tuples returns the character groups for the bitstream, one 8-bit
// character per tuple, the padding characters included.
func (message *Message) Tuples() [][]int64 {
	tuples := make([][]int64, 0, uint(len(message.Text))+message.Padding)
	for i := 0; i < len(message.Text); i++ {
		tuples = append(tuples, []int64{int64(message.Text[i])})
	}
	for i := uint(0); i < message.Padding; i++ {
		tuples = append(tuples, []int64{0})
	}
	return tuples
}

// String returns a readable version of the message.
func (message *Message) String() string {
	return fmt.Sprintf("special message: %q\n", message.Text)
}
