// The message package unpacks RTCM version 2 messages from sequences
// of transmission words and repacks them again.  The field layout of
// each supported message type is given by its descriptor and the same
// descriptor drives both directions, so a message survives a decode
// and re-encode cycle bit for bit.
package message

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ycxzf/gpsd/rtcm2/cursor"
	"github.com/ycxzf/gpsd/rtcm2/descriptor"
	"github.com/ycxzf/gpsd/rtcm2/header"
	"github.com/ycxzf/gpsd/rtcm2/type1"
	"github.com/ycxzf/gpsd/rtcm2/type14"
	"github.com/ycxzf/gpsd/rtcm2/type16"
	"github.com/ycxzf/gpsd/rtcm2/type3"
	"github.com/ycxzf/gpsd/rtcm2/utils"
	"github.com/ycxzf/gpsd/rtcm2/word"
)

// ErrBadLength is returned when the word count in the header does not
// agree with the number of words supplied or with the message type's
// layout.
var ErrBadLength = errors.New("bad length")

// ErrTrailingBits is returned when bits are left over after the last
// field of a message that cannot be fill.
var ErrTrailingBits = errors.New("trailing bits")

// ErrUnsupportedType is returned on an attempt to repack a message
// whose type has no descriptor.
var ErrUnsupportedType = errors.New("unsupported message type")

// Raw is the payload of a message with no known layout - the data
// words after the header, kept as they arrived.
type Raw struct {
	DataWords []uint32 `json:"data_words"`
}

// Message is one RTCM message: the two-word header and a payload.  The
// payload is one of *type1.Message (types 1 and 9), *type3.Message,
// *type14.Message, *type16.Message or *Raw.
type Message struct {
	Header  *header.Header `json:"header"`
	Payload interface{}    `json:"payload"`
}

// Unpack extracts the message carried by a sequence of transmission
// words.  The words are assumed to have passed the parity check.
func Unpack(words []word.Word) (*Message, error) {
	dataWords := make([]uint32, 0, len(words))
	for _, w := range words {
		dataWords = append(dataWords, w.Data())
	}

	h, err := header.GetHeader(dataWords)
	if err != nil {
		return nil, err
	}

	if h.WordCount != uint(len(dataWords)-utils.HeaderLengthWords) {
		return nil, fmt.Errorf("%w: header says %d data words, got %d",
			ErrBadLength, h.WordCount, len(dataWords)-utils.HeaderLengthWords)
	}
	if !descriptor.LengthCheck(h.MessageType, h.WordCount) {
		return nil, fmt.Errorf("%w: %d data words is illegal for message type %d",
			ErrBadLength, h.WordCount, h.MessageType)
	}

	body := dataWords[utils.HeaderLengthWords:]

	d := descriptor.Lookup(h.MessageType)
	if d == nil {
		return &Message{Header: h, Payload: &Raw{DataWords: body}}, nil
	}

	fields, tuples, err := readFields(cursor.NewReader(body), d)
	if err != nil {
		return nil, err
	}

	payload, err := makePayload(h.MessageType, fields, tuples)
	if err != nil {
		return nil, err
	}
	return &Message{Header: h, Payload: payload}, nil
}

// readFields walks the descriptor over the body of the message,
// returning the fixed field values and the repeat group tuples.  Any
// bits after the last whole group element are fill, padding the
// message out to a word boundary, and their content is ignored.
func readFields(c *cursor.Cursor, d *descriptor.Descriptor) ([]int64, [][]int64, error) {

	readField := func(field descriptor.Field) (int64, error) {
		if field.Signed {
			v, err := c.ReadSigned(field.Width)
			return int64(v), err
		}
		v, err := c.ReadUnsigned(field.Width)
		return int64(v), err
	}

	var fields []int64
	for _, field := range d.Fixed {
		value, err := readField(field)
		if err != nil {
			return nil, nil, err
		}
		fields = append(fields, value)
	}

	var tuples [][]int64
	if d.Group != nil {
		groupBits := d.GroupBits()
		for c.BitsRemaining() >= groupBits {
			tuple := make([]int64, 0, len(d.Group))
			for _, field := range d.Group {
				value, err := readField(field)
				if err != nil {
					return nil, nil, err
				}
				tuple = append(tuple, value)
			}
			tuples = append(tuples, tuple)
		}
	}

	if remaining := c.BitsRemaining(); remaining >= utils.DataBitsPerWord ||
		(d.Group == nil && remaining != 0) {
		return nil, nil, fmt.Errorf("%w: %d bits left after the last field",
			ErrTrailingBits, remaining)
	}

	return fields, tuples, nil
}

// makePayload converts raw field values into the typed payload for the
// message type.
func makePayload(messageType uint, fields []int64, tuples [][]int64) (interface{}, error) {
	switch messageType {
	case utils.MessageTypeFullCorrections, utils.MessageTypeSubsetCorrections:
		return type1.FromTuples(messageType, tuples)
	case utils.MessageTypeRefStation:
		return type3.FromFields(fields)
	case utils.MessageTypeGPSTime:
		return type14.FromFields(fields)
	case utils.MessageTypeSpecial:
		return type16.FromTuples(tuples)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, messageType)
	}
}

// payloadFields converts the typed payload back into raw field values.
// The payload's concrete type must agree with the message type in the
// header.
func payloadFields(messageType uint, payload interface{}) ([]int64, [][]int64, error) {
	switch p := payload.(type) {
	case *type1.Message:
		if messageType != utils.MessageTypeFullCorrections &&
			messageType != utils.MessageTypeSubsetCorrections {
			break
		}
		return nil, p.Tuples(), nil
	case *type3.Message:
		if messageType != utils.MessageTypeRefStation {
			break
		}
		return p.Fields(), nil, nil
	case *type14.Message:
		if messageType != utils.MessageTypeGPSTime {
			break
		}
		return p.Fields(), nil, nil
	case *type16.Message:
		if messageType != utils.MessageTypeSpecial {
			break
		}
		return nil, p.Tuples(), nil
	}
	return nil, nil, fmt.Errorf("%w: message type %d with payload %T",
		ErrUnsupportedType, messageType, payload)
}

// Repack builds the transmission words for a message.  The word count
// in the header is recomputed from the payload, so a caller can grow
// or shrink the payload without keeping the header in step.  The word
// sequence starts from an all-zero parity context, which is how a
// receiver that has just synchronised sees it.
func Repack(m *Message) ([]word.Word, error) {
	var body []uint32

	if raw, ok := m.Payload.(*Raw); ok {
		body = raw.DataWords
	} else {
		fields, tuples, err := payloadFields(m.Header.MessageType, m.Payload)
		if err != nil {
			return nil, err
		}
		body, err = writeFields(m.Header.MessageType, fields, tuples)
		if err != nil {
			return nil, err
		}
	}

	if uint(len(body)) > utils.MaxWordCount {
		return nil, fmt.Errorf("%w: payload needs %d data words, limit is %d",
			ErrBadLength, len(body), utils.MaxWordCount)
	}

	hdr := *m.Header
	hdr.WordCount = uint(len(body))

	c := cursor.NewWriter()
	if err := hdr.Put(c); err != nil {
		return nil, err
	}
	dataWords := append(c.Words(), body...)

	// Chain the parity through the whole sequence.
	words := make([]word.Word, 0, len(dataWords))
	var prev word.Word
	for _, data := range dataWords {
		w := word.New(data, prev)
		words = append(words, w)
		prev = w
	}
	return words, nil
}

// writeFields packs raw field values into data words under the
// message type's descriptor, padding the final partial word with fill.
func writeFields(messageType uint, fields []int64, tuples [][]int64) ([]uint32, error) {
	d := descriptor.Lookup(messageType)
	if d == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, messageType)
	}

	c := cursor.NewWriter()

	writeField := func(field descriptor.Field, value int64) error {
		if field.Signed {
			return c.WriteSigned(int32(value), field.Width)
		}
		return c.WriteUnsigned(uint32(value), field.Width)
	}

	if len(fields) != len(d.Fixed) {
		return nil, fmt.Errorf("%w: message type %d needs %d fixed fields, got %d",
			ErrUnsupportedType, messageType, len(d.Fixed), len(fields))
	}
	for i, field := range d.Fixed {
		if err := writeField(field, fields[i]); err != nil {
			return nil, err
		}
	}

	for _, tuple := range tuples {
		if len(tuple) != len(d.Group) {
			return nil, fmt.Errorf("%w: message type %d group needs %d fields, got %d",
				ErrUnsupportedType, messageType, len(d.Group), len(tuple))
		}
		for i, field := range d.Group {
			if err := writeField(field, tuple[i]); err != nil {
				return nil, err
			}
		}
	}

	// Pad out to a word boundary.  A special message pads with zero
	// bits, which the decoder reads back as padding characters;
	// anything else pads with alternating bits, the traditional fill
	// pattern.  The fill is always this canonical form, whatever the
	// incoming message carried.
	fill := uint32(1)
	if messageType == utils.MessageTypeSpecial {
		fill = 0
	}
	for c.Pos()%utils.DataBitsPerWord != 0 {
		if err := c.WriteUnsigned(fill, 1); err != nil {
			return nil, err
		}
		if messageType != utils.MessageTypeSpecial {
			fill ^= 1
		}
	}

	return c.Words(), nil
}

// String returns a readable version of the message in the form
// produced for a display log: the title of the message type, the
// header and the payload.
func (m *Message) String() string {
	var b strings.Builder

	tc := utils.GetTitleAndComment(m.Header.MessageType)
	fmt.Fprintf(&b, "Message type %d - %s\n", m.Header.MessageType, tc.Title)
	b.WriteString(m.Header.String())
	b.WriteByte('\n')

	switch p := m.Payload.(type) {
	case *type1.Message:
		b.WriteString(p.String())
	case *type3.Message:
		b.WriteString(p.String())
	case *type14.Message:
		b.WriteString(p.String())
	case *type16.Message:
		b.WriteString(p.String())
	case *Raw:
		for i, dw := range p.DataWords {
			fmt.Fprintf(&b, "data word %d: 0x%06x\n", i, dw)
		}
	default:
		fmt.Fprintf(&b, "unknown payload %T\n", p)
	}

	return b.String()
}
