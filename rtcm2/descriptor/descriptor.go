// The descriptor package holds the static layout table for RTCM
// version 2 messages.  A message type's descriptor lists its fields in
// wire order - widths, signedness and any repeat group - and one
// generic engine in the message package walks the descriptor for both
// unpack and repack.  The table contents come from the RTCM SC-104
// version 2 standard.
package descriptor

import "github.com/ycxzf/gpsd/rtcm2/utils"

// Field describes one bit field of a message.  Fields wider than 24
// bits are split into a high and low part because they can exceed the
// width of a data word (see the type 3 coordinates).
type Field struct {
	// Name of the field, used in error reports.
	Name string

	// Width of the field in bits, 1 to 24.
	Width uint

	// Signed is true for two's-complement fields.
	Signed bool
}

// CountRule says how the element count of a repeat group is found.
type CountRule int

const (
	// CountNone - the message has no repeat group.
	CountNone CountRule = iota

	// CountRemaining - the group repeats until the declared word
	// budget is consumed.  The leftover bits, which must be too few to
	// hold another element, are boundary fill.
	CountRemaining
)

// Descriptor is the layout of one message type.
type Descriptor struct {
	// MessageType the descriptor applies to.
	MessageType uint

	// Fixed is the ordered list of fields before any repeat group.
	Fixed []Field

	// Group is the ordered list of fields of one repeat group element,
	// or nil if the type has none.
	Group []Field

	// Count is the rule giving the group's element count.
	Count CountRule

	// WordCount is the exact data word count for a fixed-length type.
	// It is zero for variable-length types.
	WordCount uint
}

// GroupBits returns the width of one repeat group element in bits.
func (d *Descriptor) GroupBits() uint {
	var bits uint
	for _, field := range d.Group {
		bits += field.Width
	}
	return bits
}

// FixedBits returns the total width of the fixed fields in bits.
func (d *Descriptor) FixedBits() uint {
	var bits uint
	for _, field := range d.Fixed {
		bits += field.Width
	}
	return bits
}

// correctionGroup is the 40-bit per-satellite correction entry shared
// by message types 1 and 9.  A satellite ID of 0 means satellite 32.
// The scale factor bit selects the scale of the PRC and RRC fields.
var correctionGroup = []Field{
	{"scale_factor", 1, false},
	{"udre", 2, false},
	{"satellite_id", 5, false},
	{"prc", 16, true},
	{"rrc", 8, true},
	{"iod", 8, false},
}

var type1 = Descriptor{
	MessageType: utils.MessageTypeFullCorrections,
	Group:       correctionGroup,
	Count:       CountRemaining,
}

var type9 = Descriptor{
	MessageType: utils.MessageTypeSubsetCorrections,
	Group:       correctionGroup,
	Count:       CountRemaining,
}

// Type 3 carries the ECEF position of the reference station antenna:
// X, Y and Z as 32-bit signed centimetre values, each split here into
// a signed high part and an unsigned low part.
var type3 = Descriptor{
	MessageType: utils.MessageTypeRefStation,
	Fixed: []Field{
		{"ecef_x_high", 24, true},
		{"ecef_x_low", 8, false},
		{"ecef_y_high", 24, true},
		{"ecef_y_low", 8, false},
		{"ecef_z_high", 24, true},
		{"ecef_z_low", 8, false},
	},
	WordCount: 4,
}

var type14 = Descriptor{
	MessageType: utils.MessageTypeGPSTime,
	Fixed: []Field{
		{"week", 10, false},
		{"hour", 8, false},
		{"leap_seconds", 6, false},
	},
	WordCount: 1,
}

var type16 = Descriptor{
	MessageType: utils.MessageTypeSpecial,
	Group:       []Field{{"char", 8, false}},
	Count:       CountRemaining,
}

var table = map[uint]*Descriptor{
	utils.MessageTypeFullCorrections:   &type1,
	utils.MessageTypeSubsetCorrections: &type9,
	utils.MessageTypeRefStation:        &type3,
	utils.MessageTypeGPSTime:           &type14,
	utils.MessageTypeSpecial:           &type16,
}

// Lookup returns the descriptor for a message type, or nil if the type
// has no known layout and must be treated as opaque.
func Lookup(messageType uint) *Descriptor {
	return table[messageType]
}

// LengthCheck reports whether the declared data word count is
// consistent with the message type.  For a fixed-length type the count
// must match exactly.  For a variable-length type the count must leave
// room for a whole number of repeat group elements: the bits left over
// after the last element must be fewer than one data word, because
// fill only ever pads the message out to a word boundary.  Types with
// no descriptor accept any count.
func LengthCheck(messageType uint, wordCount uint) bool {
	if wordCount > utils.MaxWordCount {
		return false
	}

	d := Lookup(messageType)
	if d == nil {
		return true
	}

	if d.Group == nil {
		return wordCount == d.WordCount
	}

	if wordCount*utils.DataBitsPerWord < d.FixedBits() {
		return false
	}
	totalBits := wordCount*utils.DataBitsPerWord - d.FixedBits()
	leftover := totalBits % d.GroupBits()
	return leftover < utils.DataBitsPerWord
}
