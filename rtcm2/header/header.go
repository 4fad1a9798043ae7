// The header package handles the two-word header at the start of every
// RTCM version 2 message.
package header

import (
	"fmt"

	"github.com/ycxzf/gpsd/rtcm2/cursor"
	"github.com/ycxzf/gpsd/rtcm2/utils"
)

// Field lengths in bits.
const LenPreamble = 8
const LenMessageType = 6
const LenStationID = 10
const LenZCount = 13
const LenSequence = 3
const LenWordCount = 5
const LenHealth = 3

// Header is the fixed prefix of every message.
type Header struct {
	// MessageType - uint6 - selects the layout of the data words.
	MessageType uint `json:"message_type"`

	// StationID - uint10 - the reference station that sent the message.
	StationID uint `json:"station_id"`

	// ZCount - uint13 - the modified z-count, the time of the message
	// within the hour in 0.6-second units.
	ZCount uint `json:"z_count"`

	// Sequence - uint3 - modulo-8 message counter, used by the receiver
	// to spot gaps in the stream.
	Sequence uint `json:"sequence"`

	// WordCount - uint5 - the number of data words following the header.
	WordCount uint `json:"word_count"`

	// Health - uint3 - the health of the reference station.
	Health uint `json:"health"`
}

// GetHeader extracts the header from the data bits of the first two
// words of a message.
func GetHeader(dataWords []uint32) (*Header, error) {

	if len(dataWords) < utils.HeaderLengthWords {
		return nil, fmt.Errorf("%w: got %d words of a %d-word header",
			cursor.ErrTruncated, len(dataWords), utils.HeaderLengthWords)
	}

	c := cursor.NewReader(dataWords[:utils.HeaderLengthWords])

	// The preamble has been checked by this point (see the handler
	// package) but it still has to be skipped.
	preamble, err := c.ReadUnsigned(LenPreamble)
	if err != nil {
		return nil, err
	}
	if preamble != utils.PreamblePattern {
		return nil, fmt.Errorf("preamble 0x%02x, want 0x%02x",
			preamble, utils.PreamblePattern)
	}

	var header Header
	fields := []struct {
		target *uint
		width  uint
	}{
		{&header.MessageType, LenMessageType},
		{&header.StationID, LenStationID},
		{&header.ZCount, LenZCount},
		{&header.Sequence, LenSequence},
		{&header.WordCount, LenWordCount},
		{&header.Health, LenHealth},
	}
	for _, field := range fields {
		value, err := c.ReadUnsigned(field.width)
		if err != nil {
			return nil, err
		}
		*field.target = uint(value)
	}

	// The field is wide enough to run past the end of the hour.
	if header.ZCount > utils.MaxZCount {
		return nil, fmt.Errorf("z-count %d, max %d", header.ZCount, utils.MaxZCount)
	}

	return &header, nil
}

// Put writes the header, including the preamble pattern, through the
// given cursor.  The cursor should be at the start of its word
// sequence.
func (header *Header) Put(c *cursor.Cursor) error {

	fields := []struct {
		value uint
		width uint
	}{
		{utils.PreamblePattern, LenPreamble},
		{header.MessageType, LenMessageType},
		{header.StationID, LenStationID},
		{header.ZCount, LenZCount},
		{header.Sequence, LenSequence},
		{header.WordCount, LenWordCount},
		{header.Health, LenHealth},
	}
	for _, field := range fields {
		if err := c.WriteUnsigned(uint32(field.value), field.width); err != nil {
			return err
		}
	}

	return nil
}

// ZCountSeconds returns the modified z-count as seconds into the hour.
func (header *Header) ZCountSeconds() float64 {
	return float64(header.ZCount) * utils.ZCountScale
}

// String returns a one-line readable version of the header.
func (header *Header) String() string {
	return fmt.Sprintf(
		"type %d, station %d, z-count %d (%.1fs), sequence %d, %d data words, health %d",
		header.MessageType, header.StationID, header.ZCount,
		header.ZCountSeconds(), header.Sequence, header.WordCount,
		header.Health)
}
