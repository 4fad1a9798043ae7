// The type3 package handles messages of type 3 (reference station
// parameters): the ECEF position of the station's antenna.
package type3

import (
	"errors"
	"fmt"
	"math"

	"github.com/ycxzf/gpsd/rtcm2/utils"
)

// Message contains a message of type 3 - reference station position.
// The coordinates are 32-bit scaled integers in 0.01 m units.
type Message struct {
	// ECEFX is the earth-centred earth-fixed X coordinate - int32 in
	// 0.01 m units.
	ECEFX int64 `json:"ecef_x"`

	// ECEFY is the ECEF Y coordinate - int32 in 0.01 m units.
	ECEFY int64 `json:"ecef_y"`

	// ECEFZ is the ECEF Z coordinate - int32 in 0.01 m units.
	ECEFZ int64 `json:"ecef_z"`
}

// New creates a type 3 message from raw coordinate values.
func New(x, y, z int64) *Message {
	message := Message{ECEFX: x, ECEFY: y, ECEFZ: z}
	return &message
}

// NewFromMetres creates a type 3 message from coordinates in metres.
// Each value must be an exact multiple of 0.01 m - anything else is an
// error, never rounded.
func NewFromMetres(x, y, z float64) (*Message, error) {
	rawX, errX := exactCentimetres(x)
	if errX != nil {
		return nil, fmt.Errorf("x: %v", errX)
	}
	rawY, errY := exactCentimetres(y)
	if errY != nil {
		return nil, fmt.Errorf("y: %v", errY)
	}
	rawZ, errZ := exactCentimetres(z)
	if errZ != nil {
		return nil, fmt.Errorf("z: %v", errZ)
	}
	return New(rawX, rawY, rawZ), nil
}

func exactCentimetres(metres float64) (int64, error) {
	raw := metres / utils.ECEFScale
	rounded := math.Round(raw)
	if math.Abs(raw-rounded) > 1e-6 {
		return 0, fmt.Errorf("%f is not a multiple of %g metres",
			metres, utils.ECEFScale)
	}
	return int64(rounded), nil
}

// XMetres returns the X coordinate in metres.
func (message *Message) XMetres() float64 { return float64(message.ECEFX) * utils.ECEFScale }

// YMetres returns the Y coordinate in metres.
func (message *Message) YMetres() float64 { return float64(message.ECEFY) * utils.ECEFScale }

// ZMetres returns the Z coordinate in metres.
func (message *Message) ZMetres() float64 { return float64(message.ECEFZ) * utils.ECEFScale }

// FromFields builds the message from raw field values in descriptor
// order: each coordinate arrives as a signed high 24 bits and an
// unsigned low 8 bits.
func FromFields(fields []int64) (*Message, error) {
	if len(fields) != 6 {
		return nil, errors.New("reference station message needs 6 fields")
	}
	x := fields[0]<<8 | fields[1]
	y := fields[2]<<8 | fields[3]
	z := fields[4]<<8 | fields[5]
	return New(x, y, z), nil
}

// Fields returns the raw field values in descriptor order - the
// inverse of FromFields.
func (message *Message) Fields() []int64 {
	return []int64{
		message.ECEFX >> 8, message.ECEFX & 0xff,
		message.ECEFY >> 8, message.ECEFY & 0xff,
		message.ECEFZ >> 8, message.ECEFZ & 0xff,
	}
}

// String returns a readable version of the message.
func (message *Message) String() string {
	return fmt.Sprintf("reference station at ECEF (%.2f, %.2f, %.2f) metres\n",
		message.XMetres(), message.YMetres(), message.ZMetres())
}
