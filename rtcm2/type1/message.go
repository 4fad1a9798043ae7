// The type1 package handles the differential correction messages,
// types 1 (full correction set) and 9 (subset correction set).  Both
// carry the same 40-bit per-satellite entries.
package type1

import (
	"errors"
	"fmt"
	"math"

	"github.com/ycxzf/gpsd/rtcm2/utils"
)

// Correction is the correction data for one satellite.  The PRC and
// RRC values are stored as the raw integers from the bit stream; the
// scale factor bit selects the units.
type Correction struct {
	// ScaleFactor - bit(1) - 0 selects the small PRC/RRC units,
	// 1 the large ones.
	ScaleFactor uint `json:"scale_factor"`

	// UDRE - uint2 - user differential range error, a quality band.
	UDRE uint `json:"udre"`

	// SatelliteID - uint5 - the satellite PRN.  0 on the wire means
	// satellite 32; the decoded value here is always 1 to 32.
	SatelliteID uint `json:"satellite_id"`

	// PRC is the pseudorange correction - int16, units of 0.02 m
	// (0.32 m when the scale factor is set).
	PRC int `json:"prc"`

	// RRC is the range-rate correction - int8, units of 0.002 m/s
	// (0.032 m/s when the scale factor is set).
	RRC int `json:"rrc"`

	// IOD - uint8 - issue of data, matching the satellite's broadcast
	// navigation data.
	IOD uint `json:"iod"`
}

// PRCMetres returns the pseudorange correction in metres.
func (c *Correction) PRCMetres() float64 {
	if c.ScaleFactor != 0 {
		return float64(c.PRC) * utils.PRCLargeScale
	}
	return float64(c.PRC) * utils.PRCSmallScale
}

// RRCMetresPerSecond returns the range-rate correction in metres per
// second.
func (c *Correction) RRCMetresPerSecond() float64 {
	if c.ScaleFactor != 0 {
		return float64(c.RRC) * utils.RRCLargeScale
	}
	return float64(c.RRC) * utils.RRCSmallScale
}

// Unusable is true when the PRC/RRC values carry the marker meaning
// that the satellite should not be used.
func (c *Correction) Unusable() bool {
	return c.PRC == utils.InvalidPRC || c.RRC == utils.InvalidRRC
}

// NewCorrectionMetres builds a Correction from values in metres.  The
// values must be exact multiples of the scale selected by the scale
// factor - a correction that cannot be represented exactly is an
// error, never rounded.
func NewCorrectionMetres(scaleFactor, udre, satelliteID uint,
	prcMetres, rrcMetres float64, iod uint) (*Correction, error) {

	prcScale, rrcScale := utils.PRCSmallScale, utils.RRCSmallScale
	if scaleFactor != 0 {
		prcScale, rrcScale = utils.PRCLargeScale, utils.RRCLargeScale
	}

	prc, prcErr := exactUnits(prcMetres, prcScale)
	if prcErr != nil {
		return nil, fmt.Errorf("prc: %v", prcErr)
	}
	rrc, rrcErr := exactUnits(rrcMetres, rrcScale)
	if rrcErr != nil {
		return nil, fmt.Errorf("rrc: %v", rrcErr)
	}

	correction := Correction{
		ScaleFactor: scaleFactor,
		UDRE:        udre,
		SatelliteID: satelliteID,
		PRC:         prc,
		RRC:         rrc,
		IOD:         iod,
	}
	return &correction, nil
}

// exactUnits converts a scaled value back to raw units, failing if the
// value is not an exact multiple of the scale.
func exactUnits(value, scale float64) (int, error) {
	raw := value / scale
	rounded := math.Round(raw)
	if math.Abs(raw-rounded) > 1e-9 {
		return 0, fmt.Errorf("%f is not a multiple of %g", value, scale)
	}
	return int(rounded), nil
}

// Message contains a correction message of type 1 or type 9.
type Message struct {
	// MessageType - 1 or 9.  The wire layout is the same; type 9
	// carries a subset of the satellites for faster turnaround.
	MessageType uint `json:"message_type"`

	// Corrections has one entry per satellite.
	Corrections []Correction `json:"corrections"`
}

// New creates a correction message.
func New(messageType uint, corrections []Correction) *Message {
	message := Message{
		MessageType: messageType,
		Corrections: corrections,
	}
	return &message
}

// FromTuples builds the message from raw repeat-group values in
// descriptor order: scale factor, UDRE, satellite ID, PRC, RRC, IOD.
func FromTuples(messageType uint, tuples [][]int64) (*Message, error) {
	corrections := make([]Correction, 0, len(tuples))
	for _, tuple := range tuples {
		if len(tuple) != 6 {
			return nil, errors.New("correction entry needs 6 fields")
		}
		satelliteID := uint(tuple[2])
		if satelliteID == 0 {
			// Satellite 32 is sent as 0.
			satelliteID = 32
		}
		correction := Correction{
			ScaleFactor: uint(tuple[0]),
			UDRE:        uint(tuple[1]),
			SatelliteID: satelliteID,
			PRC:         int(tuple[3]),
			RRC:         int(tuple[4]),
			IOD:         uint(tuple[5]),
		}
		corrections = append(corrections, correction)
	}
	return New(messageType, corrections), nil
}

// Tuples returns the raw repeat-group values in descriptor order - the
// inverse of FromTuples.
func (message *Message) Tuples() [][]int64 {
	tuples := make([][]int64, 0, len(message.Corrections))
	for i := range message.Corrections {
		c := &message.Corrections[i]
		satelliteID := c.SatelliteID
		if satelliteID == 32 {
			satelliteID = 0
		}
		tuples = append(tuples, []int64{
			int64(c.ScaleFactor),
			int64(c.UDRE),
			int64(satelliteID),
			int64(c.PRC),
			int64(c.RRC),
			int64(c.IOD),
		})
	}
	return tuples
}

// String returns a readable version of the message, one line per
// satellite.
func (message *Message) String() string {
	display := fmt.Sprintf("%d satellite corrections:\n", len(message.Corrections))
	for i := range message.Corrections {
		c := &message.Corrections[i]
		display += fmt.Sprintf(
			"sat %2d: prc %8.2fm rrc %7.3fm/s udre %d iod %3d",
			c.SatelliteID, c.PRCMetres(), c.RRCMetresPerSecond(),
			c.UDRE, c.IOD)
		if c.Unusable() {
			display += " (unusable)"
		}
		display += "\n"
	}
	return display
}
