// The utils package contains constants and general-purpose functions
// for the RTCM version 2 software.
package utils

import (
	"fmt"
	"log"

	"github.com/goblimey/go-tools/dailylogger"
)

// PreamblePattern is the 8-bit synchronisation pattern at the start of
// the first word of every message header.  On the wire the data bits of
// a word may be transmitted complemented (polarity inversion), in which
// case the receiver sees the bitwise complement of this pattern.
const PreamblePattern = 0x66

// DataBitsPerWord is the number of data bits in a 30-bit word.  The
// other six bits are parity.
const DataBitsPerWord = 24

// MaxWordCount is the largest value of the 5-bit word count field in
// the header: the number of data words following the two header words.
const MaxWordCount = 31

// HeaderLengthWords is the length of the message header in words.
const HeaderLengthWords = 2

// ZCountScale converts the 13-bit modified z-count in the header to
// seconds.  The z-count rolls over each hour.
const ZCountScale = 0.6

// MaxZCount is the largest meaningful modified z-count: one hour in
// 0.6-second units.  The field is 13 bits so larger values fit but are
// invalid.
const MaxZCount = 6000 - 1

// RTCM2 message types handled by the decoder.
const MessageTypeFullCorrections = 1    // Differential GPS corrections.
const MessageTypeRefStation = 3         // Reference station parameters.
const MessageTypeGPSTime = 14           // GPS time of week.
const MessageTypeSpecial = 16           // Special message (text).
const MessageTypeSubsetCorrections = 9  // Subset differential corrections.

// Scale factors for the pseudorange and range-rate corrections in
// types 1 and 9.  The scale factor bit in each correction selects
// between the small and large sets.
const PRCSmallScale = 0.02  // metres per unit
const PRCLargeScale = 0.32  // metres per unit
const RRCSmallScale = 0.002 // metres/second per unit
const RRCLargeScale = 0.032 // metres/second per unit

// ECEFScale converts the reference station coordinates in a type 3
// message to metres.
const ECEFScale = 0.01

// InvalidPRC is the raw pseudorange correction value indicating that
// the satellite should not be used.
const InvalidPRC = -32768

// InvalidRRC is the raw range-rate correction value indicating that
// the satellite should not be used.
const InvalidRRC = -128

// MaxSpecialMessageLength is the longest text carried in a type 16
// message, in characters.
const MaxSpecialMessageLength = 90

// TitleAndComment is used to derive a title and comment from a message
// type - see GetTitleAndComment.
type TitleAndComment struct {
	// Title is the title of the message.
	Title string
	// Comment is a comment about the message type.
	Comment string
}

// GetTitleAndComment returns the title of the given message type and a
// comment about its use.
func GetTitleAndComment(messageType uint) *TitleAndComment {

	titleComment := map[uint]TitleAndComment{
		1: {"Differential GPS Corrections",
			"The full set of pseudorange and range-rate corrections, one 40-bit entry per satellite in view of the reference station."},
		2: {"Delta Differential GPS Corrections",
			"Corrections to the corrections, issued when the reference station changes its navigation data.  Rarely used."},
		3: {"GPS Reference Station Parameters",
			"The ECEF position of the reference station antenna in centimetre units."},
		4: {"Reference Station Datum",
			"The datum to which the reference station position refers.  Not often found in actual use."},
		5: {"GPS Constellation Health",
			"Health information for satellites, used to bring a satellite into use before its own health flag allows it."},
		6: {"GPS Null Frame",
			"Filler sent when the station has nothing else to say, to keep the data link alive."},
		7: {"DGPS Radiobeacon Almanac",
			"Positions and frequencies of nearby radiobeacons broadcasting corrections."},
		9: {"GPS Partial Correction Set",
			"Corrections in the same per-satellite format as type 1 but for a subset of satellites, allowing faster dissemination."},
		14: {"GPS Time of Week",
			"The GPS week number, hour of the week and leap seconds.  Resolves the ambiguity of the modified z-count in the header."},
		15: {"Ionospheric Delay Message",
			"Measured ionospheric delay per satellite.  Not often found in actual use."},
		16: {"GPS Special Message",
			"Free text from the station operator, up to 90 characters."},
		31: {"Differential GLONASS Corrections",
			"The GLONASS equivalent of type 1."},
		36: {"GLONASS Special Message",
			"The GLONASS equivalent of type 16."},
		59: {"Proprietary Message",
			"The content and format of this message is defined by its owner."},
	}

	tc, ok := titleComment[messageType]
	if !ok {
		title := fmt.Sprintf("message type %d is not known", messageType)
		return &TitleAndComment{title, ""}
	}

	return &tc
}

// GetDailyLogger gets a daily log file which can be written to as a
// logger (each line decorated with filename, date, time, etc).
func GetDailyLogger(prefix string) *log.Logger {
	dailyLog := dailylogger.New("logs", prefix+".", ".log")
	logFlags := log.LstdFlags | log.Lshortfile | log.Lmicroseconds
	return log.New(dailyLog, prefix, logFlags)
}
