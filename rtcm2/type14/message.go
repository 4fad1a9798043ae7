// The type14 package handles messages of type 14 (GPS time of week),
// which resolve the hour ambiguity of the modified z-count in the
// message header.
package type14

import (
	"errors"
	"fmt"
)

// Message contains a message of type 14.
type Message struct {
	// Week - uint10 - the GPS week number, modulo 1024.
	Week uint `json:"week"`

	// HourOfWeek - uint8 - the hour within the week, 0 to 167.
	HourOfWeek uint `json:"hour_of_week"`

	// LeapSeconds - uint6 - the current GPS-UTC leap second count.
	LeapSeconds uint `json:"leap_seconds"`
}

// New creates a type 14 message.
func New(week, hourOfWeek, leapSeconds uint) *Message {
	message := Message{
		Week:        week,
		HourOfWeek:  hourOfWeek,
		LeapSeconds: leapSeconds,
	}
	return &message
}

// FromFields builds the message from raw field values in descriptor
// order: week, hour, leap seconds.
func FromFields(fields []int64) (*Message, error) {
	if len(fields) != 3 {
		return nil, errors.New("GPS time message needs 3 fields")
	}
	return New(uint(fields[0]), uint(fields[1]), uint(fields[2])), nil
}

// Fields returns the raw field values in descriptor order.
func (message *Message) Fields() []int64 {
	return []int64{
		int64(message.Week),
		int64(message.HourOfWeek),
		int64(message.LeapSeconds),
	}
}

// String returns a readable version of the message.
func (message *Message) String() string {
	return fmt.Sprintf("GPS week %d, hour %d, leap seconds %d\n",
		message.Week, message.HourOfWeek, message.LeapSeconds)
}
