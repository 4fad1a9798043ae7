// The export package publishes the most recent decoded message to any
// number of readers without blocking the decoder.  The decoder calls
// Update after each message; readers call Latest whenever they like
// and always see a complete message, never a partial one.
//
// The mechanism is a sequence lock.  The writer bumps the counter to
// an odd value, swaps the snapshot in and bumps the counter again to
// an even value.  A reader retries until it sees the same even counter
// value before and after taking the snapshot.
package export

import (
	"sync/atomic"

	"github.com/ycxzf/gpsd/rtcm2/message"
)

// Exporter holds the latest message.  The zero value is ready to use
// and holds nothing.  Any number of goroutines may call Update and
// Latest concurrently.
type Exporter struct {
	sequence atomic.Uint64
	latest   atomic.Pointer[message.Message]
}

// Update replaces the published message.
func (e *Exporter) Update(m *message.Message) {
	e.sequence.Add(1) // odd: write in progress
	e.latest.Store(m)
	e.sequence.Add(1) // even: stable
}

// Latest returns the most recently published message and the sequence
// number it was published under, or nil and zero if nothing has been
// published.  A reader polling for changes can compare sequence
// numbers instead of messages.
func (e *Exporter) Latest() (*message.Message, uint64) {
	for {
		before := e.sequence.Load()
		if before%2 != 0 {
			continue
		}
		m := e.latest.Load()
		if e.sequence.Load() == before {
			return m, before
		}
	}
}
