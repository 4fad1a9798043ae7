package export

import (
	"sync"
	"testing"

	"github.com/ycxzf/gpsd/rtcm2/header"
	"github.com/ycxzf/gpsd/rtcm2/message"
)

func TestEmpty(t *testing.T) {
	var exporter Exporter
	m, sequence := exporter.Latest()
	if m != nil {
		t.Error("expected no message")
	}
	if sequence != 0 {
		t.Errorf("want sequence 0 got %d", sequence)
	}
}

func TestUpdate(t *testing.T) {
	var exporter Exporter

	first := &message.Message{Header: &header.Header{MessageType: 1}}
	exporter.Update(first)

	m, sequence := exporter.Latest()
	if m != first {
		t.Error("expected the first message")
	}
	if sequence != 2 {
		t.Errorf("want sequence 2 got %d", sequence)
	}

	second := &message.Message{Header: &header.Header{MessageType: 3}}
	exporter.Update(second)

	m, sequence = exporter.Latest()
	if m != second {
		t.Error("expected the second message")
	}
	if sequence != 4 {
		t.Errorf("want sequence 4 got %d", sequence)
	}
}

// TestConcurrent hammers the exporter from a writer and several
// readers.  Run with the race detector, this checks that Latest never
// sees a torn update.
func TestConcurrent(t *testing.T) {
	var exporter Exporter

	messages := make([]*message.Message, 100)
	for i := range messages {
		messages[i] = &message.Message{
			Header: &header.Header{MessageType: 1, ZCount: uint(i)},
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, m := range messages {
			exporter.Update(m)
		}
	}()

	for reader := 0; reader < 4; reader++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var lastSequence uint64
			for i := 0; i < 1000; i++ {
				m, sequence := exporter.Latest()
				if sequence < lastSequence {
					t.Errorf("sequence went backwards: %d after %d",
						sequence, lastSequence)
					return
				}
				lastSequence = sequence
				if m != nil && m.Header.MessageType != 1 {
					t.Errorf("unexpected message type %d", m.Header.MessageType)
					return
				}
			}
		}()
	}

	wg.Wait()

	m, sequence := exporter.Latest()
	if m != messages[len(messages)-1] {
		t.Error("expected the last message")
	}
	if sequence != uint64(2*len(messages)) {
		t.Errorf("want sequence %d got %d", 2*len(messages), sequence)
	}
}
