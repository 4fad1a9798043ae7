package message

import (
	"errors"
	"testing"

	"github.com/ycxzf/gpsd/rtcm2/header"
	"github.com/ycxzf/gpsd/rtcm2/testdata"
	"github.com/ycxzf/gpsd/rtcm2/type1"
	"github.com/ycxzf/gpsd/rtcm2/type14"
	"github.com/ycxzf/gpsd/rtcm2/type16"
	"github.com/ycxzf/gpsd/rtcm2/type3"
	"github.com/ycxzf/gpsd/rtcm2/word"

	"github.com/google/go-cmp/cmp"
	"github.com/kylelemons/godebug/diff"
)

// TestUnpack checks the decoding of the hand-built type 1 fixture.
func TestUnpack(t *testing.T) {

	want := Message{
		Header: &header.Header{MessageType: 1, StationID: 666, ZCount: 1000,
			Sequence: 2, WordCount: 2, Health: 0},
		Payload: &type1.Message{
			MessageType: 1,
			Corrections: []type1.Correction{
				{ScaleFactor: 0, UDRE: 1, SatelliteID: 3, PRC: 1000, RRC: -2, IOD: 7},
			},
		},
	}

	got, err := Unpack(testdata.Words(testdata.Type1OneSatellite))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !cmp.Equal(&want, got) {
		t.Error(cmp.Diff(&want, got))
	}
}

// TestUnpackErrors checks the rejection of word sequences that do not
// hold a decodable message.
func TestUnpackErrors(t *testing.T) {

	var testData = []struct {
		description string
		dataWords   []uint32
		wantError   string
	}{
		{"too short for a header",
			[]uint32{testdata.HeaderWord0},
			"truncated: got 1 words of a 2-word header"},
		{"header count disagrees with the words supplied",
			[]uint32{testdata.HeaderWord0, testdata.HeaderWord1WordCount5,
				0x2303E8, 0xFE07AA},
			"bad length: header says 5 data words, got 2"},
		// Three data words leave 32 bits after the first 40-bit
		// correction, too many to be fill.
		{"illegal count for the type",
			[]uint32{testdata.HeaderWord0, 0x1F4218, 0, 0, 0},
			"bad length: 3 data words is illegal for message type 1"},
	}

	for _, td := range testData {
		gotMessage, gotError := Unpack(testdata.Words(td.dataWords))
		if gotMessage != nil {
			t.Errorf("%s: expected a nil message", td.description)
		}
		if gotError == nil {
			t.Errorf("%s: expected the error %s", td.description, td.wantError)
			continue
		}
		if td.wantError != gotError.Error() {
			t.Errorf("%s: want error %s got %s",
				td.description, td.wantError, gotError.Error())
		}
	}
}

// TestUnpackUnknownType checks that a message type with no known
// layout decodes to its raw data words, whatever the word count.
func TestUnpackUnknownType(t *testing.T) {

	// Type 59, two data words.
	dataWords := []uint32{0x66EE9A, testdata.HeaderWord1WordCount2, 0x123456, 0xABCDEF}

	got, err := Unpack(testdata.Words(dataWords))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if got.Header.MessageType != 59 {
		t.Errorf("want type 59 got %d", got.Header.MessageType)
	}
	raw, ok := got.Payload.(*Raw)
	if !ok {
		t.Fatalf("want a raw payload, got %T", got.Payload)
	}
	want := []uint32{0x123456, 0xABCDEF}
	if !cmp.Equal(want, raw.DataWords) {
		t.Error(cmp.Diff(want, raw.DataWords))
	}
}

// TestRepack checks that repacking the decoded fixture reproduces the
// original data words, fill included.
func TestRepack(t *testing.T) {

	m, err := Unpack(testdata.Words(testdata.Type1OneSatellite))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	words, err := Repack(m)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if len(words) != len(testdata.Type1OneSatellite) {
		t.Fatalf("want %d words got %d", len(testdata.Type1OneSatellite), len(words))
	}
	for i, w := range words {
		if w.Data() != testdata.Type1OneSatellite[i] {
			t.Errorf("word %d: want 0x%06x got 0x%06x",
				i, testdata.Type1OneSatellite[i], w.Data())
		}
		if !w.ParityOK() {
			t.Errorf("word %d: parity check failed", i)
		}
	}
}

// TestWordRoundTrip checks that unpack and repack reproduce the exact
// transmission words for every supported message type and for an
// unknown one.
func TestWordRoundTrip(t *testing.T) {

	var testData = []struct {
		description string
		words       []word.Word
	}{
		{"type 1, one satellite", testdata.Words(testdata.Type1OneSatellite)},
		// "ABC" and then a whole data word of zero padding.  The pad
		// word is part of the message, so it has to come back.
		{"type 16 with a pad word", testdata.Words([]uint32{
			0x66409A, testdata.HeaderWord1WordCount2, 0x414243, 0x000000})},
		{"unknown type", testdata.Words([]uint32{
			0x66EE9A, testdata.HeaderWord1WordCount2, 0x123456, 0xABCDEF})},
	}

	for _, td := range testData {
		m, err := Unpack(td.words)
		if err != nil {
			t.Errorf("%s: unexpected error %v", td.description, err)
			continue
		}
		got, err := Repack(m)
		if err != nil {
			t.Errorf("%s: unexpected error %v", td.description, err)
			continue
		}
		if !cmp.Equal(td.words, got) {
			t.Errorf("%s: %s", td.description, cmp.Diff(td.words, got))
		}
	}
}

// TestMessageRoundTrip builds messages of each type, packs them into
// words and decodes them again, expecting the identical message back.
func TestMessageRoundTrip(t *testing.T) {

	hdr := func(messageType uint) *header.Header {
		return &header.Header{MessageType: messageType, StationID: 666,
			ZCount: 1000, Sequence: 2, Health: 0}
	}

	specialText := func(text string) *type16.Message {
		m, err := type16.New(text)
		if err != nil {
			t.Fatal(err)
		}
		return m
	}

	var testData = []struct {
		description string
		message     *Message
		wantWords   int
	}{
		{"type 1, three satellites",
			&Message{Header: hdr(1), Payload: type1.New(1, []type1.Correction{
				{ScaleFactor: 0, UDRE: 1, SatelliteID: 3, PRC: 1000, RRC: -2, IOD: 7},
				{ScaleFactor: 1, UDRE: 2, SatelliteID: 32, PRC: -32768, RRC: -128, IOD: 255},
				{ScaleFactor: 0, UDRE: 0, SatelliteID: 17, PRC: -1, RRC: 1, IOD: 0},
			})},
			// 120 bits of corrections fill five words exactly.
			7},
		{"type 9, one satellite",
			&Message{Header: hdr(9), Payload: type1.New(9, []type1.Correction{
				{ScaleFactor: 0, UDRE: 3, SatelliteID: 1, PRC: 1, RRC: -1, IOD: 99},
			})},
			4},
		{"type 3",
			&Message{Header: hdr(3),
				Payload: type3.New(392469052, 30122417, -501571841)},
			6},
		{"type 14",
			&Message{Header: hdr(14), Payload: type14.New(333, 42, 18)},
			3},
		{"type 16",
			&Message{Header: hdr(16), Payload: specialText("STATION MOVED")},
			// 13 characters need 104 bits: four words and a half,
			// padded to five.
			7},
		{"type 16 with a whole pad word",
			&Message{Header: hdr(16),
				Payload: &type16.Message{Text: "ABC", Padding: 3}},
			4},
		{"type 16 empty", &Message{Header: hdr(16), Payload: specialText("")}, 2},
	}

	for _, td := range testData {
		words, err := Repack(td.message)
		if err != nil {
			t.Errorf("%s: unexpected error %v", td.description, err)
			continue
		}
		if len(words) != td.wantWords {
			t.Errorf("%s: want %d words got %d", td.description, td.wantWords, len(words))
			continue
		}

		got, err := Unpack(words)
		if err != nil {
			t.Errorf("%s: unexpected error %v", td.description, err)
			continue
		}

		// Repack set the word count in the header, and a special
		// message decodes any characters that filled out the last
		// word as padding.
		want := *td.message
		wantHeader := *td.message.Header
		wantHeader.WordCount = uint(td.wantWords - 2)
		want.Header = &wantHeader
		if p, ok := td.message.Payload.(*type16.Message); ok {
			padded := *p
			padded.Padding = 3*wantHeader.WordCount - uint(len(p.Text))
			want.Payload = &padded
		}

		if !cmp.Equal(&want, got) {
			t.Errorf("%s: %s", td.description, cmp.Diff(&want, got))
		}
	}
}

// TestRepackErrors checks the rejection of messages that cannot be
// packed.
func TestRepackErrors(t *testing.T) {

	var testData = []struct {
		description string
		message     *Message
		wantError   string
	}{
		{"typed payload under the wrong message type",
			&Message{
				Header:  &header.Header{MessageType: 59},
				Payload: type14.New(1357, 42, 18),
			},
			"unsupported message type: message type 59 with payload *type14.Message"},
		{"payload with no layout",
			&Message{
				Header:  &header.Header{MessageType: 59},
				Payload: "not a payload",
			},
			"unsupported message type: message type 59 with payload string"},
		{"field too big for its width",
			&Message{
				Header:  &header.Header{MessageType: 14},
				Payload: type14.New(1024, 42, 18),
			},
			"field overflow: 1024 does not fit in 10 bits"},
	}

	for _, td := range testData {
		words, gotError := Repack(td.message)
		if words != nil {
			t.Errorf("%s: expected nil words", td.description)
		}
		if gotError == nil {
			t.Errorf("%s: expected the error %s", td.description, td.wantError)
			continue
		}
		if td.wantError != gotError.Error() {
			t.Errorf("%s: want error %s got %s",
				td.description, td.wantError, gotError.Error())
		}
	}
}

// TestRepackOversize checks that a payload needing more than 31 data
// words is rejected: the word count field cannot express it.
func TestRepackOversize(t *testing.T) {
	corrections := make([]type1.Correction, 20) // 800 bits, 34 words
	for i := range corrections {
		corrections[i] = type1.Correction{SatelliteID: uint(i + 1)}
	}
	m := &Message{
		Header:  &header.Header{MessageType: 1},
		Payload: type1.New(1, corrections),
	}
	_, err := Repack(m)
	if !errors.Is(err, ErrBadLength) {
		t.Errorf("want ErrBadLength got %v", err)
	}
}

func TestString(t *testing.T) {

	const want = `Message type 1 - Differential GPS Corrections
type 1, station 666, z-count 1000 (600.0s), sequence 2, 2 data words, health 0
1 satellite corrections:
sat  3: prc    20.00m rrc  -0.004m/s udre 1 iod   7
`

	m, err := Unpack(testdata.Words(testdata.Type1OneSatellite))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if want != m.String() {
		t.Error(diff.Diff(want, m.String()))
	}
}

// TestRepackRecomputesWordCount checks that the word count in the
// header is derived from the payload, not trusted.
func TestRepackRecomputesWordCount(t *testing.T) {
	m := &Message{
		Header:  &header.Header{MessageType: 14, WordCount: 25},
		Payload: type14.New(333, 42, 18),
	}
	words, err := Repack(m)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("want 3 words got %d", len(words))
	}
	got, err := Unpack(words)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if got.Header.WordCount != 1 {
		t.Errorf("want word count 1 got %d", got.Header.WordCount)
	}
}
