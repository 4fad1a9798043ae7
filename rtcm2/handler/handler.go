// The handler package finds RTCM version 2 messages in a stream of
// transmission words.  The stream carries no framing beyond the 8-bit
// preamble at the start of each message and the parity chained from
// word to word, so the handler scans for the preamble, collects words
// until the count promised by the header has arrived and hands the
// result to the message package.  If the stream turns out not to hold
// a message at the current position, the handler slides forward one
// word and tries again.
package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ycxzf/gpsd/rtcm2/header"
	"github.com/ycxzf/gpsd/rtcm2/message"
	"github.com/ycxzf/gpsd/rtcm2/utils"
	"github.com/ycxzf/gpsd/rtcm2/word"
)

// ErrPreambleMismatch is returned when the word at the current scan
// position does not start with the preamble pattern.
var ErrPreambleMismatch = errors.New("preamble mismatch")

// Status is the handler's verdict on the words accumulated so far.
type Status int

const (
	// StatusIncomplete - the words so far may be the start of a
	// message but more are needed.
	StatusIncomplete Status = iota

	// StatusMessage - the words begin with a complete valid message.
	StatusMessage

	// StatusInvalid - the words begin with what looked like a message
	// but it failed the parity check or did not decode.
	StatusInvalid

	// StatusResync - the first word cannot start a message.  The
	// caller should drop it and scan on.
	StatusResync
)

func (s Status) String() string {
	switch s {
	case StatusIncomplete:
		return "incomplete"
	case StatusMessage:
		return "message"
	case StatusInvalid:
		return "invalid"
	case StatusResync:
		return "resync"
	default:
		return "unknown status"
	}
}

// Handler extracts messages from a word stream.
type Handler struct {
	logger *slog.Logger
}

// New creates a handler.  A nil logger means the default logger.
func New(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger}
}

// PreambleMatch reports whether the word starts with the preamble
// pattern.  The word's data bits already have any polarity inversion
// removed, so the pattern is compared directly.
func PreambleMatch(w word.Word) bool {
	return w.Data()>>(utils.DataBitsPerWord-header.LenPreamble) ==
		utils.PreamblePattern
}

// Accept examines the words accumulated so far, which the caller
// believes may start with a message.  On StatusMessage the returned
// message covers the first 2+WordCount words and the caller should
// remove them from its buffer.  On StatusResync or StatusInvalid the
// caller should drop the first word and rescan.  On StatusIncomplete
// the caller needs more words before calling again.
func (handler *Handler) Accept(words []word.Word) (Status, *message.Message, error) {
	if len(words) == 0 {
		return StatusIncomplete, nil, nil
	}

	if !PreambleMatch(words[0]) {
		return StatusResync, nil, ErrPreambleMismatch
	}
	if !words[0].ParityOK() {
		return StatusResync, nil, errors.New("parity check failed on the first word")
	}

	if len(words) < utils.HeaderLengthWords {
		return StatusIncomplete, nil, nil
	}

	h, err := header.GetHeader([]uint32{words[0].Data(), words[1].Data()})
	if err != nil {
		// A bad preamble and too few words are ruled out above, so
		// this is a field-level problem such as an impossible
		// z-count.  The header cannot be trusted, so rescan.
		return StatusResync, nil, err
	}

	frameLength := utils.HeaderLengthWords + int(h.WordCount)
	if len(words) < frameLength {
		return StatusIncomplete, nil, nil
	}

	frame := words[:frameLength]
	for i, w := range frame {
		if !w.ParityOK() {
			return StatusInvalid, nil,
				fmt.Errorf("parity check failed on word %d of %d", i, frameLength)
		}
	}

	m, err := message.Unpack(frame)
	if err != nil {
		return StatusInvalid, nil, err
	}
	return StatusMessage, m, nil
}

// HandleWords reads words from the in channel and sends each complete
// message to the out channel until the in channel closes.  The handler
// owns the scanning buffer; words that turn out not to start a message
// are dropped one at a time.  The caller creates and closes both
// channels.
func (handler *Handler) HandleWords(in chan word.Word, out chan *message.Message) {
	var buffer []word.Word

	flush := func() {
		for {
			status, m, err := handler.Accept(buffer)
			switch status {
			case StatusIncomplete:
				return
			case StatusMessage:
				out <- m
				consumed := utils.HeaderLengthWords + int(m.Header.WordCount)
				buffer = buffer[consumed:]
			case StatusResync:
				handler.logger.Debug("scanning for preamble", "error", err)
				buffer = buffer[1:]
			case StatusInvalid:
				handler.logger.Warn("dropping word from damaged message", "error", err)
				buffer = buffer[1:]
			}
		}
	}

	for w := range in {
		buffer = append(buffer, w)
		flush()
	}
}
