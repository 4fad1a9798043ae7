// rtcm2display reads RTCM version 2 transmission words from a file or
// stdin and writes a readable version of the messages to stdout.
//
// Raw RTCM2 is a tightly packed binary format, not designed to be
// readable by a human.  Each message is a stream of 30-bit words -
// 24 data bits and 6 parity bits - starting with a fixed preamble.
// The most important message types for differential GNSS are type 1
// (pseudorange corrections for all satellites in view), type 3 (the
// position of the reference station) and type 9 (corrections for a
// subset of the satellites, sent with faster turnaround).  A reference
// station typically emits a batch of messages every few seconds, so
// the tool will produce a lot of output if run for any length of time.
//
// Each word arrives as four bytes, big-endian, holding the 30-bit
// word in the low bits with the two parity context bits above them -
// the layout produced by message.Repack and by testdata.Words.
// Anything in the stream that is not a decodable message is skipped,
// with a note in the log, so the tool can be pointed at a noisy
// capture and will display whatever messages it can find.  Messages of
// types with no known layout are shown as their raw data words.
//
// Usage:
//
//	rtcm2display file
//	rtcm2display -        # take input from stdin
//
// The tool is useful for trouble-shooting, particularly when you have
// a misbehaving reference station and you are trying to figure out
// what it's sending, if anything.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ycxzf/gpsd/rtcm2/handler"
	"github.com/ycxzf/gpsd/rtcm2/message"
	"github.com/ycxzf/gpsd/rtcm2/word"
)

func main() {

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s file\n", os.Args[0])
		os.Exit(1)
	}

	var reader io.Reader
	if os.Args[1] == "-" {
		reader = os.Stdin
	} else {
		file, err := os.Open(os.Args[1])
		if err != nil {
			logger.Error(err.Error())
			os.Exit(1)
		}
		defer file.Close()
		reader = file
	}

	words := make(chan word.Word)
	messages := make(chan *message.Message)

	go readWords(bufio.NewReader(reader), words, logger)
	go func() {
		handler.New(logger).HandleWords(words, messages)
		close(messages)
	}()

	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()
	for m := range messages {
		fmt.Fprintf(writer, "%s\n", m.String())
	}
}

// readWords reads four bytes per word from the reader and sends the
// words down the channel until the input is exhausted.
func readWords(reader io.Reader, words chan<- word.Word, logger *slog.Logger) {
	defer close(words)

	buffer := make([]byte, 4)
	for {
		if _, err := io.ReadFull(reader, buffer); err != nil {
			if err != io.EOF {
				logger.Error(err.Error())
			}
			return
		}
		words <- word.Word(binary.BigEndian.Uint32(buffer))
	}
}
