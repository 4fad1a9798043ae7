// rtcm2relay reads RTCM version 2 transmission words, decodes them
// and passes each message on to a set of consumers: a NATS subject
// for live distribution, a SQLite archive and an in-process exporter
// holding the latest message.  Any of the consumers can be switched
// off in the config.  Decoded messages can also be displayed on
// stdout and recorded in a daily log, which is rolled over at
// midnight.
//
// The words come from the first device in the config's input list
// that can be opened, reconnecting whenever the stream dies.  With an
// empty input list the relay reads stdin instead, the usual
// arrangement when the serial_grabber pipes into it.  Each word
// arrives as four bytes, big-endian, in the layout produced by
// message.Repack - the format that rtcm2display reads too.
//
// Usage:
//
//	rtcm2relay -c config.json
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ycxzf/gpsd/apps/rtcm2relay/storage"
	"github.com/ycxzf/gpsd/jsonconfig"
	"github.com/ycxzf/gpsd/rtcm2/export"
	"github.com/ycxzf/gpsd/rtcm2/handler"
	"github.com/ycxzf/gpsd/rtcm2/message"
	"github.com/ycxzf/gpsd/rtcm2/utils"
	"github.com/ycxzf/gpsd/rtcm2/word"

	"github.com/goblimey/go-tools/dailylogger"
	"github.com/nats-io/nats.go"
)

// exporter publishes the latest message for anything else running in
// this process (none in the standalone relay, but the export is cheap
// and the relay is built to be embedded).
var exporter export.Exporter

func main() {

	// The system log rolls over daily.
	systemLog := utils.GetDailyLogger("rtcm2relay")

	var configFileName string
	flag.StringVar(&configFileName, "c", "", "JSON config file")
	flag.StringVar(&configFileName, "config", "", "JSON config file")

	flag.Parse()

	if len(configFileName) == 0 {
		log.Fatal("missing config file: -c or --config")
	}

	config, errConfig := jsonconfig.GetJSONConfigFromFile(configFileName, systemLog)
	if errConfig != nil {
		log.Fatal(errConfig)
	}

	var conn *nats.Conn
	if len(config.NATSURL) > 0 {
		var errConnect error
		conn, errConnect = nats.Connect(config.NATSURL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1))
		if errConnect != nil {
			systemLog.Fatalf("cannot connect to NATS at %s - %v",
				config.NATSURL, errConnect)
		}
		defer conn.Drain()
	}

	var archive *storage.DB
	if len(config.ArchiveDatabase) > 0 {
		var errOpen error
		archive, errOpen = storage.Open(config.ArchiveDatabase)
		if errOpen != nil {
			systemLog.Fatalf("cannot open the archive - %v", errOpen)
		}
		defer archive.Close()
	}

	// The recorder keeps a verbatim daily copy of the decoded
	// messages, repacked into transmission words.
	var recorder io.Writer
	if config.RecordMessages {
		recorder = dailylogger.New(config.MessageLogDirectory, "rtcm2relay.", ".rtcm")
	}

	words := make(chan word.Word)
	messages := make(chan *message.Message)

	slogger := slog.New(slog.NewTextHandler(systemLog.Writer(), nil))
	go feedWords(config, words, systemLog)
	go func() {
		handler.New(slogger).HandleWords(words, messages)
		close(messages)
	}()

	relay(config, conn, archive, recorder, messages, systemLog)
}

// relay consumes the decoded messages until the channel closes.
func relay(config *jsonconfig.Config, conn *nats.Conn, archive *storage.DB,
	recorder io.Writer, messages chan *message.Message, systemLog *log.Logger) {

	for m := range messages {

		exporter.Update(m)

		if recorder != nil {
			if err := record(recorder, m); err != nil {
				systemLog.Printf("cannot record a type %d message - %v",
					m.Header.MessageType, err)
			}
		}

		if conn != nil {
			body, errMarshal := json.Marshal(m)
			if errMarshal != nil {
				systemLog.Printf("cannot marshal a type %d message - %v",
					m.Header.MessageType, errMarshal)
				continue
			}
			if errPublish := conn.Publish(config.NATSSubject, body); errPublish != nil {
				systemLog.Printf("cannot publish a type %d message - %v",
					m.Header.MessageType, errPublish)
			}
		}

		if archive != nil {
			if _, errSave := archive.SaveMessage(time.Now(), m); errSave != nil {
				systemLog.Printf("cannot archive a type %d message - %v",
					m.Header.MessageType, errSave)
			}
		}

		if config.DisplayMessages {
			os.Stdout.WriteString(m.String() + "\n")
		}
	}
}

// record repacks the message into transmission words and writes them
// to the recorder, four bytes per word, big-endian.
func record(recorder io.Writer, m *message.Message) error {
	words, err := message.Repack(m)
	if err != nil {
		return err
	}
	buffer := make([]byte, 0, 4*len(words))
	for _, w := range words {
		buffer = binary.BigEndian.AppendUint32(buffer, uint32(w))
	}
	_, err = recorder.Write(buffer)
	return err
}

// feedWords supplies the transmission words, either from the input
// devices named in the config or, when none are named, from stdin.
func feedWords(config *jsonconfig.Config, words chan<- word.Word, systemLog *log.Logger) {

	if len(config.Filenames) == 0 {
		defer close(words)
		readWords(bufio.NewReader(os.Stdin), words, systemLog)
		return
	}

	// The GNSS source can drop out and come back under another device
	// name, so whenever the stream dies, search the list again and
	// carry on.
	for {
		reader := jsonconfig.WaitAndConnectToInput(config)
		readWords(bufio.NewReader(reader), words, systemLog)
	}
}

// readWords reads four bytes per word from the reader and sends the
// words down the channel until the input is exhausted.
func readWords(reader io.Reader, words chan<- word.Word, systemLog *log.Logger) {

	buffer := make([]byte, 4)
	for {
		if _, err := io.ReadFull(reader, buffer); err != nil {
			if err != io.EOF {
				systemLog.Printf("input stream failed - %v", err)
			}
			return
		}
		words <- word.Word(binary.BigEndian.Uint32(buffer))
	}
}
