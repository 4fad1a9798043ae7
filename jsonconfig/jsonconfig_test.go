package jsonconfig

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goblimey/go-tools/switchwriter"
)

// TestGetJSONConfig tests that the correct data is produced when the
// text from a JSON control file is unmarshalled.
func TestGetJSONConfig(t *testing.T) {
	reader := strings.NewReader(`{
		"input": ["a", "b"],
		"display_messages": true,
		"record_messages": true,
		"message_log_directory": "someDirectory",
		"nats_url": "nats://broker.example.com:4222",
		"nats_subject": "rtcm.corrections",
		"archive_database": "rtcm.db",
		"timeout": 1,
		"sleep_time": 2
	}`)

	writer := switchwriter.New()
	logger := log.New(writer, "jsonconfig_test", 0)

	config, err := getJSONConfig(reader, logger)
	if err != nil {
		t.Fatal(err)
	}

	if config == nil {
		t.Fatal("parsing json failed - nil")
	}

	numFiles := len(config.Filenames)
	if numFiles != 2 {
		t.Fatalf("parsing json, expected 2 files, got %d", numFiles)
	}

	if config.Filenames[0] != "a" {
		t.Errorf("parsing json, expected file 0 to be a, got %s",
			config.Filenames[0])
	}

	if config.Filenames[1] != "b" {
		t.Errorf("parsing json, expected file 1 to be b, got %s",
			config.Filenames[1])
	}

	if !config.DisplayMessages {
		t.Error("parsing json, expected display_messages to be true")
	}

	if !config.RecordMessages {
		t.Error("parsing json, expected record_messages to be true")
	}

	if config.MessageLogDirectory != "someDirectory" {
		t.Errorf("parsing json, expected message_log_directory to be \"someDirectory\", got \"%s\"",
			config.MessageLogDirectory)
	}

	if config.NATSURL != "nats://broker.example.com:4222" {
		t.Errorf("parsing json, expected the NATS URL to be nats://broker.example.com:4222, got %s",
			config.NATSURL)
	}

	if config.NATSSubject != "rtcm.corrections" {
		t.Errorf("parsing json, expected the NATS subject to be rtcm.corrections, got %s",
			config.NATSSubject)
	}

	if config.ArchiveDatabase != "rtcm.db" {
		t.Errorf("parsing json, expected the archive database to be rtcm.db, got %s",
			config.ArchiveDatabase)
	}

	if config.LostInputConnectionTimeout != 1 {
		t.Errorf("parsing json, expected timeout to be 1, got %d",
			config.LostInputConnectionTimeout)
	}

	if config.LostInputConnectionSleepTime != 2 {
		t.Errorf("parsing json, expected sleep_time to be 2, got %d",
			config.LostInputConnectionSleepTime)
	}

	if config.SystemLog != logger {
		t.Error("parsing json, expected the system log to be set")
	}
}

// makeInputFile creates a readable file for the connection tests and
// returns its name.
func makeInputFile(t *testing.T, contents string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "input")
	if err := os.WriteFile(name, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return name
}

// TestFindInputDevice checks that the search skips device names that
// cannot be opened and connects to the first one that can.
func TestFindInputDevice(t *testing.T) {

	name := makeInputFile(t, "hello")

	writer := switchwriter.New()
	config := Config{
		Filenames: []string{"/nosuchdevice0", name, "/nosuchdevice1"},
		SystemLog: log.New(writer, "jsonconfig_test", 0),
	}

	reader := findInputDevice(&config)
	if reader == nil {
		t.Fatal("expected a reader")
	}

	contents, err := io.ReadAll(reader)
	if err != nil {
		t.Fatal(err)
	}
	if string(contents) != "hello" {
		t.Errorf("want hello got %s", string(contents))
	}
}

// TestFindInputDeviceNone checks that the search gives up when none of
// the named devices can be opened.
func TestFindInputDeviceNone(t *testing.T) {

	writer := switchwriter.New()
	config := Config{
		Filenames: []string{"/nosuchdevice0", "/nosuchdevice1"},
		SystemLog: log.New(writer, "jsonconfig_test", 0),
	}

	if reader := findInputDevice(&config); reader != nil {
		t.Errorf("expected no reader, got %T", reader)
	}
}

// TestWaitAndConnectToInput checks the connection loop in the case
// where a device is available straight away.
func TestWaitAndConnectToInput(t *testing.T) {

	name := makeInputFile(t, "hello")

	writer := switchwriter.New()
	config := Config{
		Filenames: []string{name},
		SystemLog: log.New(writer, "jsonconfig_test", 0),
	}

	reader := WaitAndConnectToInput(&config)
	if reader == nil {
		t.Fatal("expected a reader")
	}
}

// TestGetJSONConfigWithParseError checks that a malformed control file
// produces an error.
func TestGetJSONConfigWithParseError(t *testing.T) {
	reader := strings.NewReader(`{"input": ["a", "b"`)

	writer := switchwriter.New()
	logger := log.New(writer, "jsonconfig_test", 0)

	config, err := getJSONConfig(reader, logger)
	if err == nil {
		t.Fatal("expected an error")
	}
	if config != nil {
		t.Error("expected the config to be nil")
	}
}
