// The serial_grabber reads bytes from a GNSS device on a serial USB
// port and copies them to stdout.  It does no interpretation of the
// data - the stream can be piped into rtcm2display or rtcm2relay, or
// simply captured in a file.
//
// The device names of serial USB ports on Linux ("/dev/ttyACM0" and
// so on) are handed out in rotation as devices connect and disconnect,
// so the config gives a list of candidate names and the grabber scans
// for whichever is live.  If the connection dries up, the grabber
// closes it, waits briefly and scans again, so a device that loses
// power comes back by itself.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dolmen-go/contextio"
	"go.bug.st/serial"
)

// Config is set from a JSON file, for example:
//
//	{
//		"filenames": ["/dev/ttyACM0", "/dev/ttyACM1"],
//		"speed": 38400,
//		"read_timeout_milliseconds": 3000,
//		"sleep_time_after_failed_open_milliseconds": 1000,
//		"sleep_time_on_EOF_millis": 500
//	}
type Config struct {

	// These values are used to set the mode struct for serial.Open.

	// Speed is the line speed in bits per second.
	Speed int `json:"speed"`

	// Parity is the parity of the incoming bytes - no_parity (default),
	// odd_parity, even_parity, mark_parity, space_parity.
	Parity string `json:"parity"`

	// DataBits is the number of data bits in the byte: 5-8.
	DataBits int `json:"data_bits"`

	// StopBits is the number of stop bits: 1, 1.5 or 2.
	StopBits float32 `json:"stop_bits"`

	// InitialStatusBits should contain zero to two values, setting
	// RTS (ReadyToSend) and/or DTR (DataTerminalReady).  The default
	// is both true.
	InitialStatusBits []string `json:"initial_status_bits"`

	mode serial.Mode

	// These values control the handling of connections that dry up
	// or get closed.

	// ReadTimeoutMilliSeconds defines the input timeout.
	ReadTimeoutMilliSeconds int `json:"read_timeout_milliseconds"`

	// SleepTimeAfterFailedOpenMilliSeconds defines the time to sleep
	// after a failed attempt to find and open a port before retrying.
	SleepTimeAfterFailedOpenMilliSeconds int `json:"sleep_time_after_failed_open_milliseconds"`

	// SleepTimeOnEOFMilliseconds specifies how long to sleep after
	// encountering end of file before trying to reopen the connection.
	SleepTimeOnEOFMilliseconds int `json:"sleep_time_on_EOF_millis"`

	// Filenames is a list of potential device names of the serial USB
	// port, for example "/dev/ttyACM0", "/dev/ttyACM1".  For Windows
	// "COM4", "COM5" etc.
	Filenames []string `json:"filenames"`
}

var logger *slog.Logger

func main() {

	// Log to stderr - stdout carries the grabbed data.
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

	var configFileName string
	flag.StringVar(&configFileName, "c", "", "JSON config file")
	flag.StringVar(&configFileName, "config", "", "JSON config file")

	flag.Parse()

	if len(configFileName) == 0 {
		logger.Error("missing config file: -c or --config")
		os.Exit(-1)
	}

	config, errConfig := getConfig(configFileName)
	if errConfig != nil {
		logger.Error(errConfig.Error())
		os.Exit(-1)
	}

	// An interrupt stops the copy loop cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	GrabFromPorts(ctx, config, logger)
}

// GrabFromPorts loops until the context is cancelled.  It gets the
// list of open serial ports and compares that with the given list of
// filenames.  On the first match it opens that file as a serial USB
// port, reads from it and writes the data to stdout until the stream
// dries up and the read times out.  Then it repeats all that.
func GrabFromPorts(ctx context.Context, config *Config, logger *slog.Logger) {

	// atStart controls the handling of the case where no serial ports
	// are found.  If that happens at the very start, the program logs
	// an error and dies.  If it happens later, the program waits
	// until ports appear.
	var atStart = true

	for ctx.Err() == nil {

		knownSerialPorts, errGetPorts := serial.GetPortsList()
		if atStart {
			// On the first trip only, insist on at least one
			// active port.
			if errGetPorts != nil {
				logger.Error("error getting active serial ports - " + errGetPorts.Error())
				os.Exit(-1)
			}

			if len(knownSerialPorts) == 0 {
				logger.Error("no active serial ports found")
				os.Exit(-1)
			}

			atStart = false
		}

		// On trips apart from the very first, if we find no
		// active ports, sleep for a short time and retry.
		if len(knownSerialPorts) == 0 {
			sleepTime := time.Millisecond *
				time.Duration(config.SleepTimeAfterFailedOpenMilliSeconds)
			time.Sleep(sleepTime)
			continue
		}

		port, errConn := getConnection(config, knownSerialPorts)
		if errConn != nil {
			sleepTime := time.Millisecond *
				time.Duration(config.SleepTimeOnEOFMilliseconds)
			time.Sleep(sleepTime)
			continue
		}

		errGrab := grabFromPort(ctx, port)
		if errGrab != nil && ctx.Err() == nil {
			logger.Error(errGrab.Error())
		}

		// If we get to here, the supply from the port has dried
		// up.  Wait for a short time and then continue.
		port.Close()
		sleepTime := time.Millisecond *
			time.Duration(config.SleepTimeOnEOFMilliseconds)
		time.Sleep(sleepTime)
	}
}

// grabFromPort copies bytes from the port to stdout until the read
// times out or the context is cancelled.
func grabFromPort(ctx context.Context, port serial.Port) error {

	// The reader gives up when the context is cancelled.
	reader := contextio.NewReader(ctx, port)

	buffer := make([]byte, 1024)

	for {
		n, errRead := reader.Read(buffer)
		if errRead != nil {
			return errRead
		}

		if n == 0 {
			// This probably indicates that the read has timed out.
			return errors.New("timeout")
		}

		if _, errWrite := os.Stdout.Write(buffer[:n]); errWrite != nil {
			return errWrite
		}
	}
}

// getConnection opens the first of the known serial ports that
// appears in the config's list of device names.
func getConnection(config *Config, knownSerialPorts []string) (serial.Port, error) {
	for _, portName := range knownSerialPorts {
		for i := range config.Filenames {
			if config.Filenames[i] == portName {
				port, errOpen := serial.Open(config.Filenames[i], &config.mode)
				if errOpen != nil {
					return nil, errOpen
				}

				timeout := time.Duration(config.ReadTimeoutMilliSeconds) * time.Millisecond
				port.SetReadTimeout(timeout)
				return port, nil
			}
		}
	}

	return nil, errors.New("no matching serial ports found")
}

// getConfig gets the config from the given file.
func getConfig(configFileName string) (*Config, error) {
	file, err := os.Open(configFileName)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file: %w", err)
	}
	defer file.Close()

	data, errRead := io.ReadAll(file)
	if errRead != nil {
		return nil, fmt.Errorf("error reading config file: %w", errRead)
	}

	return parseConfigFromBytes(data)
}

func parseConfigFromBytes(data []byte) (*Config, error) {
	var config Config
	config.Filenames = make([]string, 0)
	err := json.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	config.mode.BaudRate = 9600
	if config.Speed != 0 {
		config.mode.BaudRate = config.Speed
	}

	if len(config.Parity) > 0 {
		switch config.Parity {
		case "no_parity":
			config.mode.Parity = serial.NoParity
		case "odd_parity":
			config.mode.Parity = serial.OddParity
		case "even_parity":
			config.mode.Parity = serial.EvenParity
		case "mark_parity":
			config.mode.Parity = serial.MarkParity
		case "space_parity":
			config.mode.Parity = serial.SpaceParity
		default:
			return nil, errors.New("config: illegal parity value " + config.Parity)
		}
	}

	// Must be 5-8.
	if config.DataBits > 0 {
		if !(config.DataBits >= 5 && config.DataBits <= 8) {
			em := fmt.Sprintf("config: data bits must be 5-8, got %d", config.DataBits)
			return nil, errors.New(em)
		}
		config.mode.DataBits = config.DataBits
	}

	if config.StopBits > 0 {
		switch config.StopBits {
		case 1:
			config.mode.StopBits = serial.OneStopBit
		case 1.5:
			config.mode.StopBits = serial.OnePointFiveStopBits
		case 2:
			config.mode.StopBits = serial.TwoStopBits
		default:
			em := fmt.Sprintf("config: stop bit value must be 1, 1.5 or 2, got %f",
				config.StopBits)
			return nil, errors.New(em)
		}
	}

	if len(config.InitialStatusBits) > 0 {
		var bits serial.ModemOutputBits
		config.mode.InitialStatusBits = &bits
		for _, b := range config.InitialStatusBits {
			switch strings.ToLower(b) {
			case "dtr":
				config.mode.InitialStatusBits.DTR = true
			case "rts":
				config.mode.InitialStatusBits.RTS = true
			default:
				return nil, errors.New("config: illegal initial status bit value " + b)
			}
		}
	}

	return &config, nil
}
