// Package ibus implements a FlySky iBus receiver driver over a serial
// port. A background goroutine reassembles frames with a byte state
// machine; Read never blocks and reports staleness through the sample
// status.
package ibus

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"github.com/openfcs/flightinput/pkg/receiver"
)

// Protocol constants
const (
	// Header1 is the frame length byte that starts every frame.
	Header1 = 0x20
	// Header2 is the channel-data command byte.
	Header2 = 0x40

	// NumChannels is the channel count of an iBus servo frame.
	NumChannels = 14

	// FrameSize is header (2) + channels (14*2) + checksum (2).
	FrameSize = 2 + NumChannels*2 + 2

	// BaudRate is the fixed iBus serial rate.
	BaudRate = 115200

	// DefaultStaleAfter is how long after the last good frame the
	// driver keeps reporting the held values before declaring the
	// link timed out. iBus frames arrive every 7 ms, so this allows
	// a handful of missed frames.
	DefaultStaleAfter = 100 * time.Millisecond
)

// ErrPortClosed is returned by Close when the driver is already closed.
var ErrPortClosed = errors.New("ibus: port closed")

type frameState int

const (
	waitHeader1 frameState = iota
	waitHeader2
	readPayload
)

// Driver reads iBus frames from a serial port.
type Driver struct {
	port       io.ReadCloser
	log        *logrus.Logger
	staleAfter time.Duration

	mu        sync.Mutex
	values    [NumChannels]uint16
	lastFrame time.Time
	closed    bool
}

// Open opens the named serial port at the iBus baud rate and starts
// the frame reader.
func Open(portName string, logger *logrus.Logger) (*Driver, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        portName,
		Baud:        BaudRate,
		ReadTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("ibus: failed to open %s: %w", portName, err)
	}
	return NewFromReader(port, logger), nil
}

// NewFromReader runs the driver against an arbitrary byte stream.
// Used by Open and by tests.
func NewFromReader(r io.ReadCloser, logger *logrus.Logger) *Driver {
	d := &Driver{
		port:       r,
		log:        logger,
		staleAfter: DefaultStaleAfter,
	}
	go d.readLoop()
	return d
}

// Close stops the frame reader and closes the port.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrPortClosed
	}
	d.closed = true
	d.mu.Unlock()
	return d.port.Close()
}

// NumChannels implements receiver.Driver.
func (d *Driver) NumChannels() int { return NumChannels }

// Read implements receiver.Driver.
func (d *Driver) Read(channel int) receiver.Sample {
	if channel < 1 || channel > NumChannels {
		return receiver.Sample{Status: receiver.StatusInvalid}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastFrame.IsZero() || time.Since(d.lastFrame) > d.staleAfter {
		return receiver.Sample{Status: receiver.StatusTimeout}
	}
	return receiver.Sample{Value: d.values[channel-1]}
}

// readLoop reassembles frames byte by byte. Header bytes can appear
// inside channel payloads, so the checksum is the only thing that
// validates a resynchronization guess.
func (d *Driver) readLoop() {
	var (
		state frameState = waitHeader1
		frame [FrameSize]byte
		idx   int
		buf   [64]byte
	)
	frame[0] = Header1
	frame[1] = Header2

	for {
		n, err := d.port.Read(buf[:])
		if err != nil {
			d.mu.Lock()
			closed := d.closed
			d.mu.Unlock()
			if closed {
				return
			}
			if d.log != nil {
				d.log.WithError(err).Warn("ibus: read error")
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}

		for _, b := range buf[:n] {
			switch state {
			case waitHeader1:
				if b == Header1 {
					state = waitHeader2
				}
			case waitHeader2:
				if b == Header2 {
					idx = 2
					state = readPayload
				} else {
					state = waitHeader1
				}
			case readPayload:
				frame[idx] = b
				idx++
				if idx == FrameSize {
					d.acceptFrame(frame)
					state = waitHeader1
				}
			}
		}
	}
}

func (d *Driver) acceptFrame(frame [FrameSize]byte) {
	if !checksumOK(frame) {
		if d.log != nil {
			d.log.Debug("ibus: checksum mismatch, frame dropped")
		}
		return
	}

	var values [NumChannels]uint16
	for i := 0; i < NumChannels; i++ {
		values[i] = uint16(frame[2+2*i]) | uint16(frame[3+2*i])<<8
	}

	d.mu.Lock()
	d.values = values
	d.lastFrame = time.Now()
	d.mu.Unlock()
}

// checksumOK verifies the trailing 0xFFFF-minus-sum checksum.
func checksumOK(frame [FrameSize]byte) bool {
	sum := uint16(0xFFFF)
	for _, b := range frame[:FrameSize-2] {
		sum -= uint16(b)
	}
	got := uint16(frame[FrameSize-2]) | uint16(frame[FrameSize-1])<<8
	return sum == got
}
