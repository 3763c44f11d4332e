// Package usbrx implements a receiver driver for USB RC dongles that
// stream channel frames on an interrupt IN endpoint.
package usbrx

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"github.com/sirupsen/logrus"

	"github.com/openfcs/flightinput/pkg/receiver"
)

// Options identifies the dongle and describes its frame layout.
type Options struct {
	VendorID  uint16
	ProductID uint16

	// Endpoint is the interrupt IN endpoint number carrying channel
	// frames.
	Endpoint int

	// NumChannels is how many little-endian uint16 channel values
	// each frame carries.
	NumChannels int

	// StaleAfter is how long after the last good frame Read keeps
	// returning held values before declaring a timeout. Zero selects
	// the default.
	StaleAfter time.Duration
}

// DefaultStaleAfter is the default link-timeout window.
const DefaultStaleAfter = 100 * time.Millisecond

// ErrDeviceNotFound indicates no matching dongle is attached.
var ErrDeviceNotFound = errors.New("usbrx: device not found")

// Driver reads channel frames from a USB dongle.
type Driver struct {
	dev   *gousb.Device
	cfg   *gousb.Config
	iface *gousb.Interface
	epIn  *gousb.InEndpoint
	log   *logrus.Logger
	opts  Options

	mu        sync.Mutex
	values    []uint16
	lastFrame time.Time
	closed    bool
}

// Open finds the dongle by VID/PID, claims its first interface and
// starts the frame reader.
func Open(ctx *gousb.Context, opts Options, logger *logrus.Logger) (*Driver, error) {
	if opts.NumChannels <= 0 {
		return nil, fmt.Errorf("usbrx: invalid channel count %d", opts.NumChannels)
	}
	if opts.StaleAfter == 0 {
		opts.StaleAfter = DefaultStaleAfter
	}

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(opts.VendorID), gousb.ID(opts.ProductID))
	if err != nil {
		return nil, fmt.Errorf("usbrx: failed to open device: %w", err)
	}
	if dev == nil {
		return nil, ErrDeviceNotFound
	}

	dev.SetAutoDetach(true)

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("usbrx: failed to get configuration: %w", err)
	}

	iface, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		return nil, fmt.Errorf("usbrx: failed to claim interface: %w", err)
	}

	epIn, err := iface.InEndpoint(opts.Endpoint)
	if err != nil {
		iface.Close()
		cfg.Close()
		dev.Close()
		return nil, fmt.Errorf("usbrx: failed to get IN endpoint %d: %w", opts.Endpoint, err)
	}

	d := &Driver{
		dev:    dev,
		cfg:    cfg,
		iface:  iface,
		epIn:   epIn,
		log:    logger,
		opts:   opts,
		values: make([]uint16, opts.NumChannels),
	}
	go d.readLoop()
	return d, nil
}

// Close stops the frame reader and releases the device.
func (d *Driver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.iface.Close()
	if err := d.cfg.Close(); err != nil {
		d.dev.Close()
		return err
	}
	return d.dev.Close()
}

// NumChannels implements receiver.Driver.
func (d *Driver) NumChannels() int { return d.opts.NumChannels }

// Read implements receiver.Driver.
func (d *Driver) Read(channel int) receiver.Sample {
	if channel < 1 || channel > d.opts.NumChannels {
		return receiver.Sample{Status: receiver.StatusInvalid}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastFrame.IsZero() || time.Since(d.lastFrame) > d.opts.StaleAfter {
		return receiver.Sample{Status: receiver.StatusTimeout}
	}
	return receiver.Sample{Value: d.values[channel-1]}
}

func (d *Driver) readLoop() {
	frameLen := d.opts.NumChannels * 2
	buf := make([]byte, frameLen)

	for {
		d.mu.Lock()
		closed := d.closed
		d.mu.Unlock()
		if closed {
			return
		}

		n, err := d.epIn.Read(buf)
		if err != nil {
			if d.log != nil {
				d.log.WithError(err).Warn("usbrx: endpoint read error")
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if n < frameLen {
			// Short transfer, not a complete frame.
			continue
		}

		d.mu.Lock()
		for i := 0; i < d.opts.NumChannels; i++ {
			d.values[i] = uint16(buf[2*i]) | uint16(buf[2*i+1])<<8
		}
		d.lastFrame = time.Now()
		d.mu.Unlock()
	}
}
