// flightinputd runs the manual-control pipeline: it reads receiver
// channels, conditions them, maintains arming state and publishes the
// desired-output objects once per control period.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gousb"
	"github.com/sirupsen/logrus"

	"github.com/openfcs/flightinput/pkg/config"
	"github.com/openfcs/flightinput/pkg/manualcontrol"
	"github.com/openfcs/flightinput/pkg/receiver"
	"github.com/openfcs/flightinput/pkg/receiver/ibus"
	"github.com/openfcs/flightinput/pkg/receiver/sim"
	"github.com/openfcs/flightinput/pkg/receiver/usbrx"
)

var (
	configPath = flag.String("config", "", "Settings file (.json, .yaml or .yml); defaults are used when empty")
	period     = flag.Duration("period", manualcontrol.DefaultPeriod, "Control period")
	ibusPort   = flag.String("ibus", "", "Serial port with an iBus receiver (e.g. /dev/ttyUSB0)")
	usbVID     = flag.Uint("usb-vid", 0, "USB receiver vendor ID (0 = no USB receiver)")
	usbPID     = flag.Uint("usb-pid", 0, "USB receiver product ID")
	usbEP      = flag.Int("usb-ep", 1, "USB receiver interrupt IN endpoint")
	usbChans   = flag.Int("usb-chans", 8, "USB receiver channel count")
	simulate   = flag.Bool("sim", false, "Bind a simulated receiver to every unbound group")
	verbose    = flag.Bool("v", false, "Verbose (debug) logging")
	jsonLog    = flag.Bool("log-json", false, "Log in JSON format")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Manual control and arming daemon\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -config settings.yaml -ibus /dev/ttyUSB0\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -config settings.json -sim   # no hardware, scripted inputs\n", os.Args[0])
	}
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	if *jsonLog {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	if err := run(log); err != nil {
		log.WithError(err).Fatal("daemon failed")
	}
}

func run(log *logrus.Logger) error {
	settings := manualcontrol.DefaultSettings()
	if *configPath != "" {
		f, err := config.Load(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		settings, err = f.ToSettings()
		if err != nil {
			return fmt.Errorf("bad settings file: %w", err)
		}
		log.WithField("path", *configPath).Info("settings loaded")
	} else {
		log.Info("no settings file given, using defaults")
	}

	rcvrs := receiver.NewGroupMap()

	if *ibusPort != "" {
		drv, err := ibus.Open(*ibusPort, log)
		if err != nil {
			return fmt.Errorf("failed to open iBus receiver: %w", err)
		}
		defer drv.Close()
		rcvrs.Bind(receiver.GroupIBus, drv)
		log.WithField("port", *ibusPort).Info("iBus receiver bound")
	}

	if *usbVID != 0 {
		usbCtx := gousb.NewContext()
		defer usbCtx.Close()

		drv, err := usbrx.Open(usbCtx, usbrx.Options{
			VendorID:    uint16(*usbVID),
			ProductID:   uint16(*usbPID),
			Endpoint:    *usbEP,
			NumChannels: *usbChans,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to open USB receiver: %w", err)
		}
		defer drv.Close()
		rcvrs.Bind(receiver.GroupUSB, drv)
		log.WithFields(logrus.Fields{
			"vid": fmt.Sprintf("%04x", *usbVID),
			"pid": fmt.Sprintf("%04x", *usbPID),
		}).Info("USB receiver bound")
	}

	if *simulate {
		for g := receiver.Group(0); g.Valid(); g++ {
			if !rcvrs.Bound(g) {
				rcvrs.Bind(g, sim.New(16))
			}
		}
		log.Info("simulated receivers bound")
	}

	bus := manualcontrol.NewBus()
	bus.Settings.Set(settings)

	runner := manualcontrol.NewRunner(bus, rcvrs, log, manualcontrol.Options{
		Period: *period,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig.String()).Info("shutting down")
		cancel()
	}()

	log.WithField("period", period.String()).Info("pipeline running")
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
