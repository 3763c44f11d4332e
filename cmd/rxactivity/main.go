// rxactivity watches the receiver channels and reports which one the
// operator is moving. Useful when wiring up a new transmitter: wiggle
// one stick at a time and read off the group and channel number.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openfcs/flightinput/pkg/manualcontrol"
	"github.com/openfcs/flightinput/pkg/receiver"
	"github.com/openfcs/flightinput/pkg/receiver/ibus"
)

var (
	ibusPort = flag.String("ibus", "", "Serial port with an iBus receiver (e.g. /dev/ttyUSB0)")
	period   = flag.Duration("period", manualcontrol.DefaultPeriod, "Sampling period")
	verbose  = flag.Bool("v", false, "Verbose (debug) logging")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Receiver channel activity monitor\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s -ibus /dev/ttyUSB0\n", os.Args[0])
	}
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(log); err != nil {
		log.WithError(err).Fatal("monitor failed")
	}
}

func run(log *logrus.Logger) error {
	if *ibusPort == "" {
		return fmt.Errorf("no receiver given (want -ibus)")
	}

	drv, err := ibus.Open(*ibusPort, log)
	if err != nil {
		return fmt.Errorf("failed to open iBus receiver: %w", err)
	}
	defer drv.Close()

	rcvrs := receiver.NewGroupMap()
	rcvrs.Bind(receiver.GroupIBus, drv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	fmt.Println("Watching for channel activity... (Press Ctrl+C to stop)")

	monitor := manualcontrol.NewActivityMonitor()
	last := manualcontrol.NoActivity()

	ticker := time.NewTicker(*period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nDone.")
			return nil
		case <-ticker.C:
			act, detected := monitor.Update(rcvrs)
			if !detected || act == last {
				continue
			}
			last = act
			fmt.Printf("ACTIVE: group %-5s channel %d\n", act.ActiveGroup, act.ActiveChannel)
		}
	}
}
