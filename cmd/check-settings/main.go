// check-settings validates a settings file and prints a summary of
// what it configures. It exits nonzero if the file would be rejected
// by the daemon.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/openfcs/flightinput/pkg/config"
	"github.com/openfcs/flightinput/pkg/manualcontrol"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <settings file>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Settings file checker\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}
	settings, err := f.ToSettings()
	if err != nil {
		return err
	}

	fmt.Printf("%s: OK\n\n", path)
	if f.Name != "" {
		fmt.Printf("Name:       %s\n", f.Name)
	}
	fmt.Printf("Arming:     %s\n", settings.Arming)
	fmt.Printf("Deadband:   %.3f\n", settings.Deadband)
	fmt.Printf("Failsafe:   %s\n", failsafeString(&settings))

	fmt.Printf("\nChannels:\n")
	for ch := 0; ch < manualcontrol.NumChannels; ch++ {
		cfg := settings.Channels[ch]
		if !cfg.Assigned() {
			continue
		}
		fmt.Printf("  %-11s %s %d  (%d / %d / %d)\n",
			manualcontrol.Channel(ch), cfg.Group, cfg.Number,
			cfg.Min, cfg.Neutral, cfg.Max)
	}

	fmt.Printf("\nFlight modes (%d positions):\n", settings.FlightModeCount)
	for i := 0; i < settings.FlightModeCount; i++ {
		fmt.Printf("  %d: %s\n", i+1, settings.FlightModes[i])
	}
	return nil
}

func failsafeString(s *manualcontrol.Settings) string {
	if s.FailsafeBehavior == manualcontrol.FailsafeNone {
		return "hold current mode"
	}
	return fmt.Sprintf("force position %d (%s)",
		s.FailsafeBehavior, s.FlightModes[s.FailsafeBehavior-1])
}
