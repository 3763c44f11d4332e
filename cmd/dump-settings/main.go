// dump-settings writes a settings file. With no input it emits the
// built-in defaults, which makes it the starting point for a new
// vehicle configuration; with -in it converts between JSON and YAML.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/openfcs/flightinput/pkg/config"
	"github.com/openfcs/flightinput/pkg/manualcontrol"
)

var (
	inPath  = flag.String("in", "", "Existing settings file to convert (optional)")
	outPath = flag.String("out", "settings.yaml", "Output file (.json, .yaml or .yml)")
	name    = flag.String("name", "", "Configuration name to embed")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Settings file generator and converter\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -out settings.yaml             # write defaults\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -in old.json -out new.yaml     # convert formats\n", os.Args[0])
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var f *config.File
	if *inPath != "" {
		loaded, err := config.Load(*inPath)
		if err != nil {
			return err
		}
		// Round-trip through the runtime form so the output is
		// normalized, not a copy of the input's quirks.
		settings, err := loaded.ToSettings()
		if err != nil {
			return err
		}
		f = config.FromSettings(settings)
		f.Name = loaded.Name
	} else {
		f = config.FromSettings(manualcontrol.DefaultSettings())
	}

	if *name != "" {
		f.Name = *name
	}

	if err := config.Save(*outPath, f); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *outPath)
	return nil
}
