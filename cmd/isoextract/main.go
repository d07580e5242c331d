package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	iso "github.com/go-optical/iso9660kit"
	"github.com/go-optical/iso9660kit/pkg/logging"
	"github.com/go-optical/iso9660kit/pkg/option"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

func main() {
	// Logging level flags
	debug := flag.Bool("v", false, "Enable verbose (debug) logging")
	trace := flag.Bool("vv", false, "Enable trace logging")

	// Extraction options
	bootImages := flag.Bool("boot", false, "Extract boot images (El Torito)")
	rockRidge := flag.Bool("rockridge", true, "Enable Rock Ridge support")
	enhancedVol := flag.Bool("enhanced", true, "Use Enhanced Volume Descriptors")
	stripVer := flag.Bool("strip", true, "Strip version info from filenames")

	// Output directory
	outputDir := flag.String("o", "./extracted", "Output directory for extracted files")
	bootDir := flag.String("bootdir", "[BOOT]", "Output directory for boot images")

	// Parse flags
	flag.Parse()

	// Configure logging
	level := logging.LEVEL_INFO
	if *trace {
		level = logging.LEVEL_TRACE
	} else if *debug {
		level = logging.LEVEL_DEBUG
	}
	log := logging.NewLogger(logging.NewSimpleLogger(os.Stderr, level, true))

	// Ensure we have an ISO path
	if flag.NArg() < 1 {
		fmt.Println("Usage: isoextract [options] <path-to-iso>")
		fmt.Println("  -v               Enable verbose (debug) logging")
		fmt.Println("  -vv              Enable trace logging")
		fmt.Println("  -boot            Extract boot images (El Torito)")
		fmt.Println("  -rockridge       Enable Rock Ridge support (default: true)")
		fmt.Println("  -enhanced        Use Enhanced Volume Descriptors (default: true)")
		fmt.Println("  -strip           Strip version info from filenames (default: true)")
		fmt.Println("  -o <directory>   Output directory (default './extracted')")
		fmt.Println("  -bootdir <dir>   Output directory for boot images, inside the output directory (default '[BOOT]')")
		os.Exit(1)
	}

	// Grab the ISO path from arguments
	isoPath := flag.Arg(0)

	isoFile, err := os.Open(isoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open ISO: %v\n", err)
		os.Exit(1)
	}
	defer isoFile.Close()

	// Only animate the spinner when stderr is an actual terminal; a redirected
	// or piped stream gets plain progress lines instead.
	interactive := term.IsTerminal(int(os.Stderr.Fd()))

	var spinner *yacspin.Spinner
	progress := func(currentFilename string, bytesTransferred, totalBytes int64, currentFileNumber, totalFileCount int) {
		if interactive {
			spinner.Message(fmt.Sprintf("%s (%d/%d)", currentFilename, currentFileNumber, totalFileCount))
		} else {
			fmt.Fprintf(os.Stderr, "extracting %s (%d/%d)\n", currentFilename, currentFileNumber, totalFileCount)
		}
	}

	if interactive {
		spinner, err = yacspin.New(yacspin.Config{
			Frequency:       100 * time.Millisecond,
			CharSet:         yacspin.CharSets[9],
			Suffix:          " extracting",
			SuffixAutoColon: true,
			Message:         "opening image",
			StopCharacter:   "✓",
			StopColors:      []string{"fgGreen"},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create spinner: %v\n", err)
			os.Exit(1)
		}
		_ = spinner.Start()
	}

	stopFail := func() {
		if interactive {
			_ = spinner.StopFail()
		}
	}

	// Open the ISO image with the specified flags
	img, err := iso.Open(
		isoFile,
		option.WithLogger(log),
		option.WithElToritoEnabled(*bootImages),
		option.WithRockRidgeEnabled(*rockRidge),
		option.WithParseOnOpen(*enhancedVol),
		option.WithBootFileExtractLocation(*bootDir),
		option.WithPreferJoliet(*enhancedVol),
		option.WithStripVersionInfo(*stripVer),
		option.WithExtractionProgress(progress),
	)
	if err != nil {
		stopFail()
		fmt.Fprintf(os.Stderr, "Failed to open ISO: %v\n", err)
		os.Exit(1)
	}
	defer img.Close()

	// Extract the contents
	err = img.Extract(*outputDir)
	if err != nil {
		stopFail()
		fmt.Fprintf(os.Stderr, "Failed to extract image: %v\n", err)
		os.Exit(1)
	}

	if interactive {
		spinner.StopMessage(fmt.Sprintf("extraction completed to '%s'", *outputDir))
		_ = spinner.Stop()
	} else {
		fmt.Fprintf(os.Stderr, "extraction completed to '%s'\n", *outputDir)
	}
}
