package main

import (
	"fmt"
	"os"

	iso "github.com/go-optical/iso9660kit"
	"github.com/go-optical/iso9660kit/pkg/logging"
	"github.com/go-optical/iso9660kit/pkg/option"
)

func main() {

	log := logging.NewLogger(logging.NewSimpleLogger(os.Stderr, logging.TRACE, true))

	img, err := iso.Create("UBUNTU",
		option.WithCreateLogger(log),
		option.WithJoliet(true),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create ISO: %w", err))
	}
	defer img.Close()

	out, err := os.Create("/tmp/validation.iso")
	if err != nil {
		panic(fmt.Errorf("failed to open output file: %w", err))
	}
	defer out.Close()

	if err := img.Save(out); err != nil {
		panic(fmt.Errorf("failed to save ISO: %w", err))
	}
}
