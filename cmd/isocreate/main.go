package main

import (
	"fmt"
	"os"

	iso "github.com/go-optical/iso9660kit"
)

func main() {

	source := "/tmp/ubuntu-iso"
	dest := "/tmp/created-ubuntu.iso"

	i, err := iso.Create("UBUNTU")
	if err != nil {
		panic(err)
	}
	defer i.Close()

	if err := i.AddDirectory(source, "/"); err != nil {
		panic(err)
	}

	out, err := os.Create(dest)
	if err != nil {
		panic(fmt.Errorf("failed to open output file: %w", err))
	}
	defer out.Close()

	if err := i.Save(out); err != nil {
		panic(err)
	}
}
