package main

import (
	"fmt"
	"os"

	iso "github.com/go-optical/iso9660kit"
	"github.com/bgrewell/usage"
	"golang.org/x/term"
)

// DisplayISOInfo prints general information about the ISO file.
func DisplayISOInfo(i *iso.ISO9660, verbose bool, useColor bool) {
	// Counters
	rrEnabled := 0
	symlinks := 0
	xarEntries := 0
	totalSize := uint64(0)

	// Get file system entries
	files, err := i.ListFiles()
	if err != nil {
		fmt.Println("Failed to list files:", err)
	}

	dirs, err := i.ListDirectories()
	if err != nil {
		fmt.Println("Failed to list directories:", err)
	}

	for _, entry := range append(files, dirs...) {
		if entry.HasRockRidge {
			rrEnabled++
		}
		if entry.DirectoryRecord().RockRidge != nil && entry.DirectoryRecord().RockRidge.SymlinkTarget != nil {
			symlinks++
		}
		if entry.ExtendedAttributeRecord() != nil {
			xarEntries++
		}
		if !entry.IsDir {
			totalSize += uint64(entry.Size)
		}
	}

	// Print Basic Information
	fmt.Println("=== ISO Information ===")
	if i.GetVolumeID() != "" {
		fmt.Printf("Volume Name: %s\n", i.GetVolumeID())
	}
	if i.GetApplicationID() != "" {
		fmt.Printf("Created By: %s\n", i.GetApplicationID())
	}
	if i.GetDataPreparerID() != "" {
		fmt.Printf("Preparer: %s\n", i.GetDataPreparerID())
	}
	if i.GetPublisherID() != "" {
		fmt.Printf("Publisher: %s\n", i.GetPublisherID())
	}

	fmt.Printf("Volume Size: %d sectors\n", i.GetVolumeSize())
	fmt.Printf("Total Files: %d\n", len(files))
	fmt.Printf("Total Directories: %d\n", len(dirs))
	fmt.Printf("Total Size: %d bytes (%.2f MB)\n", totalSize, float64(totalSize)/1024/1024)

	if verbose {
		// Verbose output with additional metadata
		fmt.Println("\n=== Verbose Information ===")
		fmt.Printf("System Identifier: %s\n", i.GetSystemID())
		fmt.Printf("Symbolic Links: %d\n", symlinks)
		fmt.Printf("Root Directory Location: %d (LBA)\n", i.RootDirectoryLocation())

		// Rock Ridge Support
		if i.HasRockRidge() {
			fmt.Println("\n--- Rock Ridge Extensions ---")
			fmt.Println("Rock Ridge Enabled: YES")
			fmt.Printf("  Number of Entries with Rock Ridge Extensions: %d\n", rrEnabled)
		} else {
			fmt.Println("\nRock Ridge Extensions: NOT PRESENT")
		}

		// Extended Attribute Records
		fmt.Printf("\nEntries with Extended Attribute Records: %d\n", xarEntries)

		// El Torito Boot Support
		if i.HasElTorito() {
			fmt.Println("\n--- El Torito Boot Extensions ---")
			fmt.Println("El Torito Boot Support: YES")
			bootEntries, err := i.ListBootEntries()
			if err != nil {
				fmt.Println("Failed to list boot entries:", err)
			}
			fmt.Printf("Number of Boot Entries: %d\n", len(bootEntries))
			for _, entry := range bootEntries {
				fmt.Printf("  Boot Entry: %s\n", entry.Name)
			}
		}

		// UDF Bridge Detection
		if i.HasUDF() {
			fmt.Println("\nUDF Bridge: PRESENT (also readable as a UDF file system)")
		} else {
			fmt.Println("\nUDF Bridge: NOT PRESENT")
		}
	}

	fmt.Println("=========================")

	// Print the layout info
	layout := i.GetLayout()
	if layout != nil {
		fmt.Println("=== ISO Layout ===")
		layout.Print(true, useColor, true)
		fmt.Println("=========================")
	} else {
		fmt.Println("Failed to retrieve ISO layout")
	}
}

func main() {

	u := usage.NewUsage(
		usage.WithApplicationName("isoview"),
		usage.WithApplicationDescription("isoview is a command-line tool for inspecting ISO9660 images, including Rock Ridge, Joliet, and El Torito extensions. It provides detailed volume information, lists files and directories, decodes long filenames, and identifies bootable images."),
	)

	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Print verbose output", "", nil)
	path := u.AddArgument(1, "iso-path", "Path to the ISO image to inspect", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if path == nil || *path == "" {
		u.PrintError(fmt.Errorf("location of the iso file <path> must be provided"))
		os.Exit(1)
	}

	isoFile, err := os.Open(*path)
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
	defer isoFile.Close()

	i, err := iso.Open(isoFile)
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
	defer i.Close()

	useColor := term.IsTerminal(int(os.Stdout.Fd()))
	DisplayISOInfo(i, *verbose, useColor)
}
