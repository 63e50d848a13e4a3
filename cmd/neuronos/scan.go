package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neuronos/neuronos/pkg/hwprobe"
	"github.com/neuronos/neuronos/pkg/registry"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan a directory for GGUF models and score them against this machine",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "./models"
			if len(args) == 1 {
				dir = args[0]
			}

			hw := hwprobe.Detect()
			entries, err := scanWithMetadataCache(dir, hw)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("no .gguf models found")
				return writeHWProfile(hwProfile{Hardware: hw})
			}

			for i, e := range entries {
				fit := "fits"
				if !e.FitsInRAM {
					fit = "too large"
				}
				fmt.Printf("%2d. %-40s  %8.1f MB  score=%.1f  %s\n", i+1, e.DisplayName, e.FileSizeMB, e.Score, fit)
			}

			if best, ok := registry.SelectBest(entries); ok {
				fmt.Printf("✅ Best fit: %s\n", best.DisplayName)
			} else {
				fmt.Println("⚠️  no model fits in the available RAM budget")
			}

			return writeHWProfile(hwProfile{Hardware: hw, Models: entries})
		},
	}
}
