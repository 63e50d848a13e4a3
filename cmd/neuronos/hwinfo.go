package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/neuronos/neuronos/pkg/hal"
	"github.com/neuronos/neuronos/pkg/hwprobe"
)

func newHWInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hwinfo",
		Short: "Detect and print hardware capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			hw := hwprobe.Detect()
			backend, err := hal.Activate(hw.Features)
			if err != nil {
				return err
			}

			fmt.Printf("🖥️  %s (%s)\n", hw.CPUName, hw.Arch)
			fmt.Printf("   Cores:        %d physical / %d logical\n", hw.PhysicalCores, hw.LogicalCores)
			fmt.Printf("   RAM:          %s total, %s available\n",
				humanize.Bytes(uint64(hw.RAMTotalMB)*1024*1024), humanize.Bytes(uint64(hw.RAMAvailableMB)*1024*1024))
			fmt.Printf("   Model budget: %s\n", humanize.Bytes(uint64(hw.ModelBudgetMB)*1024*1024))
			if hw.GPUName != "" {
				fmt.Printf("   GPU:          %s (%s VRAM)\n", hw.GPUName, humanize.Bytes(uint64(hw.GPUVRAMMB)*1024*1024))
			} else {
				fmt.Printf("   GPU:          none detected\n")
			}
			fmt.Printf("   Features:     %s\n", hw.Features)
			fmt.Printf("✅ Selected HAL backend: %s\n", backend.Name)

			return writeHWProfile(hwProfile{Hardware: hw})
		},
	}
}
