package hwprobe

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// String renders HardwareInfo for the `hwinfo` CLI command, grounded
// on _examples/other_examples' offgrid-llm SystemResources.String()
// shape, using go-humanize for byte formatting instead of the
// teacher's hand-rolled formatMemory helper.
func (h HardwareInfo) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hardware:\n")
	fmt.Fprintf(&sb, "  CPU: %s (%s)\n", h.CPUName, h.Arch)
	fmt.Fprintf(&sb, "  Cores: %d physical / %d logical\n", h.PhysicalCores, h.LogicalCores)
	fmt.Fprintf(&sb, "  RAM: %s total, %s available\n",
		humanize.IBytes(uint64(h.RAMTotalMB)*1024*1024),
		humanize.IBytes(uint64(h.RAMAvailableMB)*1024*1024))
	fmt.Fprintf(&sb, "  Model budget: %s\n", humanize.IBytes(uint64(h.ModelBudgetMB)*1024*1024))
	if h.GPUName != "" {
		fmt.Fprintf(&sb, "  GPU: %s (%s VRAM)\n", h.GPUName, humanize.IBytes(uint64(h.GPUVRAMMB)*1024*1024))
	} else {
		fmt.Fprintf(&sb, "  GPU: not detected\n")
	}
	fmt.Fprintf(&sb, "  Features: %s\n", h.Features)
	return sb.String()
}
