//go:build darwin

package hwprobe

import (
	"os/exec"
	"strconv"
	"strings"
)

// detectRAM shells out to sysctl, adapted directly from
// _examples/other_examples' offgrid-llm detectRAM darwin branch.
// sysctl reports only the total, so available RAM falls back to 60% of
// total, the same rule ram_linux.go applies when MemAvailable is absent.
func detectRAM() (totalMB, availMB int64, ok bool) {
	out, err := exec.Command("sysctl", "-n", "hw.memsize").Output()
	if err != nil {
		return 0, 0, false
	}
	bytesTotal, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil || bytesTotal == 0 {
		return 0, 0, false
	}
	total := bytesTotal / (1024 * 1024)
	return total, total * 60 / 100, true
}
