package hwprobe

import (
	"os/exec"
	"strconv"
	"strings"
)

// detectGPU shells out to nvidia-smi, adapted directly from
// _examples/other_examples' offgrid-llm detectGPU. GPU fields are
// optional per spec.md §4.2: "default empty/zero" when no GPU or no
// nvidia-smi is present.
func detectGPU() (name string, vramMB int64) {
	out, err := exec.Command("nvidia-smi", "--query-gpu=memory.total,name", "--format=csv,noheader,nounits").Output()
	if err != nil {
		return "", 0
	}
	parts := strings.SplitN(strings.TrimSpace(string(out)), ",", 2)
	if len(parts) < 2 {
		return "", 0
	}
	vram, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return "", 0
	}
	return strings.TrimSpace(parts[1]), vram
}
