package main

import (
	"encoding/json"
	"os"

	"github.com/neuronos/neuronos/pkg/hwprobe"
	"github.com/neuronos/neuronos/pkg/neuronerr"
	"github.com/neuronos/neuronos/pkg/registry"
)

// hwProfileFile is the sidecar written on every hwinfo/scan invocation:
// the last detected hardware and, after a scan, the scored models. No
// command reads it back; each one probes the hardware again.
const hwProfileFile = "hw_profile.json"

// hwProfile is the on-disk cache shape.
type hwProfile struct {
	Hardware hwprobe.HardwareInfo  `json:"hardware"`
	Models   []registry.ModelEntry `json:"models,omitempty"`
}

func writeHWProfile(p hwProfile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return neuronerr.Wrap(neuronerr.KindEngineError, "marshal hw_profile.json", err)
	}
	if err := os.WriteFile(hwProfileFile, data, 0o644); err != nil {
		return neuronerr.Wrap(neuronerr.KindIOError, "write hw_profile.json", err)
	}
	return nil
}

func readHWProfile() (hwProfile, bool) {
	data, err := os.ReadFile(hwProfileFile)
	if err != nil {
		return hwProfile{}, false
	}
	var p hwProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return hwProfile{}, false
	}
	return p, true
}
