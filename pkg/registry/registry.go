// Package registry implements the NeuronOS model registry (C4):
// scanning a directory for GGUF models, scoring each against detected
// hardware, and selecting the best fit under a RAM budget.
package registry

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/neuronos/neuronos/pkg/gguf"
	"github.com/neuronos/neuronos/pkg/hwprobe"
	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// ScanLimit caps the number of entries a single Scan call will
// produce, per spec.md §4.3: "capped at 128 entries".
const ScanLimit = 128

// ModelEntry is one scanned model, per spec.md §3.
type ModelEntry struct {
	Path        string
	DisplayName string
	FileSizeMB  float64
	EstRAMMB    float64
	EstParams   int64
	FitsInRAM   bool
	Score       float64
}

var gguFilePattern = regexp.MustCompile(`(?i)\.gguf$`)

// Scan walks dir depth-first (no symlink traversal), collects up to
// ScanLimit *.gguf files, scores each against hw, and returns entries
// sorted by score descending (stable, so scan order breaks ties per
// spec.md §4.3's "Ties broken by scan order (stable sort required)").
func Scan(dir string, hw hwprobe.HardwareInfo) ([]ModelEntry, error) {
	return ScanWithCache(dir, hw, nil)
}

// ScanWithCache is Scan but consults cache (see cache.go) to avoid
// re-parsing GGUF files unchanged since the last scan. Pass nil for
// the same behavior as Scan.
func ScanWithCache(dir string, hw hwprobe.HardwareInfo, cache *Cache) ([]ModelEntry, error) {
	var entries []ModelEntry

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if len(entries) >= ScanLimit {
			return filepath.SkipAll
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !gguFilePattern.MatchString(d.Name()) {
			return nil
		}

		meta, err := ReadMetadataCached(cache, path)
		if err != nil {
			// A malformed model file is not fatal to the scan; skip it.
			return nil
		}

		entry := newEntry(meta, hw)
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindIOError, "scanning models directory", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries, nil
}

// newEntry builds a ModelEntry from GGUF metadata and scores it
// against hw, per spec.md §3 and §4.3.
func newEntry(meta *gguf.Metadata, hw hwprobe.HardwareInfo) ModelEntry {
	e := ModelEntry{
		Path:        meta.Path,
		DisplayName: meta.DisplayName,
		FileSizeMB:  meta.FileSizeMB,
		EstRAMMB:    meta.FileSizeMB*1.3 + 100,
		EstParams:   meta.EstimatedParams,
	}
	e.FitsInRAM = e.EstRAMMB <= float64(hw.ModelBudgetMB)
	e.Score = score(e, hw)
	return e
}

var (
	i2sNamePattern     = regexp.MustCompile(`(?i)(i2_s|1\.58|bitnet)`)
	instructNamePattern = regexp.MustCompile(`(?i)(instruct|chat)`)
)

// score implements spec.md §4.3's scoring function exactly:
//
//	if est_ram_mb > hw.model_budget_mb: score = -1
//	else: score = 1000 + quality_tier(params_B) + 50*(budget-est_ram)/budget
//	      + 25 if name matches {i2_s,1.58,bitnet} + 15 if name matches {instruct,chat}
func score(e ModelEntry, hw hwprobe.HardwareInfo) float64 {
	budget := float64(hw.ModelBudgetMB)
	if e.EstRAMMB > budget {
		return -1
	}

	s := 1000.0
	s += qualityTier(paramsB(e.EstParams))
	if budget > 0 {
		s += 50 * (budget - e.EstRAMMB) / budget
	}
	if i2sNamePattern.MatchString(e.DisplayName) {
		s += 25
	}
	if instructNamePattern.MatchString(e.DisplayName) {
		s += 15
	}
	return s
}

func paramsB(params int64) float64 {
	return float64(params) / 1e9
}

// qualityTier implements the {<1:10, 1-2:30, 2-4:60, 4-8:80, >=8:100}
// table from spec.md §4.3.
func qualityTier(paramsB float64) float64 {
	switch {
	case paramsB < 1:
		return 10
	case paramsB < 2:
		return 30
	case paramsB < 4:
		return 60
	case paramsB < 8:
		return 80
	default:
		return 100
	}
}

// SelectBest returns the first entry (in the caller's slice order)
// with a positive score and FitsInRAM set, per spec.md §4.3. Entries
// is expected to already be sorted by Scan.
func SelectBest(entries []ModelEntry) (ModelEntry, bool) {
	for _, e := range entries {
		if e.Score > 0 && e.FitsInRAM {
			return e, true
		}
	}
	return ModelEntry{}, false
}
