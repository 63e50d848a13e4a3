package hal

import (
	"sort"
	"sync"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

// BlockParams describes the tiling the backend's kernels expect, per
// spec.md §3's BackendDescriptor data model entry.
type BlockParams struct {
	RowBlock int
	ColBlock int
	Parallel bool
	QKI2S    int
}

// VecDotFunc, QuantizeFunc, GemvFunc, and GemmFunc are the four kernel
// function slots every BackendDescriptor must fill, per spec.md §3.
type (
	VecDotFunc  func(n int, blocks []Block, activations []int8) (int32, error)
	QuantizeFunc func(weights []float32) []Block
	GemvFunc    func(weightRows [][]Block, inFeatures int, activations []int8) ([]int32, error)
	GemmFunc    func(weightRows [][]Block, inFeatures int, batch [][]int8) ([][]int32, error)
)

// BackendDescriptor enumerates one kernel implementation. Only one
// backend is active at a time; switching requires Shutdown of the
// previous backend before Init of the next, per spec.md §3's
// invariant.
type BackendDescriptor struct {
	Name             string
	Priority         int
	RequiredFeatures Features
	Block            BlockParams

	VecDotI2I8 VecDotFunc
	QuantizeI2 QuantizeFunc
	GemvI2I8   GemvFunc
	GemmI2I8   GemmFunc

	Init     func() error
	Shutdown func()
}

var (
	tableMu sync.Mutex
	table   []*BackendDescriptor

	activeMu sync.Mutex
	active   *BackendDescriptor
)

// RegisterBackend adds a backend to the process-wide table. Called
// from package init() functions of backend implementation files, so
// the table is fully populated before any SelectBackend call, per
// spec.md §9's "global backend table ... process-wide, initialized
// once".
func RegisterBackend(d *BackendDescriptor) {
	tableMu.Lock()
	defer tableMu.Unlock()
	table = append(table, d)
}

func init() {
	RegisterBackend(&BackendDescriptor{
		Name:             "scalar",
		Priority:         0,
		RequiredFeatures: 0,
		Block:            BlockParams{RowBlock: 1, ColBlock: QKI2S, Parallel: true, QKI2S: QKI2S},
		VecDotI2I8:       VecDotI2I8ScalarBlocks,
		QuantizeI2:       QuantizeI2Scalar,
		GemvI2I8:         GemvI2I8Scalar,
		GemmI2I8:         GemmI2I8Scalar,
	})
}

// SelectBackend iterates the registered table in descending priority
// and returns the first descriptor whose RequiredFeatures is a subset
// of features, calling its Init hook. On Init failure it falls
// through to the next candidate; the scalar backend's zero
// RequiredFeatures and absent Init hook guarantee termination, per
// spec.md §4.1.
func SelectBackend(features Features) (*BackendDescriptor, error) {
	tableMu.Lock()
	candidates := make([]*BackendDescriptor, len(table))
	copy(candidates, table)
	tableMu.Unlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority > candidates[j].Priority
	})

	var lastErr error
	for _, d := range candidates {
		if !features.Has(d.RequiredFeatures) {
			continue
		}
		if d.Init != nil {
			if err := d.Init(); err != nil {
				lastErr = err
				continue
			}
		}
		return d, nil
	}
	if lastErr != nil {
		return nil, neuronerr.Wrap(neuronerr.KindBackendUnavailable, "no backend initialized", lastErr)
	}
	return nil, neuronerr.New(neuronerr.KindBackendUnavailable, "no backend matched available features")
}

// Activate selects a backend for the given features and makes it the
// process-wide active backend, shutting down whatever backend was
// previously active. Safe to call once at startup or to switch
// backends at runtime (e.g. for testing with a forced feature mask).
func Activate(features Features) (*BackendDescriptor, error) {
	d, err := SelectBackend(features)
	if err != nil {
		return nil, err
	}
	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil && active.Shutdown != nil {
		active.Shutdown()
	}
	active = d
	return d, nil
}

// Active returns the currently active backend, or nil if Activate has
// not been called.
func Active() *BackendDescriptor {
	activeMu.Lock()
	defer activeMu.Unlock()
	return active
}

// ShutdownActive calls the active backend's Shutdown hook, if any, and
// clears it. Intended for process teardown, per spec.md §4.1: "On
// process shutdown, call its shutdown."
func ShutdownActive() {
	activeMu.Lock()
	defer activeMu.Unlock()
	if active != nil && active.Shutdown != nil {
		active.Shutdown()
	}
	active = nil
}
