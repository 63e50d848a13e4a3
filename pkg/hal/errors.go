package hal

import "github.com/neuronos/neuronos/pkg/neuronerr"

func invalidN() error {
	return neuronerr.New(neuronerr.KindInvalidArgument, "n must be a multiple of QKI2S")
}

func invalidLen() error {
	return neuronerr.New(neuronerr.KindInvalidArgument, "not enough blocks or activations for n")
}
