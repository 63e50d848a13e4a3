// Package gguf implements the NeuronOS GGUF metadata reader (C3): it
// extracts the architecture string, display name, quantization tag,
// and a footprint estimate from a model file on disk without loading
// the full tensor data, per spec.md §4.3 and §6.
//
// The binary walk follows the public GGUF container format (magic,
// version, tensor count, metadata key/value count, then metadata
// key/value pairs); the only pack example that touches GGUF
// (_examples/other_examples' gpustack-gguf-parser-go CLI) delegates
// parsing to an external library rather than showing the byte layout
// itself, so this reader is written directly against the format
// using only the standard library, matching that example's own
// standard-library-only byte handling for everything it does inline.
package gguf

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/neuronos/neuronos/pkg/neuronerr"
)

const (
	magic        = 0x46554747 // "GGUF" little-endian
	minVersion   = 3
	maxKeyLen    = 1 << 16
	maxStringLen = 1 << 20
)

// valueType enumerates the GGUF metadata value type tags.
type valueType uint32

const (
	vtUint8 valueType = iota
	vtInt8
	vtUint16
	vtInt16
	vtUint32
	vtInt32
	vtFloat32
	vtBool
	vtString
	vtArray
	vtUint64
	vtInt64
	vtFloat64
)

// Metadata is the extracted subset of a GGUF file's header the core
// needs, per spec.md §4.3: "extracts architecture string, parameter
// estimate, quantization tag, footprint" and §6: "reads
// general.architecture, general.name, and the quantization-type
// enum; all other metadata is opaque."
type Metadata struct {
	Path             string
	DisplayName      string
	Architecture     string
	QuantizationTag  string
	FileSizeMB       float64
	EstimatedParams  int64
	BytesPerParamHint float64
}

// quantBytesPerParam supplements the spec's single ternary-only
// constant (SPEC_FULL.md SUPPLEMENTED FEATURES #3) with a per-encoding
// table, keyed by the quantization tag found in metadata or inferred
// from the filename. I2_S remains the default for unrecognized tags,
// matching spec.md §3's own assumption.
var quantBytesPerParam = map[string]float64{
	"I2_S":   0.35,
	"IQ1_S":  0.25,
	"IQ2_XS": 0.45,
	"Q4_K_M": 0.55,
	"Q4_0":   0.5,
	"Q5_K_M": 0.65,
	"Q8_0":   1.0,
	"F16":    2.0,
	"F32":    4.0,
}

// ReadMetadata opens path and extracts Metadata. Only the GGUF header
// and metadata key/value section is read; tensor data is skipped.
func ReadMetadata(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindNotFound, "opening gguf file", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindIOError, "stat gguf file", err)
	}

	r := bufio.NewReader(f)

	var gotMagic uint32
	if err := binary.Read(r, binary.LittleEndian, &gotMagic); err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindParseError, "reading gguf magic", err)
	}
	if gotMagic != magic {
		return nil, neuronerr.New(neuronerr.KindParseError, "not a gguf file: bad magic")
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindParseError, "reading gguf version", err)
	}
	if version < minVersion {
		return nil, neuronerr.New(neuronerr.KindParseError, "unsupported gguf version")
	}

	var tensorCount, kvCount uint64
	if err := binary.Read(r, binary.LittleEndian, &tensorCount); err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindParseError, "reading tensor count", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &kvCount); err != nil {
		return nil, neuronerr.Wrap(neuronerr.KindParseError, "reading kv count", err)
	}

	kv := make(map[string]any, kvCount)
	for i := uint64(0); i < kvCount; i++ {
		key, err := readString(r)
		if err != nil {
			return nil, neuronerr.Wrap(neuronerr.KindParseError, "reading metadata key", err)
		}
		var vt uint32
		if err := binary.Read(r, binary.LittleEndian, &vt); err != nil {
			return nil, neuronerr.Wrap(neuronerr.KindParseError, "reading metadata value type", err)
		}
		val, err := readValue(r, valueType(vt))
		if err != nil {
			return nil, neuronerr.Wrap(neuronerr.KindParseError, "reading metadata value for "+key, err)
		}
		kv[key] = val
	}

	m := &Metadata{
		Path:        path,
		DisplayName: displayName(path),
		FileSizeMB:  float64(stat.Size()) / (1024 * 1024),
	}

	if arch, ok := kv["general.architecture"].(string); ok {
		m.Architecture = arch
	} else {
		m.Architecture = "unknown"
	}

	if name, ok := kv["general.name"].(string); ok && name != "" {
		m.DisplayName = name
	}

	m.QuantizationTag = inferQuantTag(kv, path)
	m.BytesPerParamHint = bytesPerParam(m.QuantizationTag)
	m.EstimatedParams = int64(float64(stat.Size()) / m.BytesPerParamHint)

	return m, nil
}

// displayName strips the extension from the file's basename, per
// spec.md §4.3: "Name extraction strips the extension from the
// basename."
func displayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// inferQuantTag uses the string metadata key general.quantization_tag
// when present, falling back to scanning the filename for a known tag
// and then to "I2_S", per SPEC_FULL.md SUPPLEMENTED FEATURES #3. The
// numeric general.file_type enum is not read.
func inferQuantTag(kv map[string]any, path string) string {
	if tag, ok := kv["general.quantization_tag"].(string); ok && tag != "" {
		return tag
	}
	name := strings.ToUpper(filepath.Base(path))
	for tag := range quantBytesPerParam {
		if strings.Contains(name, tag) {
			return tag
		}
	}
	return "I2_S"
}

func bytesPerParam(tag string) float64 {
	if v, ok := quantBytesPerParam[tag]; ok {
		return v
	}
	return quantBytesPerParam["I2_S"]
}

func readString(r io.Reader) (string, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", neuronerr.New(neuronerr.KindResourceExhausted, "gguf string exceeds size cap")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readValue(r io.Reader, vt valueType) (any, error) {
	switch vt {
	case vtUint8:
		var v uint8
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtInt8:
		var v int8
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtUint16:
		var v uint16
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtInt16:
		var v int16
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtUint32:
		var v uint32
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtInt32:
		var v int32
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtFloat32:
		var v float32
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtBool:
		var v uint8
		err := binary.Read(r, binary.LittleEndian, &v)
		return v != 0, err
	case vtString:
		return readString(r)
	case vtUint64:
		var v uint64
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtInt64:
		var v int64
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtFloat64:
		var v float64
		err := binary.Read(r, binary.LittleEndian, &v)
		return v, err
	case vtArray:
		var elemType uint32
		if err := binary.Read(r, binary.LittleEndian, &elemType); err != nil {
			return nil, err
		}
		var count uint64
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, err
		}
		out := make([]any, 0, count)
		for i := uint64(0); i < count; i++ {
			v, err := readValue(r, valueType(elemType))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, neuronerr.New(neuronerr.KindParseError, "unknown gguf value type")
	}
}
