// Package artifact reads and writes the serialized policy artifact consumed
// by the inference adapter, plus the side-channel JSON descriptor exported
// alongside it. The binary container is versioned and little-endian:
//
//	magic   "TILR"   4 bytes
//	version uint16
//	inWidth uint32
//	nLayers uint16
//	per layer:
//	  outWidth   uint32
//	  activation uint8 (registry wire ID)
//	  weights    float32 x outWidth*layerInWidth
//	  biases     float32 x outWidth
package artifact

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"tiller/internal/model"
	"tiller/internal/nn"
)

const (
	Magic   = "TILR"
	Version = uint16(1)

	// MaxWidth bounds every declared vector width in the container and
	// MaxLayerParams bounds the weight count of one layer, so widths read
	// from untrusted file bytes can never overflow or drive an unbounded
	// allocation during decode.
	MaxWidth       = 1 << 16
	MaxLayerParams = 1 << 24
)

var (
	ErrBadMagic           = errors.New("not a policy artifact")
	ErrUnsupportedVersion = errors.New("unsupported artifact version")
)

// Encode writes the binary form of a policy graph.
func Encode(w io.Writer, graph model.PolicyGraph) error {
	if graph.InWidth <= 0 || graph.InWidth > MaxWidth {
		return fmt.Errorf("input width out of range: %d", graph.InWidth)
	}

	if _, err := w.Write([]byte(Magic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, Version); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(graph.InWidth)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(graph.Layers))); err != nil {
		return err
	}

	prevWidth := graph.InWidth
	for i, layer := range graph.Layers {
		if layer.OutWidth <= 0 || layer.OutWidth > MaxWidth {
			return fmt.Errorf("layer %d: out width out of range: %d", i, layer.OutWidth)
		}
		if len(layer.Weights) != layer.OutWidth*prevWidth {
			return fmt.Errorf("layer %d: weight count mismatch: got=%d want=%d", i, len(layer.Weights), layer.OutWidth*prevWidth)
		}
		if len(layer.Biases) != layer.OutWidth {
			return fmt.Errorf("layer %d: bias count mismatch: got=%d want=%d", i, len(layer.Biases), layer.OutWidth)
		}
		activationID, err := nn.ActivationID(layer.Activation)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}

		if err := binary.Write(w, binary.LittleEndian, uint32(layer.OutWidth)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, activationID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, layer.Weights); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, layer.Biases); err != nil {
			return err
		}
		prevWidth = layer.OutWidth
	}

	return nil
}

// Decode reads the binary form back into a policy graph.
func Decode(r io.Reader) (model.PolicyGraph, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return model.PolicyGraph{}, fmt.Errorf("read magic: %w", err)
	}
	if !bytes.Equal(magic, []byte(Magic)) {
		return model.PolicyGraph{}, ErrBadMagic
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return model.PolicyGraph{}, fmt.Errorf("read version: %w", err)
	}
	if version != Version {
		return model.PolicyGraph{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var inWidth uint32
	if err := binary.Read(r, binary.LittleEndian, &inWidth); err != nil {
		return model.PolicyGraph{}, fmt.Errorf("read input width: %w", err)
	}
	if inWidth == 0 || inWidth > MaxWidth {
		return model.PolicyGraph{}, fmt.Errorf("input width out of range: %d", inWidth)
	}

	var nLayers uint16
	if err := binary.Read(r, binary.LittleEndian, &nLayers); err != nil {
		return model.PolicyGraph{}, fmt.Errorf("read layer count: %w", err)
	}

	graph := model.PolicyGraph{
		InWidth: int(inWidth),
		Layers:  make([]model.Layer, 0, nLayers),
	}
	prevWidth := int(inWidth)
	for i := 0; i < int(nLayers); i++ {
		var outWidth uint32
		if err := binary.Read(r, binary.LittleEndian, &outWidth); err != nil {
			return model.PolicyGraph{}, fmt.Errorf("layer %d: read out width: %w", i, err)
		}
		if outWidth == 0 || outWidth > MaxWidth {
			return model.PolicyGraph{}, fmt.Errorf("layer %d: out width out of range: %d", i, outWidth)
		}
		if params := int64(outWidth) * int64(prevWidth); params > MaxLayerParams {
			return model.PolicyGraph{}, fmt.Errorf("layer %d: parameter count out of range: %d", i, params)
		}

		var activationID uint8
		if err := binary.Read(r, binary.LittleEndian, &activationID); err != nil {
			return model.PolicyGraph{}, fmt.Errorf("layer %d: read activation: %w", i, err)
		}
		activation, err := nn.ActivationName(activationID)
		if err != nil {
			return model.PolicyGraph{}, fmt.Errorf("layer %d: %w", i, err)
		}

		weights := make([]float32, int(outWidth)*prevWidth)
		if err := binary.Read(r, binary.LittleEndian, weights); err != nil {
			return model.PolicyGraph{}, fmt.Errorf("layer %d: read weights: %w", i, err)
		}
		biases := make([]float32, outWidth)
		if err := binary.Read(r, binary.LittleEndian, biases); err != nil {
			return model.PolicyGraph{}, fmt.Errorf("layer %d: read biases: %w", i, err)
		}

		graph.Layers = append(graph.Layers, model.Layer{
			OutWidth:   int(outWidth),
			Activation: activation,
			Weights:    weights,
			Biases:     biases,
		})
		prevWidth = int(outWidth)
	}

	return graph, nil
}

// Save writes a policy graph to disk in binary form.
func Save(path string, graph model.PolicyGraph) error {
	buf := &bytes.Buffer{}
	if err := Encode(buf, graph); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Load deserializes the artifact at path and compiles it into an
// inference-ready network. This is the single deserialization entry point the
// adapter uses at start time.
func Load(path string) (*nn.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	graph, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	net, err := nn.Compile(graph)
	if err != nil {
		return nil, fmt.Errorf("compile artifact %s: %w", path, err)
	}
	return net, nil
}
