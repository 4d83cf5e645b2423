package nn

import (
	"fmt"

	"tiller/internal/model"
)

// Network is an inference-only executor for a compiled policy graph. It has
// no training machinery: weights are frozen at compile time and Forward never
// mutates them, so a failed tick cannot corrupt state observed by later ticks.
type Network struct {
	graph    model.PolicyGraph
	acts     []ActivationFunc
	inWidth  int
	outWidth int
}

// Compile validates a policy graph, resolves its activations, and freezes it
// into an executable network.
func Compile(graph model.PolicyGraph) (*Network, error) {
	if graph.InWidth <= 0 {
		return nil, fmt.Errorf("input width must be positive: %d", graph.InWidth)
	}

	acts := make([]ActivationFunc, len(graph.Layers))
	prevWidth := graph.InWidth
	for i, layer := range graph.Layers {
		if layer.OutWidth <= 0 {
			return nil, fmt.Errorf("layer %d: out width must be positive: %d", i, layer.OutWidth)
		}
		if len(layer.Weights) != layer.OutWidth*prevWidth {
			return nil, fmt.Errorf("layer %d: weight count mismatch: got=%d want=%d", i, len(layer.Weights), layer.OutWidth*prevWidth)
		}
		if len(layer.Biases) != layer.OutWidth {
			return nil, fmt.Errorf("layer %d: bias count mismatch: got=%d want=%d", i, len(layer.Biases), layer.OutWidth)
		}
		fn, err := GetActivation(layer.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		acts[i] = fn
		prevWidth = layer.OutWidth
	}

	return &Network{
		graph:    graph,
		acts:     acts,
		inWidth:  graph.InWidth,
		outWidth: graph.OutWidth(),
	}, nil
}

func (n *Network) InputWidth() int {
	return n.inWidth
}

func (n *Network) OutputWidth() int {
	return n.outWidth
}

// Graph returns a copy of the compiled graph with shared parameter slices.
// Callers must treat the returned weights and biases as read-only.
func (n *Network) Graph() model.PolicyGraph {
	graph := n.graph
	graph.Layers = append([]model.Layer(nil), n.graph.Layers...)
	return graph
}

// ForwardState holds the per-layer activation buffers for one network. All
// buffers are allocated up front so repeated Forward calls allocate nothing.
type ForwardState struct {
	buffers [][]float32
}

// NewForwardState allocates the scratch buffers Forward needs. One state must
// not be shared across concurrent Forward calls.
func (n *Network) NewForwardState() *ForwardState {
	buffers := make([][]float32, len(n.graph.Layers))
	for i, layer := range n.graph.Layers {
		buffers[i] = make([]float32, layer.OutWidth)
	}
	return &ForwardState{buffers: buffers}
}

// Forward runs the network on in and returns the output vector. The returned
// slice aliases the state's final buffer and is overwritten by the next call.
func (n *Network) Forward(state *ForwardState, in []float32) ([]float32, error) {
	if state == nil {
		return nil, fmt.Errorf("forward state is required")
	}
	if len(state.buffers) != len(n.graph.Layers) {
		return nil, fmt.Errorf("forward state layer mismatch: got=%d want=%d", len(state.buffers), len(n.graph.Layers))
	}
	if len(in) != n.inWidth {
		return nil, fmt.Errorf("input width mismatch: got=%d want=%d", len(in), n.inWidth)
	}

	current := in
	for li, layer := range n.graph.Layers {
		out := state.buffers[li]
		act := n.acts[li]
		for row := 0; row < layer.OutWidth; row++ {
			total := layer.Biases[row]
			base := row * len(current)
			for col := 0; col < len(current); col++ {
				total += layer.Weights[base+col] * current[col]
			}
			out[row] = act(total)
		}
		current = out
	}

	return current, nil
}
