package artifact

import "tiller/internal/model"

// IdentityGraph builds a single-layer policy that returns its input
// unchanged. Used for wiring checks and numeric fidelity tests.
func IdentityGraph(width int) model.PolicyGraph {
	weights := make([]float32, width*width)
	for i := 0; i < width; i++ {
		weights[i*width+i] = 1
	}
	return model.PolicyGraph{
		InWidth: width,
		Layers: []model.Layer{
			{OutWidth: width, Activation: "identity", Weights: weights, Biases: make([]float32, width)},
		},
	}
}

// SumGraph builds a single-layer policy mapping an inWidth-vector to the
// scalar sum of its elements.
func SumGraph(inWidth int) model.PolicyGraph {
	weights := make([]float32, inWidth)
	for i := range weights {
		weights[i] = 1
	}
	return model.PolicyGraph{
		InWidth: inWidth,
		Layers: []model.Layer{
			{OutWidth: 1, Activation: "identity", Weights: weights, Biases: []float32{0}},
		},
	}
}
