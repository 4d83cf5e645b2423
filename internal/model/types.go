package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// PolicyGraph is the in-memory form of a serialized policy artifact: a stack
// of dense layers applied in order to a fixed-width float32 input vector.
type PolicyGraph struct {
	InWidth int     `json:"in_width"`
	Layers  []Layer `json:"layers"`
}

// Layer holds the parameters of one dense layer. Weights are row-major with
// one row per output unit, so len(Weights) = OutWidth * layer input width and
// len(Biases) = OutWidth.
type Layer struct {
	OutWidth   int       `json:"out_width"`
	Activation string    `json:"activation"`
	Weights    []float32 `json:"weights"`
	Biases     []float32 `json:"biases"`
}

// OutWidth reports the width of the vector the graph produces, which is the
// out width of the final layer. A graph with no layers passes its input
// through unchanged.
func (g PolicyGraph) OutWidth() int {
	if len(g.Layers) == 0 {
		return g.InWidth
	}
	return g.Layers[len(g.Layers)-1].OutWidth
}

// RunRecord summarizes one configure-to-terminate cycle driven by the host
// harness.
type RunRecord struct {
	VersionedRecord
	ID           string `json:"id"`
	ArtifactPath string `json:"artifact_path"`
	ObsWidth     int    `json:"obs_width"`
	ActWidth     int    `json:"act_width"`
	StartedAtUTC string `json:"started_at_utc"`
	Ticks        int    `json:"ticks"`
	Fault        string `json:"fault,omitempty"`
}

// TickRecord is one recorded step: the observation fed to the policy and the
// action it produced.
type TickRecord struct {
	Tick        int       `json:"tick"`
	Observation []float64 `json:"observation"`
	Action      []float64 `json:"action"`
}
