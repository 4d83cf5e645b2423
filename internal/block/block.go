// Package block implements the policy inference block: the lifecycle shim and
// inference adapter that bind a loaded policy artifact to a step-based
// simulation host. The host drives one block through a fixed callback
// sequence (Configure, Start, Step per tick, Terminate); the block translates
// every internal failure into a *Fault status instead of letting a panic
// cross the boundary.
package block

import (
	"context"
	"fmt"

	"tiller/internal/artifact"
	"tiller/internal/nn"
)

// State tracks the block through the host callback protocol. Faulted is
// absorbing for configuration and start failures; per-tick step faults leave
// the block serviceable.
type State int

const (
	Unconfigured State = iota
	Configured
	Started
	Running
	Terminated
	Faulted
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Started:
		return "started"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the three declared parameters, fixed at Configure time and
// immutable for the run.
type Config struct {
	ArtifactPath string
	ObsWidth     int
	ActWidth     int
}

// Port describes one signal channel declared at Configure time.
type Port struct {
	Width             int
	DirectFeedthrough bool
}

// Block owns one loaded policy artifact for the lifetime of one
// configure-to-terminate cycle. It is not safe for concurrent use; the host
// contract serializes all calls on one instance.
type Block struct {
	state State
	cfg   Config

	in  Port
	out Port

	// handle is the single opaque storage slot. It is set only in Start and
	// cleared only in Terminate (or on a failed Start), so no other path can
	// observe a dangling policy.
	handle *nn.Network
	fwd    *nn.ForwardState
	obsF32 []float32
}

func New() *Block {
	return &Block{state: Unconfigured}
}

// Configure validates the declared parameters and reserves the storage slot.
// The artifact path is not checked here: the host may wire the block before
// the artifact exists on disk, so path problems surface at Start.
func (b *Block) Configure(cfg Config) error {
	if b.state != Unconfigured {
		return newFault(InvalidConfiguration, "configure called in state %s", b.state)
	}
	if cfg.ObsWidth <= 0 {
		return b.fail(newFault(InvalidConfiguration, "observation width must be positive: %d", cfg.ObsWidth))
	}
	if cfg.ActWidth <= 0 {
		return b.fail(newFault(InvalidConfiguration, "action width must be positive: %d", cfg.ActWidth))
	}

	b.cfg = cfg
	b.in = Port{Width: cfg.ObsWidth, DirectFeedthrough: true}
	b.out = Port{Width: cfg.ActWidth}
	b.handle = nil
	b.state = Configured
	return nil
}

// Start deserializes the artifact into the reserved slot and binds it for
// inference. On failure the slot is reset to empty and the block faults.
func (b *Block) Start(ctx context.Context) error {
	if b.state != Configured {
		return b.fail(newFault(InvalidConfiguration, "start called in state %s", b.state))
	}
	if err := ctx.Err(); err != nil {
		return b.fail(newFault(ArtifactLoadError, "start canceled: %v", err))
	}
	if b.cfg.ArtifactPath == "" {
		b.handle = nil
		return b.fail(newFault(ArtifactLoadError, "artifact path is empty"))
	}

	net, fault := b.load()
	if fault != nil {
		b.handle = nil
		return b.fail(fault)
	}

	b.handle = net
	b.fwd = net.NewForwardState()
	b.obsF32 = make([]float32, b.cfg.ObsWidth)
	b.state = Started
	return nil
}

// load deserializes the artifact with panic containment: a corrupt artifact
// that panics the decoder surfaces as an ArtifactLoadError status, never as a
// panic across the host boundary.
func (b *Block) load() (net *nn.Network, fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			net = nil
			fault = newFault(ArtifactLoadError, "artifact load panic: %v", r)
		}
	}()

	loaded, err := artifact.Load(b.cfg.ArtifactPath)
	if err != nil {
		return nil, newFault(ArtifactLoadError, "load policy artifact: %v", err)
	}
	return loaded, nil
}

// Step marshals one observation vector into the policy, runs the forward
// pass, and writes the first ActWidth outputs into act. On any fault act is
// left untouched. The call performs no I/O and no heap allocation beyond the
// buffers reserved at Start.
func (b *Block) Step(obs []float64, act []float64) error {
	if b.state != Started && b.state != Running {
		return newFault(ModelNotLoaded, "step called in state %s", b.state)
	}
	if b.handle == nil {
		return newFault(ModelNotLoaded, "policy not loaded")
	}
	if len(obs) != b.cfg.ObsWidth {
		return newFault(DimensionMismatch, "observation buffer width mismatch: got=%d want=%d", len(obs), b.cfg.ObsWidth)
	}
	if len(act) != b.cfg.ActWidth {
		return newFault(DimensionMismatch, "action buffer width mismatch: got=%d want=%d", len(act), b.cfg.ActWidth)
	}
	b.state = Running

	// Narrow to the runtime's float32 representation. Deliberate precision
	// loss; the policy was trained in float32.
	for i := range obs {
		b.obsF32[i] = float32(obs[i])
	}

	out, fault := b.infer()
	if fault != nil {
		return fault
	}
	if len(out) < b.cfg.ActWidth {
		return newFault(DimensionMismatch, "policy produced %d values, action width is %d", len(out), b.cfg.ActWidth)
	}

	for i := 0; i < b.cfg.ActWidth; i++ {
		act[i] = float64(out[i])
	}
	return nil
}

// infer runs the forward pass with panic containment: a panicking runtime is
// converted to an InferenceFault status, never propagated to the host.
func (b *Block) infer() (out []float32, fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			fault = newFault(InferenceFault, "inference panic: %v", r)
		}
	}()

	result, err := b.handle.Forward(b.fwd, b.obsF32)
	if err != nil {
		return nil, newFault(InferenceFault, "inference failed: %v", err)
	}
	return result, nil
}

// Terminate releases the slot contents and resets it to empty. It is
// idempotent and always succeeds, including after a fault, so resources are
// reclaimed even on abnormal simulation termination.
func (b *Block) Terminate() {
	b.handle = nil
	b.fwd = nil
	b.obsF32 = nil
	b.state = Terminated
}

func (b *Block) State() State {
	return b.state
}

// InputPort reports the observation channel declared at Configure time.
func (b *Block) InputPort() Port {
	return b.in
}

// OutputPort reports the action channel declared at Configure time.
func (b *Block) OutputPort() Port {
	return b.out
}

// Config returns the declared parameters.
func (b *Block) Config() Config {
	return b.cfg
}

func (b *Block) fail(f *Fault) error {
	b.state = Faulted
	return f
}
