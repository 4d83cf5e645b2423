// Package tiller is the public facade over the policy inference block. Hosts
// embed a Block, drive it through Configure, Start, Step, and Terminate, and
// receive every failure as a Fault status rather than a panic.
package tiller

import (
	"context"

	"tiller/internal/block"
)

// Core lifecycle types re-exported for embedding hosts.
type (
	Block     = block.Block
	Config    = block.Config
	Port      = block.Port
	State     = block.State
	Fault     = block.Fault
	FaultKind = block.FaultKind
)

const (
	Unconfigured = block.Unconfigured
	Configured   = block.Configured
	Started      = block.Started
	Running      = block.Running
	Terminated   = block.Terminated
	Faulted      = block.Faulted
)

const (
	InvalidConfiguration = block.InvalidConfiguration
	ArtifactLoadError    = block.ArtifactLoadError
	ModelNotLoaded       = block.ModelNotLoaded
	DimensionMismatch    = block.DimensionMismatch
	InferenceFault       = block.InferenceFault
)

// MaxDiagnosticLen bounds the diagnostic text carried by any Fault.
const MaxDiagnosticLen = block.MaxDiagnosticLen

func New() *Block {
	return block.New()
}

// IsKind reports whether err is a Fault of the given kind.
func IsKind(err error, kind FaultKind) bool {
	return block.IsKind(err, kind)
}

// Open configures and starts a block in one call for hosts that already know
// their declared parameters. The caller owns the returned block and must call
// Terminate when the run ends.
func Open(ctx context.Context, artifactPath string, obsWidth, actWidth int) (*Block, error) {
	b := block.New()
	if err := b.Configure(block.Config{ArtifactPath: artifactPath, ObsWidth: obsWidth, ActWidth: actWidth}); err != nil {
		return nil, err
	}
	if err := b.Start(ctx); err != nil {
		return nil, err
	}
	return b, nil
}
