package block

import (
	"errors"
	"fmt"
)

// FaultKind classifies every failure the block can surface to its host.
type FaultKind int

const (
	// InvalidConfiguration: non-positive declared widths, or Configure
	// called out of order.
	InvalidConfiguration FaultKind = iota
	// ArtifactLoadError: artifact path empty, unreadable, or not a valid
	// serialized policy.
	ArtifactLoadError
	// ModelNotLoaded: Step invoked while the storage slot is empty.
	ModelNotLoaded
	// DimensionMismatch: the policy produced fewer values than the declared
	// action width, or a host buffer does not match its declared port width.
	DimensionMismatch
	// InferenceFault: any other runtime failure during the forward pass.
	InferenceFault
)

func (k FaultKind) String() string {
	switch k {
	case InvalidConfiguration:
		return "invalid_configuration"
	case ArtifactLoadError:
		return "artifact_load_error"
	case ModelNotLoaded:
		return "model_not_loaded"
	case DimensionMismatch:
		return "dimension_mismatch"
	case InferenceFault:
		return "inference_fault"
	default:
		return fmt.Sprintf("fault_kind(%d)", int(k))
	}
}

// MaxDiagnosticLen bounds the diagnostic text carried by a fault so error
// paths never allocate unbounded strings.
const MaxDiagnosticLen = 512

// Fault is the status value returned across the block/host boundary in place
// of an exception or panic. Each fault carries its own diagnostic; nothing is
// shared between calls or instances.
type Fault struct {
	kind       FaultKind
	diagnostic string
}

func newFault(kind FaultKind, format string, args ...any) *Fault {
	return &Fault{kind: kind, diagnostic: truncateDiagnostic(fmt.Sprintf(format, args...))}
}

func truncateDiagnostic(s string) string {
	if len(s) <= MaxDiagnosticLen {
		return s
	}
	cut := MaxDiagnosticLen
	// Back off to a rune boundary so truncation never corrupts the text.
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.kind, f.diagnostic)
}

func (f *Fault) Kind() FaultKind {
	return f.kind
}

func (f *Fault) Diagnostic() string {
	return f.diagnostic
}

// IsKind reports whether err is a *Fault of the given kind.
func IsKind(err error, kind FaultKind) bool {
	var f *Fault
	return errors.As(err, &f) && f.kind == kind
}
