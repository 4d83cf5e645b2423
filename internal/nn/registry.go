package nn

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	ErrActivationExists   = errors.New("activation already registered")
	ErrActivationNotFound = errors.New("activation not found")
)

// ActivationFunc operates on the runtime's native float32 representation.
type ActivationFunc func(x float32) float32

// ActivationSpec registers an activation under both a name (used by the JSON
// descriptor and the graph model) and a stable wire ID (used by the binary
// artifact codec).
type ActivationSpec struct {
	Name string
	ID   uint8
	Func ActivationFunc
}

var activationRegistry = struct {
	mu     sync.RWMutex
	byName map[string]ActivationSpec
	byID   map[uint8]ActivationSpec
}{
	byName: make(map[string]ActivationSpec),
	byID:   make(map[uint8]ActivationSpec),
}

func init() {
	initializeBuiltInActivations()
}

func initializeBuiltInActivations() {
	MustRegisterActivation(ActivationSpec{Name: "identity", ID: 0, Func: func(x float32) float32 { return x }})
	MustRegisterActivation(ActivationSpec{Name: "relu", ID: 1, Func: func(x float32) float32 {
		if x < 0 {
			return 0
		}
		return x
	}})
	MustRegisterActivation(ActivationSpec{Name: "tanh", ID: 2, Func: func(x float32) float32 {
		return float32(math.Tanh(float64(x)))
	}})
	MustRegisterActivation(ActivationSpec{Name: "sigmoid", ID: 3, Func: func(x float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(-float64(x))))
	}})
}

func RegisterActivation(spec ActivationSpec) error {
	if spec.Name == "" {
		return errors.New("activation name is required")
	}
	if spec.Func == nil {
		return errors.New("activation function is required")
	}

	activationRegistry.mu.Lock()
	defer activationRegistry.mu.Unlock()

	if _, exists := activationRegistry.byName[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrActivationExists, spec.Name)
	}
	if _, exists := activationRegistry.byID[spec.ID]; exists {
		return fmt.Errorf("%w: id=%d", ErrActivationExists, spec.ID)
	}

	activationRegistry.byName[spec.Name] = spec
	activationRegistry.byID[spec.ID] = spec
	return nil
}

func MustRegisterActivation(spec ActivationSpec) {
	if err := RegisterActivation(spec); err != nil {
		panic(err)
	}
}

func GetActivation(name string) (ActivationFunc, error) {
	activationRegistry.mu.RLock()
	spec, ok := activationRegistry.byName[name]
	activationRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	return spec.Func, nil
}

// ActivationID resolves the wire ID for a named activation.
func ActivationID(name string) (uint8, error) {
	activationRegistry.mu.RLock()
	spec, ok := activationRegistry.byName[name]
	activationRegistry.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
	}
	return spec.ID, nil
}

// ActivationName resolves the registered name for a wire ID.
func ActivationName(id uint8) (string, error) {
	activationRegistry.mu.RLock()
	spec, ok := activationRegistry.byID[id]
	activationRegistry.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: id=%d", ErrActivationNotFound, id)
	}
	return spec.Name, nil
}

func ListActivations() []string {
	activationRegistry.mu.RLock()
	defer activationRegistry.mu.RUnlock()

	names := make([]string, 0, len(activationRegistry.byName))
	for name := range activationRegistry.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetActivationRegistryForTests() {
	activationRegistry.mu.Lock()
	activationRegistry.byName = make(map[string]ActivationSpec)
	activationRegistry.byID = make(map[uint8]ActivationSpec)
	activationRegistry.mu.Unlock()
	initializeBuiltInActivations()
}
