package seqtune

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var (
	registerMux   sync.Mutex
	costFunctions = make(map[string]func() CostFunction)
	optimizers    = make(map[string]func() Optimizer)

	defaultOptimizer func() Optimizer
)

// RegisterCostFunction makes a CostFunction available by name, for use in configuration. It
// returns an error if the name has already been registered, or ErrRegisterNilReturn if f returns
// nil.
func RegisterCostFunction(name string, f func() CostFunction) error {
	registerMux.Lock()
	defer registerMux.Unlock()

	if _, ok := costFunctions[name]; ok {
		return errors.Errorf("Cost function with name %q has already been registered", name)
	} else if f == nil || f() == nil {
		return ErrRegisterNilReturn
	}

	costFunctions[name] = f
	return nil
}

// RegisterOptimizer makes an Optimizer available by name. It has the same constraints as
// RegisterCostFunction.
func RegisterOptimizer(name string, f func() Optimizer) error {
	registerMux.Lock()
	defer registerMux.Unlock()

	if _, ok := optimizers[name]; ok {
		return errors.Errorf("Optimizer with name %q has already been registered", name)
	} else if f == nil || f() == nil {
		return ErrRegisterNilReturn
	}

	optimizers[name] = f
	return nil
}

// SetDefaultOptimizer sets the Optimizer returned by GetOptimizer for an empty name.
func SetDefaultOptimizer(f func() Optimizer) {
	registerMux.Lock()
	defer registerMux.Unlock()

	defaultOptimizer = f
}

// GetCostFunction returns a new instance of the CostFunction registered under the given name. An
// unknown name is a *ConfigError.
func GetCostFunction(name string) (CostFunction, error) {
	registerMux.Lock()
	defer registerMux.Unlock()

	f, ok := costFunctions[name]
	if !ok {
		return nil, &ConfigError{Field: "cost", Value: name, Reason: "No cost function with that name"}
	}

	return f(), nil
}

// GetOptimizer returns a new instance of the Optimizer registered under the given name, or the
// default if the name is empty. An unknown name is a *ConfigError.
func GetOptimizer(name string) (Optimizer, error) {
	registerMux.Lock()
	defer registerMux.Unlock()

	if name == "" && defaultOptimizer != nil {
		return defaultOptimizer(), nil
	}

	f, ok := optimizers[name]
	if !ok {
		return nil, &ConfigError{Field: "optimizer", Value: name, Reason: "No optimizer with that name"}
	}

	return f(), nil
}

// CostFunctions returns the sorted names of every registered CostFunction.
func CostFunctions() []string {
	return sortedKeys(costFunctions)
}

// Optimizers returns the sorted names of every registered Optimizer.
func Optimizers() []string {
	return sortedKeys(optimizers)
}

func sortedKeys[T any](m map[string]T) []string {
	registerMux.Lock()
	defer registerMux.Unlock()

	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}

	sort.Strings(names)
	return names
}
