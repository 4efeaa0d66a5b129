// Package models provides the architectures that can be trained: ConvLSTM, LSTM, and CNN. Each is
// registered by name, and constructed from a configuration with New.
package models

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/initializers"
)

// Constructor builds a Model from the configuration. The weights of its convolutional, recurrent
// and linear layers are set by init, drawing from rng.
type Constructor func(cfg *config.Config, init bs.Initializer, rng *rand.Rand) (bs.Model, error)

var (
	registerMux  sync.Mutex
	constructors = make(map[string]Constructor)
)

func init() {
	list := map[string]Constructor{
		"ConvLSTM": NewConvLSTM,
		"LSTM":     NewLSTM,
		"CNN":      NewCNN,
	}

	for s, f := range list {
		if err := Register(s, f); err != nil {
			panic(err.Error())
		}
	}
}

// Register makes a Constructor available to New under the given name. It returns an error if the
// name is already taken, or seqtune.ErrRegisterNilReturn if f is nil.
func Register(name string, f Constructor) error {
	registerMux.Lock()
	defer registerMux.Unlock()

	if _, ok := constructors[name]; ok {
		return errors.Errorf("Model with name %q has already been registered", name)
	} else if f == nil {
		return bs.ErrRegisterNilReturn
	}

	constructors[name] = f
	return nil
}

// Names returns the sorted names of every registered Model.
func Names() []string {
	registerMux.Lock()
	defer registerMux.Unlock()

	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}

	sort.Strings(names)
	return names
}

// New constructs the Model named by cfg.Model, with the Initializer named by cfg.Initializer. An
// unknown model name gives seqtune.ErrUnknownModel before anything else is done.
func New(cfg *config.Config, rng *rand.Rand) (bs.Model, error) {
	registerMux.Lock()
	f, ok := constructors[cfg.Model]
	registerMux.Unlock()

	if !ok {
		return nil, bs.ErrUnknownModel(cfg.Model)
	}

	init, err := initializers.ByName(cfg.Initializer, cfg.InitScale)
	if err != nil {
		return nil, err
	}

	return f(cfg, init, rng)
}
