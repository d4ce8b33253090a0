package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownScenario is returned by New for names that were never registered.
var ErrUnknownScenario = errors.New("unknown scenario")

// Constructor builds a fresh scenario value. Each call must return a new
// value so callers can adjust it without affecting later runs.
type Constructor func() *Scenario

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register registers a named scenario constructor. Name is lower-cased
// internally. Calling Register with the same name overwrites the previous
// constructor.
func Register(name string, ctor Constructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// New constructs the named scenario. It returns an error wrapping
// ErrUnknownScenario if the name has not been registered.
func New(name string) (*Scenario, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	mu.RLock()
	ctor, ok := registry[key]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("%w %q: available scenarios=%v", ErrUnknownScenario, name, List())
	}

	sc := ctor()
	if sc == nil {
		return nil, fmt.Errorf("scenario %q: constructor returned nil", name)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// List returns the registered scenario names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
