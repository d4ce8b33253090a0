package browser

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/raysh454/pagecheck/internal/logging"
)

// DefaultDriver is used when no driver name is configured.
const DefaultDriver = "chromedp"

// DriverConstructor constructs a Driver given a logger.
type DriverConstructor func(logger logging.Logger) (Driver, error)

var (
	mu       sync.RWMutex
	registry = map[string]DriverConstructor{}
)

// RegisterDriver registers a named driver constructor. Name is lower-cased
// internally. Calling RegisterDriver with the same name overwrites the
// previous constructor.
func RegisterDriver(name string, ctor DriverConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// NewDriver constructs the named driver backend. An empty name selects
// DefaultDriver. It returns an error wrapping ErrUnknownDriver if the named
// backend has not been registered.
func NewDriver(name string, logger logging.Logger) (Driver, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		backend = DefaultDriver
	}
	if logger == nil {
		logger = logging.Nop{}
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("%w %q: available drivers=%v", ErrUnknownDriver, backend, ListDrivers())
	}

	d, err := ctor(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct browser driver %q: %w", backend, err)
	}
	if d == nil {
		return nil, errors.New("browser driver constructor returned nil")
	}
	return d, nil
}

// ListDrivers returns the registered driver names in sorted order.
func ListDrivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
