package notifier

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Factory builds a Notifier from flat settings. It returns ErrNotConfigured
// when the settings do not enable the provider.
type Factory func(settings map[string]string) (Notifier, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a notifier factory available by name.
// It is typically called from an init() function in the adapter package.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("notifier: duplicate registration for %q", name))
	}
	factories[name] = factory
}

// New creates a Notifier by name using the registered factory.
func New(name string, settings map[string]string) (Notifier, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("notifier: unknown provider %q", name)
	}
	return factory(settings)
}

// Available returns the names of all registered notifiers in sorted order.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configured builds every registered notifier whose settings are present.
// Providers reporting ErrNotConfigured are skipped; other errors are
// returned by name so the caller can log them.
func Configured(settings map[string]map[string]string) ([]Notifier, map[string]error) {
	var out []Notifier
	failed := make(map[string]error)
	for _, name := range Available() {
		n, err := New(name, settings[name])
		switch {
		case errors.Is(err, ErrNotConfigured):
		case err != nil:
			failed[name] = err
		default:
			out = append(out, n)
		}
	}
	return out, failed
}
