// Package secrets resolves credentials from the environment or from files
// mounted by an orchestrator, so they never have to live in the YAML config.
package secrets

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
)

// Loader retrieves secrets from a source.
type Loader func() (map[string]string, error)

// Vault holds resolved secret values.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewVault creates a Vault populated by loader.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	if vals == nil {
		vals = map[string]string{}
	}
	return &Vault{values: vals}, nil
}

// Get returns the secret for key, or an empty string if not found.
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Keys returns the names of the resolved secrets, sorted.
func (v *Vault) Keys() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Sorted(maps.Keys(v.values))
}

// EnvLoader reads the given environment variables. Unset variables are
// omitted.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// FileLoader reads KEY from the file named by the KEY_FILE environment
// variable, the convention for Docker and Kubernetes secrets. Trailing
// newlines are trimmed. A named file that cannot be read is an error.
func FileLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			path := os.Getenv(k + "_FILE")
			if path == "" {
				continue
			}
			data, err := os.ReadFile(path) //nolint:gosec // path comes from operator environment
			if err != nil {
				return nil, fmt.Errorf("%s_FILE: %w", k, err)
			}
			if v := strings.TrimRight(string(data), "\r\n"); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// Chain merges loaders in order; later loaders win.
func Chain(loaders ...Loader) Loader {
	return func() (map[string]string, error) {
		out := map[string]string{}
		for _, l := range loaders {
			vals, err := l()
			if err != nil {
				return nil, err
			}
			maps.Copy(out, vals)
		}
		return out, nil
	}
}
