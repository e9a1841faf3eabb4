package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads threshold overrides from a YAML (or JSON) file and
// merges them onto the defaults. Keys absent from the file keep their
// default value. On any error the defaults are returned alongside the error
// so callers can warn and carry on.
func LoadFromFile(path string) (Thresholds, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return Defaults(), fmt.Errorf("read thresholds file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &t); err != nil {
		return Defaults(), fmt.Errorf("parse thresholds file %s: %w", path, err)
	}

	if err := t.Validate(); err != nil {
		return Defaults(), fmt.Errorf("validate thresholds file %s: %w", path, err)
	}

	return t, nil
}
