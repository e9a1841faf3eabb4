// Package budget defines the monthly spend ledger model: the activity price
// catalog, the per-month budget state and its projections.
package budget

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidActivityKey is returned for activity keys that are malformed
// (not "<category>.<item>") or absent from the price table.
var ErrInvalidActivityKey = errors.New("invalid activity key")

// Activity categories known to the default catalog.
const (
	CategoryContent    = "content"
	CategoryTechnical  = "technical"
	CategoryLocalSEO   = "local_seo"
	CategoryMonitoring = "monitoring"
)

// PriceTable maps category -> item -> unit price in USD.
type PriceTable map[string]map[string]float64

// DefaultPrices returns the built-in activity catalog.
func DefaultPrices() PriceTable {
	return PriceTable{
		CategoryContent: {
			"word":  0.02, // per generated word
			"image": 0.10,
			"edit":  0.05, // per edited word
		},
		CategoryTechnical: {
			"audit": 50.0,
			"fix":   5.0,
		},
		CategoryLocalSEO: {
			"gmb_post": 1.0,
			"citation": 2.0,
		},
		CategoryMonitoring: {
			"daily":  0.50,
			"report": 5.0,
		},
	}
}

// ParseActivity splits "<category>.<item>" into its parts.
func ParseActivity(key string) (category, item string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidActivityKey, key)
	}
	return parts[0], parts[1], nil
}

// UnitPrice returns the configured price for one unit of the activity.
func (t PriceTable) UnitPrice(key string) (float64, error) {
	category, item, err := ParseActivity(key)
	if err != nil {
		return 0, err
	}
	items, ok := t[category]
	if !ok {
		return 0, fmt.Errorf("%w: unknown category %q", ErrInvalidActivityKey, category)
	}
	price, ok := items[item]
	if !ok {
		return 0, fmt.Errorf("%w: unknown item %q in %q", ErrInvalidActivityKey, item, category)
	}
	return price, nil
}

// PriceOf returns unit price × quantity. Fractional quantities are accepted;
// negative ones are not.
func (t PriceTable) PriceOf(key string, quantity float64) (float64, error) {
	price, err := t.UnitPrice(key)
	if err != nil {
		return 0, err
	}
	if quantity < 0 || math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return 0, fmt.Errorf("%w: quantity %v for %q", ErrInvalidActivityKey, quantity, key)
	}
	return price * quantity, nil
}

// Keys returns all "<category>.<item>" keys sorted alphabetically.
func (t PriceTable) Keys() []string {
	var keys []string
	for category, items := range t {
		for item := range items {
			keys = append(keys, category+"."+item)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the table.
func (t PriceTable) Clone() PriceTable {
	out := make(PriceTable, len(t))
	for category, items := range t {
		cp := make(map[string]float64, len(items))
		for item, price := range items {
			cp[item] = price
		}
		out[category] = cp
	}
	return out
}

// Merge returns a copy of t with every price in overrides applied on top.
func (t PriceTable) Merge(overrides PriceTable) PriceTable {
	out := t.Clone()
	for category, items := range overrides {
		if out[category] == nil {
			out[category] = make(map[string]float64, len(items))
		}
		for item, price := range items {
			out[category][item] = price
		}
	}
	return out
}

// Validate rejects negative or non-finite prices.
func (t PriceTable) Validate() error {
	for category, items := range t {
		if category == "" || strings.Contains(category, ".") {
			return fmt.Errorf("invalid category name %q", category)
		}
		for item, price := range items {
			if item == "" || strings.Contains(item, ".") {
				return fmt.Errorf("invalid item name %q in %q", item, category)
			}
			if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
				return fmt.Errorf("price for %s.%s must be a non-negative number", category, item)
			}
		}
	}
	return nil
}

// LoadPrices reads price overrides from a YAML (or JSON) file and merges them
// over the defaults. On any error the defaults are returned together with
// the error so callers can log and continue.
func LoadPrices(path string) (PriceTable, error) {
	defaults := DefaultPrices()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return defaults, fmt.Errorf("read prices %s: %w", path, err)
	}

	var overrides PriceTable
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return defaults, fmt.Errorf("parse prices %s: %w", path, err)
	}
	if err := overrides.Validate(); err != nil {
		return defaults, fmt.Errorf("validate prices %s: %w", path, err)
	}

	return defaults.Merge(overrides), nil
}
