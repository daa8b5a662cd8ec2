// Package delivery holds the neighborhood delivery fee table.
package delivery

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"zeendr/assets"
	"zeendr/internal/core"
)

// Zone is one neighborhood and the fee charged to deliver there.
type Zone struct {
	Name string  `yaml:"name" json:"barrio"`
	Fee  float64 `yaml:"fee" json:"costo"`
}

type file struct {
	DefaultFee float64 `yaml:"default_fee"`
	Zones      []Zone  `yaml:"zones"`
}

// Table maps neighborhoods to delivery fees. Lookups ignore case and
// surrounding spaces. It is read-only after construction.
type Table struct {
	zones      []Zone
	fees       map[string]core.Money
	defaultFee core.Money
}

// Parse builds a table from YAML.
func Parse(data []byte) (*Table, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse delivery zones: %w", err)
	}
	t := &Table{
		fees:       make(map[string]core.Money, len(f.Zones)),
		defaultFee: core.MoneyFromFloat(f.DefaultFee),
	}
	for _, z := range f.Zones {
		key := z.Name
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("parse delivery zones: zone with empty name")
		}
		if z.Fee < 0 {
			return nil, fmt.Errorf("parse delivery zones: negative fee for %q", z.Name)
		}
		if _, dup := t.fees[key]; dup {
			return nil, fmt.Errorf("parse delivery zones: duplicate zone %q", z.Name)
		}
		t.fees[key] = core.MoneyFromFloat(z.Fee)
		t.zones = append(t.zones, z)
	}
	sort.Slice(t.zones, func(i, j int) bool { return t.zones[i].Name < t.zones[j].Name })
	return t, nil
}

// Load reads the table from path, or the embedded default when path is empty.
func Load(path string) (*Table, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read delivery zones: %w", err)
	}
	return Parse(data)
}

// Default returns the table shipped with the binary.
func Default() (*Table, error) {
	return Parse(assets.DeliveryZonesYAML)
}

// Fee returns the fee for a neighborhood, matched exactly as stored on the
// order. Unknown neighborhoods cost nothing; reports rely on this silent
// fallback.
func (t *Table) Fee(barrio string) core.Money {
	if t == nil {
		return core.Money{}
	}
	return t.fees[barrio]
}

// Lookup is like Fee but reports whether the neighborhood is known.
func (t *Table) Lookup(barrio string) (core.Money, bool) {
	if t == nil {
		return core.Money{}, false
	}
	fee, ok := t.fees[barrio]
	return fee, ok
}

// FeeOrDefault is used when pricing new orders: known neighborhoods get
// their fee, anything else the table default.
func (t *Table) FeeOrDefault(barrio string) core.Money {
	if fee, ok := t.Lookup(barrio); ok {
		return fee
	}
	if t == nil {
		return core.Money{}
	}
	return t.defaultFee
}

// Zones lists the known neighborhoods sorted by name.
func (t *Table) Zones() []Zone {
	if t == nil {
		return nil
	}
	return append([]Zone(nil), t.zones...)
}
